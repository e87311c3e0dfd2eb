package types

// SuccessEnvelope wraps every successful JSON response.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope wraps every error JSON response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// APIError is the public error shape.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
