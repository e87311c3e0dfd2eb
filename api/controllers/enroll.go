package controllers

import (
	"net/http"

	"github.com/campusfreestore/freestore-backend/api/middleware"
	"github.com/campusfreestore/freestore-backend/api/responses"
	"github.com/campusfreestore/freestore-backend/api/validators"
	"github.com/campusfreestore/freestore-backend/internal/enroll"
	pkgerrors "github.com/campusfreestore/freestore-backend/pkg/errors"
	"github.com/campusfreestore/freestore-backend/pkg/logger"
)

func enrollSessionID(r *http.Request) (string, error) {
	sid := middleware.SessionIDFromContext(r.Context())
	if sid == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "session middleware missing")
	}
	return sid, nil
}

// EnrollState returns the wizard's current step for the session.
func EnrollState(svc enroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "enroll service unavailable"))
			return
		}

		sid, err := enrollSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.Current(r.Context(), sid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

func EnrollSelectLocation(svc enroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "enroll service unavailable"))
			return
		}

		sid, err := enrollSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body enroll.SelectLocationInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.SelectLocation(r.Context(), sid, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

func EnrollScan(svc enroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "enroll service unavailable"))
			return
		}

		sid, err := enrollSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body enroll.ScanInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.ScanBarcode(r.Context(), sid, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

func EnrollNewProduct(svc enroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "enroll service unavailable"))
			return
		}

		sid, err := enrollSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body enroll.NewProductInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.AddNewProduct(r.Context(), sid, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

func EnrollQuantity(svc enroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "enroll service unavailable"))
			return
		}

		sid, err := enrollSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body enroll.QuantityInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.AddQuantity(r.Context(), sid, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

func EnrollCancel(svc enroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "enroll service unavailable"))
			return
		}

		sid, err := enrollSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), sid); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}
