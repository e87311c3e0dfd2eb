package barcode

import (
	"regexp"
	"strings"

	"github.com/campusfreestore/freestore-backend/pkg/errors"
)

// Kind is the recognized barcode shape.
type Kind string

const (
	KindUPCA    Kind = "upc_a"
	KindUPCE    Kind = "upc_e"
	KindUUID    Kind = "uuid"
	KindInvalid Kind = "invalid"
)

// UPC-A is 12 digits SLLLLLRRRRRC: S the number system digit, L/R the code
// halves, C the check digit. Number system 2 marks variable-weight items where
// the right half carries scale-printed price or weight. UPC-E is 8 digits.
// 32-hex codes are our own fallback labels for items with no printed barcode.
var (
	upcARe = regexp.MustCompile(`^\d{12}$`)
	upcERe = regexp.MustCompile(`^\d{8}$`)
	uuidRe = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
)

// variableWeightSystem is the number system digit reserved for in-store
// variable-weight labels.
const variableWeightSystem = '2'

// Classify reports which of the supported shapes the code matches. The shapes
// are mutually exclusive by length, so the categories partition the input space.
func Classify(code string) Kind {
	switch {
	case upcARe.MatchString(code):
		return KindUPCA
	case upcERe.MatchString(code):
		return KindUPCE
	case uuidRe.MatchString(code):
		return KindUUID
	default:
		return KindInvalid
	}
}

// Validate checks the code against the supported shapes. UPC-E and UUID codes
// get a structural check only. UPC-A codes additionally have their check digit
// verified, except number-system-2 labels: scales print a local price-check
// digit in the middle positions, so the standard mod-10 scheme does not hold
// for them in the wild.
func Validate(code string) error {
	switch Classify(code) {
	case KindUPCA:
		if code[0] == variableWeightSystem {
			return nil
		}
		if checkDigit(code[:11]) != int(code[11]-'0') {
			return errors.New(errors.CodeValidation, "barcode check digit mismatch").
				WithDetails(map[string]any{"barcode": code})
		}
		return nil
	case KindUPCE, KindUUID:
		return nil
	default:
		return errors.New(errors.CodeValidation,
			"scanned code does not match UPC-A (12 digit), UPC-E (8 digit), or an item label")
	}
}

// Normalize maps every scale-printed label of one variable-weight item to a
// single stable key: for number-system-2 UPC-A codes the price/weight digits
// (positions 7..11) are zeroed and the check digit is recomputed over the
// zeroed body. All other codes pass through unchanged. Idempotent.
func Normalize(code string) string {
	if Classify(code) != KindUPCA || code[0] != variableWeightSystem {
		return code
	}
	body := code[:6] + "00000"
	var b strings.Builder
	b.WriteString(body)
	b.WriteByte(byte('0' + checkDigit(body)))
	return b.String()
}

// checkDigit computes the UPC-A check digit for an 11-digit body.
func checkDigit(body string) int {
	sum := 0
	for i, r := range body {
		d := int(r - '0')
		if i%2 == 0 {
			sum += 3 * d
		} else {
			sum += d
		}
	}
	return (10 - sum%10) % 10
}
