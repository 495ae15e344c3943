package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/pscheid92/ifthen/internal/platform/errors"
)

// validationError converts validator output into a structured validation
// error carrying one field entry per failed rule.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.InternalError("validation failed", err)
	}

	e := apperrors.ValidationError("invalid input")
	for _, fe := range verrs {
		e = e.WithField(fieldName(fe), ruleMessage(fe))
	}
	return e
}

// fieldName turns "SubmitScenarioRequest.Tags[2]" into "tags[2]".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("must have at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}
