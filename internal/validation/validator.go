// Package validation checks service inputs with go-playground/validator and
// converts failures into coded domain errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/readtrack/readtrack-server/internal/domain"
	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that knows the reading tracker's enum tags:
// book_status, book_source, goal_type, goal_period.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	registerEnum(v, "book_status", func(s string) bool { return domain.BookStatus(s).Valid() })
	registerEnum(v, "book_source", func(s string) bool { return domain.Source(s).Valid() })
	registerEnum(v, "goal_type", func(s string) bool { return domain.GoalType(s).Valid() })
	registerEnum(v, "goal_period", func(s string) bool { return domain.GoalPeriod(s).Valid() })

	return &Validator{v: v}
}

// registerEnum adds a tag accepting string-kinded fields the predicate accepts.
// Empty values pass so the tag composes with omitempty and required.
func registerEnum(v *validator.Validate, tag string, valid func(string) bool) {
	_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.String {
			return false
		}
		return f.String() == "" || valid(f.String())
	})
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must not exceed " + e.Param()
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gtefield":
		return "must be greater than or equal to " + e.Param()
	case "book_status":
		return "must be one of: want-to-read reading paused completed"
	case "book_source":
		return "must be one of: manual kindle"
	case "goal_type":
		return "must be one of: daily-reading books-per-month books-per-year reading-streak pages-per-day"
	case "goal_period":
		return "must be one of: day week month year"
	default:
		return "is invalid"
	}
}
