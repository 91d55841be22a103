package dto

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/AminArria/sponsorly/internal/domain"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9-]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugRegex.MatchString(fl.Field().String())
		})
	}
}

// jsonFieldName reports validation errors under the request's JSON keys
func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// Validate runs the binding rules declared on req, the same rules gin applies
// when it binds a request body.
func Validate(req any) *domain.ValidationError {
	return FieldErrors(binding.Validator.ValidateStruct(req))
}

// FieldErrors converts validator errors into field messages. Any other error
// is reported against "base".
func FieldErrors(err error) *domain.ValidationError {
	verr := domain.NewValidationError()
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("base", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return domain.MsgRequired
	case "min":
		// min=1 keeps optional text fields from being blanked
		return domain.MsgRequired
	case "max":
		return domain.MsgTooLong
	case "gt":
		return domain.MsgPositive
	case "gte":
		return domain.MsgNonNegative
	case "email":
		return domain.MsgInvalidEmail
	case "slug":
		return domain.MsgInvalidSlug
	default:
		return domain.MsgInvalid
	}
}

// trimPtr trims *s in place
func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
