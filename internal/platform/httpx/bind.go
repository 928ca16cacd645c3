package httpx

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

var validationMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"oneof":    "must be one of: %s",
	"gt":       "must be greater than %s",
	"gte":      "must be at least %s",
	"min":      "must be at least %s characters",
	"max":      "must be at most %s characters",
	"uuid":     "must be a valid id",
	"datetime": "must be a date in YYYY-MM-DD format",
}

// ValidateStruct runs the struct-tag validation rules on s and returns an
// apperr.ValidationError describing the first failing field.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("invalid request")
	}
	return apperr.Validation(formatFieldError(verrs[0]))
}

func formatFieldError(fe validator.FieldError) string {
	msg, ok := validationMessages[fe.Tag()]
	if !ok {
		return fe.Field() + " is invalid"
	}
	if strings.Contains(msg, "%s") {
		param := fe.Param()
		if fe.Tag() == "oneof" {
			param = strings.Join(strings.Fields(param), ", ")
		}
		msg = strings.Replace(msg, "%s", param, 1)
	}
	return fe.Field() + " " + msg
}

// Bind decodes the request into dst and validates it.
func Bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if msg, ok := he.Message.(string); ok {
				return apperr.Validation("%s", msg)
			}
		}
		return apperr.Validation("invalid request body")
	}
	return ValidateStruct(dst)
}

// ParamUUID parses a path parameter as a UUID. An unparseable id is reported
// as not found, since no such resource can exist.
func ParamUUID(c echo.Context, name, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.NotFound(resource)
	}
	return id, nil
}

// QueryUUID parses an optional query parameter as a UUID.
func QueryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be a valid id", name)
	}
	return &id, nil
}
