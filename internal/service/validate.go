package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/efreitasn/coursedesk/internal/domain"
	"github.com/go-playground/validator/v10"
)

// validate checks the `validate` struct tags of service requests. Field
// names in messages come from the `label` tag.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	_ = v.RegisterValidation("webhook_event", func(fl validator.FieldLevel) bool {
		return domain.IsWebhookEvent(fl.Field().String())
	})
	return v
}

// validateRequest runs struct validation and converts the first failure
// into a *domain.ValidationError.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &domain.ValidationError{Message: err.Error()}
	}
	return &domain.ValidationError{Message: fieldMessage(fieldErrs[0])}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return field + " must be a non-empty array"
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url", "startswith":
		return field + " must be a valid https URL"
	case "webhook_event":
		return unknownEventMessage(fmt.Sprint(fe.Value()))
	default:
		return field + " is invalid"
	}
}

func unknownEventMessage(event string) string {
	return fmt.Sprintf("Unknown event type: %s. Must be one of: %s", event, strings.Join(domain.WebhookEvents, ", "))
}

// validatePage checks 1-based pagination parameters.
func validatePage(page, limit int) error {
	if page < 1 {
		return &domain.ValidationError{Message: "page must be >= 1"}
	}
	if limit < 1 || limit > 100 {
		return &domain.ValidationError{Message: "limit must be between 1 and 100"}
	}
	return nil
}
