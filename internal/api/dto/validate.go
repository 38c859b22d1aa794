package dto

import (
	"errors"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

var validate = validator.New()

// Validate runs struct-tag validation and maps failures to a ValidationError
// with per-field details.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		details := make(map[string]any, len(invalid))
		for _, fieldErr := range invalid {
			details[fieldErr.Field()] = fieldErr.Tag()
		}
		return apperrors.NewValidationError("invalid payload", details)
	}
	return apperrors.NewValidationError("invalid payload", nil)
}
