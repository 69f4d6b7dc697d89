package validate

import (
	"fmt"
	"strings"

	"erp-backend/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// Struct runs the `validate` tags on a request struct and folds every
// failure into a single ValidationError message.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Validation("invalid request: %v", err)
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return apperr.Validation("invalid request: %s", strings.Join(parts, ", "))
}
