package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/penshort/budgetdesk/internal/auth"
)

// validate is the package-level validator; custom tags are registered once.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("emailformat", func(fl validator.FieldLevel) bool {
		return auth.ValidEmail(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// decodeJSON reads a JSON body into dst and validates its tags.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return validate.Struct(dst)
}

var errInvalidBody = errors.New("invalid request body")
