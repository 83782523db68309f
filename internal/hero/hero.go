// Package hero defines the record exchanged between the heroes store and its
// clients, together with the validation every layer applies to it.
package hero

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrNotFound is returned by stores and gateways when no hero has the
// requested id.
var ErrNotFound = errors.New("hero not found")

// ErrInvalidName is returned when a hero name is blank after trimming.
var ErrInvalidName = errors.New("hero name is required")

// Hero is a single record of the heroes collection.
// An ID of 0 means the hero has not been persisted yet.
type Hero struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name" validate:"required"`
}

// Persisted reports whether the store has assigned an id to h.
func (h Hero) Persisted() bool {
	return h.ID > 0
}

// String renders the hero the way list views show it.
func (h Hero) String() string {
	return fmt.Sprintf("%d %s", h.ID, h.Name)
}

var validate = validator.New()

// NormalizeName trims surrounding whitespace from a hero name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateName reports ErrInvalidName when name is blank after trimming.
func ValidateName(name string) error {
	if err := validate.Var(NormalizeName(name), "required"); err != nil {
		return ErrInvalidName
	}
	return nil
}

// Validate normalizes h.Name in place and checks the record.
func (h *Hero) Validate() error {
	h.Name = NormalizeName(h.Name)
	if err := validate.Struct(h); err != nil {
		return formatValidationError(err)
	}
	if h.ID < 0 {
		return fmt.Errorf("id must not be negative (got %d)", h.ID)
	}
	return nil
}

// formatValidationError flattens validator errors into one readable error.
// A missing name always surfaces as ErrInvalidName so callers can match it.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var msgs []string
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		if field == "name" && e.Tag() == "required" {
			return ErrInvalidName
		}
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
