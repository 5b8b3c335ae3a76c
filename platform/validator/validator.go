// Package validator wraps go-playground validation for request DTOs.
package validator

import "github.com/go-playground/validator/v10"

// Validator validates structs against their `validate` tags. Handlers receive
// one shared instance through their module constructors.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct validates a struct based on its validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}
