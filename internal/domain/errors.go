package domain

import "errors"

var (
	// ErrInvalidParameters agrupa todos los rechazos previos a simular.
	ErrInvalidParameters = errors.New("invalid simulation parameters")

	// ErrNoExtension: modo extended sin ninguna extensión activa.
	ErrNoExtension = &ValidationError{
		Field:  "extensions",
		Reason: "no extensions selected: enable use_credit, use_dynamic_betting or use_max_bet",
	}
)

// ValidationError describe un parámetro fuera de su dominio.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Is hace que cualquier ValidationError coincida con ErrInvalidParameters.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidParameters
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
