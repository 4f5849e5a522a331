package user

import (
	"errors"
	"strings"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrDuplicateKey     = errors.New("duplicate key: email already in use")
	ErrStoreUnavailable = errors.New("store unavailable")
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidationError lists every field that failed, in struct order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the failures.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
