package account

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrNotFound       = errors.New("identity not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrWeakPassword   = errors.New("password does not meet policy")
)

// ValidationError carries field-level detail. It matches ErrInvalidInput and,
// when set, the more specific Kind.
type ValidationError struct {
	Kind   error
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("invalid input: %s", strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() []error {
	if e.Kind == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, e.Kind}
}

// fromValidation converts an ozzo result into a *ValidationError. Internal
// rule errors are returned unchanged.
func fromValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return internal
		}
		return &ValidationError{Fields: map[string]string{"_": err.Error()}}
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for field, ferr := range verrs {
		if ferr == nil {
			continue
		}
		out.Fields[field] = ferr.Error()
		if errors.Is(ferr, ErrWeakPassword) {
			out.Kind = ErrWeakPassword
		}
	}
	return out
}
