package todo

import "errors"

// sentinel errors for common failure modes
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownOwner    = errors.New("owner no longer exists")
)
