package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidPath   = errors.New("invalid path")
	ErrNameExhausted = errors.New("note name space exhausted")
)
