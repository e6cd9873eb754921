package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPath = errors.New("invalid path")
	ErrNotText     = errors.New("not a markdown document")
)
