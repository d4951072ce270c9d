package domain

import "errors"

// Store errors, returned by every repository implementation.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrEmailTaken     = errors.New("email already registered")
)
