package store

import "errors"

// Sentinel errors returned by every backend.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
)
