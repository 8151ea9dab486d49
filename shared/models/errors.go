package models

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("wrong username or password")
	ErrUnauthenticated    = errors.New("not logged in")
	ErrInvalidToken       = errors.New("token is not valid")
	// ErrTimeout is returned when a transaction misses its deadline. Callers may retry.
	ErrTimeout = errors.New("transaction timed out")
	// ErrRateUnavailable means the configured rate table has no version to freeze from.
	ErrRateUnavailable = errors.New("rate table has no current version")
)
