package services

import "errors"

// Service errors are sentinels so handlers can map each failure to a status
// code explicitly instead of collapsing everything into a 500.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUserExists         = errors.New("username already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSelfAction         = errors.New("cannot target yourself")
	ErrEmptyContent       = errors.New("message content cannot be empty")
	ErrContentTooLong     = errors.New("message too long (max 2000 characters)")
)
