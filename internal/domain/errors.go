package domain

import "errors"

var (
	// ErrUsernameTaken is returned by CreateAccount for a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken is returned by CreateAccount for a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrAccountNotFound is returned by operations that require an existing account.
	ErrAccountNotFound = errors.New("account not found")
)
