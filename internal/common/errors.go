// Package common defines shared constants and sentinel errors used across
// the client and server layers of zia. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Registration errors.
	ErrAccountExists    = errors.New("account already exists")
	ErrWeakPassword     = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrAccountNotFound  = errors.New("account not found")
	ErrInvalidArguments = errors.New("invalid arguments")

	// Login errors. The same value is returned for an unknown email and for
	// a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Token errors (malformed, bad signature or wrong algorithm).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
