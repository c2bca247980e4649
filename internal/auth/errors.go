package auth

import "errors"

var (
	ErrMissingToken   = errors.New("Missing bearer token")
	ErrInvalidToken   = errors.New("Invalid or expired token")
	ErrInvalidSubject = errors.New("Token subject is not a valid account")
	ErrSecretNotSet   = errors.New("JWT secret is not configured")
)
