package model

import "errors"

var (
	// User related errors
	ErrUserNotFound = errors.New("user not found")

	// Credential related errors
	ErrMissingCredential = errors.New("authorization token not found")
	ErrTokenRevoked      = errors.New("token revoked")

	// Product related errors
	ErrProductNotFound  = errors.New("product not found")
	ErrProductForbidden = errors.New("no permission to access product")
)
