package common

import "errors"

var (
	// ErrInvalidToken marks a token that fails local shape checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired marks a token whose exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")
)
