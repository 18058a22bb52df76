package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrMissingCode         = errors.New("authorization code missing")
	ErrTokenExchange       = errors.New("failed to exchange code for token")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrInvalidToken        = errors.New("invalid identity token")
	ErrUntrustedIssuer     = errors.New("invalid issuer")
	ErrRateLimited         = errors.New("rate limited")
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("item not found")
)

// ValidationError describe el primer campo invalido de un payload de item.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
