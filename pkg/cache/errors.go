package cache

import "errors"

// Standard errors for cache operations.
var (
	// ErrNotFound is returned on a cache miss.
	ErrNotFound = errors.New("record not found")

	// ErrStoreDisabled is returned when the store is disabled.
	ErrStoreDisabled = errors.New("cache is disabled")

	// ErrInvalidInput is returned when the key or record is invalid.
	ErrInvalidInput = errors.New("invalid input")
)
