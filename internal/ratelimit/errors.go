package ratelimit

import "errors"

var (
	// ErrInvalidLimit is returned when the request limit is not positive.
	ErrInvalidLimit = errors.New("rate limit must be positive")
	// ErrInvalidWindow is returned when the window duration is not positive.
	ErrInvalidWindow = errors.New("rate limit window must be positive")
	// ErrInvalidMaxClients is returned when the client table size is not positive.
	ErrInvalidMaxClients = errors.New("rate limit client table size must be positive")
)
