package upstream

import "errors"

var (
	// ErrUpstreamBusy is returned when no in-flight slot became free before
	// the request context ended.
	ErrUpstreamBusy = errors.New("too many upstream requests in flight")

	// ErrFetch wraps transport failures: DNS, connect, TLS, timeout.
	ErrFetch = errors.New("upstream request failed")

	// ErrRead wraps failures while reading or decoding the response body.
	ErrRead = errors.New("failed to read upstream response")

	// ErrParse wraps HTML parse failures.
	ErrParse = errors.New("failed to parse upstream response")
)
