package config

import "errors"

// Validation errors returned by Config.Validate. Callers match them with errors.Is.
var (
	// ErrInvalidPort is returned when the listening port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrInvalidUpstreamURL is returned when the upstream base URL is not an
	// absolute http or https URL.
	ErrInvalidUpstreamURL = errors.New("invalid upstream URL: must be an absolute http(s) URL")

	// ErrInvalidTimeout is returned when the upstream timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid upstream timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the body limit is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidMaxInFlight is returned when the in-flight limit is not positive.
	ErrInvalidMaxInFlight = errors.New("invalid max in-flight upstream requests: must be positive")

	// ErrInvalidRateLimit is returned when the request limit, window or
	// client table size is not positive.
	ErrInvalidRateLimit = errors.New("invalid rate limit: limit, window and max clients must be positive")

	// ErrInvalidTorMode is returned for a Tor mode other than off, external or embedded.
	ErrInvalidTorMode = errors.New("invalid tor mode: must be off, external or embedded")

	// ErrOnionRequiresTor is returned when the upstream is a .onion host but
	// Tor routing is off.
	ErrOnionRequiresTor = errors.New("upstream is an onion service: enable tor routing")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrInvalidShutdownTimeout is returned when the shutdown grace period is negative.
	ErrInvalidShutdownTimeout = errors.New("invalid shutdown timeout: must be non-negative")

	// ErrConfigNotFound is returned when an explicitly requested configuration
	// file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
