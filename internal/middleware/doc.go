// Package middleware provides the gin middleware stack wrapped around the
// proxy routes: security headers, per-client rate limiting, static files,
// request logging, metrics, and panic recovery.
package middleware
