// Package search turns untrusted request input into an upstream request
// for the DuckDuckGo HTML endpoint.
//
// Query sanitization deletes '<' and '>' and nothing else. It guards
// against trivial markup injection and is not a general sanitizer.
package search
