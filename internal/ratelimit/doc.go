// Package ratelimit implements a per-client sliding-window request limiter.
//
// Each client key keeps the timestamps of its accepted requests inside the
// current window. The table of clients is bounded by an LRU cache, so the
// least recently seen clients are forgotten first when it fills up.
package ratelimit
