// Package server assembles the HTTP front of the proxy.
//
// It owns the gin engine, the route table (the landing page, /search and
// the 404 fallback), the middleware stack, and the listener lifecycle,
// including the optional Prometheus listener and graceful shutdown.
package server
