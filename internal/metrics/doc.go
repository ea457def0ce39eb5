// Package metrics holds the Prometheus collectors of the proxy.
//
// Collectors are registered on a private registry so that several servers
// (and tests) can live in one process. The registry is exposed through
// Handler and is only served when a metrics address is configured.
package metrics
