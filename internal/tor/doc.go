// Package tor routes upstream search traffic through the Tor network.
//
// A Client speaks SOCKS5 to a Tor proxy, either one the operator already
// runs or one started in-process by EmbeddedTor. The package also checks
// v3 onion host names, so that an upstream mirror on a hidden service can
// be validated before the server starts.
package tor
