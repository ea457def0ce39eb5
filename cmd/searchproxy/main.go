// Package main provides the entry point for the searchproxy CLI.
//
// searchproxy is a small privacy proxy for DuckDuckGo's HTML results page.
// Browsers talk to the proxy; the proxy fetches results with a fixed
// identity and returns the page with its links pointed back at the
// provider.
//
// Usage:
//
//	searchproxy                 # same as "searchproxy serve"
//	searchproxy serve --port 8080
//	searchproxy serve --tor
//
// See --help for all available options.
package main

func main() {
	Execute()
}
