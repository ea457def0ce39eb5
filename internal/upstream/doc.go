// Package upstream fetches a results page from the search provider and
// hands it back as a parsed document.
//
// A Fetcher performs exactly one GET per call. It does not retry, does not
// forward caller cookies, and does not look at the response status: an
// upstream error page is parsed and returned like any other page. Every
// failure (no in-flight slot, transport error, read error, parse error) is
// returned as an error for the HTTP layer to map to a single response.
package upstream
