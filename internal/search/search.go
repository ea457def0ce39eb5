package search

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Provider query parameter names.
const (
	paramQuery      = "q"
	paramSafeSearch = "kp"
)

// ErrInvalidEndpoint is returned by NewEndpoint for URLs that are not
// absolute http(s) URLs.
var ErrInvalidEndpoint = errors.New("search endpoint must be an absolute http(s) URL")

// queryStripper deletes angle brackets.
var queryStripper = strings.NewReplacer("<", "", ">", "")

// SanitizeQuery deletes every '<' and '>' from q. All other characters are
// kept in their original order.
func SanitizeQuery(q string) string {
	return queryStripper.Replace(q)
}

// Request is a resolved, sanitized search.
type Request struct {
	Query      string
	SafeSearch SafeSearchLevel
}

// NewRequest sanitizes the raw query and resolves the raw safe-search value.
func NewRequest(rawQuery, rawSafe string) Request {
	return Request{
		Query:      SanitizeQuery(rawQuery),
		SafeSearch: ParseSafeSearch(rawSafe),
	}
}

// Endpoint is the provider's HTML results page.
type Endpoint struct {
	base   *url.URL
	origin string
}

// NewEndpoint parses rawURL, for example "https://duckduckgo.com/html/".
func NewEndpoint(rawURL string) (*Endpoint, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, rawURL)
	}
	return &Endpoint{
		base:   u,
		origin: u.Scheme + "://" + u.Host,
	}, nil
}

// Origin returns scheme://host of the endpoint, the prefix used when
// rewriting root-relative links.
func (e *Endpoint) Origin() string {
	return e.origin
}

// URL builds the upstream URL for r. The query parameter is always set,
// even when empty; "kp" is set for strict and moderate and omitted for off.
func (e *Endpoint) URL(r Request) string {
	u := *e.base
	values := u.Query()
	values.Set(paramQuery, r.Query)
	if kp, ok := r.SafeSearch.kp(); ok {
		values.Set(paramSafeSearch, kp)
	} else {
		values.Del(paramSafeSearch)
	}
	u.RawQuery = values.Encode()
	return u.String()
}
