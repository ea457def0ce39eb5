package search

import (
	"net/url"
	"strings"
)

// QueryValue returns the first value of key in the raw query string, or ""
// if key is absent. Unlike url.ParseQuery, a pair with a malformed
// percent-escape is kept: the undecodable part is returned literally with
// '+' read as a space.
func QueryValue(rawQuery, key string) string {
	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		if unescape(k) == key {
			return unescape(v)
		}
	}
	return ""
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return strings.ReplaceAll(s, "+", " ")
}
