package search

// SafeSearchLevel tells the provider how aggressively to filter adult content.
type SafeSearchLevel string

// Safe-search levels accepted from callers.
const (
	SafeSearchOff      SafeSearchLevel = "off"
	SafeSearchModerate SafeSearchLevel = "moderate"
	SafeSearchStrict   SafeSearchLevel = "strict"
)

// DefaultSafeSearch is used whenever the caller's value is missing or unknown.
const DefaultSafeSearch = SafeSearchModerate

// ParseSafeSearch resolves raw to a known level. Matching is exact:
// "Strict" or " strict" resolve to DefaultSafeSearch.
func ParseSafeSearch(raw string) SafeSearchLevel {
	switch level := SafeSearchLevel(raw); level {
	case SafeSearchOff, SafeSearchModerate, SafeSearchStrict:
		return level
	default:
		return DefaultSafeSearch
	}
}

// kp returns the provider's "kp" parameter value for l and whether it
// should be sent at all.
func (l SafeSearchLevel) kp() (string, bool) {
	switch l {
	case SafeSearchStrict:
		return "1", true
	case SafeSearchModerate:
		return "-1", true
	default:
		return "", false
	}
}

// String implements fmt.Stringer.
func (l SafeSearchLevel) String() string {
	return string(l)
}
