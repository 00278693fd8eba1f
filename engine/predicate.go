package engine

import (
	"regexp"
	"strings"
)

// Predicate decides from a reply's content whether the session is done.
type Predicate func(content string) bool

// Never is a predicate that never matches; sessions then end by round limit.
func Never(string) bool { return false }

// ContainsMarker matches replies containing marker (for example "TERMINATE").
// An empty marker never matches.
func ContainsMarker(marker string) Predicate {
	if marker == "" {
		return Never
	}
	return func(content string) bool {
		return strings.Contains(content, marker)
	}
}

// EndsWithMarker matches replies whose trimmed content ends with marker.
func EndsWithMarker(marker string) Predicate {
	if marker == "" {
		return Never
	}
	return func(content string) bool {
		return strings.HasSuffix(strings.TrimSpace(content), marker)
	}
}

// MatchRegexp compiles pattern into a predicate.
func MatchRegexp(pattern string) (Predicate, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return re.MatchString, nil
}

// AnyOf matches when at least one of the predicates matches.
func AnyOf(preds ...Predicate) Predicate {
	return func(content string) bool {
		for _, p := range preds {
			if p != nil && p(content) {
				return true
			}
		}
		return false
	}
}
