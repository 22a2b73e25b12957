package srs

import "strings"

// Matcher decides whether a free-text answer matches the expected back of a
// card. It is a pluggable strategy so the containment heuristic below can be
// swapped for edit-distance or semantic matching without touching the study
// flow. Implementations must be pure and safe for concurrent use.
type Matcher interface {
	Evaluate(input, expected string) bool
}

// ContainmentMatcher is the default Matcher. Both strings are normalized
// (trimmed, lowercased, internal whitespace collapsed) and the answer is
// correct when they are equal or either contains the other.
//
// The containment rule is deliberately lenient so padded answers like
// "it's Paris" pass for "Paris". The flip side is false positives on short
// expected answers ("cat" matches "category"); callers who care should plug
// in a stricter Matcher.
type ContainmentMatcher struct{}

func (ContainmentMatcher) Evaluate(input, expected string) bool {
	in := Normalize(input)
	exp := Normalize(expected)

	// An empty answer never matches a non-empty expected string, even though
	// "" is a substring of everything.
	if in == "" || exp == "" {
		return in == exp
	}
	return in == exp || strings.Contains(in, exp) || strings.Contains(exp, in)
}

// Normalize trims leading/trailing whitespace, lowercases, and collapses
// internal whitespace runs to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
