package filtering

import (
	"strings"

	"github.com/gobwas/glob"

	"hnblacklist/pkg/rules"
)

// sourceMatcher is a source rule prepared for repeated matching.
type sourceMatcher struct {
	exact   string
	pattern glob.Glob
	never   bool
}

func newSourceMatcher(r rules.Rule) sourceMatcher {
	payload := strings.ToLower(r.Payload)

	var pattern string
	switch r.WildcardCount {
	case 0:
		return sourceMatcher{exact: payload}
	case 1:
		if strings.HasSuffix(payload, "*") {
			pattern = glob.QuoteMeta(strings.TrimSuffix(payload, "*")) + "*"
		} else {
			pattern = "*" + glob.QuoteMeta(strings.TrimPrefix(payload, "*"))
		}
	case 2:
		pattern = "*" + glob.QuoteMeta(strings.ReplaceAll(payload, "*", "")) + "*"
	default:
		return sourceMatcher{never: true}
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return sourceMatcher{never: true}
	}
	return sourceMatcher{pattern: g}
}

func (m sourceMatcher) match(source string) bool {
	switch {
	case m.never:
		return false
	case m.pattern != nil:
		return m.pattern.Match(source)
	default:
		return source == m.exact
	}
}

// ShouldFilter reports whether a source rule matches source. Zero wildcards
// is an exact match, a trailing or leading wildcard a prefix or suffix match,
// and wildcards on both ends a substring match. Case is ignored.
func ShouldFilter(source string, r rules.Rule) bool {
	if r.Kind != rules.Source || r.IsExclusion {
		return false
	}
	return newSourceMatcher(r).match(strings.ToLower(source))
}

func titleMatches(row Row, r rules.Rule) bool {
	if !row.Has(FieldTitle) {
		return false
	}
	return strings.Contains(strings.ToLower(row.Title), strings.ToLower(r.Payload))
}

func userMatches(row Row, r rules.Rule) bool {
	if !row.Has(FieldSubmitter) {
		return false
	}
	return strings.ToLower(row.Submitter) == strings.ToLower(r.Payload)
}
