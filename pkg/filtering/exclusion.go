package filtering

import (
	"sort"
	"strings"

	"hnblacklist/pkg/rules"
)

// ExclusionSet stores the sources that no source rule may remove.
type ExclusionSet struct {
	sources map[string]struct{}
}

// NewExclusionSet creates an empty ExclusionSet.
func NewExclusionSet() *ExclusionSet {
	return &ExclusionSet{sources: make(map[string]struct{})}
}

// BuildExclusionSet collects the exclusion rules of a rule set.
func BuildExclusionSet(ruleSet []rules.Rule) *ExclusionSet {
	set := NewExclusionSet()
	for _, r := range ruleSet {
		if r.Kind == rules.Source && r.IsExclusion {
			set.Add(r.Core())
		}
	}
	return set
}

// Add adds a source to the set.
func (s *ExclusionSet) Add(source string) {
	source = normalizeSource(source)
	if source == "" {
		return
	}
	s.sources[source] = struct{}{}
}

// Contains checks if source is excluded. Comparison ignores case.
func (s *ExclusionSet) Contains(source string) bool {
	if s == nil {
		return false
	}
	_, ok := s.sources[normalizeSource(source)]
	return ok
}

// Len returns the number of excluded sources.
func (s *ExclusionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.sources)
}

// Sources returns the excluded sources in lexical order.
func (s *ExclusionSet) Sources() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.sources))
	for source := range s.sources {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}

func normalizeSource(source string) string {
	return strings.ToLower(strings.TrimSpace(source))
}
