// Package rules compiles user supplied filter lines into typed rules.
package rules

import "strings"

// Kind identifies which submission field a rule filters on.
type Kind int

const (
	Invalid Kind = iota
	Source
	Title
	User
)

const (
	sourcePrefix    = "source:"
	titlePrefix     = "title:"
	userPrefix      = "user:"
	exclusionPrefix = "source:!"

	exclusionMarker = "!"
	globMarker      = "*"
)

func (k Kind) String() string {
	switch k {
	case Source:
		return "source"
	case Title:
		return "title"
	case User:
		return "user"
	default:
		return "invalid"
	}
}

// Rule is the compiled form of one filter line.
type Rule struct {
	Kind Kind
	Raw  string
	// Payload is the text after the prefix. Exclusion and glob markers are kept,
	// use Core for the marker-free value. Invalid rules carry the whole input.
	Payload       string
	WildcardCount int
	IsExclusion   bool
}

// Compile turns one trimmed input line into a Rule. It never fails; malformed
// input yields a rule of kind Invalid.
func Compile(input string) Rule {
	input = strings.TrimSpace(input)

	r := Rule{
		Raw:           input,
		Payload:       input,
		WildcardCount: strings.Count(input, globMarker),
		IsExclusion:   strings.HasPrefix(input, exclusionPrefix),
	}

	kind := detectKind(input)
	if !isValid(kind, input, r.WildcardCount) {
		return r
	}

	r.Kind = kind
	r.Payload = input[strings.Index(input, ":")+1:]
	return r
}

// Valid reports whether the rule can take part in matching.
func (r Rule) Valid() bool {
	return r.Kind != Invalid
}

// Core returns the payload without its exclusion and glob markers.
func (r Rule) Core() string {
	if !r.Valid() {
		return ""
	}
	core := r.Payload
	if r.IsExclusion {
		core = strings.TrimPrefix(core, exclusionMarker)
	}
	if r.Kind == Source {
		core = strings.TrimPrefix(core, globMarker)
		core = strings.TrimSuffix(core, globMarker)
	}
	return core
}

func (r Rule) String() string {
	return r.Raw
}

func detectKind(input string) Kind {
	switch {
	case strings.HasPrefix(input, sourcePrefix):
		return Source
	case strings.HasPrefix(input, titlePrefix):
		return Title
	case strings.HasPrefix(input, userPrefix):
		return User
	default:
		return Invalid
	}
}

func isValid(kind Kind, input string, wildcards int) bool {
	switch kind {
	case Source:
		return isValidSource(input, wildcards)
	case Title, User:
		return !strings.Contains(input, exclusionMarker) && !strings.Contains(input, globMarker)
	default:
		return false
	}
}

func isValidSource(input string, wildcards int) bool {
	bangs := strings.Count(input, exclusionMarker)
	if bangs > 1 {
		return false
	}
	if bangs == 1 {
		return strings.HasPrefix(input, exclusionPrefix) && wildcards == 0
	}
	return hasValidGlobs(strings.TrimPrefix(input, sourcePrefix), wildcards)
}

func hasValidGlobs(payload string, wildcards int) bool {
	switch wildcards {
	case 0:
		return true
	case 1:
		return strings.HasPrefix(payload, globMarker) || strings.HasSuffix(payload, globMarker)
	case 2:
		return len(payload) >= 2 && strings.HasPrefix(payload, globMarker) && strings.HasSuffix(payload, globMarker)
	default:
		return false
	}
}
