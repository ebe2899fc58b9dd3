package rules

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// InvalidMessage is the diagnostic shown to the user for a rule that failed to compile.
func InvalidMessage(r Rule) string {
	return fmt.Sprintf("%q is an invalid entry and will be skipped. "+
		"Entries must begin with \"source:\", \"title:\", or \"user:\".", r.Raw)
}

// Lint returns warnings for rules that compile but are unlikely to do what the
// user meant. It never changes a rule's validity.
func Lint(r Rule) []string {
	if !r.Valid() {
		return nil
	}

	var warnings []string
	core := r.Core()
	if core == "" {
		switch r.Kind {
		case Title:
			warnings = append(warnings, "empty title keyword matches every submission")
		case Source:
			if r.WildcardCount > 0 {
				warnings = append(warnings, "glob without text matches every source")
			} else {
				warnings = append(warnings, "empty source never matches")
			}
		case User:
			warnings = append(warnings, "empty user never matches")
		}
		return warnings
	}

	if r.Kind == Source && r.WildcardCount == 0 && !isDomainLike(core) {
		warnings = append(warnings, fmt.Sprintf("%q does not look like a domain name", core))
	}
	if r.Kind != Title && strings.ContainsAny(core, " \t") {
		warnings = append(warnings, fmt.Sprintf("%s value contains whitespace", r.Kind))
	}
	return warnings
}

// isDomainLike accepts plain domains and the "domain/path" sources HN shows
// for hosts like github.com.
func isDomainLike(source string) bool {
	host, _, _ := strings.Cut(source, "/")
	if !strings.Contains(host, ".") {
		return false
	}
	_, ok := dns.IsDomainName(host)
	return ok
}
