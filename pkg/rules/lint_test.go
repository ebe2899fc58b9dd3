package rules

import (
	"strings"
	"testing"
)

func TestInvalidMessage(t *testing.T) {
	msg := InvalidMessage(Compile("what:x"))
	want := `"what:x" is an invalid entry and will be skipped. Entries must begin with "source:", "title:", or "user:".`
	if msg != want {
		t.Errorf("InvalidMessage = %q, want %q", msg, want)
	}
}

func TestLint(t *testing.T) {
	tests := []struct {
		input    string
		wantWarn string
	}{
		{"source:example.com", ""},
		{"source:github.com/someone", ""},
		{"source:!example.com", ""},
		{"source:*google*", ""},
		{"title:machine learning", ""},
		{"user:dang", ""},
		{"title:", "matches every submission"},
		{"source:*", "matches every source"},
		{"source:", "never matches"},
		{"user:", "never matches"},
		{"source:localhost", "does not look like a domain name"},
		{"user:two words", "contains whitespace"},
		{"bogus", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			warnings := Lint(Compile(tt.input))
			if tt.wantWarn == "" {
				if len(warnings) != 0 {
					t.Fatalf("expected no warnings, got %v", warnings)
				}
				return
			}
			if len(warnings) == 0 || !strings.Contains(strings.Join(warnings, "; "), tt.wantWarn) {
				t.Fatalf("expected warning containing %q, got %v", tt.wantWarn, warnings)
			}
		})
	}
}
