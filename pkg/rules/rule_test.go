package rules

import "testing"

func TestCompile(t *testing.T) {
	tests := []struct {
		input         string
		wantKind      Kind
		wantPayload   string
		wantWildcards int
		wantExclusion bool
	}{
		{"source:yahoo.com", Source, "yahoo.com", 0, false},
		{"source:!yahoo.com", Source, "!yahoo.com", 0, true},
		{"source:yahoo.com!", Invalid, "source:yahoo.com!", 0, false},
		{"source:!yahoo.com!", Invalid, "source:!yahoo.com!", 0, true},
		{"source:!yahoo*", Invalid, "source:!yahoo*", 1, true},
		{"source:*google", Source, "*google", 1, false},
		{"source:google*", Source, "google*", 1, false},
		{"source:*google*", Source, "*google*", 2, false},
		{"source:*google**", Invalid, "source:*google**", 3, false},
		{"source:goo*gle", Invalid, "source:goo*gle", 1, false},
		{"source:*goo*gle", Invalid, "source:*goo*gle", 2, false},
		{"source:*", Source, "*", 1, false},
		{"title:america", Title, "america", 0, false},
		{"title:!ChatGpt", Invalid, "title:!ChatGpt", 0, false},
		{"title:AI*", Invalid, "title:AI*", 1, false},
		{"title:Show HN: demo", Title, "Show HN: demo", 0, false},
		{"user:some_user", User, "some_user", 0, false},
		{"user:!some_user", Invalid, "user:!some_user", 0, false},
		{"user:some_user*", Invalid, "user:some_user*", 1, false},
		{"what:some_user", Invalid, "what:some_user", 0, false},
		{"Source:yahoo.com", Invalid, "Source:yahoo.com", 0, false},
		{"yahoo.com", Invalid, "yahoo.com", 0, false},
		{"  user:dang  ", User, "dang", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := Compile(tt.input)
			if r.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", r.Kind, tt.wantKind)
			}
			if r.Payload != tt.wantPayload {
				t.Errorf("Payload = %q, want %q", r.Payload, tt.wantPayload)
			}
			if r.WildcardCount != tt.wantWildcards {
				t.Errorf("WildcardCount = %d, want %d", r.WildcardCount, tt.wantWildcards)
			}
			if r.IsExclusion != tt.wantExclusion {
				t.Errorf("IsExclusion = %v, want %v", r.IsExclusion, tt.wantExclusion)
			}
		})
	}
}

func TestCompileUnknownPrefixIsInvalid(t *testing.T) {
	inputs := []string{"", "#comment", "domain:example.com", "titles:foo", "users:bar", "src:x", ":", "source", "title", "user"}
	for _, input := range inputs {
		if r := Compile(input); r.Kind != Invalid {
			t.Errorf("Compile(%q).Kind = %s, want invalid", input, r.Kind)
		}
	}
}

func TestCompileKeepsRawText(t *testing.T) {
	r := Compile("  source:!yahoo.com! ")
	if r.Valid() {
		t.Fatal("expected invalid rule")
	}
	if r.Raw != "source:!yahoo.com!" {
		t.Errorf("Raw = %q", r.Raw)
	}
	if r.String() != r.Raw {
		t.Errorf("String() = %q, want %q", r.String(), r.Raw)
	}
}

func TestRuleCore(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"source:!yahoo.com", "yahoo.com"},
		{"source:*google", "google"},
		{"source:google*", "google"},
		{"source:*google*", "google"},
		{"source:Example.COM", "Example.COM"},
		{"title:AI", "AI"},
		{"user:dang", "dang"},
		{"title:AI*", ""},
	}
	for _, tt := range tests {
		if got := Compile(tt.input).Core(); got != tt.want {
			t.Errorf("Compile(%q).Core() = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	names := map[Kind]string{Invalid: "invalid", Source: "source", Title: "title", User: "user", Kind(42): "invalid"}
	for kind, want := range names {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}
