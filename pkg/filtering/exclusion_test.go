package filtering

import (
	"reflect"
	"testing"

	"hnblacklist/pkg/rules"
)

func TestBuildExclusionSet(t *testing.T) {
	ruleSet := []rules.Rule{
		rules.Compile("source:!Yahoo.com"),
		rules.Compile("source:!example.org"),
		rules.Compile("source:google.com"),
		rules.Compile("source:!bad!"),
		rules.Compile("title:!nope"),
	}

	set := BuildExclusionSet(ruleSet)

	if want := []string{"example.org", "yahoo.com"}; !reflect.DeepEqual(set.Sources(), want) {
		t.Fatalf("Sources() = %v, want %v", set.Sources(), want)
	}
	if !set.Contains("YAHOO.COM") {
		t.Error("expected yahoo.com to be excluded regardless of case")
	}
	if set.Contains("google.com") {
		t.Error("did not expect a plain source rule in the exclusion set")
	}
	if set.Contains("!yahoo.com") {
		t.Error("expected the exclusion marker to be stripped")
	}
}

func TestExclusionSetNilAndEmpty(t *testing.T) {
	var set *ExclusionSet
	if set.Contains("example.com") || set.Len() != 0 || set.Sources() != nil {
		t.Error("nil set must be empty")
	}

	empty := NewExclusionSet()
	empty.Add("  ")
	if empty.Len() != 0 {
		t.Errorf("expected blank source to be ignored, got %d entries", empty.Len())
	}
}

func TestFieldString(t *testing.T) {
	if got := (FieldSource | FieldRank).String(); got != "source|rank" {
		t.Errorf("String() = %q", got)
	}
	if got := Field(0).String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
	if got := (FieldTitle | FieldSubmitter).Fields(); !reflect.DeepEqual(got, []Field{FieldTitle, FieldSubmitter}) {
		t.Errorf("Fields() = %v", got)
	}
}
