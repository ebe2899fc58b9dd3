package filtering_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"hnblacklist/internal/testutil"
	"hnblacklist/pkg/filtering"
	"hnblacklist/pkg/rules"
)

func newEngine(renumber bool) *filtering.Engine {
	return filtering.New(filtering.Options{
		Renumber: renumber,
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func compileAll(lines ...string) []rules.Rule {
	out := make([]rules.Rule, len(lines))
	for i, line := range lines {
		out[i] = rules.Compile(line)
	}
	return out
}

func sourcePage() *testutil.Page {
	return testutil.NewPage(testutil.Ranked(1,
		testutil.Submission(0, "Yahoo news", "yahoo.com", "alice"),
		testutil.Submission(0, "Google news", "google.com", "bob"),
		testutil.Submission(0, "Foo news", "foo.com", "carol"),
	)...)
}

func TestFilterSourceContainsGlob(t *testing.T) {
	page := sourcePage()
	out := newEngine(true).Filter(compileAll("source:*google*"), page)

	if len(out.BySource) != 1 || out.BySource[0].Source != "google.com" {
		t.Fatalf("expected google.com to be removed, got %+v", out.BySource)
	}
	if want := []string{"Yahoo news", "Foo news"}; !reflect.DeepEqual(page.Titles(), want) {
		t.Errorf("remaining titles = %v, want %v", page.Titles(), want)
	}
	if want := []int{1, 2}; !reflect.DeepEqual(page.Ranks(), want) {
		t.Errorf("ranks = %v, want %v", page.Ranks(), want)
	}
}

func TestFilterExclusionOverridesSourceRule(t *testing.T) {
	page := sourcePage()
	out := newEngine(true).Filter(compileAll("source:!google.com", "source:google*"), page)

	if out.Total() != 0 {
		t.Fatalf("expected nothing removed, got %d", out.Total())
	}
	if len(page.Titles()) != 3 {
		t.Errorf("expected all rows kept, got %v", page.Titles())
	}
	if page.RankWrites != 0 {
		t.Errorf("expected no renumbering when nothing was removed")
	}
}

func TestFilterExclusionIsCaseInsensitive(t *testing.T) {
	page := sourcePage()
	out := newEngine(true).Filter(compileAll("source:!Google.COM", "source:*.com"), page)

	if len(out.BySource) != 2 {
		t.Fatalf("expected 2 rows removed, got %+v", out.BySource)
	}
	if want := []string{"Google news"}; !reflect.DeepEqual(page.Titles(), want) {
		t.Errorf("remaining titles = %v, want %v", page.Titles(), want)
	}
}

func TestFilterExclusionDoesNotProtectFromTitleOrUser(t *testing.T) {
	page := sourcePage()
	out := newEngine(true).Filter(compileAll("source:!google.com", "title:GOOGLE", "user:carol"), page)

	if len(out.ByTitle) != 1 || out.ByTitle[0].Source != "google.com" {
		t.Errorf("expected google row removed by title, got %+v", out.ByTitle)
	}
	if len(out.ByUser) != 1 || out.ByUser[0].Submitter != "carol" {
		t.Errorf("expected carol's row removed by user, got %+v", out.ByUser)
	}
	if want := []string{"Yahoo news"}; !reflect.DeepEqual(page.Titles(), want) {
		t.Errorf("remaining titles = %v, want %v", page.Titles(), want)
	}
}

func TestFilterRenumbering(t *testing.T) {
	rows := testutil.Ranked(31,
		testutil.Submission(0, "one", "a.com", "u1"),
		testutil.Submission(0, "two", "spam.com", "u2"),
		testutil.Submission(0, "three", "b.com", "u3"),
		testutil.Submission(0, "four", "spam.com", "u4"),
		testutil.Submission(0, "five", "spam.com", "u5"),
	)

	t.Run("enabled", func(t *testing.T) {
		page := testutil.NewPage(rows...)
		out := newEngine(true).Filter(compileAll("source:spam.com"), page)

		if out.Total() != 3 {
			t.Fatalf("expected 3 removed, got %d", out.Total())
		}
		if !out.Renumbered || out.TopRank != 31 {
			t.Errorf("expected renumbering from 31, got renumbered=%v top=%d", out.Renumbered, out.TopRank)
		}
		if want := []int{31, 32}; !reflect.DeepEqual(page.Ranks(), want) {
			t.Errorf("ranks = %v, want %v", page.Ranks(), want)
		}
		if want := []int{1, 2, 2}; !reflect.DeepEqual(page.Removed, want) {
			t.Errorf("removed positions = %v, want %v", page.Removed, want)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		page := testutil.NewPage(rows...)
		out := newEngine(false).Filter(compileAll("source:spam.com"), page)

		if out.Total() != 3 {
			t.Fatalf("expected 3 removed, got %d", out.Total())
		}
		if out.Renumbered {
			t.Error("expected no renumbering")
		}
		if want := []int{31, 33}; !reflect.DeepEqual(page.Ranks(), want) {
			t.Errorf("ranks = %v, want %v", page.Ranks(), want)
		}
	})
}

func TestFilterIdempotentWithoutMatches(t *testing.T) {
	page := sourcePage()
	engine := newEngine(true)
	ruleSet := compileAll("source:nothing.example", "title:zzz", "user:nobody")

	for pass := 1; pass <= 2; pass++ {
		out := engine.Filter(ruleSet, page)
		if out.Total() != 0 || len(out.BySource)+len(out.ByTitle)+len(out.ByUser) != 0 {
			t.Fatalf("pass %d: expected zero removals, got %d", pass, out.Total())
		}
		if want := []string{"Yahoo news", "Google news", "Foo news"}; !reflect.DeepEqual(page.Titles(), want) {
			t.Fatalf("pass %d: order changed to %v", pass, page.Titles())
		}
	}
}

func TestFilterCategoryOrder(t *testing.T) {
	page := testutil.NewPage(testutil.Ranked(1,
		testutil.Submission(0, "Crypto winter", "crypto.com", "bob"),
		testutil.Submission(0, "Crypto summer", "news.com", "bob"),
		testutil.Submission(0, "Gardening", "news.com", "bob"),
	)...)

	out := newEngine(true).Filter(compileAll("user:bob", "title:crypto", "source:crypto.com"), page)

	if len(out.BySource) != 1 || out.BySource[0].Title != "Crypto winter" {
		t.Errorf("unexpected source removals: %+v", out.BySource)
	}
	if len(out.ByTitle) != 1 || out.ByTitle[0].Title != "Crypto summer" {
		t.Errorf("unexpected title removals: %+v", out.ByTitle)
	}
	if len(out.ByUser) != 1 || out.ByUser[0].Title != "Gardening" {
		t.Errorf("unexpected user removals: %+v", out.ByUser)
	}
	if out.Total() != 3 {
		t.Errorf("expected each row counted once, got %d", out.Total())
	}
}

func TestFilterOverlappingRulesOfSameKind(t *testing.T) {
	page := sourcePage()
	out := newEngine(true).Filter(compileAll("source:google.com", "source:*.com"), page)

	if len(out.BySource) != 3 {
		t.Fatalf("expected 3 source removals, got %+v", out.BySource)
	}
	if out.BySource[0].Source != "google.com" {
		t.Errorf("expected first rule to remove google.com first, got %q", out.BySource[0].Source)
	}
	if len(page.Titles()) != 0 {
		t.Errorf("expected empty page, got %v", page.Titles())
	}
}

func TestFilterMissingFieldsNeverMatch(t *testing.T) {
	page := testutil.NewPage(
		filtering.Row{Rank: 1, Title: "Ask HN: anything", Submitter: "dang", Missing: filtering.FieldSource},
		filtering.Row{Rank: 2, Source: "example.com", Missing: filtering.FieldTitle | filtering.FieldSubmitter},
	)

	out := newEngine(true).Filter(compileAll("source:*", "title:", "user:"), page)

	if len(out.BySource) != 1 || out.BySource[0].Source != "example.com" {
		t.Errorf("expected only the row with a source to match, got %+v", out.BySource)
	}
	if len(out.ByTitle) != 1 || out.ByTitle[0].Title != "Ask HN: anything" {
		t.Errorf("expected the titled row to match the empty keyword, got %+v", out.ByTitle)
	}
	missing := out.DiagnosticsOf(filtering.ErrMissingField)
	if len(missing) != 3 {
		t.Fatalf("expected 3 missing field diagnostics, got %v", missing)
	}
	if missing[0].Field != filtering.FieldSource || missing[0].Position != 0 {
		t.Errorf("unexpected first diagnostic: %v", missing[0])
	}
}

func TestFilterEmptyPage(t *testing.T) {
	page := testutil.NewPage()
	out := newEngine(true).Filter(compileAll("source:example.com"), page)

	if out.Total() != 0 {
		t.Fatalf("expected no removals, got %d", out.Total())
	}
	if len(out.DiagnosticsOf(filtering.ErrEmptyRowSet)) != 1 {
		t.Errorf("expected empty row set diagnostic, got %v", out.Diagnostics)
	}
	if out.HasTopRank {
		t.Error("expected no top rank on an empty page")
	}
}

func TestFilterIgnoresInvalidRules(t *testing.T) {
	page := sourcePage()
	out := newEngine(true).Filter(compileAll("yahoo.com", "source:yahoo.com!", "title:Yahoo*"), page)

	if out.Total() != 0 {
		t.Fatalf("expected invalid rules to match nothing, got %d", out.Total())
	}
	invalid := out.DiagnosticsOf(filtering.ErrInvalidRule)
	if len(invalid) != 3 {
		t.Fatalf("expected 3 invalid rule diagnostics, got %v", invalid)
	}
	if !errors.Is(invalid[0], filtering.ErrInvalidRule) || invalid[0].Rule != "yahoo.com" {
		t.Errorf("unexpected diagnostic %v", invalid[0])
	}
}

func TestFilterAdapterFailureContinues(t *testing.T) {
	page := sourcePage()
	page.FailRemove = map[string]bool{"Yahoo news": true}

	out := newEngine(true).Filter(compileAll("source:*.com"), page)

	if len(out.BySource) != 2 {
		t.Fatalf("expected 2 removals, got %+v", out.BySource)
	}
	failures := out.DiagnosticsOf(filtering.ErrAdapter)
	if len(failures) != 1 || !strings.Contains(failures[0].Error(), "locked") {
		t.Fatalf("expected one adapter diagnostic, got %v", failures)
	}
	if want := []string{"Yahoo news"}; !reflect.DeepEqual(page.Titles(), want) {
		t.Errorf("remaining titles = %v, want %v", page.Titles(), want)
	}
	if want := []int{1}; !reflect.DeepEqual(page.Ranks(), want) {
		t.Errorf("ranks = %v, want %v", page.Ranks(), want)
	}
}

func TestFilterWithoutTopRankSkipsRenumbering(t *testing.T) {
	page := testutil.NewPage(
		filtering.Row{Title: "a", Source: "a.com", Missing: filtering.FieldRank},
		filtering.Row{Rank: 2, Title: "b", Source: "b.com"},
		filtering.Row{Rank: 3, Title: "c", Source: "c.com"},
	)

	out := newEngine(true).Filter(compileAll("source:b.com"), page)

	if out.Total() != 1 {
		t.Fatalf("expected one removal, got %d", out.Total())
	}
	if out.Renumbered || page.RankWrites != 0 {
		t.Error("expected renumbering to be skipped")
	}
	var rankDiag bool
	for _, d := range out.DiagnosticsOf(filtering.ErrMissingField) {
		if d.Field == filtering.FieldRank && d.Detail == "top rank unavailable" {
			rankDiag = true
		}
	}
	if !rankDiag {
		t.Errorf("expected top rank diagnostic, got %v", out.Diagnostics)
	}
}

func TestFilterUserRuleIsExactAndCaseInsensitive(t *testing.T) {
	page := testutil.NewPage(testutil.Ranked(1,
		testutil.Submission(0, "a", "a.com", "SomeUser"),
		testutil.Submission(0, "b", "b.com", "someuser2"),
	)...)

	out := newEngine(true).Filter(compileAll("user:someuser"), page)

	if len(out.ByUser) != 1 || out.ByUser[0].Title != "a" {
		t.Fatalf("expected exact user match only, got %+v", out.ByUser)
	}
}

func TestFilterRemovedLogWrites(t *testing.T) {
	removedLog := filepath.Join(t.TempDir(), "removed.log")
	engine := filtering.New(filtering.Options{
		Renumber:       true,
		RemovedLogPath: removedLog,
		Log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	engine.Filter(compileAll("source:google.com"), sourcePage())
	if err := engine.Close(); err != nil {
		t.Fatalf("close engine: %v", err)
	}

	data, err := os.ReadFile(removedLog) // #nosec G304 -- test temp file path.
	if err != nil {
		t.Fatalf("read removed log: %v", err)
	}
	logText := string(data)
	if !strings.Contains(logText, `source="google.com"`) {
		t.Errorf("expected removed source in log, got %q", logText)
	}
	if !strings.Contains(logText, `rule="source:google.com"`) {
		t.Errorf("expected rule in log, got %q", logText)
	}
}
