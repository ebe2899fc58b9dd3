// Package report turns the result of a filtering pass into messages for the
// log, the rendered page and a YAML file.
package report

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"hnblacklist/pkg/filtering"
	"hnblacklist/pkg/rules"
	"hnblacklist/pkg/selftest"
)

// Summary collects everything known about one pass.
type Summary struct {
	Page    string
	Rules   rules.List
	Tests   selftest.Results
	Outcome filtering.Outcome
	// Filtered is false when the pass skipped filtering after failed self tests.
	Filtered bool
	Elapsed  time.Duration
}

// ValidityMessage reports whether the supplied rules compiled.
func (s Summary) ValidityMessage() string {
	msg := "Entry Validity: "
	switch {
	case len(s.Rules) == 0:
		return msg + "No entries supplied"
	case len(s.Rules.Invalid()) > 0:
		return msg + "One or more of your entries is invalid. Check the log for details"
	default:
		return msg + "All entries valid"
	}
}

// FilteredMessage reports how many rows each rule kind removed.
func (s Summary) FilteredMessage() string {
	if !s.Filtered {
		return "Filtered: One or more tests failed - did not try to filter"
	}
	return fmt.Sprintf("Filtered: %d by source, %d by title, %d by user",
		len(s.Outcome.BySource), len(s.Outcome.ByTitle), len(s.Outcome.ByUser))
}

// TestMessage reports the self test results.
func (s Summary) TestMessage() string {
	msg := fmt.Sprintf("Test Results: %d/%d Passed in %d ms.", s.Tests.Passed(), s.Tests.TestCount, s.Tests.Duration.Milliseconds())
	if s.Tests.FailCount > 0 {
		msg += " Check the log for details."
	}
	return msg
}

// ExecutionTimeMessage reports how long the pass took.
func (s Summary) ExecutionTimeMessage() string {
	return fmt.Sprintf("Execution Time: %d ms", s.Elapsed.Milliseconds())
}

// Lines returns the messages shown below the listing.
func (s Summary) Lines() []string {
	return []string{
		s.FilteredMessage(),
		s.ValidityMessage(),
		s.TestMessage(),
		s.ExecutionTimeMessage(),
	}
}

// Log writes the messages and the pass diagnostics.
func (s Summary) Log(log *slog.Logger) {
	for _, line := range s.Lines() {
		log.Info(line, "page", s.Page)
	}
	missing := 0
	for _, d := range s.Outcome.Diagnostics {
		switch {
		case errors.Is(d, filtering.ErrMissingField) && d.Detail == "":
			missing++
			log.Debug("diagnostic", "page", s.Page, "error", d.Error())
		case errors.Is(d, filtering.ErrInvalidRule):
			log.Debug("diagnostic", "page", s.Page, "error", d.Error())
		default:
			log.Warn("diagnostic", "page", s.Page, "error", d.Error())
		}
	}
	if missing > 0 {
		log.Info("fields missing from submissions", "page", s.Page, "count", missing)
	}
}

type removed struct {
	Source []filtering.Row `yaml:"source,omitempty"`
	Title  []filtering.Row `yaml:"title,omitempty"`
	User   []filtering.Row `yaml:"user,omitempty"`
}

type document struct {
	Page          string            `yaml:"page,omitempty"`
	Validity      string            `yaml:"validity"`
	Filtered      string            `yaml:"filtered"`
	Tests         string            `yaml:"tests"`
	ExecutionTime string            `yaml:"execution_time"`
	TopRank       *int              `yaml:"top_rank,omitempty"`
	Renumbered    bool              `yaml:"renumbered"`
	Removed       removed           `yaml:"removed"`
	InvalidRules  []string          `yaml:"invalid_rules,omitempty"`
	FailedTests   []selftest.Result `yaml:"failed_tests,omitempty"`
	Diagnostics   []string          `yaml:"diagnostics,omitempty"`
}

func (s Summary) document() document {
	doc := document{
		Page:          s.Page,
		Validity:      s.ValidityMessage(),
		Filtered:      s.FilteredMessage(),
		Tests:         s.TestMessage(),
		ExecutionTime: s.ExecutionTimeMessage(),
		Renumbered:    s.Outcome.Renumbered,
		Removed: removed{
			Source: s.Outcome.BySource,
			Title:  s.Outcome.ByTitle,
			User:   s.Outcome.ByUser,
		},
		FailedTests: s.Tests.Failed(),
	}
	if s.Outcome.HasTopRank {
		top := s.Outcome.TopRank
		doc.TopRank = &top
	}
	for _, r := range s.Rules.Invalid() {
		doc.InvalidRules = append(doc.InvalidRules, r.Raw)
	}
	for _, d := range s.Outcome.Diagnostics {
		doc.Diagnostics = append(doc.Diagnostics, d.Error())
	}
	return doc
}

// WriteYAML serializes the summaries as a YAML sequence.
func WriteYAML(w io.Writer, summaries ...Summary) error {
	docs := make([]document, len(summaries))
	for i, s := range summaries {
		docs[i] = s.document()
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
