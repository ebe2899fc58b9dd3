// Package selftest checks that a listing page still has the structure the page
// adapter expects before it is filtered.
package selftest

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hnblacklist/pkg/filtering"
)

// DefaultExpectedSubmissions is the number of submissions on a full listing page.
const DefaultExpectedSubmissions = 30

// probe is the submission inspected by the field checks.
const probe = 4

// Target is the page under test.
type Target interface {
	Rows() []filtering.Row
	TopRank() (int, bool)
	HasSubmissionTable() bool
}

// Check is a named self test.
type Check struct {
	Name string
	Run  func(Target) error
}

// Result is the outcome of a single check.
type Result struct {
	Name    string `yaml:"name"`
	Passed  bool   `yaml:"passed"`
	Message string `yaml:"message,omitempty"`
}

// Results summarises a run of checks.
type Results struct {
	TestCount int           `yaml:"test_count"`
	FailCount int           `yaml:"fail_count"`
	Duration  time.Duration `yaml:"-"`
	Checks    []Result      `yaml:"checks"`
}

// Passed is the number of checks that passed.
func (r Results) Passed() int {
	return r.TestCount - r.FailCount
}

// Failed returns the checks that did not pass.
func (r Results) Failed() []Result {
	var out []Result
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// AllowFilter reports whether a pass may filter: every check passed or force
// is set.
func (r Results) AllowFilter(force bool) bool {
	return force || r.FailCount == 0
}

// Summary renders a one-line summary of the run.
func (r Results) Summary() string {
	ms := r.Duration.Milliseconds()
	if r.FailCount == 0 {
		return fmt.Sprintf("Tests Results %d/%d Passed in %d ms", r.TestCount, r.TestCount, ms)
	}
	failed := make([]string, 0, r.FailCount)
	for _, c := range r.Failed() {
		failed = append(failed, c.Name+": "+c.Message)
	}
	return fmt.Sprintf("Tests Results %d/%d Passed [%s] in %d ms", r.Passed(), r.TestCount, strings.Join(failed, "; "), ms)
}

// Log writes the summary and one warning per failed check.
func (r Results) Log(log *slog.Logger) {
	log.Info(r.Summary())
	for _, c := range r.Failed() {
		log.Warn("self test failed", "test", c.Name, "error", c.Message)
	}
}

// Run executes checks against target in order. A panicking check counts as failed.
func Run(target Target, checks []Check) Results {
	start := time.Now()
	res := Results{TestCount: len(checks), Checks: make([]Result, 0, len(checks))}
	for _, c := range checks {
		err := runCheck(c, target)
		r := Result{Name: c.Name, Passed: err == nil}
		if err != nil {
			r.Message = err.Error()
			res.FailCount++
		}
		res.Checks = append(res.Checks, r)
	}
	res.Duration = time.Since(start)
	return res
}

func runCheck(c Check, target Target) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return c.Run(target)
}

// DefaultChecks are the checks run before every pass.
var DefaultChecks = Checks(DefaultExpectedSubmissions)

// Checks returns the registered checks for a page expected to hold
// expected submissions.
func Checks(expected int) []Check {
	return []Check{
		{Name: "submission_table", Run: submissionTable},
		{Name: "submission_count", Run: submissionCount(expected)},
		{Name: "rank", Run: rank},
		{Name: "top_rank", Run: topRank},
		{Name: "submitter", Run: field(filtering.FieldSubmitter, "submitter", func(r filtering.Row) string { return r.Submitter })},
		{Name: "title_info", Run: titleInfo},
		{Name: "title_text", Run: field(filtering.FieldTitle, "title", func(r filtering.Row) string { return r.Title })},
		{Name: "source", Run: field(filtering.FieldSource, "source", func(r filtering.Row) string { return r.Source })},
	}
}

var (
	errNoTable       = errors.New("unable to obtain submission table")
	errTooFewRows    = errors.New("fewer than 5 submissions")
	errNoTopRank     = errors.New("unable to get top rank")
	errRankMismatch  = errors.New("unable to obtain submission rank")
	errNoTitleInfo   = errors.New("couldn't get title info")
	errMissingOrNone = errors.New("missing or blank")
)

func submissionTable(t Target) error {
	if !t.HasSubmissionTable() {
		return errNoTable
	}
	return nil
}

func submissionCount(expected int) func(Target) error {
	return func(t Target) error {
		if n := len(t.Rows()); n != expected {
			return fmt.Errorf("submissions length is wrong: expected %d, got %d", expected, n)
		}
		return nil
	}
}

func probeRow(t Target) (filtering.Row, error) {
	rows := t.Rows()
	if len(rows) <= probe {
		return filtering.Row{}, errTooFewRows
	}
	return rows[probe], nil
}

func rank(t Target) error {
	rows := t.Rows()
	if len(rows) <= probe {
		return errTooFewRows
	}
	first, fifth := rows[0], rows[probe]
	if !first.Has(filtering.FieldRank) {
		return errors.New("first submission rank is missing")
	}
	if !fifth.Has(filtering.FieldRank) {
		return errors.New("fifth submission rank is missing")
	}
	if fifth.Rank != first.Rank+probe {
		return fmt.Errorf("%w: first %d, fifth %d", errRankMismatch, first.Rank, fifth.Rank)
	}
	return nil
}

func topRank(t Target) error {
	if _, ok := t.TopRank(); !ok {
		return errNoTopRank
	}
	return nil
}

func titleInfo(t Target) error {
	row, err := probeRow(t)
	if err != nil {
		return err
	}
	if !row.Has(filtering.FieldTitle) && !row.Has(filtering.FieldSource) {
		return errNoTitleInfo
	}
	return nil
}

func field(f filtering.Field, name string, value func(filtering.Row) string) func(Target) error {
	return func(t Target) error {
		row, err := probeRow(t)
		if err != nil {
			return err
		}
		if !row.Has(f) || strings.TrimSpace(value(row)) == "" {
			return fmt.Errorf("%s of fifth submission: %w", name, errMissingOrNone)
		}
		return nil
	}
}
