// Package filtering removes listing rows that match compiled rules and keeps
// the remaining ranks contiguous.
package filtering

import (
	"log/slog"

	"hnblacklist/pkg/rules"
)

// categoryOrder is the order in which rule kinds run against the page.
var categoryOrder = []rules.Kind{rules.Source, rules.Title, rules.User}

// Engine applies rule sets to pages. It keeps no state between passes.
type Engine struct {
	renumber      bool
	log           *slog.Logger
	removedLogger *removedLogger
}

// Options configures an Engine.
type Options struct {
	// Renumber rewrites the remaining ranks after rows were removed.
	Renumber bool
	// RemovedLogPath appends one line per removed row when set.
	RemovedLogPath string
	Log            *slog.Logger
}

// New constructs an Engine.
func New(opts Options) *Engine {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		renumber:      opts.Renumber,
		log:           log,
		removedLogger: newRemovedLogger(opts.RemovedLogPath, log),
	}
}

// Close releases the removed row log.
func (e *Engine) Close() error {
	return e.removedLogger.Close()
}

// Filter removes every row of page matched by ruleSet. Source rules run first,
// then title rules, then user rules, each against the rows left by the
// previous ones. Invalid rules are skipped and exclusion rules protect their
// source from all source rules. Problems are recorded in the outcome's
// diagnostics; Filter never fails.
func (e *Engine) Filter(ruleSet []rules.Rule, page Page) Outcome {
	out := Outcome{}

	exclusions := BuildExclusionSet(ruleSet)
	active := make([]rules.Rule, 0, len(ruleSet))
	for _, r := range ruleSet {
		switch {
		case !r.Valid():
			out.record(Diagnostic{Err: ErrInvalidRule, Rule: r.Raw, Position: -1})
		case r.IsExclusion:
			e.log.Debug("source excluded from filtering", "rule", r.Raw)
		default:
			active = append(active, r)
		}
	}

	out.TopRank, out.HasTopRank = page.TopRank()

	rows := page.Rows()
	if len(rows) == 0 {
		e.log.Warn("no submissions found")
		out.record(Diagnostic{Err: ErrEmptyRowSet, Position: -1})
		return out
	}
	for _, row := range rows {
		for _, f := range row.Missing.Fields() {
			out.record(Diagnostic{Err: ErrMissingField, Field: f, Position: row.Position})
		}
	}

	for _, kind := range categoryOrder {
		for _, r := range active {
			if r.Kind == kind {
				e.apply(r, page, exclusions, &out)
			}
		}
	}

	if out.Total() == 0 {
		e.log.Info("nothing filtered")
		return out
	}
	e.reindex(page, &out)
	return out
}

func (e *Engine) apply(r rules.Rule, page Page, exclusions *ExclusionSet, out *Outcome) {
	matches := e.matcher(r, exclusions)

	removed := 0
	for _, row := range page.Rows() {
		if !matches(row) {
			continue
		}
		position := row.Position - removed
		if err := page.RemoveRowGroupAt(position); err != nil {
			e.log.Warn("failed to remove submission", "rule", r.Raw, "position", position, "error", err)
			out.record(Diagnostic{Err: ErrAdapter, Rule: r.Raw, Position: position, Detail: err.Error()})
			continue
		}
		removed++

		e.log.Info(r.Kind.String()+" blacklisted - removing",
			"rule", r.Raw, "rank", row.Rank, "title", row.Title, "source", row.Source, "submitter", row.Submitter)
		out.add(r.Kind, row)
		e.removedLogger.Log(r, row)
	}
}

func (e *Engine) matcher(r rules.Rule, exclusions *ExclusionSet) func(Row) bool {
	switch r.Kind {
	case rules.Source:
		m := newSourceMatcher(r)
		return func(row Row) bool {
			if !row.Has(FieldSource) {
				e.log.Debug("source unavailable, skipping", "rule", r.Raw, "position", row.Position)
				return false
			}
			if exclusions.Contains(row.Source) {
				return false
			}
			return m.match(normalizeSource(row.Source))
		}
	case rules.Title:
		return func(row Row) bool { return titleMatches(row, r) }
	case rules.User:
		return func(row Row) bool { return userMatches(row, r) }
	default:
		return func(Row) bool { return false }
	}
}

func (e *Engine) reindex(page Page, out *Outcome) {
	if !e.renumber {
		e.log.Debug("renumbering disabled")
		return
	}
	if !out.HasTopRank {
		e.log.Warn("top rank unavailable, not renumbering")
		out.record(Diagnostic{Err: ErrMissingField, Field: FieldRank, Position: 0, Detail: "top rank unavailable"})
		return
	}

	e.log.Info("reindexing submissions", "top_rank", out.TopRank)
	for i, row := range page.Rows() {
		if err := page.SetDisplayRank(row.Position, out.TopRank+i); err != nil {
			e.log.Warn("failed to set rank", "position", row.Position, "error", err)
			out.record(Diagnostic{Err: ErrAdapter, Position: row.Position, Detail: err.Error()})
		}
	}
	out.Renumbered = true
}
