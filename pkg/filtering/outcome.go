package filtering

import (
	"errors"
	"fmt"

	"hnblacklist/pkg/rules"
)

var (
	// ErrInvalidRule marks a rule that failed to compile and was skipped.
	ErrInvalidRule = errors.New("invalid rule")
	// ErrMissingField marks a row field the page adapter could not extract.
	ErrMissingField = errors.New("missing field")
	// ErrEmptyRowSet marks a pass over a page without rows.
	ErrEmptyRowSet = errors.New("empty row set")
	// ErrAdapter marks a page mutation that failed.
	ErrAdapter = errors.New("page adapter")
)

// Diagnostic records something that went wrong during a pass. None of them
// abort the pass.
type Diagnostic struct {
	Err      error
	Rule     string
	Position int
	Field    Field
	Detail   string
}

func (d Diagnostic) Error() string {
	msg := d.Err.Error()
	if d.Rule != "" {
		msg += fmt.Sprintf(" %q", d.Rule)
	}
	if d.Field != 0 {
		msg += " " + d.Field.String()
	}
	if d.Position >= 0 {
		msg += fmt.Sprintf(" at position %d", d.Position)
	}
	if d.Detail != "" {
		msg += ": " + d.Detail
	}
	return msg
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Outcome is the result of one filtering pass.
type Outcome struct {
	BySource    []Row
	ByTitle     []Row
	ByUser      []Row
	TopRank     int
	HasTopRank  bool
	Renumbered  bool
	Diagnostics []Diagnostic
}

// Total returns the number of rows removed across all rule kinds.
func (o Outcome) Total() int {
	return len(o.BySource) + len(o.ByTitle) + len(o.ByUser)
}

// Removed returns the rows removed by rules of the given kind.
func (o Outcome) Removed(kind rules.Kind) []Row {
	switch kind {
	case rules.Source:
		return o.BySource
	case rules.Title:
		return o.ByTitle
	case rules.User:
		return o.ByUser
	default:
		return nil
	}
}

// DiagnosticsOf returns the diagnostics matching target.
func (o Outcome) DiagnosticsOf(target error) []Diagnostic {
	var out []Diagnostic
	for _, d := range o.Diagnostics {
		if errors.Is(d, target) {
			out = append(out, d)
		}
	}
	return out
}

func (o *Outcome) add(kind rules.Kind, row Row) {
	switch kind {
	case rules.Source:
		o.BySource = append(o.BySource, row)
	case rules.Title:
		o.ByTitle = append(o.ByTitle, row)
	case rules.User:
		o.ByUser = append(o.ByUser, row)
	}
}

func (o *Outcome) record(d Diagnostic) {
	o.Diagnostics = append(o.Diagnostics, d)
}
