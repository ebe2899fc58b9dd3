// Package testutil provides helpers for deterministic filtering tests.
package testutil

import (
	"fmt"

	"hnblacklist/pkg/filtering"
)

// Page is an in-memory filtering.Page.
type Page struct {
	rows []filtering.Row
	// FailRemove makes RemoveRowGroupAt fail for rows with these titles.
	FailRemove map[string]bool
	Removed    []int
	RankWrites int
}

// NewPage creates a page holding rows in order.
func NewPage(rows ...filtering.Row) *Page {
	p := &Page{rows: append([]filtering.Row(nil), rows...)}
	return p
}

// Submission builds a row with every field present.
func Submission(rank int, title, source, submitter string) filtering.Row {
	return filtering.Row{Rank: rank, Title: title, Source: source, Submitter: submitter}
}

// Ranked builds rows with ranks counting up from first.
func Ranked(first int, rows ...filtering.Row) []filtering.Row {
	out := make([]filtering.Row, len(rows))
	for i, row := range rows {
		row.Rank = first + i
		out[i] = row
	}
	return out
}

// Rows implements filtering.Page.
func (p *Page) Rows() []filtering.Row {
	out := make([]filtering.Row, len(p.rows))
	for i, row := range p.rows {
		row.Position = i
		out[i] = row
	}
	return out
}

// RemoveRowGroupAt implements filtering.Page.
func (p *Page) RemoveRowGroupAt(position int) error {
	if position < 0 || position >= len(p.rows) {
		return fmt.Errorf("no row at position %d", position)
	}
	if p.FailRemove[p.rows[position].Title] {
		return fmt.Errorf("row %q is locked", p.rows[position].Title)
	}
	p.rows = append(p.rows[:position], p.rows[position+1:]...)
	p.Removed = append(p.Removed, position)
	return nil
}

// SetDisplayRank implements filtering.Page.
func (p *Page) SetDisplayRank(position, rank int) error {
	if position < 0 || position >= len(p.rows) {
		return fmt.Errorf("no row at position %d", position)
	}
	p.rows[position].Rank = rank
	p.rows[position].Missing &^= filtering.FieldRank
	p.RankWrites++
	return nil
}

// TopRank implements filtering.Page.
func (p *Page) TopRank() (int, bool) {
	if len(p.rows) == 0 || !p.rows[0].Has(filtering.FieldRank) {
		return 0, false
	}
	return p.rows[0].Rank, true
}

// Ranks returns the displayed rank of every row.
func (p *Page) Ranks() []int {
	out := make([]int, len(p.rows))
	for i, row := range p.rows {
		out[i] = row.Rank
	}
	return out
}

// Titles returns the title of every row.
func (p *Page) Titles() []string {
	out := make([]string, len(p.rows))
	for i, row := range p.rows {
		out[i] = row.Title
	}
	return out
}
