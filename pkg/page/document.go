// Package page reads and rewrites a saved Hacker News listing page.
package page

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"hnblacklist/pkg/filtering"
)

const (
	submissionClass = "athing"
	userHrefPrefix  = "user?id="
	summaryTableID  = "hnBlacklist"
	mainTableID     = "hnmain"
)

// ErrNoSubmission is returned when a position does not name a submission.
var ErrNoSubmission = errors.New("no submission at position")

// Options configures a Document.
type Options struct {
	Log *slog.Logger
}

// Document is a parsed listing page. It implements filtering.Page.
type Document struct {
	root *html.Node
	log  *slog.Logger
}

var _ filtering.Page = (*Document)(nil)

// Parse reads a listing page.
func Parse(r io.Reader, opts Options) (*Document, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Document{root: root, log: log}, nil
}

// Load reads the listing page stored in path.
func Load(path string, opts Options) (*Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is provided by the user.
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return Parse(bytes.NewReader(data), opts)
}

// Render writes the page as HTML.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// Save renders the page into path.
func (d *Document) Save(path string) error {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- rendered page is public content.
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}

// HasSubmissionTable reports whether the table holding the submissions exists.
func (d *Document) HasSubmissionTable() bool {
	subs := d.submissions()
	return len(subs) > 0 && subs[0].Parent != nil
}

// Rows implements filtering.Page.
func (d *Document) Rows() []filtering.Row {
	subs := d.submissions()
	rows := make([]filtering.Row, len(subs))
	for i, sub := range subs {
		rows[i] = d.row(i, sub)
	}
	return rows
}

// RemoveRowGroupAt implements filtering.Page. The submission row is removed
// with its subtext and spacer rows.
func (d *Document) RemoveRowGroupAt(position int) error {
	sub, err := d.submissionAt(position)
	if err != nil {
		return err
	}

	group := []*html.Node{sub}
	next := sub
	for i := 0; i < 2; i++ {
		next = nextElementSibling(next)
		if !isElement(next, atom.Tr) || hasClass(next, submissionClass) {
			break
		}
		group = append(group, next)
	}

	for _, n := range group {
		n.Parent.RemoveChild(n)
	}
	if len(group) < 3 {
		d.log.Warn("submission removed without companion rows", "position", position, "rows", len(group))
	}
	return nil
}

// SetDisplayRank implements filtering.Page.
func (d *Document) SetDisplayRank(position, rank int) error {
	sub, err := d.submissionAt(position)
	if err != nil {
		return err
	}
	cell := rankCell(sub)
	if cell == nil {
		return fmt.Errorf("no rank cell at position %d", position)
	}
	target := cell
	if span := findFirst(cell, byClass(atom.Span, "rank")); span != nil {
		target = span
	}
	setText(target, strconv.Itoa(rank)+".")
	return nil
}

// TopRank implements filtering.Page.
func (d *Document) TopRank() (int, bool) {
	subs := d.submissions()
	if len(subs) == 0 {
		d.log.Warn("submissions are empty")
		return 0, false
	}
	return d.rank(subs[0])
}

// AppendSummary adds a row carrying lines below the main table, replacing
// an earlier summary.
func (d *Document) AppendSummary(lines []string) error {
	if old := findFirst(d.root, byID(summaryTableID)); old != nil {
		outer := old
		for outer.Parent != nil && !isElement(outer, atom.Tr) {
			outer = outer.Parent
		}
		if outer.Parent != nil {
			outer.Parent.RemoveChild(outer)
		}
	}

	mainTable := findFirst(d.root, byID(mainTableID))
	if mainTable == nil {
		return fmt.Errorf("no %s table", mainTableID)
	}
	bodies := childElements(mainTable, atom.Tbody)
	if len(bodies) == 0 {
		return fmt.Errorf("no body in %s table", mainTableID)
	}
	tbody := bodies[len(bodies)-1]

	inner := element(atom.Tbody)
	for _, line := range lines {
		p := element(atom.P)
		p.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		td := element(atom.Td)
		td.AppendChild(p)
		tr := element(atom.Tr)
		tr.AppendChild(td)
		inner.AppendChild(tr)
	}
	table := element(atom.Table, html.Attribute{Key: "id", Val: summaryTableID})
	table.AppendChild(inner)
	cell := element(atom.Td)
	cell.AppendChild(table)
	row := element(atom.Tr)
	row.AppendChild(cell)
	tbody.AppendChild(row)
	return nil
}

func (d *Document) submissions() []*html.Node {
	return findAll(d.root, byClass(atom.Tr, submissionClass))
}

func (d *Document) submissionAt(position int) (*html.Node, error) {
	subs := d.submissions()
	if position < 0 || position >= len(subs) {
		return nil, fmt.Errorf("%w %d", ErrNoSubmission, position)
	}
	return subs[position], nil
}

func (d *Document) row(position int, sub *html.Node) filtering.Row {
	row := filtering.Row{Position: position}

	if rank, ok := d.rank(sub); ok {
		row.Rank = rank
	} else {
		row.Missing |= filtering.FieldRank
	}

	cell := titleCell(sub)
	if cell == nil {
		d.log.Debug("no title info found", "position", position)
		row.Missing |= filtering.FieldTitle | filtering.FieldSource
	} else {
		if title, ok := titleText(cell); ok {
			row.Title = title
		} else {
			row.Missing |= filtering.FieldTitle
		}
		if source, ok := sourceText(cell); ok {
			row.Source = source
		} else {
			d.log.Debug("no source found", "position", position)
			row.Missing |= filtering.FieldSource
		}
	}

	if submitter, ok := submitterOf(sub); ok {
		row.Submitter = submitter
	} else {
		d.log.Debug("no submitter found", "position", position, "rank", row.Rank)
		row.Missing |= filtering.FieldSubmitter
	}
	return row
}

func (d *Document) rank(sub *html.Node) (int, bool) {
	cell := rankCell(sub)
	if cell == nil {
		d.log.Debug("no rank found")
		return 0, false
	}
	text := strings.TrimSuffix(strings.TrimSpace(textContent(cell)), ".")
	rank, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		d.log.Debug("rank is not a number", "rank", text)
		return 0, false
	}
	return rank, true
}

// titleCells returns the "title" cells of a submission row: the rank cell
// followed by the headline cell.
func titleCells(sub *html.Node) []*html.Node {
	var out []*html.Node
	for _, td := range childElements(sub, atom.Td) {
		if hasClass(td, "title") {
			out = append(out, td)
		}
	}
	return out
}

func rankCell(sub *html.Node) *html.Node {
	cells := titleCells(sub)
	if len(cells) < 1 {
		return nil
	}
	return cells[0]
}

func titleCell(sub *html.Node) *html.Node {
	cells := titleCells(sub)
	if len(cells) < 2 {
		return nil
	}
	return cells[1]
}

func titleText(cell *html.Node) (string, bool) {
	if line := findFirst(cell, byClass(atom.Span, "titleline")); line != nil {
		if link := findFirst(line, func(n *html.Node) bool { return isElement(n, atom.A) }); link != nil {
			title := textContent(link)
			return title, title != ""
		}
	}
	text := textContent(cell)
	if i := strings.LastIndex(text, "("); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	return text, text != ""
}

// sourceText prefers the site label. Markup without a title line falls back to
// the trailing "(source)" of the cell text.
func sourceText(cell *html.Node) (string, bool) {
	if site := findFirst(cell, byClass(atom.Span, "sitestr")); site != nil {
		source := strings.TrimSpace(textContent(site))
		return source, source != ""
	}
	if findFirst(cell, byClass(atom.Span, "titleline")) != nil {
		return "", false
	}
	text := textContent(cell)
	open := strings.LastIndex(text, "(")
	if open < 0 || !strings.HasSuffix(text, ")") {
		return "", false
	}
	source := strings.TrimSpace(text[open+1 : len(text)-1])
	return source, source != ""
}

func submitterOf(sub *html.Node) (string, bool) {
	next := nextElementSibling(sub)
	if !isElement(next, atom.Tr) {
		return "", false
	}
	link := findFirst(next, byClass(atom.A, "hnuser"))
	if link == nil {
		return "", false
	}
	href, ok := attr(link, "href")
	if !ok {
		return "", false
	}
	user := strings.TrimPrefix(href, userHrefPrefix)
	return user, user != ""
}
