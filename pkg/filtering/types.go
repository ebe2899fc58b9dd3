package filtering

import "strings"

// Field names one extractable part of a listing row.
type Field uint8

const (
	FieldTitle Field = 1 << iota
	FieldSource
	FieldSubmitter
	FieldRank
)

var fieldNames = []struct {
	field Field
	name  string
}{
	{FieldTitle, "title"},
	{FieldSource, "source"},
	{FieldSubmitter, "submitter"},
	{FieldRank, "rank"},
}

func (f Field) String() string {
	if f == 0 {
		return "none"
	}
	names := make([]string, 0, len(fieldNames))
	for _, fn := range fieldNames {
		if f&fn.field != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

// Fields splits a set into its single fields.
func (f Field) Fields() []Field {
	var out []Field
	for _, fn := range fieldNames {
		if f&fn.field != 0 {
			out = append(out, fn.field)
		}
	}
	return out
}

// Row is a read-only snapshot of one listing entry. Fields the page adapter
// could not extract are flagged in Missing and never match a rule.
type Row struct {
	Position  int    `yaml:"position"`
	Rank      int    `yaml:"rank,omitempty"`
	Title     string `yaml:"title,omitempty"`
	Source    string `yaml:"source,omitempty"`
	Submitter string `yaml:"submitter,omitempty"`
	Missing   Field  `yaml:"-"`
}

// Has reports whether the field was extracted.
func (r Row) Has(f Field) bool {
	return r.Missing&f == 0
}

// Page is the listing the engine filters.
//
// Rows returns the current rows in display order with Position equal to the
// row's index. Removing a row group shifts every later row up by one.
type Page interface {
	Rows() []Row
	// RemoveRowGroupAt removes the submission at position together with its
	// subtext and spacer rows.
	RemoveRowGroupAt(position int) error
	SetDisplayRank(position, rank int) error
	TopRank() (int, bool)
}
