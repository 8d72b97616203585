package series

import (
	"time"
)

// Row is one record of a table. Index is the row's position in the source
// table (0-based, header excluded) and survives filtering.
type Row struct {
	Index  int               `json:"index"`
	Values map[string]string `json:"values"`
}

// Table is an in-memory tabular dataset with string-valued cells
type Table struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// NewTable builds a table from a header row and raw records, assigning
// sequential row indices.
func NewTable(headers []string, records [][]string) *Table {
	t := &Table{Headers: append([]string(nil), headers...)}
	t.Rows = make([]Row, 0, len(records))
	for i, rec := range records {
		values := make(map[string]string, len(headers))
		for j, cell := range rec {
			if j < len(headers) {
				values[headers[j]] = cell
			}
		}
		t.Rows = append(t.Rows, Row{Index: i, Values: values})
	}
	return t
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is one of the headers
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Column returns the raw cells of a column in row order
func (t *Table) Column(name string) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values[name]
	}
	return out
}

// SelectIndices returns a table holding the rows whose original Index is
// listed, in table order.
func (t *Table) SelectIndices(indices []int) *Table {
	want := make(map[int]bool, len(indices))
	for _, i := range indices {
		want[i] = true
	}
	out := &Table{Headers: append([]string(nil), t.Headers...)}
	for _, r := range t.Rows {
		if want[r.Index] {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Observation is one cleaned (timestamp, value) pair
type Observation struct {
	Row   int       `json:"row"`
	Time  time.Time `json:"time"`
	X     float64   `json:"x"`
	Value float64   `json:"value"`
}

// Series is a cleaned observation series ready for fitting
type Series struct {
	DateColumn   string        `json:"date_column"`
	ValueColumn  string        `json:"value_column"`
	Observations []Observation `json:"observations"`
	Dropped      int           `json:"dropped"`
}

// Len returns the number of observations
func (s *Series) Len() int {
	return len(s.Observations)
}

// X returns the numeric ordinates (seconds since the Unix epoch)
func (s *Series) X() []float64 {
	out := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.X
	}
	return out
}

// Y returns the observed values
func (s *Series) Y() []float64 {
	out := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Value
	}
	return out
}

// Rows returns the source row index of each observation
func (s *Series) Rows() []int {
	out := make([]int, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Row
	}
	return out
}
