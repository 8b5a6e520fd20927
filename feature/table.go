package feature

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-mosaic/frame"
)

// Row is one (frame, vector) pair of a table
type Row struct {
	Frame  frame.Frame
	Vector Vector
}

// Table is an insertion-ordered collection of feature rows belonging to one
// audio source (a source collection or a single target file). Row order is
// semantically meaningful for target tables: it dictates output position.
type Table struct {
	schema  []string
	colIdx  map[string]int
	rows    []Row
	skipped int
}

// NewTable creates an empty table over the shared feature schema
func NewTable() *Table {
	schema := Schema()
	colIdx := make(map[string]int, len(schema))
	for i, name := range schema {
		colIdx[name] = i
	}
	return &Table{
		schema: schema,
		colIdx: colIdx,
	}
}

// AddRow appends a row. The vector must match the table schema exactly.
func (t *Table) AddRow(f frame.Frame, v Vector) error {
	if len(v) != len(t.schema) {
		return fmt.Errorf("vector has %d values, schema has %d columns", len(v), len(t.schema))
	}
	t.rows = append(t.rows, Row{Frame: f, Vector: v})
	return nil
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the row at index i in insertion order
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Rows returns all rows in insertion order. The slice is shared; callers
// must not mutate it.
func (t *Table) Rows() []Row {
	return t.rows
}

// Schema returns a copy of the table's ordered feature-name schema
func (t *Table) Schema() []string {
	out := make([]string, len(t.schema))
	copy(out, t.schema)
	return out
}

// RecordSkip counts a file that failed analysis and was skipped
func (t *Table) RecordSkip() {
	t.skipped++
}

// Skipped returns how many files were skipped while building the table
func (t *Table) Skipped() int {
	return t.skipped
}

// columnIndices validates the requested feature subset against the schema
func (t *Table) columnIndices(features []string) ([]int, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("no features requested")
	}

	indices := make([]int, len(features))
	for i, name := range features {
		idx, ok := t.colIdx[name]
		if !ok {
			return nil, fmt.Errorf("unknown feature %q", name)
		}
		indices[i] = idx
	}
	return indices, nil
}

// Select produces a matrix with one row per table row in insertion order and
// one column per requested feature, in the exact order of features. Both
// sides of a similarity computation must project with the identical feature
// list or distances are meaningless.
func (t *Table) Select(features []string) (*mat.Dense, error) {
	indices, err := t.columnIndices(features)
	if err != nil {
		return nil, err
	}

	if len(t.rows) == 0 {
		return nil, fmt.Errorf("table has no rows")
	}

	m := mat.NewDense(len(t.rows), len(features), nil)
	for r, row := range t.rows {
		for c, idx := range indices {
			m.Set(r, c, row.Vector[idx])
		}
	}
	return m, nil
}

// Project selects the requested features from a single vector, in the same
// order Select uses for table rows
func (t *Table) Project(v Vector, features []string) ([]float64, error) {
	if len(v) != len(t.schema) {
		return nil, fmt.Errorf("vector has %d values, schema has %d columns", len(v), len(t.schema))
	}

	indices, err := t.columnIndices(features)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = v[idx]
	}
	return out, nil
}
