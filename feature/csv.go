package feature

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-mosaic/frame"
)

// Metadata columns preceding the feature columns in persisted tables
var metaColumns = []string{"collection_id", "frame_id", "path", "start_sample", "end_sample"}

// SaveCSV writes the table as a row-oriented CSV file: one row per frame,
// metadata columns first, then one column per feature in schema order.
func (t *Table) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("feature: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append(append([]string{}, metaColumns...), t.schema...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("feature: write header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range t.rows {
		record[0] = row.Frame.CollectionID
		record[1] = row.Frame.ID()
		record[2] = row.Frame.Path
		record[3] = strconv.Itoa(row.Frame.StartSample)
		record[4] = strconv.Itoa(row.Frame.EndSample)
		for i, v := range row.Vector {
			record[len(metaColumns)+i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("feature: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("feature: flush %s: %w", path, err)
	}
	return nil
}

// LoadCSV reads a table previously written by SaveCSV. The reloaded table is
// equivalent to the saved one: same rows, same columns, same order.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feature: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("feature: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("feature: %s: empty file", path)
	}

	t := NewTable()

	header := records[0]
	want := append(append([]string{}, metaColumns...), t.schema...)
	if len(header) != len(want) {
		return nil, fmt.Errorf("feature: %s: expected %d columns, got %d", path, len(want), len(header))
	}
	for i, name := range want {
		if header[i] != name {
			return nil, fmt.Errorf("feature: %s: column %d is %q, expected %q", path, i, header[i], name)
		}
	}

	for lineNo, record := range records[1:] {
		if len(record) != len(want) {
			return nil, fmt.Errorf("feature: %s: row %d has %d fields", path, lineNo+2, len(record))
		}

		start, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, fmt.Errorf("feature: %s: row %d start_sample: %w", path, lineNo+2, err)
		}
		end, err := strconv.Atoi(record[4])
		if err != nil {
			return nil, fmt.Errorf("feature: %s: row %d end_sample: %w", path, lineNo+2, err)
		}

		index, err := parseFrameIndex(record[1])
		if err != nil {
			return nil, fmt.Errorf("feature: %s: row %d: %w", path, lineNo+2, err)
		}

		fr := frame.Frame{
			CollectionID: record[0],
			Index:        index,
			Path:         record[2],
			StartSample:  start,
			EndSample:    end,
		}

		v := make(Vector, len(t.schema))
		for i := range t.schema {
			val, err := strconv.ParseFloat(record[len(metaColumns)+i], 64)
			if err != nil {
				return nil, fmt.Errorf("feature: %s: row %d column %q: %w", path, lineNo+2, t.schema[i], err)
			}
			v[i] = val
		}

		if err := t.AddRow(fr, v); err != nil {
			return nil, fmt.Errorf("feature: %s: row %d: %w", path, lineNo+2, err)
		}
	}

	return t, nil
}

// parseFrameIndex extracts the frame index from an id of the form
// "{collection_id}_f{index}"
func parseFrameIndex(frameID string) (int, error) {
	pos := strings.LastIndex(frameID, "_f")
	if pos < 0 {
		return 0, fmt.Errorf("malformed frame id %q", frameID)
	}
	index, err := strconv.Atoi(frameID[pos+2:])
	if err != nil {
		return 0, fmt.Errorf("malformed frame id %q: %w", frameID, err)
	}
	return index, nil
}
