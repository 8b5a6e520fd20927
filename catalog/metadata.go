package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// tagSeparator joins a sound's tags into one CSV field
const tagSeparator = "|"

var entryColumns = []string{"collection_id", "name", "username", "license", "tags", "path"}

// Entry is one sound of the downloaded collection: the identity and
// attribution metadata plus the local path of its audio file.
type Entry struct {
	CollectionID string   `json:"collection_id"`
	Name         string   `json:"name"`
	Username     string   `json:"username"`
	License      string   `json:"license"`
	Tags         []string `json:"tags"`
	Path         string   `json:"path"`
}

// NewEntry builds the metadata entry for a downloaded sound
func NewEntry(sound Sound, localPath string) Entry {
	return Entry{
		CollectionID: strconv.Itoa(sound.ID),
		Name:         sound.Name,
		Username:     sound.Username,
		License:      sound.License,
		Tags:         append([]string{}, sound.Tags...),
		Path:         localPath,
	}
}

// SaveEntries writes the collection metadata as CSV, one row per sound
func SaveEntries(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("catalog: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(entryColumns); err != nil {
		return fmt.Errorf("catalog: write header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.CollectionID,
			e.Name,
			e.Username,
			e.License,
			strings.Join(e.Tags, tagSeparator),
			e.Path,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("catalog: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("catalog: flush %s: %w", path, err)
	}
	return nil
}

// LoadEntries reads collection metadata previously written by
// SaveEntries
func LoadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog: %s: empty file", path)
	}

	header := records[0]
	if len(header) != len(entryColumns) {
		return nil, fmt.Errorf("catalog: %s: expected %d columns, got %d", path, len(entryColumns), len(header))
	}
	for i, name := range entryColumns {
		if header[i] != name {
			return nil, fmt.Errorf("catalog: %s: column %d is %q, expected %q", path, i, header[i], name)
		}
	}

	entries := make([]Entry, 0, len(records)-1)
	for lineNo, record := range records[1:] {
		if len(record) != len(entryColumns) {
			return nil, fmt.Errorf("catalog: %s: row %d has %d fields", path, lineNo+2, len(record))
		}
		var tags []string
		if record[4] != "" {
			tags = strings.Split(record[4], tagSeparator)
		}
		entries = append(entries, Entry{
			CollectionID: record[0],
			Name:         record[1],
			Username:     record[2],
			License:      record[3],
			Tags:         tags,
			Path:         record[5],
		})
	}
	return entries, nil
}
