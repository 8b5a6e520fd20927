// Package mosaic reconstructs a target recording out of source frames.
// Each analyzed target frame is swapped for its best-matching source
// frame, and the matched segments are laid into an output buffer at the
// target frame's own position.
package mosaic

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-mosaic/feature"
	"github.com/RyanBlaney/sonido-mosaic/frame"
	"github.com/RyanBlaney/sonido-mosaic/logging"
	"github.com/RyanBlaney/sonido-mosaic/match"
)

// MatchFunc resolves one target feature vector to a source frame
type MatchFunc func(query feature.Vector) (*match.Decision, error)

// Placement records where one matched segment landed in the output
type Placement struct {
	Target   frame.Frame `json:"target"`
	Source   frame.Frame `json:"source"`
	Distance float64     `json:"distance"`
	Written  int         `json:"written"`
}

// Result is a finished reconstruction
type Result struct {
	RunID      string      `json:"run_id"`
	Samples    []float64   `json:"-"`
	Placements []Placement `json:"placements"`

	// Collections holds the distinct source collection IDs that
	// contributed at least one segment, in first-use order.
	Collections []string `json:"collections"`
}

// Assembler drives a reconstruction run: match every target frame, fetch
// the matched segments through the cache, and write them into the output
// buffer in target order.
type Assembler struct {
	cache   *SegmentCache
	matchFn MatchFunc
	logger  logging.Logger
}

// NewAssembler creates an assembler over the given cache and match
// function
func NewAssembler(cache *SegmentCache, matchFn MatchFunc) *Assembler {
	return &Assembler{
		cache:   cache,
		matchFn: matchFn,
		logger: logging.WithFields(logging.Fields{
			"component": "assembler",
		}),
	}
}

// Assemble reconstructs the target. The output buffer spans the full
// target recording (outputLength samples); frames are processed in table
// order and each matched segment starts at its target frame's start
// sample. Regions no segment reaches, including the tail past the last
// frame boundary, stay silent. Matched segments longer than the room left
// in the buffer are cut at the buffer end.
func (a *Assembler) Assemble(target *feature.Table, outputLength int) (*Result, error) {
	if outputLength < 0 {
		return nil, fmt.Errorf("mosaic: negative output length %d", outputLength)
	}

	result := &Result{
		RunID:      uuid.New().String(),
		Samples:    make([]float64, outputLength),
		Placements: make([]Placement, 0, target.Len()),
	}
	seen := make(map[string]bool)

	a.logger.Info("Starting reconstruction", logging.Fields{
		"run_id":         result.RunID,
		"target_frames":  target.Len(),
		"output_samples": outputLength,
	})

	for _, row := range target.Rows() {
		decision, err := a.matchFn(row.Vector)
		if err != nil {
			return nil, fmt.Errorf("mosaic: frame %s: %w", row.Frame.ID(), err)
		}

		// The segment starts where the matched source frame starts but
		// spans the target frame's length, so beat-synced targets keep
		// their own timing.
		src := decision.Chosen.Frame
		segment, err := a.cache.GetSegment(src.Path, src.StartSample, row.Frame.Length())
		if err != nil {
			return nil, fmt.Errorf("mosaic: frame %s: load %s: %w", row.Frame.ID(), src.Path, err)
		}

		written := a.place(result.Samples, row.Frame.StartSample, segment)

		result.Placements = append(result.Placements, Placement{
			Target:   row.Frame,
			Source:   src,
			Distance: decision.Distance,
			Written:  written,
		})
		if !seen[src.CollectionID] {
			seen[src.CollectionID] = true
			result.Collections = append(result.Collections, src.CollectionID)
		}
	}

	a.logger.Info("Reconstruction complete", logging.Fields{
		"run_id":      result.RunID,
		"placements":  len(result.Placements),
		"collections": len(result.Collections),
	})
	return result, nil
}

// place copies segment into out starting at offset, cutting at the
// buffer bounds. Returns the number of samples written.
func (a *Assembler) place(out []float64, offset int, segment []float64) int {
	if offset >= len(out) || offset+len(segment) <= 0 {
		return 0
	}
	if offset < 0 {
		segment = segment[-offset:]
		offset = 0
	}
	return copy(out[offset:], segment)
}
