package mosaic

import (
	"testing"

	"github.com/RyanBlaney/sonido-mosaic/feature"
	"github.com/RyanBlaney/sonido-mosaic/frame"
	"github.com/RyanBlaney/sonido-mosaic/match"
)

func targetTable(t *testing.T, frameSize, count int) *feature.Table {
	t.Helper()
	table := feature.NewTable()
	for i := 0; i < count; i++ {
		f := frame.Frame{
			CollectionID: "target.wav",
			Index:        i,
			Path:         "target.wav",
			StartSample:  i * frameSize,
			EndSample:    (i + 1) * frameSize,
		}
		if err := table.AddRow(f, make(feature.Vector, len(feature.Schema()))); err != nil {
			t.Fatalf("AddRow: %v", err)
		}
	}
	return table
}

func constantLoader(value float64, length int) Loader {
	return LoaderFunc(func(path string) ([]float64, error) {
		samples := make([]float64, length)
		for i := range samples {
			samples[i] = value
		}
		return samples, nil
	})
}

func fixedMatch(source frame.Frame) MatchFunc {
	return func(query feature.Vector) (*match.Decision, error) {
		row := feature.Row{Frame: source, Vector: make(feature.Vector, len(feature.Schema()))}
		return &match.Decision{
			Chosen:   row,
			Distance: 1.0,
			Ranked:   []match.Candidate{{Row: row, Distance: 1.0}},
		}, nil
	}
}

func TestAssembleCoversFramesLeavesTailSilent(t *testing.T) {
	source := frame.Frame{
		CollectionID: "777",
		Index:        0,
		Path:         "files/777.ogg",
		StartSample:  0,
		EndSample:    100,
	}
	cache := NewSegmentCache(constantLoader(0.25, 1000))
	assembler := NewAssembler(cache, fixedMatch(source))

	// 3 frames of 100 samples in a 350-sample recording: 50-sample tail
	target := targetTable(t, 100, 3)
	result, err := assembler.Assemble(target, 350)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if len(result.Samples) != 350 {
		t.Fatalf("output has %d samples, want 350", len(result.Samples))
	}
	for i := 0; i < 300; i++ {
		if result.Samples[i] != 0.25 {
			t.Fatalf("sample %d = %v, want covered value 0.25", i, result.Samples[i])
		}
	}
	for i := 300; i < 350; i++ {
		if result.Samples[i] != 0 {
			t.Fatalf("tail sample %d = %v, want silence", i, result.Samples[i])
		}
	}

	if len(result.Placements) != 3 {
		t.Errorf("got %d placements, want 3", len(result.Placements))
	}
	if len(result.Collections) != 1 || result.Collections[0] != "777" {
		t.Errorf("collections = %v, want [777]", result.Collections)
	}
	if result.RunID == "" {
		t.Error("run ID is empty")
	}
}

func TestAssembleTruncatedSourceSegment(t *testing.T) {
	// Source frame starts 40 samples before the end of a 240-sample
	// file, so only 40 of the 100 requested samples exist.
	source := frame.Frame{
		CollectionID: "888",
		Index:        2,
		Path:         "files/888.ogg",
		StartSample:  200,
		EndSample:    300,
	}
	cache := NewSegmentCache(constantLoader(0.5, 240))
	assembler := NewAssembler(cache, fixedMatch(source))

	target := targetTable(t, 100, 1)
	result, err := assembler.Assemble(target, 100)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if result.Placements[0].Written != 40 {
		t.Errorf("wrote %d samples, want truncated 40", result.Placements[0].Written)
	}
	for i := 0; i < 40; i++ {
		if result.Samples[i] != 0.5 {
			t.Fatalf("sample %d = %v, want 0.5", i, result.Samples[i])
		}
	}
	for i := 40; i < 100; i++ {
		if result.Samples[i] != 0 {
			t.Fatalf("sample %d = %v, want silence past the truncated segment", i, result.Samples[i])
		}
	}
}

func TestAssembleEmptyTarget(t *testing.T) {
	cache := NewSegmentCache(constantLoader(1, 10))
	assembler := NewAssembler(cache, fixedMatch(frame.Frame{}))

	result, err := assembler.Assemble(feature.NewTable(), 500)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(result.Samples) != 500 {
		t.Fatalf("output has %d samples, want 500", len(result.Samples))
	}
	for i, s := range result.Samples {
		if s != 0 {
			t.Fatalf("sample %d = %v, want all-silent output", i, s)
		}
	}
	if len(result.Placements) != 0 {
		t.Errorf("empty target produced %d placements", len(result.Placements))
	}
}

func TestAssembleSegmentCutAtBufferEnd(t *testing.T) {
	// Target frame extends past the output buffer: the write is cut
	source := frame.Frame{
		CollectionID: "999",
		Path:         "files/999.ogg",
		StartSample:  0,
		EndSample:    100,
	}
	cache := NewSegmentCache(constantLoader(0.75, 1000))
	assembler := NewAssembler(cache, fixedMatch(source))

	target := targetTable(t, 100, 1)
	result, err := assembler.Assemble(target, 60)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if result.Placements[0].Written != 60 {
		t.Errorf("wrote %d samples, want 60", result.Placements[0].Written)
	}
}
