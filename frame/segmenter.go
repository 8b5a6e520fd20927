package frame

// Span is a half-open sample interval [StartSample, EndSample)
type Span struct {
	StartSample int `json:"start_sample"`
	EndSample   int `json:"end_sample"`
}

// Length returns the number of samples in the span
func (s Span) Length() int {
	return s.EndSample - s.StartSample
}

// EvenFrameSize rounds an odd frame size up to the next even integer.
// Downstream windowing assumes even frame lengths.
func EvenFrameSize(frameSize int) int {
	if frameSize%2 != 0 {
		return frameSize + 1
	}
	return frameSize
}

// FixedSpans partitions [0, totalSamples) into consecutive spans of exactly
// frameSize samples. Boundaries are laid out every frameSize samples and
// adjacent boundaries are paired into spans; the last boundary has no
// successor, so a trailing partial interval is dropped rather than emitted
// short. A buffer shorter than one frame yields zero spans, which callers
// must treat as a valid result.
func FixedSpans(totalSamples, frameSize int) []Span {
	if frameSize <= 0 || totalSamples <= 0 {
		return []Span{}
	}

	frameSize = EvenFrameSize(frameSize)

	var boundaries []int
	for pos := 0; pos < totalSamples; pos += frameSize {
		boundaries = append(boundaries, pos)
	}

	return pairBoundaries(boundaries)
}

// EventSpans emits one span per consecutive pair of event positions.
// Events must be ascending sample indices; like FixedSpans, the final
// unmatched boundary is dropped. Material before the first event and after
// the last is excluded.
func EventSpans(events []int) []Span {
	return pairBoundaries(events)
}

// pairBoundaries zips adjacent boundary positions into spans
func pairBoundaries(boundaries []int) []Span {
	if len(boundaries) < 2 {
		return []Span{}
	}

	spans := make([]Span, 0, len(boundaries)-1)
	for i := 0; i+1 < len(boundaries); i++ {
		spans = append(spans, Span{
			StartSample: boundaries[i],
			EndSample:   boundaries[i+1],
		})
	}

	return spans
}

// Build creates the frames for a recording from its spans, in span order
func Build(collectionID, path string, spans []Span) []Frame {
	frames := make([]Frame, len(spans))
	for i, span := range spans {
		frames[i] = Frame{
			CollectionID: collectionID,
			Index:        i,
			Path:         path,
			StartSample:  span.StartSample,
			EndSample:    span.EndSample,
		}
	}
	return frames
}
