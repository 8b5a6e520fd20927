package frame

import "testing"

func TestFixedSpans(t *testing.T) {
	tests := []struct {
		name         string
		totalSamples int
		frameSize    int
		wantCount    int
	}{
		{
			// 4 seconds at 44.1 kHz does not align to the frame grid, so
			// every full frame survives: 22 boundaries, 21 spans.
			name:         "four seconds at 44100",
			totalSamples: 176400,
			frameSize:    8192,
			wantCount:    21,
		},
		{
			// Exact alignment puts the last boundary at the buffer end's
			// predecessor, dropping one pair.
			name:         "exactly aligned buffer",
			totalSamples: 81920,
			frameSize:    8192,
			wantCount:    9,
		},
		{
			name:         "shorter than one frame",
			totalSamples: 1000,
			frameSize:    8192,
			wantCount:    0,
		},
		{
			name:         "empty buffer",
			totalSamples: 0,
			frameSize:    8192,
			wantCount:    0,
		},
		{
			name:         "single frame plus tail",
			totalSamples: 10000,
			frameSize:    8192,
			wantCount:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := FixedSpans(tt.totalSamples, tt.frameSize)
			if len(spans) != tt.wantCount {
				t.Fatalf("got %d spans, want %d", len(spans), tt.wantCount)
			}
			for i, span := range spans {
				if span.Length() != tt.frameSize {
					t.Errorf("span %d has length %d, want %d", i, span.Length(), tt.frameSize)
				}
				if span.EndSample > tt.totalSamples {
					t.Errorf("span %d ends at %d, past buffer length %d", i, span.EndSample, tt.totalSamples)
				}
				if i > 0 && span.StartSample != spans[i-1].EndSample {
					t.Errorf("span %d starts at %d, previous ended at %d", i, span.StartSample, spans[i-1].EndSample)
				}
			}
		})
	}
}

func TestFixedSpansOddFrameSize(t *testing.T) {
	spans := FixedSpans(44100, 8191)
	if len(spans) == 0 {
		t.Fatal("expected spans")
	}
	for i, span := range spans {
		if span.Length() != 8192 {
			t.Errorf("span %d has length %d, want rounded-up 8192", i, span.Length())
		}
	}
}

func TestEvenFrameSize(t *testing.T) {
	if got := EvenFrameSize(8192); got != 8192 {
		t.Errorf("EvenFrameSize(8192) = %d", got)
	}
	if got := EvenFrameSize(8191); got != 8192 {
		t.Errorf("EvenFrameSize(8191) = %d", got)
	}
}

func TestEventSpans(t *testing.T) {
	events := []int{100, 350, 900, 1700}
	spans := EventSpans(events)
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3", len(spans))
	}
	want := []Span{
		{StartSample: 100, EndSample: 350},
		{StartSample: 350, EndSample: 900},
		{StartSample: 900, EndSample: 1700},
	}
	for i, span := range spans {
		if span != want[i] {
			t.Errorf("span %d = %+v, want %+v", i, span, want[i])
		}
	}
}

func TestEventSpansTooFewEvents(t *testing.T) {
	if spans := EventSpans([]int{500}); len(spans) != 0 {
		t.Errorf("single event produced %d spans", len(spans))
	}
	if spans := EventSpans(nil); len(spans) != 0 {
		t.Errorf("nil events produced %d spans", len(spans))
	}
}

func TestBuild(t *testing.T) {
	spans := []Span{
		{StartSample: 0, EndSample: 8192},
		{StartSample: 8192, EndSample: 16384},
	}
	frames := Build("12345", "files/12345.ogg", spans)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	for i, f := range frames {
		if f.Index != i {
			t.Errorf("frame %d has index %d", i, f.Index)
		}
		if f.CollectionID != "12345" || f.Path != "files/12345.ogg" {
			t.Errorf("frame %d carries wrong identity: %+v", i, f)
		}
	}
	if frames[0].ID() != "12345_f0" {
		t.Errorf("frame ID = %q, want 12345_f0", frames[0].ID())
	}
	if frames[1].Length() != 8192 {
		t.Errorf("frame length = %d, want 8192", frames[1].Length())
	}
}
