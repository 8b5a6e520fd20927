package mosaic

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func rampLoader(length int, decodes *atomic.Int32) Loader {
	return LoaderFunc(func(path string) ([]float64, error) {
		if decodes != nil {
			decodes.Add(1)
		}
		samples := make([]float64, length)
		for i := range samples {
			samples[i] = float64(i)
		}
		return samples, nil
	})
}

func TestGetSegment(t *testing.T) {
	cache := NewSegmentCache(rampLoader(44100, nil))

	segment, err := cache.GetSegment("a.ogg", 100, 50)
	if err != nil {
		t.Fatalf("GetSegment: %v", err)
	}
	if len(segment) != 50 {
		t.Fatalf("got %d samples, want 50", len(segment))
	}
	if segment[0] != 100 || segment[49] != 149 {
		t.Errorf("segment spans [%v, %v], want [100, 149]", segment[0], segment[49])
	}
}

func TestGetSegmentTruncation(t *testing.T) {
	cache := NewSegmentCache(rampLoader(44100, nil))

	// 1000 samples requested 10 from the end: only the 10 that exist
	segment, err := cache.GetSegment("a.ogg", 44090, 1000)
	if err != nil {
		t.Fatalf("GetSegment: %v", err)
	}
	if len(segment) != 10 {
		t.Fatalf("got %d samples, want truncated 10", len(segment))
	}
	if segment[9] != 44099 {
		t.Errorf("last sample = %v, want 44099", segment[9])
	}
}

func TestGetSegmentFullyOutOfRange(t *testing.T) {
	cache := NewSegmentCache(rampLoader(100, nil))

	segment, err := cache.GetSegment("a.ogg", 500, 50)
	if err != nil {
		t.Fatalf("GetSegment: %v", err)
	}
	if len(segment) != 0 {
		t.Errorf("got %d samples past the buffer end, want 0", len(segment))
	}
}

func TestCacheDecodesOnce(t *testing.T) {
	var decodes atomic.Int32
	cache := NewSegmentCache(rampLoader(1000, &decodes))

	for i := 0; i < 5; i++ {
		if _, err := cache.GetSegment("a.ogg", 0, 100); err != nil {
			t.Fatalf("GetSegment: %v", err)
		}
	}
	if got := decodes.Load(); got != 1 {
		t.Errorf("file decoded %d times, want 1", got)
	}

	paths := cache.Paths()
	if len(paths) != 1 || paths[0] != "a.ogg" {
		t.Errorf("cached paths = %v, want [a.ogg]", paths)
	}
}

func TestCacheCoalescesConcurrentDecodes(t *testing.T) {
	var decodes atomic.Int32
	cache := NewSegmentCache(rampLoader(1000, &decodes))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.GetSegment("a.ogg", 10, 10); err != nil {
				t.Errorf("GetSegment: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := decodes.Load(); got != 1 {
		t.Errorf("concurrent access decoded %d times, want 1", got)
	}
}

func TestCacheLoaderError(t *testing.T) {
	wantErr := errors.New("corrupt file")
	cache := NewSegmentCache(LoaderFunc(func(path string) ([]float64, error) {
		return nil, wantErr
	}))

	if _, err := cache.GetSegment("bad.ogg", 0, 10); !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want loader error", err)
	}
}
