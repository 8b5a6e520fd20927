package mosaic

import (
	"sync"

	"github.com/RyanBlaney/sonido-mosaic/logging"
)

// Loader decodes a recording into a mono sample buffer. The codec
// decoder satisfies this through a small adapter; tests supply fakes.
type Loader interface {
	Load(path string) ([]float64, error)
}

// LoaderFunc adapts a plain function to the Loader interface
type LoaderFunc func(path string) ([]float64, error)

func (f LoaderFunc) Load(path string) ([]float64, error) {
	return f(path)
}

type cacheEntry struct {
	once    sync.Once
	samples []float64
	err     error
}

// SegmentCache serves sample ranges of source recordings, decoding each
// recording at most once per run. Concurrent requests for the same path
// coalesce onto a single decode; the rest block until it finishes.
//
// A cache is scoped to one assembly run. Reusing it across runs would
// serve stale audio if the files change on disk.
type SegmentCache struct {
	loader  Loader
	mu      sync.Mutex
	entries map[string]*cacheEntry
	logger  logging.Logger
}

// NewSegmentCache creates an empty cache backed by the given loader
func NewSegmentCache(loader Loader) *SegmentCache {
	return &SegmentCache{
		loader:  loader,
		entries: make(map[string]*cacheEntry),
		logger: logging.WithFields(logging.Fields{
			"component": "segment_cache",
		}),
	}
}

// GetSegment returns length samples of path starting at start. Ranges
// that reach past the decoded buffer are truncated to what exists, so a
// request near the file end degrades to a shorter segment instead of
// failing the run. A fully out-of-range request yields an empty segment.
func (c *SegmentCache) GetSegment(path string, start, length int) ([]float64, error) {
	samples, err := c.buffer(path)
	if err != nil {
		return nil, err
	}

	if start < 0 {
		start = 0
	}
	end := start + length
	if end > len(samples) {
		end = len(samples)
	}
	if start >= end {
		return nil, nil
	}
	return samples[start:end], nil
}

// Paths returns the recordings decoded so far, in no particular order
func (c *SegmentCache) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	paths := make([]string, 0, len(c.entries))
	for p := range c.entries {
		paths = append(paths, p)
	}
	return paths
}

func (c *SegmentCache) buffer(path string) ([]float64, error) {
	c.mu.Lock()
	entry, ok := c.entries[path]
	if !ok {
		entry = &cacheEntry{}
		c.entries[path] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		c.logger.Debug("Decoding source recording", logging.Fields{"path": path})
		entry.samples, entry.err = c.loader.Load(path)
	})
	return entry.samples, entry.err
}
