// Package frame defines the frame data model and the deterministic
// segmentation of sample buffers into contiguous, non-overlapping frames.
package frame

import (
	"fmt"
)

// Frame represents one contiguous span of samples from one audio file.
// Frames are immutable once created.
type Frame struct {
	CollectionID string `json:"collection_id"`
	Index        int    `json:"frame_index"`
	Path         string `json:"path"`
	StartSample  int    `json:"start_sample"`
	EndSample    int    `json:"end_sample"`
}

// Length returns the number of samples the frame covers
func (f Frame) Length() int {
	return f.EndSample - f.StartSample
}

// ID returns the frame's stable identifier within its collection
func (f Frame) ID() string {
	return fmt.Sprintf("%v_f%d", f.CollectionID, f.Index)
}
