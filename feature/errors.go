package feature

import (
	"fmt"
)

// AnalysisError reports that a frame or file could not be feature-extracted.
// Batch analysis recovers from it by skipping the whole file and continuing
// with the rest of the collection.
type AnalysisError struct {
	Path string // file being analyzed, may be empty at frame level
	Err  error
}

func (e *AnalysisError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("analysis failed for %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("analysis failed: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
