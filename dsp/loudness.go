package dsp

import (
	"math"
)

// Loudness computes the loudness of a sample buffer using Stevens' power law
type Loudness struct{}

// NewLoudness creates a new loudness calculator
func NewLoudness() *Loudness {
	return &Loudness{}
}

// Compute calculates raw loudness (signal energy raised to the power 0.67).
// Callers comparing variable-length frames should normalize by frame length.
func (l *Loudness) Compute(signal []float64) float64 {
	energy := 0.0
	for _, s := range signal {
		energy += s * s
	}
	return math.Pow(energy, 0.67)
}

// Intensity classifies a sample buffer as relaxed (-1), moderate (0) or
// aggressive (1) from its RMS level
type Intensity struct {
	relaxedDB    float64
	aggressiveDB float64
}

// NewIntensity creates a new intensity classifier with default thresholds
func NewIntensity() *Intensity {
	return &Intensity{
		relaxedDB:    -30.0,
		aggressiveDB: -12.0,
	}
}

// Compute returns -1, 0 or 1 for the given buffer
func (in *Intensity) Compute(signal []float64) float64 {
	if len(signal) == 0 {
		return -1.0
	}

	sumSquares := 0.0
	for _, s := range signal {
		sumSquares += s * s
	}
	rms := math.Sqrt(sumSquares / float64(len(signal)))

	if rms <= 0 {
		return -1.0
	}

	db := 20.0 * math.Log10(rms)
	switch {
	case db < in.relaxedDB:
		return -1.0
	case db > in.aggressiveDB:
		return 1.0
	default:
		return 0.0
	}
}
