package dsp

import (
	"fmt"
	"math"
)

// HannWindow represents a Hann window function
type HannWindow struct {
	size         int
	coefficients []float64
}

// NewHannWindow creates a new Hann window of the given size
func NewHannWindow(size int) *HannWindow {
	h := &HannWindow{size: size}
	h.generate()
	return h
}

// generate creates Hann window coefficients
func (h *HannWindow) generate() {
	h.coefficients = make([]float64, h.size)

	if h.size == 1 {
		h.coefficients[0] = 1.0
		return
	}

	denominator := float64(h.size - 1)
	for i := 0; i < h.size; i++ {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}
}

// Apply applies the window to a signal (creates new array)
func (h *HannWindow) Apply(signal []float64) []float64 {
	if len(signal) != h.size {
		return nil
	}

	windowed := make([]float64, h.size)
	for i := range signal {
		windowed[i] = signal[i] * h.coefficients[i]
	}

	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (h *HannWindow) ApplyInPlace(signal []float64) error {
	if len(signal) != h.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	for i := range signal {
		signal[i] *= h.coefficients[i]
	}

	return nil
}

// GetSize returns the window size
func (h *HannWindow) GetSize() int {
	return h.size
}
