package dsp

import (
	"math"
)

// OnsetDetector finds note/event onsets in a signal via spectral flux peaks.
// Its output feeds the segmenter's event-synced mode, standing in for
// externally supplied beat positions.
type OnsetDetector struct {
	sampleRate  int
	windowSize  int
	hopSize     int
	minInterval float64 // seconds between onsets

	spectrum *Spectrum
	flux     *SpectralFlux
}

// NewOnsetDetector creates an onset detector for the given sample rate
func NewOnsetDetector(sampleRate int) *OnsetDetector {
	return &OnsetDetector{
		sampleRate:  sampleRate,
		windowSize:  1024,
		hopSize:     512,
		minInterval: 0.05,
		spectrum:    NewSpectrum(sampleRate),
		flux:        NewSpectralFlux(),
	}
}

// Detect returns onset positions as strictly ascending sample indices.
// Signals too short for spectral analysis yield no onsets.
func (od *OnsetDetector) Detect(signal []float64) ([]int, error) {
	if len(signal) < od.windowSize {
		return []int{}, nil
	}

	spectrogram, err := od.spectrum.ComputeSTFT(signal, od.windowSize, od.hopSize)
	if err != nil {
		return nil, err
	}

	flux := od.flux.Compute(spectrogram)
	if len(flux) < 3 {
		return []int{}, nil
	}

	// Adaptive threshold: mean plus one standard deviation of the flux curve
	mean := 0.0
	for _, v := range flux {
		mean += v
	}
	mean /= float64(len(flux))

	variance := 0.0
	for _, v := range flux {
		diff := v - mean
		variance += diff * diff
	}
	threshold := mean + math.Sqrt(variance/float64(len(flux)))

	minIntervalFrames := int(od.minInterval * float64(od.sampleRate) / float64(od.hopSize))
	if minIntervalFrames < 1 {
		minIntervalFrames = 1
	}

	var onsets []int
	lastPeakFrame := -minIntervalFrames

	for i := 1; i < len(flux)-1; i++ {
		if flux[i] > flux[i-1] &&
			flux[i] > flux[i+1] &&
			flux[i] >= threshold &&
			i-lastPeakFrame >= minIntervalFrames {
			onsets = append(onsets, i*od.hopSize)
			lastPeakFrame = i
		}
	}

	return onsets, nil
}
