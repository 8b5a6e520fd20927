package dsp

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum computes magnitude spectra of windowed sample buffers
type Spectrum struct {
	sampleRate int
}

// NewSpectrum creates a new spectrum calculator
func NewSpectrum(sampleRate int) *Spectrum {
	return &Spectrum{sampleRate: sampleRate}
}

// Compute windows the signal with a Hann window and returns the magnitude
// spectrum of the positive frequencies (including DC and Nyquist).
func (s *Spectrum) Compute(signal []float64) []float64 {
	if len(signal) == 0 {
		return []float64{}
	}

	windowed := NewHannWindow(len(signal)).Apply(signal)

	// mjibson/go-dsp handles all sizes, including non-power-of-2
	fftResult := fft.FFTReal(windowed)

	freqBins := len(fftResult)/2 + 1
	magnitude := make([]float64, freqBins)
	for i := 0; i < freqBins; i++ {
		magnitude[i] = cmplx.Abs(fftResult[i])
	}

	return magnitude
}

// ComputeSTFT computes a magnitude spectrogram with the given window and hop
// sizes. Frames that would run past the end of the signal are not emitted.
func (s *Spectrum) ComputeSTFT(signal []float64, windowSize, hopSize int) ([][]float64, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}
	if len(signal) < windowSize {
		return [][]float64{}, nil
	}

	window := NewHannWindow(windowSize)
	numFrames := (len(signal)-windowSize)/hopSize + 1
	freqBins := windowSize/2 + 1

	magnitude := make([][]float64, numFrames)
	frameBuffer := make([]float64, windowSize)

	for t := 0; t < numFrames; t++ {
		start := t * hopSize
		copy(frameBuffer, signal[start:start+windowSize])

		if err := window.ApplyInPlace(frameBuffer); err != nil {
			return nil, err
		}

		fftResult := fft.FFTReal(frameBuffer)
		magnitude[t] = make([]float64, freqBins)
		for i := 0; i < freqBins; i++ {
			magnitude[t][i] = cmplx.Abs(fftResult[i])
		}
	}

	return magnitude, nil
}

// FrequencyBins returns the center frequency of each bin of a spectrum with
// the given number of bins.
func (s *Spectrum) FrequencyBins(numBins int) []float64 {
	freqs := make([]float64, numBins)
	for i := 0; i < numBins; i++ {
		freqs[i] = float64(i) * float64(s.sampleRate) / float64((numBins-1)*2)
	}
	return freqs
}
