package dsp

import (
	"math"
)

// SpectralCentroid computes the spectral centroid (center of mass) of a spectrum
type SpectralCentroid struct {
	sampleRate int
	freqBins   []float64 // Pre-calculated frequency bins for efficiency
}

// NewSpectralCentroid creates a new spectral centroid calculator
func NewSpectralCentroid(sampleRate int) *SpectralCentroid {
	return &SpectralCentroid{sampleRate: sampleRate}
}

// Compute calculates spectral centroid for a single magnitude spectrum
func (sc *SpectralCentroid) Compute(spectrum []float64) float64 {
	if len(spectrum) < 2 {
		return 0.0
	}

	if len(sc.freqBins) != len(spectrum) {
		sc.freqBins = make([]float64, len(spectrum))
		for i := range spectrum {
			sc.freqBins[i] = float64(i) * float64(sc.sampleRate) / float64((len(spectrum)-1)*2)
		}
	}

	numerator := 0.0
	denominator := 0.0

	for i := range spectrum {
		numerator += sc.freqBins[i] * spectrum[i]
		denominator += spectrum[i]
	}

	if denominator == 0 {
		return 0
	}

	return numerator / denominator
}

// SpectralFlux computes spectral flux (measure of spectral change)
type SpectralFlux struct{}

// NewSpectralFlux creates a new spectral flux calculator
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{}
}

// Compute calculates spectral flux between consecutive spectrogram frames.
// Only positive changes (energy increases) contribute.
func (sf *SpectralFlux) Compute(spectrogram [][]float64) []float64 {
	if len(spectrogram) < 2 {
		return []float64{}
	}

	flux := make([]float64, len(spectrogram)-1)

	for t := 1; t < len(spectrogram); t++ {
		sum := 0.0
		for f := 0; f < len(spectrogram[t]); f++ {
			diff := spectrogram[t][f] - spectrogram[t-1][f]
			if diff > 0 {
				sum += diff * diff
			}
		}
		flux[t-1] = math.Sqrt(sum)
	}

	return flux
}

// ComputeMean collapses per-transition flux values into one scalar per signal
func (sf *SpectralFlux) ComputeMean(spectrogram [][]float64) float64 {
	flux := sf.Compute(spectrogram)
	if len(flux) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, v := range flux {
		sum += v
	}
	return sum / float64(len(flux))
}

// HFC computes the high-frequency content of a spectrum (Masri weighting:
// each bin's energy weighted by its bin index)
type HFC struct{}

// NewHFC creates a new high-frequency content calculator
func NewHFC() *HFC {
	return &HFC{}
}

// Compute calculates high-frequency content for a magnitude spectrum
func (h *HFC) Compute(spectrum []float64) float64 {
	hfc := 0.0
	for i, mag := range spectrum {
		hfc += float64(i) * mag * mag
	}
	return hfc
}

// SpectralComplexity estimates how complex a spectrum is by counting its
// spectral peaks above a relative magnitude threshold
type SpectralComplexity struct {
	relativeThreshold float64
}

// NewSpectralComplexity creates a new spectral complexity calculator
func NewSpectralComplexity() *SpectralComplexity {
	return &SpectralComplexity{relativeThreshold: 0.005}
}

// Compute counts local spectral maxima above the threshold
func (scx *SpectralComplexity) Compute(spectrum []float64) float64 {
	if len(spectrum) < 3 {
		return 0.0
	}

	maxMag := 0.0
	for _, mag := range spectrum {
		if mag > maxMag {
			maxMag = mag
		}
	}
	if maxMag == 0 {
		return 0.0
	}

	threshold := scx.relativeThreshold * maxMag
	peaks := 0

	for i := 1; i < len(spectrum)-1; i++ {
		if spectrum[i] > threshold && spectrum[i] > spectrum[i-1] && spectrum[i] >= spectrum[i+1] {
			peaks++
		}
	}

	return float64(peaks)
}

// PitchSalience measures how pronounced the dominant pitch of a spectrum is.
// It is the height of the strongest non-zero-lag peak of the spectrum's
// autocorrelation, normalized by the zero-lag value. Noise-like spectra score
// near zero, strongly pitched spectra near one.
type PitchSalience struct{}

// NewPitchSalience creates a new pitch salience calculator
func NewPitchSalience() *PitchSalience {
	return &PitchSalience{}
}

// Compute calculates pitch salience for a magnitude spectrum
func (ps *PitchSalience) Compute(spectrum []float64) float64 {
	n := len(spectrum)
	if n < 3 {
		return 0.0
	}

	zeroLag := 0.0
	for _, mag := range spectrum {
		zeroLag += mag * mag
	}
	if zeroLag == 0 {
		return 0.0
	}

	// Search lags above a small minimum so the main lobe around lag 0
	// doesn't count as a peak
	minLag := n / 100
	if minLag < 2 {
		minLag = 2
	}

	best := 0.0
	for lag := minLag; lag < n/2; lag++ {
		corr := 0.0
		for i := 0; i+lag < n; i++ {
			corr += spectrum[i] * spectrum[i+lag]
		}
		if corr > best {
			best = corr
		}
	}

	salience := best / zeroLag
	if salience > 1.0 {
		salience = 1.0
	}
	return salience
}
