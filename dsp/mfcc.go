package dsp

import (
	"fmt"
	"math"
)

// MFCC computes Mel-Frequency Cepstral Coefficients from magnitude spectra
type MFCC struct {
	numCoefficients int
	numMelFilters   int
	sampleRate      int
	lowFreq         float64
	highFreq        float64

	// Internal components, rebuilt when the spectrum size changes
	filterBank [][]float64
	dctMatrix  [][]float64
	fftSize    int
}

// NewMFCC creates a new MFCC computer
func NewMFCC(sampleRate, numCoefficients int) *MFCC {
	if numCoefficients <= 0 {
		numCoefficients = 13
	}
	return &MFCC{
		numCoefficients: numCoefficients,
		numMelFilters:   26,
		sampleRate:      sampleRate,
		lowFreq:         0.0,
		highFreq:        float64(sampleRate) / 2.0,
	}
}

// NumCoefficients returns the number of coefficients this computer emits
func (m *MFCC) NumCoefficients() int {
	return m.numCoefficients
}

// Compute calculates MFCC coefficients from a magnitude spectrum. Variable
// frame lengths produce variable spectrum sizes, so the filter bank is
// rebuilt whenever the implied FFT size changes.
func (m *MFCC) Compute(magnitudeSpectrum []float64) ([]float64, error) {
	if len(magnitudeSpectrum) < 2 {
		return nil, fmt.Errorf("magnitude spectrum too short: %d bins", len(magnitudeSpectrum))
	}

	fftSize := (len(magnitudeSpectrum) - 1) * 2
	if fftSize != m.fftSize || m.filterBank == nil {
		if err := m.initialize(fftSize); err != nil {
			return nil, err
		}
	}

	// Convert to power spectrum
	powerSpectrum := make([]float64, len(magnitudeSpectrum))
	for i, mag := range magnitudeSpectrum {
		powerSpectrum[i] = mag * mag
	}

	// Apply mel filter bank
	melSpectrum := make([]float64, len(m.filterBank))
	for i, filter := range m.filterBank {
		sum := 0.0
		for j := 0; j < len(filter) && j < len(powerSpectrum); j++ {
			sum += powerSpectrum[j] * filter[j]
		}
		melSpectrum[i] = sum
	}

	// Apply logarithm with floor to avoid log(0)
	logMelSpectrum := make([]float64, len(melSpectrum))
	for i, mel := range melSpectrum {
		if mel > 0 {
			logMelSpectrum[i] = math.Log(mel)
		} else {
			logMelSpectrum[i] = math.Log(1e-10)
		}
	}

	// Apply DCT
	coeffs := make([]float64, m.numCoefficients)
	for k := 0; k < m.numCoefficients; k++ {
		sum := 0.0
		for n := 0; n < len(logMelSpectrum) && n < len(m.dctMatrix[k]); n++ {
			sum += logMelSpectrum[n] * m.dctMatrix[k][n]
		}
		coeffs[k] = sum
	}

	return coeffs, nil
}

// initialize builds the mel filter bank and DCT matrix for an FFT size
func (m *MFCC) initialize(fftSize int) error {
	if fftSize <= 0 {
		return fmt.Errorf("invalid FFT size: %d", fftSize)
	}

	m.filterBank = createMelFilterBank(m.numMelFilters, fftSize, m.sampleRate, m.lowFreq, m.highFreq)
	if len(m.filterBank) == 0 {
		return fmt.Errorf("failed to create mel filter bank for FFT size %d", fftSize)
	}

	m.createDCTMatrix()
	m.fftSize = fftSize
	return nil
}

// createDCTMatrix creates the Discrete Cosine Transform matrix
func (m *MFCC) createDCTMatrix() {
	m.dctMatrix = make([][]float64, m.numCoefficients)

	for k := 0; k < m.numCoefficients; k++ {
		m.dctMatrix[k] = make([]float64, m.numMelFilters)

		for n := 0; n < m.numMelFilters; n++ {
			// DCT-II formula
			m.dctMatrix[k][n] = math.Cos(math.Pi * float64(k) * (float64(n) + 0.5) / float64(m.numMelFilters))

			// Normalization
			if k == 0 {
				m.dctMatrix[k][n] *= math.Sqrt(1.0 / float64(m.numMelFilters))
			} else {
				m.dctMatrix[k][n] *= math.Sqrt(2.0 / float64(m.numMelFilters))
			}
		}
	}
}

// hzToMel converts frequency in Hz to mel scale
func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// melToHz converts mel scale to frequency in Hz
func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// createMelFilterBank creates a triangular mel-scale filter bank
func createMelFilterBank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	if numFilters <= 0 || fftSize <= 0 {
		return nil
	}

	lowMel := hzToMel(lowFreq)
	highMel := hzToMel(highFreq)

	// Equally spaced mel points, converted back to FFT bin indices
	binPoints := make([]int, numFilters+2)
	melStep := (highMel - lowMel) / float64(numFilters+1)
	for i := range binPoints {
		hz := melToHz(lowMel + float64(i)*melStep)
		bin := int(math.Floor((float64(fftSize)+1.0)*hz/float64(sampleRate) + 0.5))
		binPoints[i] = min(bin, fftSize/2)
	}

	filterBank := make([][]float64, numFilters)
	for i := range filterBank {
		filterBank[i] = make([]float64, fftSize/2+1)
	}

	// Build triangular filters
	for m := 1; m <= numFilters; m++ {
		leftBin := binPoints[m-1]
		centerBin := binPoints[m]
		rightBin := binPoints[m+1]

		// Rising edge
		for k := leftBin; k < centerBin && k < len(filterBank[m-1]); k++ {
			if centerBin != leftBin {
				filterBank[m-1][k] = float64(k-leftBin) / float64(centerBin-leftBin)
			}
		}

		// Falling edge
		for k := centerBin; k < rightBin && k < len(filterBank[m-1]); k++ {
			if rightBin != centerBin {
				filterBank[m-1][k] = float64(rightBin-k) / float64(rightBin-centerBin)
			}
		}
	}

	return filterBank
}
