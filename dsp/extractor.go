// Package dsp computes per-frame acoustic descriptors from raw mono sample
// buffers. It is the numeric backend the feature vector builder delegates to;
// every descriptor is a pure function of its input samples.
package dsp

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-mosaic/logging"
)

// MinFrameSamples is the shortest frame the extractor will analyze. Shorter
// frames can't carry a meaningful windowed spectrum.
const MinFrameSamples = 256

// ErrFrameTooShort reports a frame below MinFrameSamples
var ErrFrameTooShort = errors.New("frame too short for analysis")

// FrameFeatures holds the raw descriptor values for one frame. Loudness is
// unnormalized signal loudness; callers comparing variable-length frames
// divide by the frame's sample count.
type FrameFeatures struct {
	Loudness           float64   `json:"loudness"`
	MFCC               []float64 `json:"mfcc"`
	SpectralCentroid   float64   `json:"spectral_centroid"`
	Danceability       float64   `json:"danceability"`
	Flux               float64   `json:"flux"`
	HFC                float64   `json:"hfc"`
	SpectralComplexity float64   `json:"spectral_complexity"`
	PitchSalience      float64   `json:"pitch_salience"`
	Intensity          float64   `json:"intensity"`
}

// Extractor computes the full descriptor set for audio frames at a fixed
// sample rate. It caches DSP state sized to the frames it has seen and is
// not safe for concurrent use; concurrent callers need one Extractor each.
type Extractor struct {
	sampleRate int

	spectrum     *Spectrum
	mfcc         *MFCC
	centroid     *SpectralCentroid
	flux         *SpectralFlux
	hfc          *HFC
	complexity   *SpectralComplexity
	salience     *PitchSalience
	loudness     *Loudness
	intensity    *Intensity
	danceability *Danceability

	fluxWindowSize int
	fluxHopSize    int

	logger logging.Logger
}

// NewExtractor creates a descriptor extractor for the given sample rate with
// numCoefficients cepstral coefficients
func NewExtractor(sampleRate, numCoefficients int) *Extractor {
	return &Extractor{
		sampleRate:     sampleRate,
		spectrum:       NewSpectrum(sampleRate),
		mfcc:           NewMFCC(sampleRate, numCoefficients),
		centroid:       NewSpectralCentroid(sampleRate),
		flux:           NewSpectralFlux(),
		hfc:            NewHFC(),
		complexity:     NewSpectralComplexity(),
		salience:       NewPitchSalience(),
		loudness:       NewLoudness(),
		intensity:      NewIntensity(),
		danceability:   NewDanceability(sampleRate),
		fluxWindowSize: 1024,
		fluxHopSize:    512,
		logger: logging.WithFields(logging.Fields{
			"component":   "dsp_extractor",
			"sample_rate": sampleRate,
		}),
	}
}

// SampleRate returns the sample rate the extractor was built for
func (e *Extractor) SampleRate() int {
	return e.sampleRate
}

// NumCoefficients returns the number of cepstral coefficients emitted
func (e *Extractor) NumCoefficients() int {
	return e.mfcc.NumCoefficients()
}

// Compute calculates all descriptors for one frame of samples. The result is
// a pure function of the input: identical samples always yield identical
// features.
func (e *Extractor) Compute(frame []float64) (*FrameFeatures, error) {
	if len(frame) < MinFrameSamples {
		return nil, fmt.Errorf("%w: %d samples, need at least %d", ErrFrameTooShort, len(frame), MinFrameSamples)
	}

	magnitude := e.spectrum.Compute(frame)

	coeffs, err := e.mfcc.Compute(magnitude)
	if err != nil {
		return nil, fmt.Errorf("mfcc: %w", err)
	}

	// Flux needs sub-frame resolution; frames shorter than two analysis
	// windows get zero flux
	fluxValue := 0.0
	if len(frame) >= e.fluxWindowSize+e.fluxHopSize {
		spectrogram, err := e.spectrum.ComputeSTFT(frame, e.fluxWindowSize, e.fluxHopSize)
		if err != nil {
			return nil, fmt.Errorf("stft: %w", err)
		}
		fluxValue = e.flux.ComputeMean(spectrogram)
	}

	return &FrameFeatures{
		Loudness:           e.loudness.Compute(frame),
		MFCC:               coeffs,
		SpectralCentroid:   e.centroid.Compute(magnitude),
		Danceability:       e.danceability.Compute(frame),
		Flux:               fluxValue,
		HFC:                e.hfc.Compute(magnitude),
		SpectralComplexity: e.complexity.Compute(magnitude),
		PitchSalience:      e.salience.Compute(magnitude),
		Intensity:          e.intensity.Compute(frame),
	}, nil
}
