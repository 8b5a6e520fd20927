package feature

import (
	"fmt"

	"github.com/RyanBlaney/sonido-mosaic/dsp"
	"github.com/RyanBlaney/sonido-mosaic/logging"
)

// Builder assembles schema-ordered feature vectors from frame samples,
// delegating the numeric work to the dsp extractor
type Builder struct {
	extractor *dsp.Extractor
	logger    logging.Logger
}

// NewBuilder creates a feature vector builder for the given sample rate
func NewBuilder(sampleRate int) *Builder {
	return &Builder{
		extractor: dsp.NewExtractor(sampleRate, NumCepstralCoefficients),
		logger: logging.WithFields(logging.Fields{
			"component": "feature_builder",
		}),
	}
}

// Build computes the feature vector for one frame of samples. Loudness is
// normalized by the frame's sample count so variable-length frames remain
// comparable. Returns an *AnalysisError when the frame can't be processed.
func (b *Builder) Build(samples []float64) (Vector, error) {
	features, err := b.extractor.Compute(samples)
	if err != nil {
		return nil, &AnalysisError{Err: err}
	}

	if len(features.MFCC) != NumCepstralCoefficients {
		return nil, &AnalysisError{
			Err: fmt.Errorf("extractor returned %d cepstral coefficients, schema requires %d",
				len(features.MFCC), NumCepstralCoefficients),
		}
	}

	v := make(Vector, 0, NumCepstralCoefficients+8)
	v = append(v, features.Loudness/float64(len(samples)))
	v = append(v, features.MFCC...)
	v = append(v,
		features.SpectralCentroid,
		features.Danceability,
		features.Flux,
		features.HFC,
		features.SpectralComplexity,
		features.PitchSalience,
		features.Intensity,
	)

	return v, nil
}
