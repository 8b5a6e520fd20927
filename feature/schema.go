// Package feature assembles fixed-schema acoustic feature vectors for frames
// and stores them in insertion-ordered tables used for similarity matching.
package feature

import (
	"fmt"
)

// NumCepstralCoefficients is the number of cepstral coefficients in the
// shared feature schema
const NumCepstralCoefficients = 13

// Scalar descriptor names of the shared schema, in schema order after the
// cepstral block
const (
	NameLoudness           = "loudness"
	NameSpectralCentroid   = "spectral_centroid"
	NameDanceability       = "danceability"
	NameFlux               = "flux"
	NameHFC                = "hfc"
	NameSpectralComplexity = "spectral_complexity"
	NamePitchSalience      = "pitch_salience"
	NameIntensity          = "intensity"
)

// Schema returns the fixed, ordered feature-name schema shared by every
// frame in every collection. The returned slice is a fresh copy.
func Schema() []string {
	names := make([]string, 0, NumCepstralCoefficients+8)
	names = append(names, NameLoudness)
	for i := 0; i < NumCepstralCoefficients; i++ {
		names = append(names, fmt.Sprintf("mfcc_%d", i))
	}
	names = append(names,
		NameSpectralCentroid,
		NameDanceability,
		NameFlux,
		NameHFC,
		NameSpectralComplexity,
		NamePitchSalience,
		NameIntensity,
	)
	return names
}

// Vector is one frame's feature values, aligned with Schema() order.
// Vectors are computed once at analysis time and read-only thereafter.
type Vector []float64

// SimilarityFeatures returns the default feature subset used for matching:
// the full cepstral block plus every scalar descriptor.
func SimilarityFeatures() []string {
	names := make([]string, 0, NumCepstralCoefficients+8)
	for i := 0; i < NumCepstralCoefficients; i++ {
		names = append(names, fmt.Sprintf("mfcc_%d", i))
	}
	names = append(names,
		NameLoudness,
		NameSpectralCentroid,
		NameDanceability,
		NameFlux,
		NameHFC,
		NameSpectralComplexity,
		NamePitchSalience,
		NameIntensity,
	)
	return names
}
