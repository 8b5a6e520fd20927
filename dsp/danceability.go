package dsp

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Danceability estimates how rhythmically regular a sample buffer is using
// detrended fluctuation analysis (DFA) of its energy envelope. Regular,
// beat-driven material produces a low DFA exponent and a high danceability
// value; unstructured material the opposite.
type Danceability struct {
	sampleRate  int
	envelopeHop int
	minScale    int
	maxScale    int
}

// NewDanceability creates a new danceability calculator
func NewDanceability(sampleRate int) *Danceability {
	return &Danceability{
		sampleRate:  sampleRate,
		envelopeHop: 512,
		minScale:    4,
		maxScale:    128,
	}
}

// Compute calculates the danceability of a sample buffer. Buffers too short
// for fluctuation analysis score zero.
func (d *Danceability) Compute(signal []float64) float64 {
	envelope := d.energyEnvelope(signal)
	if len(envelope) < d.minScale*4 {
		return 0.0
	}

	// Integrated, de-meaned profile
	mean := stat.Mean(envelope, nil)
	profile := make([]float64, len(envelope))
	cum := 0.0
	for i, v := range envelope {
		cum += v - mean
		profile[i] = cum
	}

	// Fluctuation at increasing scales
	var logScales, logFlucts []float64
	for scale := d.minScale; scale <= d.maxScale && scale <= len(profile)/4; scale *= 2 {
		f := fluctuation(profile, scale)
		if f <= 0 {
			continue
		}
		logScales = append(logScales, math.Log(float64(scale)))
		logFlucts = append(logFlucts, math.Log(f))
	}
	if len(logScales) < 2 {
		return 0.0
	}

	// DFA exponent is the slope of log F(scale) vs log scale
	_, alpha := stat.LinearRegression(logScales, logFlucts, nil, false)
	if alpha <= 0 {
		return 0.0
	}

	return 1.0 / alpha
}

// energyEnvelope computes short-time RMS values over the buffer
func (d *Danceability) energyEnvelope(signal []float64) []float64 {
	hop := d.envelopeHop
	if hop <= 0 || len(signal) < hop {
		return nil
	}

	n := len(signal) / hop
	envelope := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for _, s := range signal[i*hop : (i+1)*hop] {
			sum += s * s
		}
		envelope[i] = math.Sqrt(sum / float64(hop))
	}
	return envelope
}

// fluctuation computes the RMS deviation of the profile from per-segment
// linear trends at the given scale
func fluctuation(profile []float64, scale int) float64 {
	numSegments := len(profile) / scale
	if numSegments == 0 {
		return 0.0
	}

	x := make([]float64, scale)
	for i := 0; i < scale; i++ {
		x[i] = float64(i)
	}

	total := 0.0
	for s := 0; s < numSegments; s++ {
		segment := profile[s*scale : (s+1)*scale]
		intercept, slope := stat.LinearRegression(x, segment, nil, false)
		for i, v := range segment {
			diff := v - (intercept + slope*x[i])
			total += diff * diff
		}
	}

	return math.Sqrt(total / float64(numSegments*scale))
}
