// Package codec decodes audio files into mono float64 sample buffers and
// writes reconstructed buffers back out as WAV. Decoding is pure Go: WAV via
// go-audio, MP3 via go-mp3 and Ogg Vorbis via oggvorbis.
package codec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-mosaic/logging"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNoSamples         = errors.New("no audio samples decoded")
)

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64     `json:"-"` // Mono PCM data in [-1, 1]
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
	Path       string        `json:"path,omitempty"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int `json:"target_sample_rate"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 44100,
	}
}

// rawAudio is the intermediate result of a format reader before
// mixdown and resampling.
type rawAudio struct {
	samples    []float64 // interleaved
	sampleRate int
	channels   int
}

// Decoder decodes audio files into mono buffers at a fixed sample rate
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "audio_decoder",
		}),
	}
}

// DecodeFile decodes an audio file, mixes it down to mono and resamples it
// to the configured target sample rate. The format is chosen by file extension.
func (d *Decoder) DecodeFile(filename string) (*AudioData, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})

	logger.Debug("Starting audio file decode")

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("codec: open %s: %w", filename, err)
	}
	defer f.Close()

	var raw *rawAudio
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav", ".wave":
		raw, err = readWAV(f)
	case ".mp3":
		raw, err = readMP3(f)
	case ".ogg", ".oga":
		raw, err = readVorbis(f)
	default:
		return nil, fmt.Errorf("codec: %s: %w", filename, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", filename, err)
	}
	if len(raw.samples) == 0 {
		return nil, fmt.Errorf("codec: %s: %w", filename, ErrNoSamples)
	}

	mono := mixToMono(raw.samples, raw.channels)
	if raw.sampleRate != d.config.TargetSampleRate {
		mono = resampleLinear(mono, raw.sampleRate, d.config.TargetSampleRate)
	}

	duration := time.Duration(len(mono)) * time.Second / time.Duration(d.config.TargetSampleRate)

	logger.Debug("Audio file decode completed", logging.Fields{
		"input_sample_rate":  raw.sampleRate,
		"input_channels":     raw.channels,
		"output_samples":     len(mono),
		"output_sample_rate": d.config.TargetSampleRate,
		"output_duration":    duration.Seconds(),
	})

	return &AudioData{
		PCM:        mono,
		SampleRate: d.config.TargetSampleRate,
		Duration:   duration,
		Path:       filename,
	}, nil
}

// GetSupportedFormats returns the extensions this decoder handles
func (d *Decoder) GetSupportedFormats() []string {
	return []string{"wav", "mp3", "ogg"}
}

// mixToMono averages interleaved channels into a single mono buffer
func mixToMono(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	inv := 1.0 / float64(channels)

	for f := 0; f < frames; f++ {
		sum := 0.0
		base := f * channels
		for c := 0; c < channels; c++ {
			sum += interleaved[base+c]
		}
		mono[f] = sum * inv
	}

	return mono
}

// resampleLinear resamples a mono buffer from srcRate to dstRate using
// linear interpolation. Good enough for preview-quality source material.
func resampleLinear(samples []float64, srcRate, dstRate int) []float64 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(float64(len(samples)) / ratio)
	if outLen == 0 {
		return []float64{}
	}

	out := make([]float64, outLen)
	for i := 0; i < outLen; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		if idx+1 < len(samples) {
			out[i] = samples[idx]*(1.0-frac) + samples[idx+1]*frac
		} else {
			out[i] = samples[len(samples)-1]
		}
	}

	return out
}
