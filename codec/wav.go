package codec

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"
)

// readWAV decodes a RIFF/WAVE stream into interleaved float64 samples
func readWAV(r io.ReadSeeker) (*rawAudio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read PCM: %w", err)
	}
	if buf.Format == nil {
		return nil, fmt.Errorf("missing WAV format chunk")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	scale := math.Pow(2, float64(bitDepth-1))

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / scale
	}

	return &rawAudio{
		samples:    samples,
		sampleRate: buf.Format.SampleRate,
		channels:   buf.Format.NumChannels,
	}, nil
}
