package codec

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAVFile writes a mono float64 buffer as a 16-bit PCM WAV file.
// Samples are clipped to [-1, 1] before quantization.
func WriteWAVFile(filename string, samples []float64, sampleRate int) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("codec: create %s: %w", filename, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		data[i] = int(s * 32767.0)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("codec: write %s: %w", filename, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("codec: finalize %s: %w", filename, err)
	}

	return nil
}
