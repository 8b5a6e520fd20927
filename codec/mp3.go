package codec

import (
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// readMP3 decodes an MP3 stream. go-mp3 always emits 16-bit stereo frames.
func readMP3(r io.Reader) (*rawAudio, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3 decoder: %w", err)
	}

	var samples []float64
	buf := make([]byte, 8192)

	for {
		n, err := dec.Read(buf)
		if n > 0 {
			for i := 0; i+1 < n; i += 2 {
				v := int16(buf[i]) | int16(buf[i+1])<<8
				samples = append(samples, float64(v)/32768.0)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mp3 read: %w", err)
		}
	}

	return &rawAudio{
		samples:    samples,
		sampleRate: dec.SampleRate(),
		channels:   2,
	}, nil
}
