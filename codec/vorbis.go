package codec

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// readVorbis decodes an Ogg Vorbis stream. Freesound previews are served in
// this format, so this is the hot path when mosaicing downloaded collections.
func readVorbis(r io.Reader) (*rawAudio, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis read: %w", err)
	}

	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}

	return &rawAudio{
		samples:    samples,
		sampleRate: format.SampleRate,
		channels:   format.Channels,
	}, nil
}
