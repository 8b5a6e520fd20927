// Package analyze turns audio recordings into feature tables: it decodes
// each recording, cuts it into frames, and computes one feature vector
// per frame. Collections are processed with a worker pool; the target is
// a single recording and runs inline.
package analyze

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/RyanBlaney/sonido-mosaic/catalog"
	"github.com/RyanBlaney/sonido-mosaic/codec"
	"github.com/RyanBlaney/sonido-mosaic/dsp"
	"github.com/RyanBlaney/sonido-mosaic/feature"
	"github.com/RyanBlaney/sonido-mosaic/frame"
	"github.com/RyanBlaney/sonido-mosaic/logging"
)

// Config controls segmentation and batch concurrency
type Config struct {
	// FrameSize is the frame length in samples. Zero or negative means
	// the whole recording becomes a single frame. Odd sizes round up.
	FrameSize int `json:"frame_size"`

	// SyncWithOnsets cuts frames at detected onsets instead of on a
	// fixed grid. Applies to the target.
	SyncWithOnsets bool `json:"sync_with_onsets"`

	// Workers is the worker pool size for collection analysis. Zero
	// picks a size from the CPU count.
	Workers int `json:"workers"`

	// ShowProgress renders a terminal progress bar during collection
	// analysis.
	ShowProgress bool `json:"show_progress"`
}

// DefaultConfig returns the standard analysis configuration
func DefaultConfig() Config {
	return Config{
		FrameSize:    8192,
		Workers:      0,
		ShowProgress: true,
	}
}

// Analyzer decodes recordings and extracts per-frame features
type Analyzer struct {
	decoder    *codec.Decoder
	sampleRate int
	builder    *feature.Builder
	config     Config
	logger     logging.Logger
}

// NewAnalyzer creates an analyzer. A nil decoder config uses the
// defaults (44.1 kHz mono).
func NewAnalyzer(decoderConfig *codec.DecoderConfig, config Config) *Analyzer {
	if decoderConfig == nil {
		decoderConfig = codec.DefaultDecoderConfig()
	}
	return &Analyzer{
		decoder:    codec.NewDecoder(decoderConfig),
		sampleRate: decoderConfig.TargetSampleRate,
		builder:    feature.NewBuilder(decoderConfig.TargetSampleRate),
		config:     config,
		logger: logging.WithFields(logging.Fields{
			"component": "analyzer",
		}),
	}
}

// AnalyzeRecording decodes one recording and returns a feature row per
// frame. A recording shorter than one frame yields zero rows, which is
// fine; it just contributes nothing to the table.
func (a *Analyzer) AnalyzeRecording(collectionID, path string, syncWithOnsets bool) ([]feature.Row, error) {
	return a.analyzeFile(a.builder, collectionID, path, syncWithOnsets)
}

func (a *Analyzer) analyzeFile(builder *feature.Builder, collectionID, path string, syncWithOnsets bool) ([]feature.Row, error) {
	audio, err := a.decoder.DecodeFile(path)
	if err != nil {
		return nil, &feature.AnalysisError{Path: path, Err: err}
	}
	return a.analyzeSamples(builder, collectionID, path, audio, syncWithOnsets)
}

func (a *Analyzer) analyzeSamples(builder *feature.Builder, collectionID, path string, audio *codec.AudioData, syncWithOnsets bool) ([]feature.Row, error) {
	var spans []frame.Span
	if syncWithOnsets {
		detector := dsp.NewOnsetDetector(audio.SampleRate)
		onsets, err := detector.Detect(audio.PCM)
		if err != nil {
			return nil, &feature.AnalysisError{Path: path, Err: err}
		}
		spans = frame.EventSpans(onsets)
	} else {
		frameSize := a.config.FrameSize
		if frameSize <= 0 {
			frameSize = len(audio.PCM)
		}
		spans = frame.FixedSpans(len(audio.PCM), frame.EvenFrameSize(frameSize))
	}

	frames := frame.Build(collectionID, path, spans)
	rows := make([]feature.Row, 0, len(frames))
	for _, f := range frames {
		v, err := builder.Build(audio.PCM[f.StartSample:f.EndSample])
		if err != nil {
			var ae *feature.AnalysisError
			if errors.As(err, &ae) {
				ae.Path = path
				return nil, ae
			}
			return nil, &feature.AnalysisError{Path: path, Err: err}
		}
		rows = append(rows, feature.Row{Frame: f, Vector: v})
	}
	return rows, nil
}

type collectionResult struct {
	index int
	rows  []feature.Row
	err   error
}

// AnalyzeCollection analyzes every entry of a downloaded collection into
// one feature table. Entries that fail to decode or extract are skipped
// and counted; the rest of the batch continues. Rows land in the table
// in entry order regardless of worker scheduling, so repeated runs over
// the same collection produce identical tables.
func (a *Analyzer) AnalyzeCollection(entries []catalog.Entry) (*feature.Table, error) {
	workers := a.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 2 {
			workers = 2
		}
	}

	var p *mpb.Progress
	var bar *mpb.Bar
	if a.config.ShowProgress {
		p = mpb.New(mpb.WithWidth(64))
		bar = p.AddBar(int64(len(entries)),
			mpb.PrependDecorators(
				decor.Name("Analyzing: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
			),
		)
	}

	jobs := make(chan int, len(entries))
	results := make(chan collectionResult, len(entries))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// The extractor behind a builder caches per-frame-size DSP
			// state, so each worker gets its own.
			builder := feature.NewBuilder(a.sampleRate)
			for i := range jobs {
				entry := entries[i]
				rows, err := a.analyzeFile(builder, entry.CollectionID, entry.Path, false)
				results <- collectionResult{index: i, rows: rows, err: err}
			}
		}()
	}

	for i := range entries {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]collectionResult, len(entries))
	for r := range results {
		if bar != nil {
			bar.Increment()
		}
		collected[r.index] = r
	}
	if p != nil {
		p.Wait()
	}

	table := feature.NewTable()
	for i, r := range collected {
		if r.err != nil {
			a.logger.Warn("Skipping sound", logging.Fields{
				"collection_id": entries[i].CollectionID,
				"path":          entries[i].Path,
				"error":         r.err.Error(),
			})
			table.RecordSkip()
			continue
		}
		for _, row := range r.rows {
			if err := table.AddRow(row.Frame, row.Vector); err != nil {
				return nil, fmt.Errorf("analyze: %s: %w", entries[i].Path, err)
			}
		}
	}

	a.logger.Info("Collection analysis complete", logging.Fields{
		"sounds":  len(entries),
		"skipped": table.Skipped(),
		"frames":  table.Len(),
	})
	return table, nil
}

// AnalyzeTarget analyzes the target recording into a feature table and
// also reports the target's total decoded sample count, which later
// fixes the reconstruction buffer length. The recording's path doubles
// as its collection ID.
func (a *Analyzer) AnalyzeTarget(path string) (*feature.Table, int, error) {
	audio, err := a.decoder.DecodeFile(path)
	if err != nil {
		return nil, 0, &feature.AnalysisError{Path: path, Err: err}
	}

	rows, err := a.analyzeSamples(a.builder, path, path, audio, a.config.SyncWithOnsets)
	if err != nil {
		return nil, 0, err
	}

	table := feature.NewTable()
	for _, row := range rows {
		if err := table.AddRow(row.Frame, row.Vector); err != nil {
			return nil, 0, fmt.Errorf("analyze: %s: %w", path, err)
		}
	}

	a.logger.Info("Target analysis complete", logging.Fields{
		"path":    path,
		"frames":  table.Len(),
		"samples": len(audio.PCM),
	})
	return table, len(audio.PCM), nil
}
