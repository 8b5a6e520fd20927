// Command mosaic runs the audio mosaicing pipeline: download a source
// collection from Freesound, analyze it and a target recording into
// per-frame feature tables, and reconstruct the target out of the
// best-matching source frames.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/sonido-mosaic/analyze"
	"github.com/RyanBlaney/sonido-mosaic/catalog"
	"github.com/RyanBlaney/sonido-mosaic/codec"
	"github.com/RyanBlaney/sonido-mosaic/feature"
	"github.com/RyanBlaney/sonido-mosaic/logging"
	"github.com/RyanBlaney/sonido-mosaic/match"
	"github.com/RyanBlaney/sonido-mosaic/mosaic"
)

const (
	filesDir        = "files"
	metadataCSV     = "dataframe.csv"
	sourceTableCSV  = "dataframe_source.csv"
	targetTableCSV  = "dataframe_target.csv"
	defaultTopK     = 10
	defaultFrameLen = 8192
)

var defaultQueries = []catalog.Query{
	{Text: "organ", NumResults: 20},
	{Text: "violin", Filter: "duration:[0 TO 1]", NumResults: 20},
	{Text: "scream", Filter: "duration:[1 TO 2]", NumResults: 20},
}

type options struct {
	step       string
	target     string
	frameSize  int
	syncOnsets bool
	policy     string
	topK       int
	seed       int64
	workers    int
	output     string
	queries    string
	verbose    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.step, "step", "all", "step to execute: download, analyze, mosaic, or all")
	flag.StringVar(&opts.target, "target", "", "path to the target audio file")
	flag.IntVar(&opts.frameSize, "frame-size", defaultFrameLen, "frame size in samples for analysis")
	flag.BoolVar(&opts.syncOnsets, "sync-onsets", false, "cut target frames at detected onsets instead of a fixed grid")
	flag.StringVar(&opts.policy, "policy", string(match.SelectRandomTopK), "frame selection policy: best or random")
	flag.IntVar(&opts.topK, "k", defaultTopK, "number of nearest frames the random policy chooses from")
	flag.Int64Var(&opts.seed, "seed", 0, "random seed for the random policy (0 uses a nondeterministic seed)")
	flag.IntVar(&opts.workers, "workers", 0, "worker count for collection analysis (0 = auto)")
	flag.StringVar(&opts.output, "output", "", "output WAV path (default <target>.reconstructed.wav)")
	flag.StringVar(&opts.queries, "queries", "", "JSON file with search queries (default: built-in organ/violin/scream set)")
	flag.BoolVar(&opts.verbose, "v", false, "enable debug logging")
	flag.Parse()

	if opts.verbose {
		logging.SetLevel(logging.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		logging.Error(err, "Pipeline failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	switch opts.step {
	case "download", "analyze", "mosaic", "all":
	default:
		return fmt.Errorf("unknown step %q", opts.step)
	}

	var entries []catalog.Entry
	var err error
	if opts.step == "download" || opts.step == "all" {
		entries, err = downloadStep(ctx, opts)
	} else {
		entries, err = catalog.LoadEntries(metadataCSV)
	}
	if err != nil {
		return err
	}
	if opts.step == "download" {
		return nil
	}

	var sourceTable, targetTable *feature.Table
	if opts.step == "analyze" || opts.step == "all" {
		sourceTable, targetTable, err = analyzeStep(opts, entries)
	} else {
		sourceTable, targetTable, err = loadTables()
	}
	if err != nil {
		return err
	}
	if opts.step == "analyze" {
		return nil
	}

	return mosaicStep(opts, sourceTable, targetTable)
}

func downloadStep(ctx context.Context, opts options) ([]catalog.Entry, error) {
	queries := defaultQueries
	if opts.queries != "" {
		data, err := os.ReadFile(opts.queries)
		if err != nil {
			return nil, fmt.Errorf("read queries: %w", err)
		}
		queries = nil
		if err := json.Unmarshal(data, &queries); err != nil {
			return nil, fmt.Errorf("parse queries: %w", err)
		}
	}

	client, err := catalog.NewClient(nil, catalog.DefaultClientConfig())
	if err != nil {
		return nil, err
	}

	logging.Info("Downloading audio collection", logging.Fields{"queries": len(queries)})
	entries, err := client.DownloadCollection(ctx, queries, filesDir)
	if err != nil {
		return nil, err
	}
	if err := catalog.SaveEntries(metadataCSV, entries); err != nil {
		return nil, err
	}
	logging.Info("Saved collection metadata", logging.Fields{
		"entries": len(entries),
		"path":    metadataCSV,
	})
	return entries, nil
}

func analyzeStep(opts options, entries []catalog.Entry) (*feature.Table, *feature.Table, error) {
	if opts.target == "" {
		return nil, nil, fmt.Errorf("missing -target audio file")
	}

	analyzer := analyze.NewAnalyzer(nil, analyze.Config{
		FrameSize:      opts.frameSize,
		SyncWithOnsets: opts.syncOnsets,
		Workers:        opts.workers,
		ShowProgress:   true,
	})

	logging.Info("Analyzing source collection", logging.Fields{"sounds": len(entries)})
	sourceTable, err := analyzer.AnalyzeCollection(entries)
	if err != nil {
		return nil, nil, err
	}
	if err := sourceTable.SaveCSV(sourceTableCSV); err != nil {
		return nil, nil, err
	}

	logging.Info("Analyzing target", logging.Fields{"path": opts.target})
	targetTable, _, err := analyzer.AnalyzeTarget(opts.target)
	if err != nil {
		return nil, nil, err
	}
	if err := targetTable.SaveCSV(targetTableCSV); err != nil {
		return nil, nil, err
	}
	return sourceTable, targetTable, nil
}

func loadTables() (*feature.Table, *feature.Table, error) {
	sourceTable, err := feature.LoadCSV(sourceTableCSV)
	if err != nil {
		return nil, nil, err
	}
	targetTable, err := feature.LoadCSV(targetTableCSV)
	if err != nil {
		return nil, nil, err
	}
	return sourceTable, targetTable, nil
}

func mosaicStep(opts options, sourceTable, targetTable *feature.Table) error {
	if targetTable.Len() == 0 {
		return fmt.Errorf("target analysis has no frames")
	}

	policy, err := buildPolicy(opts, sourceTable.Len())
	if err != nil {
		return err
	}

	matcher, err := match.NewMatcher(sourceTable, feature.SimilarityFeatures())
	if err != nil {
		return err
	}

	decoder := codec.NewDecoder(codec.DefaultDecoderConfig())
	cache := mosaic.NewSegmentCache(mosaic.LoaderFunc(func(path string) ([]float64, error) {
		audio, err := decoder.DecodeFile(path)
		if err != nil {
			return nil, err
		}
		return audio.PCM, nil
	}))

	// The output spans the target's full recording, tail included, so
	// decode it once to learn the true length.
	targetPath := targetTable.Row(0).Frame.Path
	targetAudio, err := decoder.DecodeFile(targetPath)
	if err != nil {
		return fmt.Errorf("decode target %s: %w", targetPath, err)
	}

	assembler := mosaic.NewAssembler(cache, func(query feature.Vector) (*match.Decision, error) {
		return matcher.Match(query, policy)
	})

	result, err := assembler.Assemble(targetTable, len(targetAudio.PCM))
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = targetPath + ".reconstructed.wav"
	}
	if err := codec.WriteWAVFile(output, result.Samples, targetAudio.SampleRate); err != nil {
		return err
	}

	logging.Info("Reconstruction saved", logging.Fields{
		"run_id":      result.RunID,
		"output":      output,
		"collections": fmt.Sprintf("%v", result.Collections),
	})
	return nil
}

func buildPolicy(opts options, collectionSize int) (match.Policy, error) {
	switch match.SelectionMode(opts.policy) {
	case match.SelectBest:
		return match.DefaultPolicy(), nil
	case match.SelectRandomTopK:
		k := opts.topK
		if k > collectionSize {
			k = collectionSize
		}
		var rng *rand.Rand
		if opts.seed != 0 {
			rng = rand.New(rand.NewSource(opts.seed))
		}
		return match.RandomTopKPolicy(k, rng), nil
	default:
		return match.Policy{}, fmt.Errorf("unknown policy %q", opts.policy)
	}
}
