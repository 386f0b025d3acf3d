package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/anjankaur/shazam-for-gurbani/internal/audio"
	"github.com/anjankaur/shazam-for-gurbani/internal/config"
	"github.com/anjankaur/shazam-for-gurbani/internal/identify"
	"github.com/anjankaur/shazam-for-gurbani/internal/index"
	"github.com/anjankaur/shazam-for-gurbani/internal/ingest"
	"github.com/anjankaur/shazam-for-gurbani/internal/metadata"
	"github.com/anjankaur/shazam-for-gurbani/internal/storage"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)

type app struct {
	cfg      *config.Config
	idx      *index.Index
	resolver *metadata.Resolver
}

func newApp() (*app, func(), error) {
	cfg := config.Load()
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { storage.Close(db) }

	idx, err := index.New(db)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	resolver, err := metadata.NewResolver(db)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return &app{cfg: cfg, idx: idx, resolver: resolver}, closeFn, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "train":
		if len(os.Args) < 3 {
			fmt.Println("usage: shabad train <corpus_dir>")
			os.Exit(1)
		}
		runTrain(os.Args[2])
	case "identify":
		if len(os.Args) < 3 {
			fmt.Println("usage: shabad identify <audio_file>")
			os.Exit(1)
		}
		runIdentify(os.Args[2])
	case "list":
		runList()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("usage: shabad <command>")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  train    <corpus_dir>   fingerprint a directory of audio files")
	fmt.Println("  identify <audio_file>   identify a Shabad from an audio clip")
	fmt.Println("  list                    list indexed tracks and mappings")
}

func runTrain(corpusDir string) {
	app, closeFn, err := newApp()
	if err != nil {
		fatal(err)
	}
	defer closeFn()

	pipeline := ingest.NewPipeline(app.idx, app.resolver, app.cfg)
	summary, err := pipeline.Ingest(context.Background(), corpusDir, config.AllowedExtensions)
	if err != nil {
		fatal(err)
	}

	green.Printf("Processed %d file(s)\n", summary.Processed)
	for _, name := range summary.Skipped {
		yellow.Printf("  unmapped: %s\n", name)
	}
}

func runIdentify(audioPath string) {
	app, closeFn, err := newApp()
	if err != nil {
		fatal(err)
	}
	defer closeFn()

	service := identify.NewService(app.idx, app.resolver, app.cfg)
	outcome, err := service.Identify(context.Background(), audioPath)
	if err != nil {
		var decodeErr *audio.DecodeError
		if errors.As(err, &decodeErr) {
			fatal(fmt.Errorf("could not decode %s: %w", audioPath, decodeErr.Err))
		}
		fatal(err)
	}

	switch outcome.Kind {
	case identify.Completed:
		green.Printf("Shabad %s (%s)  confidence %.2f\n", outcome.ShabadID, outcome.SongName, *outcome.Confidence)
	case identify.UnmappedMatch:
		yellow.Printf("Matched %s (confidence %.2f) but no Shabad mapping exists\n", outcome.SongName, *outcome.Confidence)
	default:
		fmt.Println(outcome.Message)
	}
}

func runList() {
	app, closeFn, err := newApp()
	if err != nil {
		fatal(err)
	}
	defer closeFn()

	tracks, err := app.idx.Tracks()
	if err != nil {
		fatal(err)
	}
	mappings, err := app.resolver.List()
	if err != nil {
		fatal(err)
	}

	mapped := make(map[string]string, len(mappings))
	for _, m := range mappings {
		mapped[m.AudioFilename] = m.ShabadID
	}

	fmt.Printf("%d indexed track(s):\n", len(tracks))
	for _, t := range tracks {
		if shabadID, ok := mapped[t.TrackID]; ok {
			fmt.Printf("  %s  ->  Shabad %s  (%d tokens)\n", t.TrackID, shabadID, t.TokenCount)
		} else {
			yellow.Printf("  %s  ->  unmapped  (%d tokens)\n", t.TrackID, t.TokenCount)
		}
	}
}

func fatal(err error) {
	red.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
