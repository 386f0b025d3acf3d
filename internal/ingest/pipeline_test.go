package ingest

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/anjankaur/shazam-for-gurbani/internal/config"
	"github.com/anjankaur/shazam-for-gurbani/internal/index"
	"github.com/anjankaur/shazam-for-gurbani/internal/metadata"
	"github.com/anjankaur/shazam-for-gurbani/internal/storage"
)

const testRate = 11025

func setupPipeline(t *testing.T) (*Pipeline, *index.Index, *metadata.Resolver) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "ingest_test.sqlite3"))
	if err != nil {
		t.Fatalf("Opening test db: %v", err)
	}
	t.Cleanup(func() { storage.Close(db) })

	idx, err := index.New(db)
	if err != nil {
		t.Fatal(err)
	}
	resolver, err := metadata.NewResolver(db)
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		TempDir:       t.TempDir(),
		SampleRate:    testRate,
		MinConfidence: config.DefaultMinConfidence,
	}
	return NewPipeline(idx, resolver, cfg), idx, resolver
}

// writeMelodyWAV writes a mono 16-bit WAV of consecutive pure-tone
// segments, 0.8 s per frequency.
func writeMelodyWAV(t *testing.T, path string, freqs []float64) {
	t.Helper()

	segment := testRate * 4 / 5
	data := make([]int, 0, len(freqs)*segment)
	for _, freq := range freqs {
		for i := 0; i < segment; i++ {
			s := 0.6 * math.Sin(2*math.Pi*freq*float64(i)/float64(testRate))
			data = append(data, int(s*32767))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Creating %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, testRate, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: testRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Writing WAV: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Closing encoder: %v", err)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestIngestCorpus(t *testing.T) {
	pipeline, idx, resolver := setupPipeline(t)
	corpus := t.TempDir()

	writeMelodyWAV(t, filepath.Join(corpus, "101_TestArtist.wav"), []float64{500, 1300, 2200, 800})
	writeMelodyWAV(t, filepath.Join(corpus, "untitled.wav"), []float64{700, 1900, 3100, 1100})
	if err := os.WriteFile(filepath.Join(corpus, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := pipeline.Ingest(context.Background(), corpus, config.AllowedExtensions)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if summary.Processed != 2 {
		t.Errorf("Expected 2 processed files, got %d", summary.Processed)
	}
	if !contains(summary.Skipped, "untitled.wav") {
		t.Errorf("untitled.wav must be recorded as skipped, got %v", summary.Skipped)
	}
	if contains(summary.Skipped, "101_TestArtist.wav") {
		t.Error("Mapped file must not be recorded as skipped")
	}

	trackCount, err := idx.TrackCount()
	if err != nil {
		t.Fatal(err)
	}
	if trackCount != 2 {
		t.Errorf("Expected 2 indexed tracks (unmapped files are still fingerprinted), got %d", trackCount)
	}

	mappingCount, err := resolver.Count()
	if err != nil {
		t.Fatal(err)
	}
	if mappingCount != 1 {
		t.Errorf("Expected 1 mapping, got %d", mappingCount)
	}

	res, err := resolver.Resolve("101_TestArtist.wav")
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || res.ShabadID != "101" || res.ArtistName != "TestArtist" {
		t.Errorf("Unexpected resolution %+v", res)
	}
}

func TestIngestIdempotent(t *testing.T) {
	pipeline, idx, resolver := setupPipeline(t)
	corpus := t.TempDir()
	writeMelodyWAV(t, filepath.Join(corpus, "55_Artist.wav"), []float64{600, 1500, 2400})

	if _, err := pipeline.Ingest(context.Background(), corpus, config.AllowedExtensions); err != nil {
		t.Fatal(err)
	}
	firstPostings, err := idx.PostingCount()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := pipeline.Ingest(context.Background(), corpus, config.AllowedExtensions); err != nil {
		t.Fatal(err)
	}
	secondPostings, err := idx.PostingCount()
	if err != nil {
		t.Fatal(err)
	}

	if firstPostings != secondPostings {
		t.Errorf("Postings must be replaced, not appended: %d then %d", firstPostings, secondPostings)
	}

	trackCount, err := idx.TrackCount()
	if err != nil {
		t.Fatal(err)
	}
	if trackCount != 1 {
		t.Errorf("Expected 1 track after re-ingestion, got %d", trackCount)
	}

	mappingCount, err := resolver.Count()
	if err != nil {
		t.Fatal(err)
	}
	if mappingCount != 1 {
		t.Errorf("Expected 1 mapping after re-ingestion, got %d", mappingCount)
	}
}

func TestIngestRecordsUndecodableFiles(t *testing.T) {
	pipeline, idx, _ := setupPipeline(t)
	corpus := t.TempDir()

	if err := os.WriteFile(filepath.Join(corpus, "broken.wav"), []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeMelodyWAV(t, filepath.Join(corpus, "77_Good.wav"), []float64{900, 2000, 3200})

	summary, err := pipeline.Ingest(context.Background(), corpus, config.AllowedExtensions)
	if err != nil {
		t.Fatalf("A broken file must not abort the run: %v", err)
	}

	if summary.Processed != 1 {
		t.Errorf("Expected 1 processed file, got %d", summary.Processed)
	}
	if !contains(summary.Skipped, "broken.wav") {
		t.Errorf("broken.wav must be recorded as skipped, got %v", summary.Skipped)
	}

	trackCount, err := idx.TrackCount()
	if err != nil {
		t.Fatal(err)
	}
	if trackCount != 1 {
		t.Errorf("Expected 1 indexed track, got %d", trackCount)
	}
}

func TestIngestCancelled(t *testing.T) {
	pipeline, _, _ := setupPipeline(t)
	corpus := t.TempDir()
	writeMelodyWAV(t, filepath.Join(corpus, "1_A.wav"), []float64{500, 1000})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := pipeline.Ingest(ctx, corpus, config.AllowedExtensions); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
