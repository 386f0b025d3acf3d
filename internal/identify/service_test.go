package identify

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/anjankaur/shazam-for-gurbani/internal/audio"
	"github.com/anjankaur/shazam-for-gurbani/internal/config"
	"github.com/anjankaur/shazam-for-gurbani/internal/index"
	"github.com/anjankaur/shazam-for-gurbani/internal/ingest"
	"github.com/anjankaur/shazam-for-gurbani/internal/metadata"
	"github.com/anjankaur/shazam-for-gurbani/internal/storage"
)

const testRate = 11025

type fixture struct {
	service *Service
	cfg     *config.Config
	corpus  string
	queries string
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "identify_test.sqlite3"))
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

	fx := &fixture{
		service: NewService(idx, resolver, cfg),
		cfg:     cfg,
		corpus:  t.TempDir(),
		queries: t.TempDir(),
	}

	// Two distinct melodies plus one with an unparseable filename.
	writeWAV(t, filepath.Join(fx.corpus, "1365_BhaiHarjinderSingh.wav"),
		melody([]float64{520, 1340, 2280, 860, 3150, 1120}, testRate))
	writeWAV(t, filepath.Join(fx.corpus, "2041_BhaiNiranjanSingh.wav"),
		melody([]float64{640, 1760, 2900, 980, 2520, 760}, testRate))
	writeWAV(t, filepath.Join(fx.corpus, "untitled.wav"),
		melody([]float64{590, 1480, 2660, 1040, 3390, 820}, testRate))

	pipeline := ingest.NewPipeline(idx, resolver, cfg)
	summary, err := pipeline.Ingest(context.Background(), fx.corpus, config.AllowedExtensions)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if summary.Processed != 3 {
		t.Fatalf("Expected 3 ingested files, got %d", summary.Processed)
	}

	return fx
}

// melody produces one second of each frequency in sequence.
func melody(freqs []float64, rate int) []float64 {
	out := make([]float64, 0, len(freqs)*rate)
	for _, f := range freqs {
		for i := 0; i < rate; i++ {
			out = append(out, 0.6*math.Sin(2*math.Pi*f*float64(i)/float64(rate)))
		}
	}
	return out
}

func writeWAV(t *testing.T, path string, samples []float64) {
	t.Helper()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s * 32767)
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

// excerpt cuts a clip from a source melody on an STFT hop boundary, the
// way a listener's clip lines up with some interior stretch of the track.
func excerpt(samples []float64, startFrames, seconds int) []float64 {
	start := startFrames * 256
	end := start + seconds*testRate
	if end > len(samples) {
		end = len(samples)
	}
	return samples[start:end]
}

func TestIdentifyRoundTrip(t *testing.T) {
	fx := setupFixture(t)

	source := melody([]float64{520, 1340, 2280, 860, 3150, 1120}, testRate)
	queryPath := filepath.Join(fx.queries, "clip.wav")
	writeWAV(t, queryPath, excerpt(source, 60, 3))

	outcome, err := fx.service.Identify(context.Background(), queryPath)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}

	if outcome.Kind != Completed || !outcome.Success {
		t.Fatalf("Expected completed outcome, got %s (%s)", outcome.Kind, outcome.Message)
	}
	if outcome.ShabadID != "1365" {
		t.Errorf("Expected shabad 1365, got %s", outcome.ShabadID)
	}
	if outcome.SongName != "1365_BhaiHarjinderSingh.wav" {
		t.Errorf("Unexpected song name %s", outcome.SongName)
	}
	if outcome.Confidence == nil || *outcome.Confidence < fx.cfg.MinConfidence {
		t.Errorf("Expected confidence above threshold, got %v", outcome.Confidence)
	}
	t.Logf("Round trip confidence: %.3f", *outcome.Confidence)
}

func TestIdentifyRanksTrueTrackFirst(t *testing.T) {
	fx := setupFixture(t)

	source := melody([]float64{640, 1760, 2900, 980, 2520, 760}, testRate)
	queryPath := filepath.Join(fx.queries, "clip2.wav")
	writeWAV(t, queryPath, excerpt(source, 100, 3))

	outcome, err := fx.service.Identify(context.Background(), queryPath)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if outcome.Kind != Completed || outcome.ShabadID != "2041" {
		t.Fatalf("Expected shabad 2041, got %s (%s)", outcome.ShabadID, outcome.Message)
	}
}

func TestIdentifySilenceNoMatch(t *testing.T) {
	fx := setupFixture(t)

	queryPath := filepath.Join(fx.queries, "silence.wav")
	writeWAV(t, queryPath, make([]float64, testRate*3))

	outcome, err := fx.service.Identify(context.Background(), queryPath)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if outcome.Kind != NoMatch || outcome.Success {
		t.Errorf("Expected NoMatch for silence, got %s", outcome.Kind)
	}
	if outcome.ShabadID != "" || outcome.SongName != "" {
		t.Error("NoMatch outcome must not carry identification fields")
	}
}

func TestIdentifyUnrelatedAudioNoMatch(t *testing.T) {
	fx := setupFixture(t)

	// Frequencies unrelated to any ingested melody.
	queryPath := filepath.Join(fx.queries, "noise.wav")
	writeWAV(t, queryPath, melody([]float64{433, 1111, 1873, 2741}, testRate))

	outcome, err := fx.service.Identify(context.Background(), queryPath)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if outcome.Kind != NoMatch {
		t.Errorf("Expected NoMatch for unrelated audio, got %s (%s)", outcome.Kind, outcome.Message)
	}
}

func TestIdentifyUnmappedMatch(t *testing.T) {
	fx := setupFixture(t)

	// The untitled track is fingerprinted but has no resolvable identity:
	// the matcher finds it, the resolver cannot name it.
	source := melody([]float64{590, 1480, 2660, 1040, 3390, 820}, testRate)
	queryPath := filepath.Join(fx.queries, "unmapped.wav")
	writeWAV(t, queryPath, excerpt(source, 80, 3))

	outcome, err := fx.service.Identify(context.Background(), queryPath)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}

	if outcome.Kind != UnmappedMatch {
		t.Fatalf("Expected UnmappedMatch, got %s (%s)", outcome.Kind, outcome.Message)
	}
	if outcome.Success {
		t.Error("UnmappedMatch must not be a success")
	}
	if outcome.SongName != "untitled.wav" {
		t.Errorf("Expected matched song name, got %q", outcome.SongName)
	}
	if outcome.ShabadID != "" {
		t.Error("UnmappedMatch must not carry a shabad id")
	}
	if outcome.Confidence == nil {
		t.Error("UnmappedMatch must carry the match confidence")
	}
}

func TestIdentifyCorruptAudio(t *testing.T) {
	fx := setupFixture(t)

	queryPath := filepath.Join(fx.queries, "corrupt.wav")
	if err := os.WriteFile(queryPath, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := fx.service.Identify(context.Background(), queryPath)
	var decodeErr *audio.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
}

func TestIdentifyCancelled(t *testing.T) {
	fx := setupFixture(t)

	queryPath := filepath.Join(fx.queries, "cancelled.wav")
	writeWAV(t, queryPath, melody([]float64{520, 1340}, testRate))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fx.service.Identify(ctx, queryPath); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
