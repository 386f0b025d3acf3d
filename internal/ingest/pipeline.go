package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/anjankaur/shazam-for-gurbani/internal/audio"
	"github.com/anjankaur/shazam-for-gurbani/internal/config"
	"github.com/anjankaur/shazam-for-gurbani/internal/fingerprint"
	"github.com/anjankaur/shazam-for-gurbani/internal/index"
	"github.com/anjankaur/shazam-for-gurbani/internal/metadata"
	"github.com/anjankaur/shazam-for-gurbani/pkg/logger"
)

// Summary reports one ingestion run. Processed counts files that were
// fingerprinted and indexed. Skipped lists files that ended up without a
// Shabad mapping: unparseable filenames (these ARE indexed) and files
// that failed to decode or fingerprint (these are not).
type Summary struct {
	Processed int
	Skipped   []string
}

// Pipeline walks a corpus of audio files and populates the fingerprint
// index and the mapping store. Safe to run repeatedly: re-ingesting a
// file replaces its postings and upserts its mapping.
type Pipeline struct {
	idx      *index.Index
	resolver *metadata.Resolver
	cfg      *config.Config
	log      *logger.Logger
}

func NewPipeline(idx *index.Index, resolver *metadata.Resolver, cfg *config.Config) *Pipeline {
	return &Pipeline{
		idx:      idx,
		resolver: resolver,
		cfg:      cfg,
		log:      logger.GetLogger(),
	}
}

// Ingest processes every file under corpusRoot whose extension is in
// allowedExts. Per-file failures are logged and recorded as skipped
// rather than aborting the run; only walking errors and context
// cancellation stop it.
func (p *Pipeline) Ingest(ctx context.Context, corpusRoot string, allowedExts []string) (*Summary, error) {
	extSet := make(map[string]bool, len(allowedExts))
	for _, ext := range allowedExts {
		extSet[strings.ToLower(ext)] = true
	}

	summary := &Summary{}
	err := filepath.WalkDir(corpusRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !extSet[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		p.ingestFile(ctx, path, summary)
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("walking corpus %s: %w", corpusRoot, err)
	}

	p.log.Infof("Ingestion complete: %d processed, %d without mapping", summary.Processed, len(summary.Skipped))
	return summary, nil
}

func (p *Pipeline) ingestFile(ctx context.Context, path string, summary *Summary) {
	trackID := filepath.Base(path)

	samples, err := audio.Decode(ctx, path, p.cfg.TempDir, p.cfg.SampleRate)
	if err != nil {
		p.log.Warnf("Skipping %s: %v", trackID, err)
		summary.Skipped = append(summary.Skipped, trackID)
		return
	}

	tokens := fingerprint.Extract(samples)
	if len(tokens) == 0 {
		p.log.Warnf("Skipping %s: no fingerprintable content", trackID)
		summary.Skipped = append(summary.Skipped, trackID)
		return
	}

	if err := p.idx.Insert(trackID, tokens); err != nil {
		p.log.Warnf("Skipping %s: %v", trackID, err)
		summary.Skipped = append(summary.Skipped, trackID)
		return
	}
	summary.Processed++
	p.log.Infof("Indexed %s (%d tokens)", trackID, len(tokens))

	shabadID, artistName, ok := metadata.ParseFilename(trackID)
	if !ok {
		p.log.Warnf("No Shabad ID derivable from %s; indexed without mapping", trackID)
		summary.Skipped = append(summary.Skipped, trackID)
		return
	}
	if err := p.resolver.Register(trackID, shabadID, artistName, nil); err != nil {
		p.log.Warnf("Mapping %s failed: %v", trackID, err)
		summary.Skipped = append(summary.Skipped, trackID)
		return
	}
	p.log.Infof("Mapped %s -> Shabad %s", trackID, shabadID)
}
