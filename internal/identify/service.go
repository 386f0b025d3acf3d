package identify

import (
	"context"

	"github.com/anjankaur/shazam-for-gurbani/internal/audio"
	"github.com/anjankaur/shazam-for-gurbani/internal/config"
	"github.com/anjankaur/shazam-for-gurbani/internal/fingerprint"
	"github.com/anjankaur/shazam-for-gurbani/internal/index"
	"github.com/anjankaur/shazam-for-gurbani/internal/matcher"
	"github.com/anjankaur/shazam-for-gurbani/internal/metadata"
	"github.com/anjankaur/shazam-for-gurbani/pkg/logger"
)

// MinQueryTokens is the floor below which a query is treated as having no
// fingerprintable content. Anything shorter cannot produce a meaningful
// alignment peak.
const MinQueryTokens = 5

// Service orchestrates one identification: decode, fingerprint, match,
// resolve. It owns no global state; construct it once with the shared
// index and resolver handles and pass it by reference.
type Service struct {
	idx      *index.Index
	resolver *metadata.Resolver
	cfg      *config.Config
	log      *logger.Logger
}

func NewService(idx *index.Index, resolver *metadata.Resolver, cfg *config.Config) *Service {
	return &Service{
		idx:      idx,
		resolver: resolver,
		cfg:      cfg,
		log:      logger.GetLogger(),
	}
}

// Identify matches the audio file at audioPath against the corpus.
// Expected "nothing found" results come back as Outcome variants; the
// returned error is non-nil only for corrupt/unsupported input
// (audio.DecodeError), an unreachable index (index.ErrUnavailable), or
// caller cancellation. Nothing here mutates stored state, so an aborted
// query has no side effects.
func (s *Service) Identify(ctx context.Context, audioPath string) (*Outcome, error) {
	samples, err := audio.Decode(ctx, audioPath, s.cfg.TempDir, s.cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := fingerprint.Extract(samples)
	s.log.Debugf("Query %s: %d tokens", audioPath, len(tokens))
	if len(tokens) < MinQueryTokens {
		return noMatch(nil), nil
	}

	postings, err := s.idx.Lookup(queryHashes(tokens))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := matcher.Match(tokens, postings)
	if len(results) == 0 {
		return noMatch(nil), nil
	}

	best := results[0]
	s.log.Debugf("Best candidate %s: score=%d confidence=%.3f", best.TrackID, best.Score, best.Confidence)
	if best.Confidence < s.cfg.MinConfidence {
		return noMatch(&best.Confidence), nil
	}

	resolution, err := s.resolver.Resolve(best.TrackID)
	if err != nil {
		return nil, err
	}
	if resolution == nil {
		return unmappedMatch(best.TrackID, best.Confidence), nil
	}

	return completed(resolution.ShabadID, best.TrackID, best.Confidence), nil
}

// queryHashes deduplicates the hash set of a token sequence for the bulk
// index lookup.
func queryHashes(tokens []fingerprint.Token) []uint32 {
	seen := make(map[uint32]bool, len(tokens))
	hashes := make([]uint32, 0, len(tokens))
	for _, tok := range tokens {
		if !seen[tok.Hash] {
			seen[tok.Hash] = true
			hashes = append(hashes, tok.Hash)
		}
	}
	return hashes
}
