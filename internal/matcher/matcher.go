package matcher

import (
	"sort"

	"github.com/anjankaur/shazam-for-gurbani/internal/fingerprint"
	"github.com/anjankaur/shazam-for-gurbani/internal/index"
)

// Result is one ranked candidate for a query.
type Result struct {
	TrackID string
	// BestDelta is the alignment offset (track frame - query frame) of the
	// winning vote bucket.
	BestDelta int
	// Score is the vote count of that bucket.
	Score int
	// Confidence is Score normalized by the query token count, in [0, 1].
	Confidence float64
}

// Match ranks candidate tracks for a query by offset-alignment voting.
// Every posting whose hash matches a query token votes for (track, delta)
// where delta = posting offset - query offset. A genuine excerpt of a
// track puts nearly all its votes at one delta; chance hash collisions
// scatter across deltas, so the per-track score is the count of the single
// best delta bucket. Results are sorted best first; ties break by raw
// score, then by TrackID so the ordering is deterministic.
func Match(tokens []fingerprint.Token, postings map[uint32][]index.Posting) []Result {
	if len(tokens) == 0 || len(postings) == 0 {
		return nil
	}

	votes := make(map[string]map[int]int)
	for _, tok := range tokens {
		for _, p := range postings[tok.Hash] {
			delta := int(p.TrackOffset) - int(tok.Offset)
			m := votes[p.TrackID]
			if m == nil {
				m = make(map[int]int)
				votes[p.TrackID] = m
			}
			m[delta]++
		}
	}

	results := make([]Result, 0, len(votes))
	for trackID, deltas := range votes {
		bestDelta, bestCount := 0, 0
		for delta, count := range deltas {
			if count > bestCount || (count == bestCount && delta < bestDelta) {
				bestCount = count
				bestDelta = delta
			}
		}
		confidence := float64(bestCount) / float64(len(tokens))
		if confidence > 1 {
			confidence = 1
		}
		results = append(results, Result{
			TrackID:    trackID,
			BestDelta:  bestDelta,
			Score:      bestCount,
			Confidence: confidence,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].TrackID < results[j].TrackID
	})

	return results
}
