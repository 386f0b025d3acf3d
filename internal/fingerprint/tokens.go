package fingerprint

import "sort"

// Token is the unit of indexing and matching: a packed landmark-pair hash
// anchored at the frame index of its anchor peak. The hash depends only on
// the relative geometry of the two peaks, never on absolute position, so
// the same audio content produces the same hashes wherever it sits inside
// a longer track.
type Token struct {
	Hash   uint32
	Offset uint32 // anchor frame index
}

// Pairing tunables.
const (
	// Bits allocated to each frequency bin index (WindowSize/2 = 512 bins).
	maxFreqBits = 9

	// Bits allocated to the frame delta between anchor and target.
	maxDeltaBits = 14

	// FanOut limits how many targets each anchor pairs with.
	FanOut = 6

	// Frame-delta bounds for a pair. At 11025 Hz with a 256-sample hop,
	// 256 frames is just under six seconds.
	minDeltaFrames = 1
	maxDeltaFrames = 256
)

// packHash packs (anchor bin, target bin, frame delta) into a uint32 with
// layout [anchor:9 | target:9 | delta:14]. Returns ok=false when a value
// does not fit or the delta is out of bounds.
func packHash(anchor, target Peak) (uint32, bool) {
	delta := target.Frame - anchor.Frame
	if delta < minDeltaFrames || delta > maxDeltaFrames {
		return 0, false
	}

	const freqMask = (1 << maxFreqBits) - 1
	const deltaMask = (1 << maxDeltaBits) - 1
	if anchor.Bin > freqMask || target.Bin > freqMask || delta > deltaMask {
		return 0, false
	}

	h := uint32(anchor.Bin)<<(maxDeltaBits+maxFreqBits) |
		uint32(target.Bin)<<maxDeltaBits |
		uint32(delta)
	return h, true
}

// Tokenize turns a peak constellation into tokens using time-windowed
// fan-out pairing: each anchor pairs with up to FanOut subsequent peaks
// whose frame delta is representable. The input slice is not modified;
// pairing runs over a sorted copy.
func Tokenize(peaks []Peak) []Token {
	ordered := make([]Peak, len(peaks))
	copy(ordered, peaks)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Frame == ordered[j].Frame {
			return ordered[i].Bin < ordered[j].Bin
		}
		return ordered[i].Frame < ordered[j].Frame
	})

	tokens := make([]Token, 0, len(ordered)*FanOut/2)
	for i := 0; i < len(ordered); i++ {
		anchor := ordered[i]
		paired := 0
		for j := i + 1; j < len(ordered) && paired < FanOut; j++ {
			hash, ok := packHash(anchor, ordered[j])
			if !ok {
				continue
			}
			tokens = append(tokens, Token{Hash: hash, Offset: uint32(anchor.Frame)})
			paired++
		}
	}
	return tokens
}

// Extract runs the full transform on mono samples: spectrogram, peak
// constellation, pair tokens. Deterministic for identical input. Silence
// and too-short input yield an empty slice, never an error.
func Extract(samples []float64) []Token {
	return Tokenize(ExtractPeaks(Spectrogram(samples)))
}
