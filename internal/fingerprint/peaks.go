package fingerprint

import (
	"math"
	"sort"
)

// Peak is a spectral landmark: a locally dominant time-frequency point of
// the magnitude spectrogram. Frame and Bin are STFT grid indices, which
// keeps everything downstream deterministic.
type Peak struct {
	Frame int
	Bin   int
	MagDB float64
}

const (
	// 2D neighborhood for the local-max check.
	freqNeighbour = 3
	timeNeighbour = 1

	// Minimum dB above the frame's band-maxima average to accept a peak.
	minDbAboveAvg = 3.0

	eps = 1e-10
)

// freqBands builds rough log-spaced frequency bands over nBins, starting
// with a low band of 10 bins and doubling from there.
func freqBands(nBins int) [][2]int {
	bands := [][2]int{{0, minInt(10, nBins)}}
	for start := 10; start < nBins; start *= 2 {
		end := minInt(start*2, nBins)
		bands = append(bands, [2]int{start, end})
		if end == nBins {
			break
		}
	}
	return bands
}

// ExtractPeaks finds the peak constellation of a time-major magnitude
// spectrogram. Per frame it takes the strongest bin of each log band, then
// keeps only candidates that clear an adaptive dB threshold and are a true
// local maximum in a small 2D neighborhood. The result is sorted by frame
// then bin.
func ExtractPeaks(spectrogram [][]float64) []Peak {
	if len(spectrogram) == 0 || len(spectrogram[0]) == 0 {
		return nil
	}

	nFrames := len(spectrogram)
	nBins := len(spectrogram[0])
	bands := freqBands(nBins)

	peaks := make([]Peak, 0, nFrames*2)

	for t := 0; t < nFrames; t++ {
		frame := spectrogram[t]

		bandMaxMag := make([]float64, 0, len(bands))
		bandMaxIdx := make([]int, 0, len(bands))
		for _, b := range bands {
			maxMag := 0.0
			maxIdx := b[0]
			for i := b[0]; i < b[1] && i < nBins; i++ {
				if frame[i] > maxMag {
					maxMag = frame[i]
					maxIdx = i
				}
			}
			bandMaxMag = append(bandMaxMag, maxMag)
			bandMaxIdx = append(bandMaxIdx, maxIdx)
		}

		var sumDb float64
		for _, mag := range bandMaxMag {
			sumDb += 20.0 * math.Log10(mag+eps)
		}
		avgDb := sumDb / float64(len(bandMaxMag))

		for bi, mag := range bandMaxMag {
			if mag <= 0 {
				continue
			}
			bin := bandMaxIdx[bi]
			magDb := 20.0 * math.Log10(mag+eps)
			if magDb < avgDb+minDbAboveAvg {
				continue
			}
			if !isLocalMax(spectrogram, t, bin, mag) {
				continue
			}
			peaks = append(peaks, Peak{Frame: t, Bin: bin, MagDB: magDb})
		}
	}

	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].Frame == peaks[j].Frame {
			return peaks[i].Bin < peaks[j].Bin
		}
		return peaks[i].Frame < peaks[j].Frame
	})

	return peaks
}

func isLocalMax(spectrogram [][]float64, t, bin int, mag float64) bool {
	nFrames := len(spectrogram)
	nBins := len(spectrogram[0])
	for dt := -timeNeighbour; dt <= timeNeighbour; dt++ {
		tIdx := t + dt
		if tIdx < 0 || tIdx >= nFrames {
			continue
		}
		for df := -freqNeighbour; df <= freqNeighbour; df++ {
			fIdx := bin + df
			if fIdx < 0 || fIdx >= nBins || (dt == 0 && df == 0) {
				continue
			}
			if spectrogram[tIdx][fIdx] > mag {
				return false
			}
		}
	}
	return true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
