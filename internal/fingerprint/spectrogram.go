package fingerprint

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// STFT parameters. Every stored fingerprint depends on these; changing them
// invalidates the index.
const (
	WindowSize = 1024
	HopSize    = 256
)

// Hamming returns a Hamming window of length n.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// magnitudeSpectrum converts a complex spectrum into a magnitude spectrum
// over the positive frequency half.
func magnitudeSpectrum(spectrum []complex128) []float64 {
	half := len(spectrum) / 2
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// Spectrogram computes a time-major magnitude spectrogram of mono samples
// using the package STFT parameters. Input shorter than one window yields
// an empty spectrogram, not an error; a query clip that short simply has
// nothing to fingerprint.
func Spectrogram(samples []float64) [][]float64 {
	if len(samples) < WindowSize {
		return nil
	}

	window := Hamming(WindowSize)
	nFrames := (len(samples)-WindowSize)/HopSize + 1
	spectrogram := make([][]float64, 0, nFrames)

	frame := make([]float64, WindowSize)
	for start := 0; start+WindowSize <= len(samples); start += HopSize {
		copy(frame, samples[start:start+WindowSize])
		for i := 0; i < WindowSize; i++ {
			frame[i] *= window[i]
		}
		spectrogram = append(spectrogram, magnitudeSpectrum(fft.FFTReal(frame)))
	}
	return spectrogram
}
