package audio

import (
	"errors"
	"math"
)

// LowPassFilter is a first-order low-pass filter attenuating frequencies
// above cutoff, applied before decimation to limit aliasing.
func LowPassFilter(cutoff, sampleRate float64, input []float64) []float64 {
	rc := 1.0 / (2 * math.Pi * cutoff)
	dt := 1.0 / sampleRate
	alpha := dt / (rc + dt)

	out := make([]float64, len(input))
	var prev float64
	for i, x := range input {
		if i == 0 {
			out[i] = x * alpha
		} else {
			out[i] = alpha*x + (1-alpha)*prev
		}
		prev = out[i]
	}
	return out
}

// Downsample decimates input from originalRate to targetRate by averaging
// each block of ratio samples. The ratio must be integral.
func Downsample(input []float64, originalRate, targetRate int) ([]float64, error) {
	if originalRate <= 0 || targetRate <= 0 {
		return nil, errors.New("sample rates must be positive")
	}
	if targetRate > originalRate {
		return nil, errors.New("target sample rate must not exceed original")
	}
	if originalRate%targetRate != 0 {
		return nil, errors.New("sample rate ratio must be integral")
	}

	ratio := originalRate / targetRate
	out := make([]float64, 0, len(input)/ratio+1)
	for i := 0; i < len(input); i += ratio {
		end := i + ratio
		if end > len(input) {
			end = len(input)
		}
		sum := 0.0
		for j := i; j < end; j++ {
			sum += input[j]
		}
		out = append(out, sum/float64(end-i))
	}
	return out, nil
}
