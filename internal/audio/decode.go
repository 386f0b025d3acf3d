package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"

	"github.com/anjankaur/shazam-for-gurbani/pkg/utils"
)

// DecodeError reports unreadable, corrupt, or unsupported audio input.
// It is the only failure an extraction caller needs to distinguish; match
// with errors.As.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(path string, err error) error {
	return &DecodeError{Path: path, Err: err}
}

// ReadWAV reads a PCM WAV file and returns mono samples normalized to
// [-1, 1] together with the file's sample rate. Stereo input is mixed down
// by averaging channels.
func ReadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, decodeErr(path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, decodeErr(path, fmt.Errorf("not a valid WAV file"))
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, decodeErr(path, fmt.Errorf("reading PCM data: %w", err))
	}
	if dec.BitDepth == 0 || dec.NumChans == 0 {
		return nil, 0, decodeErr(path, fmt.Errorf("missing format information"))
	}

	channels := int(dec.NumChans)
	if channels > 2 {
		return nil, 0, decodeErr(path, fmt.Errorf("unsupported channel count %d", channels))
	}

	scale := 1.0 / float64(int(1)<<(uint(dec.BitDepth)-1))
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	if channels == 1 {
		for i := 0; i < frames; i++ {
			samples[i] = float64(buf.Data[i]) * scale
		}
	} else {
		for i := 0; i < frames; i++ {
			l := float64(buf.Data[2*i]) * scale
			r := float64(buf.Data[2*i+1]) * scale
			samples[i] = (l + r) * 0.5
		}
	}

	return samples, int(dec.SampleRate), nil
}

// Decode produces mono samples at targetRate from any supported input file.
// WAV files are read natively and resampled in-process when the rate ratio
// is integral; everything else goes through ffmpeg into tempDir first.
func Decode(ctx context.Context, path, tempDir string, targetRate int) ([]float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		samples, rate, err := ReadWAV(path)
		if err != nil {
			return nil, err
		}
		if rate == targetRate {
			return samples, nil
		}
		if rate > targetRate && rate%targetRate == 0 {
			filtered := LowPassFilter(float64(targetRate)/2, float64(rate), samples)
			return Downsample(filtered, rate, targetRate)
		}
		// Awkward ratio; let ffmpeg resample.
		return convertAndRead(ctx, path, tempDir, targetRate)
	case ".mp3", ".m4a":
		return convertAndRead(ctx, path, tempDir, targetRate)
	default:
		return nil, decodeErr(path, fmt.Errorf("unsupported audio format %q", filepath.Ext(path)))
	}
}

func convertAndRead(ctx context.Context, path, tempDir string, targetRate int) ([]float64, error) {
	wavPath, err := ConvertToMonoWAV(ctx, path, tempDir, targetRate)
	if err != nil {
		return nil, err
	}
	defer utils.DeleteFile(wavPath)

	samples, _, err := ReadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	return samples, nil
}
