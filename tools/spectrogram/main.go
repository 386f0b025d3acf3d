// Renders spectrogram PNGs for WAV files in a corpus directory. Useful
// for eyeballing why a recording does or does not produce a usable peak
// constellation.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/eligwz/spectrogram"

	"github.com/anjankaur/shazam-for-gurbani/internal/audio"
)

func main() {
	inputDir := flag.String("in", "audio_files", "directory of WAV files to render")
	outputDir := flag.String("out", "spectrograms", "directory for PNG output")
	height := flag.Int("bins", 512, "number of frequency bins (image height)")
	width := flag.Int("width", 2048, "image width in pixels")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatal(err)
	}

	err := filepath.WalkDir(*inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.ToLower(filepath.Ext(path)) != ".wav" {
			return nil
		}

		samples, sampleRate, err := audio.ReadWAV(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			return nil
		}
		fmt.Printf("%s: %d samples at %d Hz\n", path, len(samples), sampleRate)

		img := spectrogram.NewImage128(image.Rect(0, 0, *width, *height))
		draw.Draw(img, img.Bounds(), image.NewUniform(spectrogram.ParseColor("000000")), image.Point{}, draw.Src)

		// Hamming window, FFT, linear magnitude.
		spectrogram.Drawfft(img, samples, uint32(sampleRate), uint32(*height), false, false, true, false)

		outPath := filepath.Join(*outputDir, filepath.Base(path)+".png")
		if err := spectrogram.SavePng(img, outPath); err != nil {
			log.Printf("saving %s: %v", outPath, err)
			return nil
		}
		fmt.Printf("wrote %s\n", outPath)
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
}
