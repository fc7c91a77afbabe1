// Command specview renders a spectrogram PNG for a WAV file with its
// extracted constellation peaks overlaid, for visually debugging the
// Peak Picker's band/threshold tuning.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"github.com/eligwz/spectrogram"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/pflag"

	"github.com/tidesound/soundprint/internal/dsp"
	"github.com/tidesound/soundprint/internal/fingerprint"
)

func main() {
	inputPath := pflag.StringP("input", "i", "", "WAV file to visualize (required)")
	outputPath := pflag.StringP("output", "o", "spectrogram.png", "PNG output path")
	pflag.Parse()

	if *inputPath == "" {
		fmt.Println("usage: specview -i <input.wav> [-o <output.png>]")
		os.Exit(1)
	}

	samples, sampleRate, err := readWAV(*inputPath)
	if err != nil {
		fmt.Printf("failed to read %s: %v\n", *inputPath, err)
		os.Exit(1)
	}
	fmt.Printf("read %d samples at %d Hz\n", len(samples), sampleRate)

	width, height := 2048, 512
	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(spectrogram.ParseColor("000000")), image.Point{}, draw.Src)

	spectrogram.Drawfft(
		img,
		samples,
		uint32(sampleRate),
		uint32(height),
		false, // Hamming window, not rectangular
		false, // FFT, not DFT
		true,  // magnitude
		false, // linear scale
	)

	overlayPeaks(img, samples, width, height)

	if err := spectrogram.SavePng(img, *outputPath); err != nil {
		fmt.Printf("failed to save %s: %v\n", *outputPath, err)
		os.Exit(1)
	}
	fmt.Printf("saved %s\n", *outputPath)
}

// overlayPeaks draws a marker at each extracted constellation peak, in
// the spectrogram's (time, frequency) pixel space.
func overlayPeaks(img draw.Image, samples []float64, width, height int) {
	// readWAV scales samples to [-1, 1]; the Peak Picker's threshold is in
	// 16-bit sample units, which is what internal/pcmio produces.
	scaled := make([]float64, len(samples))
	for i, v := range samples {
		scaled[i] = v * 32768
	}
	spec := dsp.Compute(scaled, dsp.DecimationFactor)
	peaks := fingerprint.ExtractPeaks(spec)
	if spec.NumFrames() == 0 {
		return
	}

	marker := color.RGBA{R: 255, G: 0, B: 0, A: 255}
	for _, p := range peaks {
		x := p.FrameIndex * width / spec.NumFrames()
		y := height - 1 - p.BinIndex*height/dsp.Bins
		if x < 0 || x >= width || y < 0 || y >= height {
			continue
		}
		img.Set(x, y, marker)
	}
}

func readWAV(path string) ([]float64, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid WAV file")
	}

	duration, err := decoder.Duration()
	if err != nil {
		return nil, 0, err
	}

	totalSamples := int(duration.Seconds() * float64(decoder.SampleRate))
	if totalSamples == 0 {
		return nil, 0, fmt.Errorf("no samples")
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(decoder.NumChans),
			SampleRate:  int(decoder.SampleRate),
		},
		Data:           make([]int, totalSamples*int(decoder.NumChans)),
		SourceBitDepth: int(decoder.BitDepth),
	}

	if _, err := decoder.PCMBuffer(buf); err != nil {
		return nil, 0, err
	}

	maxVal := float64(int(1) << (uint(decoder.BitDepth) - 1))
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / maxVal
	}

	return samples, int(decoder.SampleRate), nil
}
