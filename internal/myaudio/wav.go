package myaudio

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tphakala/esc50-go/internal/errors"
)

// WAVTranscoder rewrites any decodable clip as 16-bit mono WAV without ffmpeg.
type WAVTranscoder struct{}

// Transcode decodes inputPath and writes it to outputPath as 16-bit mono WAV.
func (WAVTranscoder) Transcode(ctx context.Context, inputPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	samples, err := DecodeFile(inputPath)
	if err != nil {
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryTranscode).
			Build()
	}

	tempFilePath, err := createTempFile(outputPath)
	if err != nil {
		return err
	}

	if err := WriteWAV(tempFilePath, samples); err != nil {
		_ = os.Remove(tempFilePath)
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryTranscode).
			FileContext(outputPath).
			Build()
	}

	return finalizeOutput(tempFilePath, outputPath)
}

// WriteWAV saves mono samples in [-1, 1] as a 16-bit PCM WAV file.
func WriteWAV(filePath string, samples Samples) error {
	outFile, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer outFile.Close()

	enc := wav.NewEncoder(outFile, samples.SampleRate, 16, 1, 1)

	ints := make([]int, len(samples.Data))
	for i, v := range samples.Data {
		ints[i] = int(math.Round(math.Max(-1, math.Min(1, v)) * 32767))
	}

	buf := &audio.IntBuffer{
		Data:           ints,
		Format:         &audio.Format{SampleRate: samples.SampleRate, NumChannels: 1},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write to WAV encoder: %w", err)
	}

	// Close finalizes the RIFF header sizes
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return outFile.Close()
}
