package myaudio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/errors"
)

// tempExt is the temporary file extension used while a clip is being written
const tempExt = ".temp"

// Transcoder converts one audio file into another container/codec.
// Implementations must not leave a partial file at outputPath on failure.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string) error
}

// commandRunner runs an external command and returns its stderr output
type commandRunner func(ctx context.Context, name string, args ...string) (string, error)

// runCommand runs the command and captures stderr for error reporting
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}

// FFmpegTranscoder transcodes clips by running ffmpeg.
type FFmpegTranscoder struct {
	FfmpegPath string // ffmpeg binary
	Format     string // output format: ogg, flac or wav
	Quality    int    // encoder quality for lossy formats
	SampleRate int    // output sample rate, 0 keeps the source rate
	Channels   int    // output channels, 0 keeps the source layout

	run commandRunner
}

// NewFFmpegTranscoder creates a transcoder from audio settings.
func NewFFmpegTranscoder(settings *conf.AudioSettings, format string) *FFmpegTranscoder {
	return &FFmpegTranscoder{
		FfmpegPath: settings.ResolveFfmpegPath(),
		Format:     format,
		Quality:    settings.Quality,
		SampleRate: settings.SampleRate,
		Channels:   settings.Channels,
		run:        runCommand,
	}
}

// NewTranscoder picks the transcoder for the configured clip format. WAV
// output falls back to the native encoder when ffmpeg is not installed.
func NewTranscoder(settings *conf.AudioSettings, format string) Transcoder {
	ff := NewFFmpegTranscoder(settings, format)
	if ff.FfmpegPath == "" && format == "wav" {
		return &WAVTranscoder{}
	}
	return ff
}

// Transcode converts inputPath to outputPath. The output is written to a
// temporary file and renamed into place once ffmpeg succeeds.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, inputPath, outputPath string) error {
	if err := validateFFmpegPath(t.FfmpegPath); err != nil {
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryTranscode).
			Build()
	}

	tempFilePath, err := createTempFile(outputPath)
	if err != nil {
		return err
	}

	args := t.buildArgs(inputPath, tempFilePath)
	run := t.run
	if run == nil {
		run = runCommand
	}

	if stderr, err := run(ctx, t.FfmpegPath, args...); err != nil {
		_ = os.Remove(tempFilePath)
		return errors.New(fmt.Errorf("ffmpeg failed: %w", err)).
			Component("myaudio").
			Category(errors.CategoryTranscode).
			FileContext(inputPath).
			Context("stderr", strings.TrimSpace(stderr)).
			Build()
	}

	return finalizeOutput(tempFilePath, outputPath)
}

// buildArgs constructs the arguments for the ffmpeg command
func (t *FFmpegTranscoder) buildArgs(inputPath, tempFilePath string) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y", // Overwrite the temporary file if a previous run left one
		"-i", inputPath,
	}

	if t.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(t.SampleRate))
	}
	if t.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(t.Channels))
	}

	args = append(args, "-c:a", getEncoder(t.Format))
	if t.Format == "ogg" {
		args = append(args, "-q:a", strconv.Itoa(t.Quality))
	}

	return append(args,
		"-f", getOutputFormat(t.Format), // temp extension hides the real one from ffmpeg
		tempFilePath,
	)
}

// validateFFmpegPath checks if FFmpeg is available
func validateFFmpegPath(ffmpegPath string) error {
	if ffmpegPath == "" {
		return fmt.Errorf("FFmpeg is not available")
	}
	return nil
}

// createTempFile returns the temporary path for outputPath, creating its directory
func createTempFile(outputPath string) (string, error) {
	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errors.New(fmt.Errorf("failed to create clip directory: %w", err)).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			FileContext(outputDir).
			Build()
	}
	return outputPath + tempExt, nil
}

// finalizeOutput renames the temporary file to the final clip path
func finalizeOutput(tempFilePath, outputPath string) error {
	if err := os.Rename(tempFilePath, outputPath); err != nil {
		_ = os.Remove(tempFilePath)
		return errors.New(fmt.Errorf("failed to rename temporary clip to final output: %w", err)).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			FileContext(outputPath).
			Build()
	}
	return nil
}

// getEncoder returns the ffmpeg encoder for the clip format
func getEncoder(format string) string {
	switch format {
	case "ogg":
		return "libvorbis"
	case "flac":
		return "flac"
	case "wav":
		return "pcm_s16le"
	default:
		return format
	}
}

// getOutputFormat returns the ffmpeg muxer for the clip format
func getOutputFormat(format string) string {
	switch format {
	case "ogg":
		return "ogg"
	case "flac":
		return "flac"
	case "wav":
		return "wav"
	default:
		return format
	}
}
