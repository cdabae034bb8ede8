// conf/utils.go various util functions for configuration package
package conf

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

const osWindows = "windows"

// GetDefaultConfigPaths returns the directories searched for config.yaml.
// If a config.yaml file is found in any of the paths, only that path is returned.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	var configPaths []string
	switch runtime.GOOS {
	case osWindows:
		configPaths = []string{
			".",
			filepath.Join(homeDir, "AppData", "Roaming", "esc50"),
		}
	default:
		configPaths = []string{
			".",
			filepath.Join(homeDir, ".config", "esc50"),
			"/etc/esc50",
		}
	}

	for _, path := range configPaths {
		if _, err := os.Stat(filepath.Join(path, "config.yaml")); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}

// GetFfmpegBinaryName returns the binary name for ffmpeg based on the current OS.
func GetFfmpegBinaryName() string {
	if runtime.GOOS == osWindows {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

// ResolveFfmpegPath returns the configured ffmpeg path, or the one found in PATH.
// An empty string means ffmpeg is not available.
func (s *AudioSettings) ResolveFfmpegPath() string {
	if s.FfmpegPath != "" {
		return s.FfmpegPath
	}
	path, err := exec.LookPath(GetFfmpegBinaryName())
	if err != nil {
		return ""
	}
	return path
}

// ExtractionWorkers returns the configured worker count, defaulting to the
// number of logical cores.
func (s *FeatureSettings) ExtractionWorkers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	if cores := cpuid.CPU.LogicalCores; cores > 0 {
		return cores
	}
	return runtime.NumCPU()
}
