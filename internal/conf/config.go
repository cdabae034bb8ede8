// config.go: settings struct for the ESC-50 pipeline and functions to load and save it.
package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DatasetSettings describes the ESC-50 source tree.
type DatasetSettings struct {
	Path      string `yaml:"path"`      // root of the ESC-50 checkout
	AudioDir  string `yaml:"audiodir"`  // audio subdirectory, relative to Path
	MetaDir   string `yaml:"metadir"`   // metadata subdirectory, relative to Path
	Catalog   string `yaml:"catalog"`   // catalog file name inside MetaDir
	BaseIndex int    `yaml:"baseindex"` // added to the target index in class directory names
}

// DataSettings describes the normalized per-class output tree.
type DataSettings struct {
	Path   string `yaml:"path"`   // output root, one subdirectory per class
	Format string `yaml:"format"` // clip container/extension, e.g. ogg, flac, wav
}

// FeatureSettings contains feature extraction and cache settings.
type FeatureSettings struct {
	Path      string `yaml:"path"`      // feature matrix cache (.npy)
	LabelPath string `yaml:"labelpath"` // label vector cache (.npy)
	Workers   int    `yaml:"workers"`   // concurrent clip decoders, 0 = logical cores
	FrameSize int    `yaml:"framesize"` // FFT frame size in samples, power of two
	HopSize   int    `yaml:"hopsize"`   // frame hop in samples
	Bands     int    `yaml:"bands"`     // number of log-spaced band energies
}

// ModelSettings contains classifier training and artifact settings.
type ModelSettings struct {
	Path         string  `yaml:"path"`         // model artifact file
	Epochs       int     `yaml:"epochs"`       // training epoch budget
	LearningRate float64 `yaml:"learningrate"` // gradient descent step size
	L2           float64 `yaml:"l2"`           // weight decay
	LogInterval  int     `yaml:"loginterval"`  // epochs between training progress logs
}

// AudioSettings contains transcoding settings.
type AudioSettings struct {
	FfmpegPath string `yaml:"ffmpegpath"` // path to ffmpeg, empty = look up in PATH
	Quality    int    `yaml:"quality"`    // encoder quality for lossy formats
	SampleRate int    `yaml:"samplerate"` // output sample rate, 0 keeps the source rate
	Channels   int    `yaml:"channels"`   // output channels, 0 keeps the source layout
}

// LogSettings contains logging settings.
type LogSettings struct {
	Level      string `yaml:"level"`      // debug, info, warn, error
	File       string `yaml:"file"`       // optional JSON log file
	MaxSize    int    `yaml:"maxsize"`    // megabytes before rotation
	MaxBackups int    `yaml:"maxbackups"` // rotated files to keep
	MaxAge     int    `yaml:"maxage"`     // days to keep rotated files
}

// MetricsSettings contains metrics export settings.
type MetricsSettings struct {
	File string `yaml:"file"` // Prometheus text exposition file written after a run
}

// Settings contains all configuration options for the pipeline.
type Settings struct {
	Debug    bool            `yaml:"debug"`
	Progress bool            `yaml:"progress"`
	Dataset  DatasetSettings `yaml:"dataset"`
	Data     DataSettings    `yaml:"data"`
	Features FeatureSettings `yaml:"features"`
	Model    ModelSettings   `yaml:"model"`
	Audio    AudioSettings   `yaml:"audio"`
	Log      LogSettings     `yaml:"log"`
	Metrics  MetricsSettings `yaml:"metrics"`

	// ConfigFile is the configuration file that was read, runtime value
	ConfigFile string `yaml:"-"`
}

// AudioPath returns the directory holding the source clips.
func (s *Settings) AudioPath() string {
	return filepath.Join(s.Dataset.Path, s.Dataset.AudioDir)
}

// MetaPath returns the directory holding the catalog.
func (s *Settings) MetaPath() string {
	return filepath.Join(s.Dataset.Path, s.Dataset.MetaDir)
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"debug":    "debug",
	"progress": "progress",
	"esc50":    "dataset.path",
	"data":     "data.path",
	"model":    "model.path",
	"feature":  "features.path",
	"label":    "features.labelpath",
	"epochs":   "model.epochs",
}

// Load reads defaults, the configuration file, the environment and the given
// flags, in increasing order of precedence, and returns validated settings.
// configFile may be empty, in which case the default locations are searched.
func Load(flags *pflag.FlagSet, configFile string) (*Settings, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaultConfig(v)

	if err := readConfigFile(v, configFile); err != nil {
		return nil, err
	}

	if err := configureEnvironmentVariables(v); err != nil {
		return nil, err
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	settings.ConfigFile = v.ConfigFileUsed()

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// loadDotEnv loads a .env file from the working directory if present.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("error loading .env file: %w", err)
}

// readConfigFile reads an explicit config file or searches the default paths.
// A missing config file in the default paths is not an error.
func readConfigFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// bindFlags binds the known command line flags to their configuration keys.
// Flags not defined on the set are ignored.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

// SaveYAMLConfig writes the settings to configPath as YAML.
// The file is written to a temporary file first and renamed into place.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}
