// conf/defaults.go default values for settings
package conf

import "github.com/spf13/viper"

// Default values shared with command line flag definitions.
const (
	DefaultDatasetPath = "./ESC-50"
	DefaultDataPath    = "./data/"
	DefaultModelPath   = "./model.json"
	DefaultFeaturePath = "./feat.npy"
	DefaultLabelPath   = "./label.npy"
	DefaultBaseIndex   = 100
	DefaultEpochs      = 9752 // reaches high training accuracy on the full dataset
	DefaultClipFormat  = "ogg"
)

// setDefaultConfig sets default values for every configuration key.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("progress", false)

	v.SetDefault("dataset.path", DefaultDatasetPath)
	v.SetDefault("dataset.audiodir", "audio")
	v.SetDefault("dataset.metadir", "meta")
	v.SetDefault("dataset.catalog", "esc50.csv")
	v.SetDefault("dataset.baseindex", DefaultBaseIndex)

	v.SetDefault("data.path", DefaultDataPath)
	v.SetDefault("data.format", DefaultClipFormat)

	v.SetDefault("features.path", DefaultFeaturePath)
	v.SetDefault("features.labelpath", DefaultLabelPath)
	v.SetDefault("features.workers", 0)
	v.SetDefault("features.framesize", 2048)
	v.SetDefault("features.hopsize", 1024)
	v.SetDefault("features.bands", 40)

	v.SetDefault("model.path", DefaultModelPath)
	v.SetDefault("model.epochs", DefaultEpochs)
	v.SetDefault("model.learningrate", 0.1)
	v.SetDefault("model.l2", 0.0001)
	v.SetDefault("model.loginterval", 500)

	v.SetDefault("audio.ffmpegpath", "")
	v.SetDefault("audio.quality", 5)
	v.SetDefault("audio.samplerate", 0)
	v.SetDefault("audio.channels", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxsize", 100)
	v.SetDefault("log.maxbackups", 3)
	v.SetDefault("log.maxage", 28)

	v.SetDefault("metrics.file", "")
}
