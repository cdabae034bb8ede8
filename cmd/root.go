package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tphakala/esc50-go/cmd/config"
	"github.com/tphakala/esc50-go/cmd/features"
	"github.com/tphakala/esc50-go/cmd/labels"
	"github.com/tphakala/esc50-go/cmd/predict"
	"github.com/tphakala/esc50-go/cmd/prepare"
	"github.com/tphakala/esc50-go/cmd/run"
	"github.com/tphakala/esc50-go/cmd/train"
	"github.com/tphakala/esc50-go/cmd/version"
	"github.com/tphakala/esc50-go/internal/buildinfo"
	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/logging"
)

// RootCommand creates and returns the root command. Settings are loaded
// into settings before any sub-command runs, so every sub-command shares
// the same resolved configuration.
func RootCommand(settings *conf.Settings) *cobra.Command {
	var configFile string

	runCmd := run.Command(settings)
	versionCmd := version.Command()

	rootCmd := &cobra.Command{
		Use:           "esc50",
		Short:         "ESC-50 dataset preparation and classifier training",
		Long:          "Normalizes the ESC-50 dataset into per-class directories, extracts features and trains a classifier.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		// the bare command runs the full pipeline
		RunE: runCmd.RunE,
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, &configFile)

	subcommands := []*cobra.Command{
		runCmd,
		prepare.Command(settings),
		features.Command(settings),
		train.Command(settings),
		predict.Command(settings),
		labels.Command(settings),
		config.Command(settings),
		versionCmd,
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Skip setup for the version command
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return initialize(cmd, configFile, settings)
	}

	return rootCmd
}

// initialize is called before any subcommand runs. It resolves the
// configuration from defaults, file, environment and flags, then sets up
// logging.
func initialize(cmd *cobra.Command, configFile string, settings *conf.Settings) error {
	loaded, err := conf.Load(cmd.Flags(), configFile)
	if err != nil {
		return err
	}
	*settings = *loaded

	if _, err := logging.Init(settings); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	logging.ForService("cmd").Debug("configuration loaded",
		"file", settings.ConfigFile,
		"version", buildinfo.Current().GetVersion())
	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configFile *string) {
	flags := rootCmd.PersistentFlags()
	flags.StringP("esc50", "e", conf.DefaultDatasetPath, "Location of ESC-50 database")
	flags.StringP("data", "d", conf.DefaultDataPath, "Data directory")
	flags.StringP("model", "m", conf.DefaultModelPath, "Model file")
	flags.StringP("feature", "f", conf.DefaultFeaturePath, "Features file")
	flags.StringP("label", "l", conf.DefaultLabelPath, "Label file")
	flags.Int("epochs", conf.DefaultEpochs, "Training epochs when no model exists")
	flags.Bool("debug", false, "Enable debug output")
	flags.Bool("progress", false, "Show progress bars")
	flags.StringVar(configFile, "config", "", "Configuration file (default: search ., ~/.config/esc50, /etc/esc50)")
}
