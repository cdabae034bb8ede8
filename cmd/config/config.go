// config.go: inspect the effective configuration
package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tphakala/esc50-go/internal/conf"
	"gopkg.in/yaml.v3"
)

// Command creates a new config command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(dumpCommand(settings))

	return cmd
}

func dumpCommand(settings *conf.Settings) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as YAML",
		Long:  "Prints the configuration resolved from defaults, config file, environment and flags. With --output the YAML is written to a file instead.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				if err := conf.SaveYAMLConfig(output, settings); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", output)
				return nil
			}

			data, err := yaml.Marshal(settings)
			if err != nil {
				return fmt.Errorf("error marshaling settings to YAML: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the configuration to this file")

	return cmd
}
