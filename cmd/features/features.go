// features.go: load or extract the feature matrix
package features

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/esc50-go/internal/pipeline"
)

// Command creates a new features command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Extract features from the data directory",
		Long:  "Extracts the feature matrix and labels from the data directory unless both cache files already exist.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(settings)
			if err != nil {
				return err
			}
			p.ObserveErrors()

			feats, _, err := p.Features(cmd.Context())
			// metrics are written even when the phase failed
			err = errors.Join(err, p.Finish())
			if err != nil {
				return err
			}

			dim := 0
			if len(feats) > 0 {
				dim = len(feats[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d samples, %d features\n", len(feats), dim)
			return nil
		},
	}

	return cmd
}
