// train.go: load or train the model from the feature cache
package train

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/esc50-go/internal/model"
	"github.com/tphakala/esc50-go/internal/pipeline"
)

// Command creates a new train command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the model, or reload an existing one, and stamp its labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(settings)
			if err != nil {
				return err
			}
			p.ObserveErrors()

			res, err := trainModel(cmd, p)
			// metrics are written even when the phase failed
			err = errors.Join(err, p.Finish())
			if err != nil {
				return err
			}

			action := "loaded"
			if res.Trained {
				action = "trained"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model %s: %s (%d labels)\n", action, settings.Model.Path, len(res.Labels))
			return nil
		},
	}

	return cmd
}

// trainModel needs the feature cache, so it runs the features phase first.
func trainModel(cmd *cobra.Command, p *pipeline.Pipeline) (*model.Result, error) {
	feats, labels, err := p.Features(cmd.Context())
	if err != nil {
		return nil, err
	}
	return p.Train(cmd.Context(), feats, labels)
}
