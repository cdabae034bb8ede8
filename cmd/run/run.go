// run.go: run the complete dataset, feature and training pipeline
package run

import (
	"github.com/spf13/cobra"
	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/esc50-go/internal/pipeline"
)

// Command creates a new run command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Normalize the dataset, extract features and train the model",
		Long: `Runs the full pipeline. Every phase reuses existing output: clips already
in the data directory are not transcoded again, cached feature files are
loaded instead of extracted and an existing model is loaded instead of trained.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(settings)
			if err != nil {
				return err
			}
			p.ObserveErrors()

			summary, err := p.Run(cmd.Context())
			// metrics are written even when the phase failed
			err = errors.Join(err, p.Finish())
			if err != nil {
				return err
			}
			return pipeline.PrintSummary(cmd.OutOrStdout(), summary)
		},
	}

	return cmd
}
