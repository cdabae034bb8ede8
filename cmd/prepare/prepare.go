// prepare.go: normalize the ESC-50 dataset only
package prepare

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/esc50-go/internal/pipeline"
)

// Command creates a new prepare command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Normalize the ESC-50 dataset into per-class directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(settings)
			if err != nil {
				return err
			}
			p.ObserveErrors()

			stats, err := p.Prepare(cmd.Context())
			// metrics are written even when the phase failed
			err = errors.Join(err, p.Finish())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Records     : %d\n", stats.Records)
			fmt.Fprintf(out, "Malformed   : %d\n", stats.Malformed)
			fmt.Fprintf(out, "Failed      : %d\n", stats.Failed)
			fmt.Fprintf(out, "Transcoded  : %d\n", stats.Transcoded)
			fmt.Fprintf(out, "Existing    : %d\n", stats.Existing)
			fmt.Fprintf(out, "Classes     : %d\n", stats.ClassDirs)
			return nil
		},
	}

	return cmd
}
