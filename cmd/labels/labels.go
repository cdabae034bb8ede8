// labels.go: print the class labels stored in the model file
package labels

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/model"
)

// Command creates a new labels command.
func Command(settings *conf.Settings) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Print the labels stored in the model file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if verbose {
				info, err := model.Inspect(settings.Model.Path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Model  : %s\n", settings.Model.Path)
				fmt.Fprintf(out, "Format : %s\n", info.Format)
				fmt.Fprintf(out, "Size   : %d bytes\n", info.Size)
				for _, key := range slices.Sorted(maps.Keys(info.Attrs)) {
					if key == model.LabelsAttr {
						continue
					}
					fmt.Fprintf(out, "Attr   : %s=%s\n", key, info.Attrs[key])
				}
			}

			labels, err := model.LoadLabels(settings.Model.Path)
			if err != nil {
				return err
			}
			if labels == nil {
				return fmt.Errorf("model %s has no labels", settings.Model.Path)
			}
			for i, label := range labels {
				fmt.Fprintf(out, "%3d  %s\n", i, label)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print the model format and attributes")

	return cmd
}
