// predict.go: classify audio clips with the trained model
package predict

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tphakala/esc50-go/internal/classifier"
	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/features"
	"github.com/tphakala/esc50-go/internal/inference"
	"github.com/tphakala/esc50-go/internal/logging"
)

// Command creates a new predict command.
func Command(settings *conf.Settings) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "predict [clip...]",
		Short: "Classify audio clips with the trained model",
		Long:  "Extracts features from each clip (wav, flac or ogg) and prints the most likely classes using the labels stored in the model.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			predictor, err := inference.Load(classifier.Loader{}, settings.Model.Path)
			if err != nil {
				return err
			}
			if len(predictor.Labels) == 0 {
				logging.ForService("predict").Warn("model has no labels, printing class indexes", "model", settings.Model.Path)
			}

			extractor := features.NewSpectralExtractor(&settings.Features)
			extractor.Logger = logging.ForService("features")

			for _, clip := range args {
				vec, err := extractor.ExtractFile(cmd.Context(), clip)
				if err != nil {
					return err
				}
				preds, err := predictor.Top(vec, top)
				if err != nil {
					return err
				}
				printPredictions(cmd.OutOrStdout(), clip, preds)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", 3, "Number of classes to print, 0 prints all")

	return cmd
}

// printPredictions prints one line per class with its confidence in percent
func printPredictions(w io.Writer, clip string, preds []inference.Prediction) {
	fmt.Fprintln(w, clip)
	for _, p := range preds {
		fmt.Fprintf(w, "  %6.2f%%  %s\n", p.Confidence*100, p.Label)
	}
}
