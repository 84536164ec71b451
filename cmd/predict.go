package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
	"github.com/YuminosukeSato/houseprice/visualize"
)

func newPredictCmd(a *app) *cobra.Command {
	var (
		input     string
		histogram string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict prices for a CSV file and write them as CSV to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.GetLoggerWithName("predict")

			table, err := dataset.ReadCSVFile(input,
				dataset.WithMaxRows(a.cfg.MaxRows), dataset.WithTextColumns(a.cfg.IDColumn))
			if err != nil {
				return err
			}
			result, err := a.adapter().Predict(cmd.Context(), table)
			if err != nil {
				return err
			}

			out, err := visualize.PredictionsCSV(result)
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return errors.Wrap(err, "write predictions")
			}

			if histogram != "" {
				png, err := visualize.Histogram(result.Values, visualize.WithBins(a.cfg.HistogramBins))
				if err != nil {
					return err
				}
				if err := os.WriteFile(histogram, png, 0o644); err != nil {
					return errors.Wrapf(err, "write histogram %s", histogram)
				}
			}

			logger.Info("predictions written",
				log.FileNameKey, input,
				log.PredsKey, result.NumRows(),
				log.PredsMeanKey, result.Summary.Mean)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "CSV file with one house per row")
	cmd.Flags().StringVar(&histogram, "histogram", "", "also write a PNG histogram of the predictions to this path")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
