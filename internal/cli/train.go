package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/happyhackingspace/nlpkit"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var flags trainFlags
	var reportPath string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the tagger, chunker and entity finder and print the training report",
		Args:  cobra.NoArgs,
		Example: `  nlpkit train --data-folder data
  nlpkit train -p Algorithm=PERCEPTRON -p Iterations=50
  nlpkit train --params crf.yaml --report report.json -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(c, cmd)
			if err != nil {
				return err
			}
			slog.Info("Training pipeline", "data-folder", flags.dataFolder, "params", cfg.Params.String())
			start := time.Now()
			_, report, err := nlpkit.Train(cmd.Context(), flags.dataFolder, cfg)
			if err != nil {
				return err
			}
			slog.Info("Training completed", "run", report.RunID, "sentences", report.Sentences, "duration", time.Since(start))

			output, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			if reportPath != "" {
				if err := os.WriteFile(reportPath, output, 0o644); err != nil {
					return err
				}
				slog.Info("Report saved", "path", reportPath)
				return nil
			}
			_, err = c.stdout.Write(append(output, '\n'))
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&reportPath, "report", "", "Write the training report to this file instead of stdout")
	return cmd
}
