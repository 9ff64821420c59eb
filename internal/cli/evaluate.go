package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/happyhackingspace/nlpkit"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var flags trainFlags
	var cvFolds int
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "evaluate",
		Short:   "Evaluate accuracy via grouped cross-validation",
		Args:    cobra.NoArgs,
		Example: `  nlpkit evaluate --data-folder data --cv 10 -p Algorithm=CRF`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(c, cmd)
			if err != nil {
				return err
			}
			slog.Info("Evaluating", "folds", cvFolds, "data-folder", flags.dataFolder)
			start := time.Now()
			result, err := nlpkit.Evaluate(cmd.Context(), flags.dataFolder, &nlpkit.EvalConfig{
				Folds: cvFolds,
				Train: cfg,
			})
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			if asJSON {
				output, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				_, err = c.stdout.Write(append(output, '\n'))
				return err
			}
			printResult(c, result)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&cvFolds, "cv", 10, "Number of cross-validation folds")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func printResult(c *CLI, r *nlpkit.EvalResult) {
	w := c.stdout
	fmt.Fprintf(w, "Folds: %d\n", r.Folds)
	fmt.Fprintf(w, "POS accuracy: %.1f%% (%d/%d tokens)\n", r.POSAccuracy*100, r.POSCorrect, r.POSTotal)
	fmt.Fprintf(w, "Sentence accuracy: %.1f%% (%d/%d sentences)\n", r.SentenceAccuracy*100, r.SentenceCorrect, r.SentenceTotal)
	if r.ChunkTotal > 0 {
		fmt.Fprintf(w, "Chunk accuracy: %.1f%% (%d/%d tokens)\n", r.ChunkAccuracy*100, r.ChunkCorrect, r.ChunkTotal)
	}
	if r.EntityExpected > 0 || r.EntityFound > 0 {
		fmt.Fprintf(w, "Entities: precision %.1f%%  recall %.1f%%  F1 %.1f%% (%d correct, %d found, %d expected)\n",
			r.EntityPrecision*100, r.EntityRecall*100, r.EntityF1*100, r.EntityCorrect, r.EntityFound, r.EntityExpected)
	}
}
