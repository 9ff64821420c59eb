package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/nlpkit"
	"github.com/happyhackingspace/nlpkit/trainer"
)

// trainFlags are shared by every command that trains a pipeline.
type trainFlags struct {
	dataFolder    string
	paramsFile    string
	params        []string
	beamSize      int
	tagDictCutoff int
}

func (f *trainFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dataFolder, "data-folder", "data", "Path to the annotated corpus folder")
	cmd.Flags().StringVar(&f.paramsFile, "params", "", "YAML file with training parameters")
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "Training parameter as key=value (repeatable, overrides --params)")
	cmd.Flags().IntVar(&f.beamSize, "beam", 3, "Beam width used when decoding")
	cmd.Flags().IntVar(&f.tagDictCutoff, "tag-dict-cutoff", 3, "Minimum word frequency for the tag dictionary (0 disables it)")
}

// config builds the training configuration and rejects it before any
// training starts when it is invalid.
func (f *trainFlags) config(c *CLI, cmd *cobra.Command) (*nlpkit.TrainConfig, error) {
	params := trainer.DefaultParams()
	if f.paramsFile != "" {
		file, err := os.Open(f.paramsFile)
		if err != nil {
			return nil, fmt.Errorf("open params: %w", err)
		}
		loaded, err := trainer.LoadParams(file)
		_ = file.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.paramsFile, err)
		}
		params.Merge(loaded)
	}
	overrides, err := trainer.ParseParams(f.params)
	if err != nil {
		return nil, err
	}
	params.Merge(overrides)
	if err := c.registry.ValidateParams(params); err != nil {
		return nil, err
	}
	return &nlpkit.TrainConfig{
		Params:        params,
		Registry:      c.registry,
		Monitor:       trainer.NewMonitor(cmd.Context(), nil),
		BeamSize:      f.beamSize,
		TagDictCutoff: f.tagDictCutoff,
	}, nil
}
