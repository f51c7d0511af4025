package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gardar/laydoc/internal/cli"
	"github.com/gardar/laydoc/pkg/config"
	"github.com/gardar/laydoc/pkg/docsynth"
	"github.com/gardar/laydoc/pkg/split"
)

type prepareOptions struct {
	data      []string
	outputDir string
	testSize  float64
	seed      uint64
}

func newPrepareOptions() *prepareOptions {
	defaults := config.DefaultConfig()
	return &prepareOptions{
		data:      defaults.Dataset.Files,
		outputDir: defaults.OutputDir,
		testSize:  defaults.TestSize,
		seed:      defaults.Seed,
	}
}

func (o *prepareOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVar(&o.data, "data", o.data, "Parquet part files (repeatable)")
	flags.StringVarP(&o.outputDir, "output-dir", "o", o.outputDir, "Output directory")
	flags.Float64Var(&o.testSize, "test-size", o.testSize, "Fraction of images held out for validation")
	flags.Uint64Var(&o.seed, "seed", o.seed, "Shuffle seed")
}

// apply overrides the file configuration with the flags that were set
func (o *prepareOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Dataset.Files = o.data
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = o.outputDir
	}
	if flags.Changed("test-size") {
		cfg.TestSize = o.testSize
	}
	if flags.Changed("seed") {
		cfg.Seed = o.seed
	}
	if len(cfg.Dataset.Files) == 0 {
		return fmt.Errorf("no dataset files given")
	}
	return cfg.Validate()
}

func newPrepareCommand(globals *cli.Globals) *cobra.Command {
	opts := newPrepareOptions()
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Split the dataset and write train/val images and annotations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd, globals, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runPrepare(cmd *cobra.Command, globals *cli.Globals, opts *prepareOptions) error {
	cfg, logger, err := globals.Setup(cmd)
	if err != nil {
		return err
	}
	if err := opts.apply(cmd, &cfg); err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	logger.Info("reading dataset", "files", len(cfg.Dataset.Files))
	records, err := docsynth.ReadParquetFiles(ctx, cfg.Dataset.Files)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", "records", len(records))

	prep := split.DefaultPrepareConfig()
	prep.OutputDir = cfg.OutputDir
	prep.TestSize = cfg.TestSize
	prep.Seed = cfg.Seed
	prep.Logger = logger
	prep.Progress = cli.Progress(cmd)

	summary, err := split.Prepare(ctx, records, prep)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary.Render())
	return nil
}
