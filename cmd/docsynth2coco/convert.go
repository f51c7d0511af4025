package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gardar/laydoc/internal/cli"
	"github.com/gardar/laydoc/pkg/coco"
	"github.com/gardar/laydoc/pkg/config"
	"github.com/gardar/laydoc/pkg/convert"
	"github.com/gardar/laydoc/pkg/docsynth"
)

func newConvertCommand(globals *cli.Globals) *cobra.Command {
	var data []string
	var output string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert parquet files to a single COCO annotation file without splitting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := globals.Setup(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data") {
				cfg.Dataset.Files = data
			}

			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()

			records, err := docsynth.ReadParquetFiles(ctx, cfg.Dataset.Files)
			if err != nil {
				return err
			}

			convCfg := convert.DefaultConfig()
			convCfg.Logger = logger
			convCfg.Progress = cli.Progress(cmd)
			doc, err := convert.Convert(records, convCfg)
			if err != nil {
				return err
			}
			if err := coco.Save(output, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d images and %d annotations to %s\n", len(doc.Images), len(doc.Annotations), output)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&data, "data", config.DefaultDatasetFiles(), "Parquet part files (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "COCO JSON output path")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
