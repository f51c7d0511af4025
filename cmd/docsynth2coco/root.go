// docsynth2coco converts the raw layout dataset into a COCO detection
// dataset with a train/validation split.
//
// Usage:
//
//	docsynth2coco [prepare] [--data part0.parquet ...] [--output-dir laydoc] [--test-size 0.1] [--seed 42]
//	docsynth2coco convert --data part0.parquet --output all.json
//
// Running without a subcommand behaves like prepare.
package main

import (
	"github.com/spf13/cobra"

	"github.com/gardar/laydoc/internal/cli"
)

func newRootCommand() *cobra.Command {
	var globals cli.Globals
	prepare := newPrepareOptions()

	rootCmd := &cobra.Command{
		Use:           "docsynth2coco",
		Short:         "Convert the docsynth parquet dataset to COCO",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd, &globals, prepare)
		},
	}
	globals.Bind(rootCmd)
	prepare.bind(rootCmd)

	rootCmd.AddCommand(newPrepareCommand(&globals))
	rootCmd.AddCommand(newConvertCommand(&globals))
	return rootCmd
}
