// cleanckpt reduces a training checkpoint to the model weights.
//
// The top-level keys of the input are listed first. Unless --inspect is
// given, a new checkpoint holding only {"model": ...} is then written,
// with the storages the model does not reference left out.
//
// Usage:
//
//	cleanckpt [--input best_stg1.pth] [--output solo_modelo.pth] [--inspect]
package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/gardar/laydoc/internal/cli"
	"github.com/gardar/laydoc/pkg/checkpoint"
)

const (
	defaultInput  = "./output/dfine_hgnetv2_n_custom/best_stg1.pth"
	defaultOutput = "./output/dfine_hgnetv2_n_custom/solo_modelo.pth"
)

func newRootCommand() *cobra.Command {
	var globals cli.Globals
	var input, output string
	var inspectOnly bool

	rootCmd := &cobra.Command{
		Use:           "cleanckpt",
		Short:         "Keep only the model weights of a training checkpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := globals.Setup(cmd)
			if err != nil {
				return err
			}

			info, err := checkpoint.Inspect(input)
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), info)
			if inspectOnly {
				return nil
			}

			res, err := checkpoint.Clean(input, output)
			if err != nil {
				return err
			}
			logger.Info("checkpoint cleaned",
				"input", input,
				"output", output,
				"kept_storages", res.KeptStorages,
				"dropped_storages", res.DroppedStorages,
			)
			fmt.Fprintln(cmd.OutOrStdout(), renderResult(res, output))
			return nil
		},
	}
	globals.Bind(rootCmd)
	rootCmd.Flags().StringVarP(&input, "input", "i", defaultInput, "Checkpoint to read")
	rootCmd.Flags().StringVarP(&output, "output", "o", defaultOutput, "Cleaned checkpoint to write")
	rootCmd.Flags().BoolVar(&inspectOnly, "inspect", false, "Only list the checkpoint keys")
	return rootCmd
}

func printInfo(w io.Writer, info *checkpoint.Info) {
	if !info.IsDict {
		fmt.Fprintf(w, "Not a dict, probably a bare state_dict (type %s)\n", info.Type)
		return
	}
	fmt.Fprintln(w, "Top-level keys:")
	for _, k := range info.Keys {
		fmt.Fprintln(w, "  -", k)
	}
	fmt.Fprintf(w, "%d storages\n", info.Storages)
}

func renderResult(res *checkpoint.Result, output string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.SetTitle("Saved " + output)
	tw.AppendHeader(table.Row{"Kept keys", "Kept storages", "Dropped storages", "Weights"})
	tw.AppendRow(table.Row{
		checkpoint.ModelKey,
		strconv.Itoa(res.KeptStorages),
		strconv.Itoa(res.DroppedStorages),
		humanize.Bytes(uint64(res.StorageBytes)),
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return strings.TrimRight(tw.Render(), "\n")
}
