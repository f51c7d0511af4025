// cocoview samples a COCO detection dataset and serves it for review in a
// web browser until the session is closed.
//
// Usage:
//
//	cocoview -i laydoc/val_images -l laydoc/annotations/val.json [-t 1000] [--addr 127.0.0.1:5151]
//	cocoview -i laydoc/val_images -l laydoc/annotations/val.json -t 50 --pdf review.pdf
//
// With --pdf the sampled view is written as a PDF review sheet instead of
// being served.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gardar/laydoc/internal/cli"
	"github.com/gardar/laydoc/pkg/coco"
	"github.com/gardar/laydoc/pkg/cocopdf"
	"github.com/gardar/laydoc/pkg/split"
	"github.com/gardar/laydoc/pkg/viewer"
)

type options struct {
	dataPath   string
	labelsPath string
	take       int
	addr       string
	seed       uint64
	pdfPath    string
}

func newRootCommand() *cobra.Command {
	var globals cli.Globals
	opts := options{
		take: 1000,
		addr: viewer.DefaultOptions().Addr,
	}

	rootCmd := &cobra.Command{
		Use:           "cocoview",
		Short:         "Browse a COCO detection dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &globals, opts)
		},
	}
	globals.Bind(rootCmd)

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.dataPath, "data_path", "i", "", "Directory with the dataset images")
	flags.StringVarP(&opts.labelsPath, "labels_path", "l", "", "COCO annotation file")
	flags.IntVarP(&opts.take, "take", "t", opts.take, "Number of random images to show")
	flags.StringVar(&opts.addr, "addr", opts.addr, "Listen address")
	flags.Uint64Var(&opts.seed, "seed", 0, "Sampling seed (default: from config)")
	flags.StringVar(&opts.pdfPath, "pdf", "", "Write a PDF review sheet of the sample to this path and exit")
	_ = rootCmd.MarkFlagRequired("data_path")
	_ = rootCmd.MarkFlagRequired("labels_path")

	return rootCmd
}

func run(cmd *cobra.Command, globals *cli.Globals, opts options) error {
	cfg, logger, err := globals.Setup(cmd)
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if cmd.Flags().Changed("seed") {
		seed = opts.seed
	}

	ds, err := viewer.Load(opts.dataPath, opts.labelsPath)
	if err != nil {
		return err
	}
	if err := coco.Validate(ds.Doc); err != nil {
		logger.Warn("labels failed validation", "labels", opts.labelsPath, "error", err)
	}
	view := ds.Take(opts.take, split.NewRand(seed))
	logger.Info("dataset loaded", "images", ds.Len(), "annotations", len(ds.Doc.Annotations), "view", len(view))

	if opts.pdfPath != "" {
		pdfCfg := cocopdf.DefaultConfig()
		pdfCfg.Logger = logger
		return exportPDF(cmd, ds, view, opts.pdfPath, pdfCfg)
	}

	sessionOpts := viewer.DefaultOptions()
	sessionOpts.Addr = opts.addr
	sessionOpts.Logger = logger
	session, err := viewer.NewSession(ds, view, sessionOpts)
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()
	if err := session.Launch(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s ready at %s\n", session.ID, session.URL())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C or open /close to end the session")
	return session.Wait()
}

func exportPDF(cmd *cobra.Command, ds *viewer.Dataset, view []coco.Image, path string, pdfCfg cocopdf.Config) error {
	pages, err := ds.Pages(view)
	if err != nil {
		return err
	}
	data, err := cocopdf.Export(pages, ds.Doc.Categories, pdfCfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	layers, err := cocopdf.LayerNames(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Review sheet with %d pages and %d layers saved to %s\n", len(pages), len(layers), path)
	return nil
}
