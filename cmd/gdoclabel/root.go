// gdoclabel pre-labels page images with Google Document AI and writes them
// as a parquet part that docsynth2coco can read.
//
// Configuration:
//
// The Document AI processor is taken from the documentai section of the
// YAML configuration file:
//
//	documentai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
//
// Usage:
//
//	gdoclabel -c config.yml --images ./scans --output ./docsynth60k/part6.parquet [--debug-api ./api]
//
// Authentication:
//
// The tool uses the GOOGLE_APPLICATION_CREDENTIALS environment variable
// for authentication with Google Cloud.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/gardar/laydoc/internal/cli"
	"github.com/gardar/laydoc/pkg/config"
	"github.com/gardar/laydoc/pkg/docsynth"
	"github.com/gardar/laydoc/pkg/gdocai"
)

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

type options struct {
	imagesDir string
	output    string
	debugAPI  string
}

func newRootCommand() *cobra.Command {
	var globals cli.Globals
	var opts options

	rootCmd := &cobra.Command{
		Use:           "gdoclabel",
		Short:         "Pre-label page images with Google Document AI",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &globals, opts)
		},
	}
	globals.Bind(rootCmd)
	rootCmd.Flags().StringVar(&opts.imagesDir, "images", "", "Directory of page images to label")
	rootCmd.Flags().StringVarP(&opts.output, "output", "o", "", "Parquet file to write")
	rootCmd.Flags().StringVar(&opts.debugAPI, "debug-api", "", "Directory to save the raw API response of each image as JSON")
	_ = rootCmd.MarkFlagRequired("images")
	_ = rootCmd.MarkFlagRequired("output")
	return rootCmd
}

func run(cmd *cobra.Command, globals *cli.Globals, opts options) error {
	cfg, logger, err := globals.Setup(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDocumentAI(); err != nil {
		return err
	}
	docCfg := processorConfig(cfg.DocumentAI)

	files, err := listImages(opts.imagesDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found in %s", opts.imagesDir)
	}
	if opts.debugAPI != "" {
		if err := os.MkdirAll(opts.debugAPI, 0o755); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	var bar *progressbar.ProgressBar
	if w := cli.Progress(cmd); w != nil {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Labelling images"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	records := make([]docsynth.Record, 0, len(files))
	var lines int
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := labelFile(ctx, path, docCfg, opts.debugAPI, logger)
		if err != nil {
			return err
		}
		records = append(records, rec)
		lines += len(rec.AnnoString)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if err := writeParquet(opts.output, records); err != nil {
		return err
	}
	logger.Info("labels written", "output", opts.output, "images", len(records), "annotations", lines)
	fmt.Fprintf(cmd.OutOrStdout(), "Labelled %d images (%d regions) into %s\n", len(records), lines, opts.output)
	return nil
}

// labelFile sends one image to Document AI, saving the raw response to
// debugDir when it is set.
func labelFile(ctx context.Context, path string, cfg *gdocai.Config, debugDir string, logger *slog.Logger) (docsynth.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return docsynth.Record{}, fmt.Errorf("read image: %w", err)
	}
	name := filepath.Base(path)
	mimeType, err := gdocai.MimeType(data)
	if err != nil {
		return docsynth.Record{}, fmt.Errorf("%s: %w", name, err)
	}

	doc, err := gdocai.ProcessImage(ctx, data, mimeType, cfg)
	if err != nil {
		return docsynth.Record{}, fmt.Errorf("%s: %w", name, err)
	}

	if debugDir != "" {
		saved, err := gdocai.SaveResponse(debugDir, name, doc)
		if err != nil {
			return docsynth.Record{}, err
		}
		logger.Debug("api response saved", "path", saved)
	}

	rec := gdocai.RecordFromDocument(name, data, doc)
	logger.Debug("image labelled", "file", name, "regions", len(rec.AnnoString))
	return rec, nil
}

func processorConfig(c config.DocumentAI) *gdocai.Config {
	return &gdocai.Config{
		ProjectID:   c.ProjectID,
		Location:    c.Location,
		ProcessorID: c.ProcessorID,
	}
}

// listImages returns the image files directly inside dir, sorted by name
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read images directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func writeParquet(path string, records []docsynth.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := docsynth.WriteParquet(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
