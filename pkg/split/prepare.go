package split

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"

	"github.com/gardar/laydoc/pkg/coco"
	"github.com/gardar/laydoc/pkg/convert"
	"github.com/gardar/laydoc/pkg/docsynth"
	"github.com/gardar/laydoc/pkg/logging"
)

// Layout names below the output directory
const (
	AnnotationsDir = "annotations"
	TrainImagesDir = "train_images"
	ValImagesDir   = "val_images"
	TrainJSON      = "train.json"
	ValJSON        = "val.json"
	LockFile       = ".laydoc.lock"
)

// ErrLocked is returned when another run holds the output directory
var ErrLocked = errors.New("output directory is locked by another run")

// PrepareConfig holds the options of Prepare
type PrepareConfig struct {
	OutputDir string
	TestSize  float64
	Seed      uint64
	Convert   convert.Config
	Logger    *slog.Logger
	Progress  io.Writer // Progress bar output, nil disables the bars
}

// DefaultPrepareConfig returns the defaults of the dataset preparation
func DefaultPrepareConfig() PrepareConfig {
	return PrepareConfig{
		OutputDir: "laydoc",
		TestSize:  0.1,
		Seed:      42,
		Convert:   convert.DefaultConfig(),
	}
}

// Prepare splits records and writes the train/validation layout.
//
// Writes happen in this order: train images, train annotations, validation
// annotations, validation images. A failure aborts the run and leaves
// whatever was already written in place.
func Prepare(ctx context.Context, records []docsynth.Record, cfg PrepareConfig) (*Summary, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}

	for _, dir := range []string{AnnotationsDir, TrainImagesDir, ValImagesDir} {
		if err := os.MkdirAll(filepath.Join(cfg.OutputDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	lock := flock.New(filepath.Join(cfg.OutputDir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, cfg.OutputDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release output lock", "error", err)
		}
	}()

	train, val, err := Split(records, cfg.TestSize, NewRand(cfg.Seed))
	if err != nil {
		return nil, err
	}
	logger.Info("split dataset", "train", len(train), "val", len(val), "test_size", cfg.TestSize, "seed", cfg.Seed)

	summary := &Summary{OutputDir: cfg.OutputDir}

	trainDir := filepath.Join(cfg.OutputDir, TrainImagesDir)
	n, err := writeImages(ctx, trainDir, train, cfg.Progress, "Writing train images")
	if err != nil {
		return nil, err
	}
	summary.Train.Images = len(train)
	summary.Train.ImageBytes = n

	trainDoc, err := writeDocument(filepath.Join(cfg.OutputDir, AnnotationsDir, TrainJSON), train, cfg)
	if err != nil {
		return nil, err
	}
	summary.Train.Annotations = len(trainDoc.Annotations)

	valDoc, err := writeDocument(filepath.Join(cfg.OutputDir, AnnotationsDir, ValJSON), val, cfg)
	if err != nil {
		return nil, err
	}
	summary.Val.Annotations = len(valDoc.Annotations)

	valDir := filepath.Join(cfg.OutputDir, ValImagesDir)
	n, err = writeImages(ctx, valDir, val, cfg.Progress, "Writing val images")
	if err != nil {
		return nil, err
	}
	summary.Val.Images = len(val)
	summary.Val.ImageBytes = n

	logger.Info("dataset prepared",
		"output_dir", cfg.OutputDir,
		"train_images", summary.Train.Images,
		"val_images", summary.Val.Images,
	)
	return summary, nil
}

func writeDocument(path string, records []docsynth.Record, cfg PrepareConfig) (*coco.Document, error) {
	convCfg := cfg.Convert
	if convCfg.Logger == nil {
		convCfg.Logger = cfg.Logger
	}
	if convCfg.Progress == nil {
		convCfg.Progress = cfg.Progress
	}
	doc, err := convert.Convert(records, convCfg)
	if err != nil {
		return nil, err
	}
	if err := coco.Save(path, doc); err != nil {
		return nil, fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

func writeImages(ctx context.Context, dir string, records []docsynth.Record, progress io.Writer, description string) (int64, error) {
	var bar *progressbar.ProgressBar
	if progress != nil {
		bar = progressbar.NewOptions(len(records),
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var total int64
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := SaveImage(filepath.Join(dir, rec.Filename), rec.ImageData)
		if err != nil {
			return total, fmt.Errorf("save image %q: %w", rec.Filename, err)
		}
		total += n
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return total, nil
}
