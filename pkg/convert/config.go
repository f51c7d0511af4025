package convert

import (
	"io"
	"log/slog"

	"github.com/gardar/laydoc/pkg/coco"
	"github.com/gardar/laydoc/pkg/docsynth"
)

// Config holds the options of a conversion
type Config struct {
	Info               coco.Info           // Written verbatim to the document
	Licenses           []coco.License      // Written verbatim to the document
	DetailedCategories []docsynth.Category // Source vocabulary the rules are applied to
	Rules              []Rule              // Evaluated in order, first match wins
	Logger             *slog.Logger        // Nil disables logging
	Progress           io.Writer           // Progress bar output, nil disables the bar
}

// DefaultConfig returns the configuration matching the docsynth dataset
func DefaultConfig() Config {
	return Config{
		Info:               coco.DefaultInfo(),
		Licenses:           coco.DefaultLicenses(),
		DetailedCategories: docsynth.DetailedCategories,
		Rules:              DefaultRules(),
		Logger:             nil,
		Progress:           nil,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}
