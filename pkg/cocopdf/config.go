package cocopdf

import (
	"log/slog"
)

// Config holds the options of a review sheet export
type Config struct {
	Title       string       // Document title
	LayerPrefix string       // Prepended to every category layer name
	LineWidth   float64      // Box stroke width in points
	ShowLabels  bool         // Write the category name at the top-left of each box
	Font        FontConfig   // Label font
	Logger      *slog.Logger // Nil disables logging
}

// FontConfig contains font settings for box labels
type FontConfig struct {
	Name  string  // Core font name (e.g., "Helvetica")
	Style string  // Font style ("", "B", "I", "BI")
	Size  float64 // Font size in points
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Title:       "Dataset review",
		LayerPrefix: "",
		LineWidth:   2,
		ShowLabels:  true,
		Font:        DefaultFont,
	}
}

// DefaultFont is Helvetica, available in every PDF reader
var DefaultFont = FontConfig{
	Name:  "Helvetica",
	Style: "",
	Size:  10,
}
