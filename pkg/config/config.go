// Package config loads the YAML configuration shared by the laydoc tools.
//
// Example:
//
//	dataset:
//	  files: ["./docsynth60k/part0.parquet"]
//	output_dir: laydoc
//	test_size: 0.1
//	seed: 42
//	logging:
//	  level: info
//	  format: console
//	documentai:
//	  project_id: my-project
//	  location: us
//	  processor_id: abc123
//
// Missing keys keep the values of DefaultConfig.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the file level configuration
type Config struct {
	Dataset    Dataset    `yaml:"dataset"`
	OutputDir  string     `yaml:"output_dir"`
	TestSize   float64    `yaml:"test_size"`
	Seed       uint64     `yaml:"seed"`
	Logging    Logging    `yaml:"logging"`
	DocumentAI DocumentAI `yaml:"documentai"`
}

// Dataset lists the parquet parts of the raw dataset
type Dataset struct {
	Files []string `yaml:"files"`
}

// Logging selects level and format of the log output
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DocumentAI identifies the processor used for pre-labelling
type DocumentAI struct {
	ProjectID   string `yaml:"project_id"`
	Location    string `yaml:"location"`
	ProcessorID string `yaml:"processor_id"`
}

// DefaultDatasetFiles returns the six parquet parts of the docsynth dataset
func DefaultDatasetFiles() []string {
	files := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		files = append(files, fmt.Sprintf("./docsynth60k/part%d.parquet", i))
	}
	return files
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Dataset:   Dataset{Files: DefaultDatasetFiles()},
		OutputDir: "laydoc",
		TestSize:  0.1,
		Seed:      42,
		Logging: Logging{
			Level:  "info",
			Format: "",
		},
		DocumentAI: DocumentAI{
			Location: "us",
		},
	}
}

// Load reads a YAML file on top of DefaultConfig.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses YAML from r on top of DefaultConfig
func Decode(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("test_size must be between 0 and 1, got %v", c.TestSize)
	}
	if c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	return nil
}

// ValidateDocumentAI checks that the processor is fully identified
func (c Config) ValidateDocumentAI() error {
	var missing []string
	if c.DocumentAI.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if c.DocumentAI.Location == "" {
		missing = append(missing, "location")
	}
	if c.DocumentAI.ProcessorID == "" {
		missing = append(missing, "processor_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("documentai: missing %v", missing)
	}
	return nil
}
