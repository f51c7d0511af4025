package gdocai

import (
	"fmt"
	"strings"
)

// Config identifies the Document AI processor to call
type Config struct {
	ProjectID   string `yaml:"project_id"`
	Location    string `yaml:"location"`
	ProcessorID string `yaml:"processor_id"`
}

// Validate reports the settings that are missing
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("document ai config is required")
	}
	var missing []string
	if c.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if c.Location == "" {
		missing = append(missing, "location")
	}
	if c.ProcessorID == "" {
		missing = append(missing, "processor_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("document ai config missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// ProcessorName builds the resource name of the processor
func (c *Config) ProcessorName() string {
	return fmt.Sprintf(
		"projects/%s/locations/%s/processors/%s",
		c.ProjectID, c.Location, c.ProcessorID,
	)
}
