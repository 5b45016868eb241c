package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/reef/config"
)

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir        string
	growthFile *os.File

	// Track if headers have been written
	growthHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	growthPath := filepath.Join(dir, "growth.csv")
	f, err := os.Create(growthPath)
	if err != nil {
		return nil, fmt.Errorf("creating growth.csv: %w", err)
	}
	om.growthFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteGrowth writes a growth stats record to growth.csv.
func (om *OutputManager) WriteGrowth(stats GrowthStats) error {
	if om == nil {
		return nil
	}

	records := []GrowthStats{stats}

	if !om.growthHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.growthFile); err != nil {
			return fmt.Errorf("writing growth stats: %w", err)
		}
		om.growthHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.growthFile); err != nil {
			return fmt.Errorf("writing growth stats: %w", err)
		}
	}

	return nil
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	if om.growthFile != nil {
		if err := om.growthFile.Close(); err != nil {
			return fmt.Errorf("closing growth.csv: %w", err)
		}
	}
	return nil
}
