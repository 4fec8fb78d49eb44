package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/fields/config"
)

// OutputManager writes render statistics as CSV into an output directory.
type OutputManager struct {
	dir string

	mu          sync.Mutex
	rendersFile *os.File
	passesFile  *os.File

	// Track if headers have been written
	rendersHeaderWritten bool
	passesHeaderWritten  bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "renders.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating renders.csv: %w", err)
	}
	om.rendersFile = f

	f, err = os.Create(filepath.Join(dir, "passes.csv"))
	if err != nil {
		om.rendersFile.Close()
		return nil, fmt.Errorf("creating passes.csv: %w", err)
	}
	om.passesFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteRender appends a record to renders.csv.
func (om *OutputManager) WriteRender(r RenderRecord) error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()
	if err := writeCSV(om.rendersFile, &om.rendersHeaderWritten, []RenderRecord{r}); err != nil {
		return fmt.Errorf("writing render: %w", err)
	}
	return nil
}

// WritePass appends a record to passes.csv.
func (om *OutputManager) WritePass(p PassRecord) error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()
	if err := writeCSV(om.passesFile, &om.passesHeaderWritten, []PassRecord{p}); err != nil {
		return fmt.Errorf("writing pass: %w", err)
	}
	return nil
}

// writeCSV writes records, with a header only on the first call for f.
func writeCSV[T any](f *os.File, headerWritten *bool, records []T) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()

	var firstErr error
	for _, f := range []*os.File{om.rendersFile, om.passesFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
