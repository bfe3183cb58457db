package exporter

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/dealmungchi/xidmetlercrawler/internal/crawler"
	crawlerrors "github.com/dealmungchi/xidmetlercrawler/pkg/errors"
)

// Exporter writes the accumulated records of a run to durable storage
type Exporter interface {
	// Export writes every record, in order
	Export(records []crawler.Record) error

	// Name returns the output format, used in logs
	Name() string
}

// ExportAll runs every exporter even when an earlier one fails and
// returns the joined errors
func ExportAll(records []crawler.Record, exporters ...Exporter) error {
	var errs []error
	for _, e := range exporters {
		if e == nil {
			continue
		}
		if err := e.Export(records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// createFile creates path, making parent directories as needed
func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, crawlerrors.NewExport(path, "failed to create output directory", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, crawlerrors.NewExport(path, "failed to create output file", err)
	}
	return f, nil
}
