package exporter

import (
	"encoding/json"

	"github.com/dealmungchi/xidmetlercrawler/internal/crawler"
	"github.com/dealmungchi/xidmetlercrawler/logger"
	crawlerrors "github.com/dealmungchi/xidmetlercrawler/pkg/errors"
)

// JSONExporter writes records as one indented JSON array
type JSONExporter struct {
	path string
	log  *logger.Logger
}

// NewJSONExporter creates a JSON exporter writing to path
func NewJSONExporter(path string) *JSONExporter {
	return &JSONExporter{path: path, log: logger.ForExporter("json")}
}

// Name returns the output format
func (e *JSONExporter) Name() string {
	return "json"
}

// Export always writes the file; an empty run produces "[]".
// Non-ASCII text is written as-is
func (e *JSONExporter) Export(records []crawler.Record) error {
	if records == nil {
		records = []crawler.Record{}
	}

	f, err := createFile(e.path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return crawlerrors.NewExport(e.path, "failed to encode records", err)
	}

	if err := f.Close(); err != nil {
		return crawlerrors.NewExport(e.path, "failed to close output file", err)
	}

	e.log.Info().Int("count", len(records)).Str("path", e.path).Msg("Saved listings")
	return nil
}
