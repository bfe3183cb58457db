package exporter

import (
	"encoding/csv"
	"strings"

	"github.com/dealmungchi/xidmetlercrawler/internal/crawler"
	"github.com/dealmungchi/xidmetlercrawler/logger"
	crawlerrors "github.com/dealmungchi/xidmetlercrawler/pkg/errors"
)

// CSVHeader is the fixed column set of the CSV export
var CSVHeader = []string{
	"id", "listing_code", "title", "url", "price",
	"contact_name", "phone", "location", "date",
	"categories", "description", "image_url", "images",
}

// listSeparator joins list-typed fields into one cell
const listSeparator = ", "

// CSVExporter writes records as CSV with a fixed header
type CSVExporter struct {
	path string
	log  *logger.Logger
}

// NewCSVExporter creates a CSV exporter writing to path
func NewCSVExporter(path string) *CSVExporter {
	return &CSVExporter{path: path, log: logger.ForExporter("csv")}
}

// Name returns the output format
func (e *CSVExporter) Name() string {
	return "csv"
}

// Export writes the header and one row per record. An empty record set
// is logged and leaves no file behind
func (e *CSVExporter) Export(records []crawler.Record) error {
	if len(records) == 0 {
		e.log.Warn().Str("path", e.path).Msg("No listings to save")
		return nil
	}

	f, err := createFile(e.path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.UseCRLF = true

	if err := w.Write(CSVHeader); err != nil {
		return crawlerrors.NewExport(e.path, "failed to write header", err)
	}
	for _, r := range records {
		if err := w.Write(CSVRow(r)); err != nil {
			return crawlerrors.NewExport(e.path, "failed to write row for listing "+r.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return crawlerrors.NewExport(e.path, "failed to flush rows", err)
	}
	if err := f.Close(); err != nil {
		return crawlerrors.NewExport(e.path, "failed to close output file", err)
	}

	e.log.Info().Int("count", len(records)).Str("path", e.path).Msg("Saved listings")
	return nil
}

// CSVRow flattens a record into cells ordered like CSVHeader
func CSVRow(r crawler.Record) []string {
	imageURL := ""
	if r.ImageURL != nil {
		imageURL = *r.ImageURL
	}

	return []string{
		r.ID,
		r.ListingCode,
		r.Title,
		r.URL,
		r.Price,
		r.ContactName,
		r.Phone,
		r.Location,
		r.Date,
		strings.Join(r.Categories, listSeparator),
		r.Description,
		imageURL,
		strings.Join(r.Images, listSeparator),
	}
}
