package exporter

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dealmungchi/xidmetlercrawler/internal/crawler"
	"github.com/dealmungchi/xidmetlercrawler/logger"
	crawlerrors "github.com/dealmungchi/xidmetlercrawler/pkg/errors"
)

const createListingsTable = `
CREATE TABLE IF NOT EXISTS listings (
	id           TEXT PRIMARY KEY,
	listing_code TEXT NOT NULL,
	title        TEXT NOT NULL,
	url          TEXT NOT NULL,
	price        TEXT NOT NULL,
	contact_name TEXT NOT NULL,
	phone        TEXT NOT NULL,
	location     TEXT NOT NULL,
	date         TEXT NOT NULL,
	categories   TEXT NOT NULL,
	description  TEXT NOT NULL,
	image_url    TEXT,
	images       TEXT NOT NULL,
	exported_at  TEXT NOT NULL
)`

const upsertListing = `
INSERT INTO listings (
	id, listing_code, title, url, price, contact_name, phone, location, date,
	categories, description, image_url, images, exported_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	listing_code = excluded.listing_code,
	title        = excluded.title,
	url          = excluded.url,
	price        = excluded.price,
	contact_name = excluded.contact_name,
	phone        = excluded.phone,
	location     = excluded.location,
	date         = excluded.date,
	categories   = excluded.categories,
	description  = excluded.description,
	image_url    = excluded.image_url,
	images       = excluded.images,
	exported_at  = excluded.exported_at`

// SQLiteExporter writes records into a "listings" table.
// List fields are stored as JSON arrays
type SQLiteExporter struct {
	path string
	now  func() time.Time
	log  *logger.Logger
}

// NewSQLiteExporter creates an exporter for the database file at path
func NewSQLiteExporter(path string) *SQLiteExporter {
	return &SQLiteExporter{path: path, now: time.Now, log: logger.ForExporter("sqlite")}
}

// Name returns the output format
func (e *SQLiteExporter) Name() string {
	return "sqlite"
}

// Export upserts every record in a single transaction
func (e *SQLiteExporter) Export(records []crawler.Record) error {
	if dir := filepath.Dir(e.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return crawlerrors.NewExport(e.path, "failed to create output directory", err)
		}
	}

	db, err := sql.Open("sqlite", e.path)
	if err != nil {
		return crawlerrors.NewExport(e.path, "failed to open database", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, createListingsTable); err != nil {
		return crawlerrors.NewExport(e.path, "failed to create listings table", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return crawlerrors.NewExport(e.path, "failed to begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, upsertListing)
	if err != nil {
		return crawlerrors.NewExport(e.path, "failed to prepare upsert", err)
	}
	defer stmt.Close()

	exportedAt := e.now().UTC().Format(time.RFC3339)
	for _, r := range records {
		categories, _ := json.Marshal(nonNil(r.Categories))
		images, _ := json.Marshal(nonNil(r.Images))

		var imageURL sql.NullString
		if r.ImageURL != nil {
			imageURL = sql.NullString{String: *r.ImageURL, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			r.ID, r.ListingCode, r.Title, r.URL, r.Price, r.ContactName, r.Phone,
			r.Location, r.Date, string(categories), r.Description, imageURL,
			string(images), exportedAt,
		); err != nil {
			return crawlerrors.NewExport(e.path, "failed to upsert listing "+r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return crawlerrors.NewExport(e.path, "failed to commit", err)
	}

	e.log.Info().Int("count", len(records)).Str("path", e.path).Msg("Saved listings")
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
