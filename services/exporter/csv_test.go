package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	require.NoError(t, NewCSVExporter(path).Export(sampleRecords()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"id", "listing_code", "title", "url", "price", "contact_name", "phone",
		"location", "date", "categories", "description", "image_url", "images",
	}, rows[0])

	first := rows[1]
	assert.Equal(t, "101", first[0])
	assert.Equal(t, "Bakı, Nəsimi r.", first[7])
	assert.Equal(t, "Usta xidməti, Santexnik", first[9])
	assert.Equal(t, `Hər növ işlər, "zəmanətlə" & <tez>`, first[10])
	assert.Equal(t, "https://xidmetler.az/uploads/thumb/101.jpg", first[11])
	assert.Equal(t, "https://xidmetler.az/uploads/big/101-1.jpg, https://xidmetler.az/uploads/big/101-2.jpg", first[12])

	second := rows[2]
	assert.Equal(t, "N/A", second[4])
	assert.Equal(t, "", second[9])
	assert.Equal(t, "", second[11], "missing thumbnail is an empty cell")
	assert.Equal(t, "", second[12])
}

func TestCSVExporterLineEndings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	require.NoError(t, NewCSVExporter(path).Export(sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), strings.Join(CSVHeader, ",")+"\r\n"))
}

func TestCSVExporterIsRepeatable(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")

	require.NoError(t, NewCSVExporter(first).Export(sampleRecords()))
	require.NoError(t, NewCSVExporter(second).Export(sampleRecords()))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCSVExporterEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	require.NoError(t, NewCSVExporter(path).Export(nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no file is written for an empty run")
}

func TestCSVRowColumnCount(t *testing.T) {
	for _, r := range sampleRecords() {
		assert.Len(t, CSVRow(r), len(CSVHeader))
	}
}
