package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"menu-recommender/internal/common/config"
	"menu-recommender/internal/models"
)

// CSVSource reads the catalog from a headered CSV file.
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string { return config.CatalogSourceCSV }

func (s *CSVSource) Load(ctx context.Context) ([]models.MenuItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses a catalog from r. Header order is free and extra columns are
// ignored. Rows with the wrong number of fields are skipped.
func ReadCSV(r io.Reader) ([]models.MenuItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, integrityError(config.CatalogSourceCSV, "csv has no header")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	index := make(map[string]int, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		index[name] = i
		present[name] = true
	}
	if missing := missingColumns(present, RequiredColumns); len(missing) > 0 {
		return nil, integrityError(config.CatalogSourceCSV, "missing required columns: %s", strings.Join(missing, ", "))
	}

	var items []models.MenuItem
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if len(row) != len(header) {
			continue
		}

		rec := make(rawRecord, len(RequiredColumns))
		for _, col := range RequiredColumns {
			rec[col] = row[index[col]]
		}
		item, err := toMenuItem(rec, fmt.Sprintf("line %d", line))
		if err != nil {
			return nil, integrityError(config.CatalogSourceCSV, "%v", err)
		}
		items = append(items, item)
	}

	return items, nil
}
