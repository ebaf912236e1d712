package catalog

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"menu-recommender/internal/common/config"
	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/models"
)

const pqUndefinedColumn = "42703"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// MenuCatalogSchema creates the default catalog table.
const MenuCatalogSchema = `
CREATE TABLE IF NOT EXISTS menu_catalog (
	menu_id       BIGINT PRIMARY KEY,
	restaurant_id BIGINT NOT NULL,
	place_name    TEXT NOT NULL,
	menu_name     TEXT NOT NULL,
	menu_price    TEXT NOT NULL,
	region        TEXT NOT NULL,
	address       TEXT NOT NULL DEFAULT '',
	url           TEXT NOT NULL DEFAULT '',
	allergy       TEXT
)`

// PostgresSource reads the catalog from a table with the dataset columns.
// Every column is scanned as text so prices and ids share the CSV normalization.
type PostgresSource struct {
	db    *sql.DB
	table string
}

func NewPostgresSource(db *sql.DB, table string) (*PostgresSource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid catalog table name %q", table)
	}
	return &PostgresSource{db: db, table: table}, nil
}

func (s *PostgresSource) Name() string { return config.CatalogSourcePostgres }

func (s *PostgresSource) Load(ctx context.Context) ([]models.MenuItem, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY menu_id", strings.Join(RequiredColumns, ", "), s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && string(pqErr.Code) == pqUndefinedColumn {
			return nil, integrityError(s.Name(), "%s: %s", s.table, pqErr.Message)
		}
		return nil, errors.NewCatalogLoadFailedError(s.Name(), err)
	}
	defer rows.Close()

	var items []models.MenuItem
	n := 0
	for rows.Next() {
		n++
		values := make([]sql.NullString, len(RequiredColumns))
		dest := make([]interface{}, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.NewCatalogLoadFailedError(s.Name(), err)
		}

		rec := make(rawRecord, len(RequiredColumns))
		for i, col := range RequiredColumns {
			rec[col] = values[i].String
		}
		item, err := toMenuItem(rec, fmt.Sprintf("%s row %d", s.table, n))
		if err != nil {
			return nil, integrityError(s.Name(), "%v", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCatalogLoadFailedError(s.Name(), err)
	}

	return items, nil
}
