package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"core/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Range fallbacks for an empty or freshly created catalog. They keep the
// sidebar metadata usable before the first ingestion.
const (
	defaultPriceMax   = 100000
	defaultCameraMax  = 200
	defaultBatteryMax = 10000
)

// CatalogStore executes queries against the fixed-schema phone catalog. It
// performs no normalization: string comparisons must already be lower-cased
// by the caller, and execution failures propagate untouched so the
// orchestrator can isolate them per entity.
type CatalogStore struct {
	db    *sqlx.DB
	table string
}

// NewCatalogStore connects to PostgreSQL and returns a catalog store bound to
// the given table.
func NewCatalogStore(dsn, table string, maxConn, maxIdleConn int) (*CatalogStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &CatalogStore{db: db, table: table}, nil
}

// NewCatalogStoreWithDB wraps an existing connection; used by tests.
func NewCatalogStoreWithDB(db *sqlx.DB, table string) *CatalogStore {
	return &CatalogStore{db: db, table: table}
}

// Close closes the database connection.
func (s *CatalogStore) Close() error {
	return s.db.Close()
}

// Table returns the catalog table name.
func (s *CatalogStore) Table() string {
	return s.table
}

// DB exposes the underlying connection so the name index can share the pool.
func (s *CatalogStore) DB() *sqlx.DB {
	return s.db
}

// Query executes a SELECT and scans every row into a column-keyed map. The
// SQL text is oracle-generated, so the column set is not known in advance.
func (s *CatalogStore) Query(ctx context.Context, query string, args ...any) ([]model.Row, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, model.Row(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}

// Exec executes a statement with no result set, such as the one-time catalog
// ingestion inserts.
func (s *CatalogStore) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// Companies returns all distinct company names in display order.
func (s *CatalogStore) Companies(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT "Company Name" FROM %s WHERE "Company Name" IS NOT NULL ORDER BY "Company Name"`, s.table)
	var companies []string
	if err := s.db.SelectContext(ctx, &companies, query); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// PriceRange returns (min, max) launched price over non-null rows, falling
// back to 0..100000 for an empty catalog.
func (s *CatalogStore) PriceRange(ctx context.Context) (int, int, error) {
	return s.columnRange(ctx, model.ColPrice, defaultPriceMax)
}

// CameraRange returns (min, max) back-camera resolution, fallback 0..200.
func (s *CatalogStore) CameraRange(ctx context.Context) (int, int, error) {
	return s.columnRange(ctx, model.ColBackCamera, defaultCameraMax)
}

// BatteryRange returns (min, max) battery capacity, fallback 0..10000.
func (s *CatalogStore) BatteryRange(ctx context.Context) (int, int, error) {
	return s.columnRange(ctx, model.ColBattery, defaultBatteryMax)
}

func (s *CatalogStore) columnRange(ctx context.Context, col string, fallbackMax int) (int, int, error) {
	query := fmt.Sprintf(`SELECT MIN("%s") AS min_val, MAX("%s") AS max_val FROM %s WHERE "%s" IS NOT NULL`, col, col, s.table, col)
	var res struct {
		Min sql.NullFloat64 `db:"min_val"`
		Max sql.NullFloat64 `db:"max_val"`
	}
	if err := s.db.GetContext(ctx, &res, query); err != nil {
		return 0, 0, fmt.Errorf("failed to read range of %q: %w", col, err)
	}
	if !res.Min.Valid || !res.Max.Valid {
		return 0, fallbackMax, nil
	}
	return int(res.Min.Float64), int(res.Max.Float64), nil
}

// AllPhones returns every phone as a "Company - Model" display string.
func (s *CatalogStore) AllPhones(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT "Company Name", "Model Name" FROM %s WHERE "Company Name" IS NOT NULL AND "Model Name" IS NOT NULL ORDER BY "Company Name", "Model Name"`, s.table)
	return s.selectPhonePairs(ctx, query)
}

// FilteredPhones returns "Company - Model" strings matching the sidebar
// filter set.
func (s *CatalogStore) FilteredPhones(ctx context.Context, filters *model.FilterSet) ([]string, error) {
	conds := []string{`"Company Name" IS NOT NULL`, `"Model Name" IS NOT NULL`}
	var args []any
	idx := 1
	for _, c := range filters.Constraints() {
		op := c.Operator
		if op == model.OpEq {
			op = "="
		}
		if model.IsStringColumn(c.Column) {
			conds = append(conds, fmt.Sprintf(`LOWER("%s") %s LOWER($%d)`, c.Column, op, idx))
		} else {
			conds = append(conds, fmt.Sprintf(`"%s" %s $%d`, c.Column, op, idx))
		}
		args = append(args, c.Value)
		idx++
	}

	query := fmt.Sprintf(
		`SELECT DISTINCT "Company Name", "Model Name" FROM %s WHERE %s ORDER BY "Company Name", "Model Name"`,
		s.table, strings.Join(conds, " AND "),
	)
	return s.selectPhonePairs(ctx, query, args...)
}

func (s *CatalogStore) selectPhonePairs(ctx context.Context, query string, args ...any) ([]string, error) {
	var pairs []struct {
		Company string `db:"Company Name"`
		Model   string `db:"Model Name"`
	}
	if err := s.db.SelectContext(ctx, &pairs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list phones: %w", err)
	}
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Company+" - "+p.Model)
	}
	return out, nil
}

// PhoneData fetches full rows for "Company - Model" selections. Lookups are
// case-insensitive and tolerate duplicate (company, model) pairs in storage.
func (s *CatalogStore) PhoneData(ctx context.Context, selections []string) ([]model.Row, error) {
	var conds []string
	var args []any
	idx := 1
	for _, sel := range selections {
		company, mdl, ok := strings.Cut(sel, " - ")
		if !ok || company == "" {
			continue
		}
		conds = append(conds, fmt.Sprintf(`(LOWER("Company Name") = LOWER($%d) AND LOWER("Model Name") = LOWER($%d))`, idx, idx+1))
		args = append(args, company, mdl)
		idx += 2
	}
	if len(conds) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT * FROM %s WHERE %s`, s.table, strings.Join(conds, " OR "))
	return s.Query(ctx, query, args...)
}

// ModelName is one distinct (company, model) pair, used to build the name index.
type ModelName struct {
	Company string `db:"Company Name"`
	Model   string `db:"Model Name"`
}

// ModelNames returns every distinct (company, model) pair with both parts
// present.
func (s *CatalogStore) ModelNames(ctx context.Context) ([]ModelName, error) {
	query := fmt.Sprintf(`SELECT DISTINCT "Company Name", "Model Name" FROM %s WHERE "Company Name" IS NOT NULL AND "Model Name" IS NOT NULL`, s.table)
	var names []ModelName
	if err := s.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("failed to list model names: %w", err)
	}
	return names, nil
}

// EnsureLogSchema creates the query log table if it does not exist.
func (s *CatalogStore) EnsureLogSchema(ctx context.Context) error {
	stmt := `
		CREATE TABLE IF NOT EXISTS query_logs (
			query_id         TEXT PRIMARY KEY,
			query            TEXT NOT NULL,
			task             TEXT,
			correction_count INT NOT NULL DEFAULT 0,
			result_count     INT NOT NULL DEFAULT 0,
			took_ms          BIGINT NOT NULL DEFAULT 0,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create query_logs table: %w", err)
	}
	return nil
}

// LogQuery records one processed user turn. Failures are the caller's to
// ignore; logging never affects the pipeline outcome.
func (s *CatalogStore) LogQuery(ctx context.Context, id, query, task string, corrections, results int, tookMs int64) error {
	stmt := `
		INSERT INTO query_logs (query_id, query, task, correction_count, result_count, took_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, stmt, id, query, task, corrections, results, tookMs); err != nil {
		return fmt.Errorf("failed to log query: %w", err)
	}
	return nil
}
