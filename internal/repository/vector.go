package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
)

// Vector kinds stored in the name index.
const (
	VectorTypeCompany = "company"
	VectorTypeModel   = "model"
)

// NameMatch is one ranked nearest-neighbor result. Score is cosine
// similarity in [−1, 1]; Company is set for model vectors only.
type NameMatch struct {
	Name    string  `db:"original_name"`
	Type    string  `db:"vtype"`
	Company string  `db:"company"`
	Score   float64 `db:"score"`
}

// NameIndex is the nearest-neighbor index over canonical catalog names,
// backed by a pgvector table in the same database as the catalog. Vectors are
// tagged with a type (company or model) and, for models, the owning company
// in lower case.
type NameIndex struct {
	db    *sqlx.DB
	table string
	dims  int
}

// NewNameIndex returns a name index bound to the given table.
func NewNameIndex(db *sqlx.DB, table string, dims int) *NameIndex {
	return &NameIndex{db: db, table: table, dims: dims}
}

// EnsureSchema creates the vector extension and index table when missing.
// Part of the administrative build path, not the query hot path.
func (ix *NameIndex) EnsureSchema(ctx context.Context) error {
	if _, err := ix.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id            TEXT PRIMARY KEY,
			vtype         TEXT NOT NULL,
			company       TEXT NOT NULL DEFAULT '',
			original_name TEXT NOT NULL,
			embedding     vector(%d) NOT NULL
		)
	`, ix.table, ix.dims)
	if _, err := ix.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create name index table: %w", err)
	}
	return nil
}

// Upsert writes one tagged name vector, replacing any previous vector for the
// same id.
func (ix *NameIndex) Upsert(ctx context.Context, id, vtype, name, company string, embedding []float32) error {
	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, vtype, company, original_name, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET vtype = EXCLUDED.vtype, company = EXCLUDED.company,
		    original_name = EXCLUDED.original_name, embedding = EXCLUDED.embedding
	`, ix.table)
	if _, err := ix.db.ExecContext(ctx, stmt, id, vtype, company, name, pgvector.NewVector(embedding)); err != nil {
		return fmt.Errorf("failed to upsert name vector %q: %w", id, err)
	}
	return nil
}

// Nearest returns the topK closest vectors by cosine similarity, optionally
// restricted by type and company tags. An empty result is not an error.
func (ix *NameIndex) Nearest(ctx context.Context, embedding []float32, topK int, vtype, company string) ([]NameMatch, error) {
	conds := "TRUE"
	args := []any{pgvector.NewVector(embedding)}
	idx := 2
	if vtype != "" {
		conds += fmt.Sprintf(" AND vtype = $%d", idx)
		args = append(args, vtype)
		idx++
	}
	if company != "" {
		conds += fmt.Sprintf(" AND company = $%d", idx)
		args = append(args, company)
		idx++
	}
	query := fmt.Sprintf(`
		SELECT original_name, vtype, company, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $%d
	`, ix.table, conds, idx)
	args = append(args, topK)

	var matches []NameMatch
	if err := ix.db.SelectContext(ctx, &matches, query, args...); err != nil {
		return nil, fmt.Errorf("nearest-neighbor query failed: %w", err)
	}
	return matches, nil
}
