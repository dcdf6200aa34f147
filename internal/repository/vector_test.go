package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockIndex(t *testing.T) (*NameIndex, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewNameIndex(sqlx.NewDb(db, "sqlmock"), "phone_names", 768), mock
}

func TestEnsureSchema(t *testing.T) {
	index, mock := newMockIndex(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE EXTENSION IF NOT EXISTS vector`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS phone_names`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, index.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert(t *testing.T) {
	index, mock := newMockIndex(t)

	mock.ExpectExec(`INSERT INTO phone_names`).
		WithArgs("mod_0", VectorTypeModel, "apple", "iPhone 15", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := index.Upsert(context.Background(), "mod_0", VectorTypeModel, "iPhone 15", "apple", []float32{0.1, 0.2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNearest_FiltersByTypeAndCompany(t *testing.T) {
	index, mock := newMockIndex(t)

	mock.ExpectQuery(`vtype = \$2 AND company = \$3`).
		WithArgs(sqlmock.AnyArg(), VectorTypeModel, "apple", 1).
		WillReturnRows(sqlmock.NewRows([]string{"original_name", "vtype", "company", "score"}).
			AddRow("iPhone 15", VectorTypeModel, "apple", 0.91))

	matches, err := index.Nearest(context.Background(), []float32{0.1}, 1, VectorTypeModel, "apple")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "iPhone 15", matches[0].Name)
	assert.InDelta(t, 0.91, matches[0].Score, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNearest_NoTagFilters(t *testing.T) {
	index, mock := newMockIndex(t)

	mock.ExpectQuery(`WHERE TRUE\s+ORDER BY`).
		WithArgs(sqlmock.AnyArg(), 3).
		WillReturnRows(sqlmock.NewRows([]string{"original_name", "vtype", "company", "score"}))

	matches, err := index.Nearest(context.Background(), []float32{0.1}, 3, "", "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}
