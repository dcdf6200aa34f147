package service

import (
	"context"
	"errors"
	"testing"

	"core/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSQLCase(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "Company equality",
			query: `SELECT * FROM phones WHERE "Company Name" = 'apple'`,
			want:  `SELECT * FROM phones WHERE LOWER("Company Name") = LOWER('apple')`,
		},
		{
			name:  "Model LIKE",
			query: `SELECT * FROM phones WHERE "Model Name" LIKE '%iphone%'`,
			want:  `SELECT * FROM phones WHERE LOWER("Model Name") LIKE LOWER('%iphone%')`,
		},
		{
			name:  "Processor with loose spacing",
			query: `SELECT * FROM phones WHERE "Processor"='snapdragon 8 gen 3'`,
			want:  `SELECT * FROM phones WHERE LOWER("Processor") = LOWER('snapdragon 8 gen 3')`,
		},
		{
			name:  "Numeric columns untouched",
			query: `SELECT * FROM phones WHERE "Launched Price (INR)" <= 50000`,
			want:  `SELECT * FROM phones WHERE "Launched Price (INR)" <= 50000`,
		},
		{
			name:  "Already lowered comparison untouched",
			query: `SELECT * FROM phones WHERE LOWER("Company Name") = LOWER('apple')`,
			want:  `SELECT * FROM phones WHERE LOWER("Company Name") = LOWER('apple')`,
		},
		{
			name:  "Multiple comparisons in one query",
			query: `SELECT * FROM phones WHERE "Company Name" = 'apple' OR "Company Name" = 'samsung'`,
			want:  `SELECT * FROM phones WHERE LOWER("Company Name") = LOWER('apple') OR LOWER("Company Name") = LOWER('samsung')`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSQLCase(tt.query))
		})
	}
}

func TestStripSQLFences(t *testing.T) {
	assert.Equal(t, `SELECT * FROM phones`, stripSQLFences("```sql\nSELECT * FROM phones\n```"))
	assert.Equal(t, `SELECT * FROM phones`, stripSQLFences("```\nSELECT * FROM phones\n```"))
	assert.Equal(t, `SELECT * FROM phones`, stripSQLFences("  SELECT * FROM phones  "))
}

func TestSQLGenerator_Generate(t *testing.T) {
	oracle := &fakeOracle{response: "```sql\n" + `SELECT * FROM phones WHERE "Company Name" = 'samsung' LIMIT 5` + "\n```"}
	gen := NewSQLGenerator(oracle, "gemini-2.5-pro", "phones", 5)

	intent := &model.Intent{
		Task: model.TaskQuery,
		Constraints: []model.Constraint{
			{Column: model.ColCompany, Operator: model.OpEq, Value: "samsung"},
		},
	}

	query, err := gen.Generate(context.Background(), intent)

	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM phones WHERE LOWER("Company Name") = LOWER('samsung') LIMIT 5`, query)
}

func TestSQLGenerator_NonSelectRejected(t *testing.T) {
	oracle := &fakeOracle{response: `DROP TABLE phones`}
	gen := NewSQLGenerator(oracle, "gemini-2.5-pro", "phones", 5)

	query, err := gen.Generate(context.Background(), &model.Intent{Task: model.TaskQuery})

	assert.ErrorIs(t, err, ErrNotSelect)
	// The text still comes back for the result envelope.
	assert.Equal(t, "DROP TABLE phones", query)
}

func TestSQLGenerator_OracleErrorPropagates(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("boom")}
	gen := NewSQLGenerator(oracle, "gemini-2.5-pro", "phones", 5)

	_, err := gen.Generate(context.Background(), &model.Intent{Task: model.TaskQuery})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotSelect)
}
