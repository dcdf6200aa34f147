package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"core/internal/model"
)

// SQLGenerator synthesizes one executable SELECT from a constraint-complete
// intent via the oracle, then applies a deterministic normalization pass
// forcing case-insensitive comparison on the string columns. The pass is a
// safety net for an oracle that forgets the casing rule despite prompting.
type SQLGenerator struct {
	oracle    Oracle
	modelName string
	table     string
	limit     int
}

// NewSQLGenerator creates a SQL generator targeting the given catalog table.
func NewSQLGenerator(oracle Oracle, modelName, table string, limit int) *SQLGenerator {
	return &SQLGenerator{
		oracle:    oracle,
		modelName: modelName,
		table:     table,
		limit:     limit,
	}
}

// Generate returns the query text for intent. When the oracle's output does
// not begin with SELECT the text is still returned (for the result envelope)
// alongside ErrNotSelect, and must not be executed.
func (g *SQLGenerator) Generate(ctx context.Context, intent *model.Intent) (string, error) {
	payload, err := json.Marshal(struct {
		Task             string                 `json:"task"`
		Constraints      []model.Constraint     `json:"constraints"`
		PriorityFeatures model.PriorityFeatures `json:"priority_features"`
	}{intent.Task, intent.Constraints, intent.PriorityFeatures})
	if err != nil {
		return "", fmt.Errorf("failed to encode intent: %w", err)
	}

	text, err := g.oracle.GenerateText(ctx, g.modelName, sqlPrompt(g.table, model.TableSchema, g.limit, string(payload)), GenConfig{
		Temperature:     0,
		MaxOutputTokens: 5048,
	})
	if err != nil {
		return "", err
	}

	query := NormalizeSQLCase(stripSQLFences(text))
	if !strings.HasPrefix(strings.ToLower(query), "select") {
		return query, ErrNotSelect
	}
	return query, nil
}

var (
	fenceOpenRe  = regexp.MustCompile("(?i)^```(?:sql)?\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```$")
)

func stripSQLFences(text string) string {
	s := strings.TrimSpace(text)
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceCloseRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// caseRules rewrites exact-match and LIKE comparisons on the string columns
// to explicit LOWER() form. Single- and double-quoted literals get separate
// patterns because RE2 has no backreferences. Comparisons already wrapped in
// LOWER() are left alone: the column reference is then followed by ')', not
// by the operator, so no pattern applies.
type caseRule struct {
	re   *regexp.Regexp
	repl string
}

var caseRules = buildCaseRules()

func buildCaseRules() []caseRule {
	var rules []caseRule
	for _, col := range model.StringColumns {
		qc := regexp.QuoteMeta(col)
		rules = append(rules,
			caseRule{
				re:   regexp.MustCompile(`(?i)"` + qc + `"\s*=\s*'([^']*)'`),
				repl: `LOWER("` + col + `") = LOWER('$1')`,
			},
			caseRule{
				re:   regexp.MustCompile(`(?i)"` + qc + `"\s*=\s*"([^"]*)"`),
				repl: `LOWER("` + col + `") = LOWER("$1")`,
			},
			caseRule{
				re:   regexp.MustCompile(`(?i)"` + qc + `"\s+LIKE\s+'([^']*)'`),
				repl: `LOWER("` + col + `") LIKE LOWER('$1')`,
			},
			caseRule{
				re:   regexp.MustCompile(`(?i)"` + qc + `"\s+LIKE\s+"([^"]*)"`),
				repl: `LOWER("` + col + `") LIKE LOWER("$1")`,
			},
		)
	}
	return rules
}

// NormalizeSQLCase forces case-insensitive comparison on the designated
// string columns of an already generated query.
func NormalizeSQLCase(query string) string {
	for _, r := range caseRules {
		query = r.re.ReplaceAllString(query, r.repl)
	}
	return query
}
