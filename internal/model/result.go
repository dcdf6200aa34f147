package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Row is one catalog row as returned by the store. The executed SQL is
// oracle-generated SELECT *, so columns are dynamic; values are scanned into
// a map keyed by column name.
type Row map[string]any

// Str returns the row value for col rendered as a string, or "" when absent.
func (r Row) Str(col string) string {
	v, ok := r[col]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Float returns the row value for col as a float64 where possible.
func (r Row) Float(col string) (float64, bool) {
	switch v := r[col].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// Fingerprint is a canonical encoding of the full row, used to drop exact
// duplicates when merging fan-out results. json.Marshal sorts map keys, so
// equal rows always produce equal fingerprints.
func (r Row) Fingerprint() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(r))
	}
	return string(b)
}

// DedupeRows drops exact-duplicate rows, keeping first occurrences. Order of
// the survivors follows the input.
func DedupeRows(rows []Row) []Row {
	seen := make(map[string]struct{}, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		fp := r.Fingerprint()
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, r)
	}
	return out
}

// DedupeByModel keeps the first row per model identity (case-insensitive).
func DedupeByModel(rows []Row) []Row {
	seen := make(map[string]struct{}, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		key := strings.ToLower(r.Str(ColModel))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Correction kinds.
const (
	CorrectionCompany = "Company"
	CorrectionModel   = "Model"
)

// Correction records a semantic-matcher rewrite of a user mention. Emitted
// only when the matched name differs case-insensitively from the raw text;
// used for transparency, never fed back into matching.
type Correction struct {
	Kind      string `json:"kind"`
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
}

func (c Correction) String() string {
	return fmt.Sprintf("%s: '%s' → '%s'", c.Kind, c.Original, c.Corrected)
}

// Result is the envelope returned for one user turn. It is always populated,
// even on failure; Content then carries the user-facing message.
type Result struct {
	Corrections []Correction `json:"corrections"`
	Task        string       `json:"task,omitempty"`
	SQL         string       `json:"sql,omitempty"`
	Results     []Row        `json:"results,omitempty"`
	Content     string       `json:"content"`
}
