package model

import "strings"

// Task classifications emitted by the intent extractor.
const (
	TaskQuery     = "query"
	TaskGeneralQA = "general_qa"
	TaskRefusal   = "refusal"
)

// Comparison operators allowed in constraints.
const (
	OpEq   = "=="
	OpGTE  = ">="
	OpLTE  = "<="
	OpLike = "LIKE"
)

// Constraint is one column/operator/value predicate applied to the catalog
// query. Value is a string for the string columns and a number otherwise.
type Constraint struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Entities holds raw, uncorrected company and model mentions extracted from
// the user query.
type Entities struct {
	Companies []string `json:"companies"`
	Models    []string `json:"models"`
}

// PriorityFeatures carries the ordering preference extracted from the query.
type PriorityFeatures struct {
	OrderBy        []string `json:"order_by,omitempty"`
	OrderDirection string   `json:"order_direction,omitempty"`
}

// Intent is the structured form of a user query. It is created by the intent
// extractor, mutated in place by the orchestrator (filters merged, casing
// normalized, model names snapped) and discarded after SQL generation.
type Intent struct {
	Entities         Entities         `json:"entities"`
	Task             string           `json:"task"`
	Constraints      []Constraint     `json:"constraints"`
	PriorityFeatures PriorityFeatures `json:"priority_features"`
	RefusalReason    string           `json:"Refusal_Reason,omitempty"`

	// Err marks a failed extraction. When set the orchestrator must
	// short-circuit instead of generating SQL from a fallback intent.
	Err string `json:"-"`
}

// FallbackIntent returns the deterministic empty intent used when the oracle
// call or its response parsing fails.
func FallbackIntent(reason string) *Intent {
	return &Intent{
		Entities:    Entities{Companies: []string{}, Models: []string{}},
		Task:        TaskQuery,
		Constraints: []Constraint{},
		Err:         reason,
	}
}

// MergeConstraint folds c into the constraint list. Constraints sharing
// (column, operator) replace the existing entry, last write wins — except
// company equality, which accumulates so that several companies combine with
// OR at SQL generation time. Accumulation is by distinct value, so merging
// the same filter set twice is a no-op.
func (in *Intent) MergeConstraint(c Constraint) {
	if c.Column == ColCompany && c.Operator == OpEq {
		for _, ex := range in.Constraints {
			if ex.Column == ColCompany && ex.Operator == OpEq && valueEqualFold(ex.Value, c.Value) {
				return
			}
		}
		in.Constraints = append(in.Constraints, c)
		return
	}
	for i, ex := range in.Constraints {
		if ex.Column == c.Column && ex.Operator == c.Operator {
			in.Constraints[i] = c
			return
		}
	}
	in.Constraints = append(in.Constraints, c)
}

// Normalize lowercases string-column constraint values so comparisons against
// the store are case-insensitive end to end.
func (in *Intent) Normalize() {
	for i, c := range in.Constraints {
		if !IsStringColumn(c.Column) {
			continue
		}
		if s, ok := c.Value.(string); ok {
			in.Constraints[i].Value = strings.ToLower(s)
		}
	}
}

// CompanyConstraints returns the company equality constraints, in insertion
// order.
func (in *Intent) CompanyConstraints() []Constraint {
	var out []Constraint
	for _, c := range in.Constraints {
		if c.Column == ColCompany && c.Operator == OpEq {
			out = append(out, c)
		}
	}
	return out
}

func valueEqualFold(a, b any) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.EqualFold(as, bs)
	}
	return a == b
}
