package model

import (
	"fmt"
	"strings"
)

// AskRequest is a natural-language question plus the sidebar filter state.
type AskRequest struct {
	Query   string     `json:"query" binding:"required"`
	Filters *FilterSet `json:"filters,omitempty"`
}

// FilterSet carries the externally supplied sidebar filters. Nil fields mean
// "no constraint on this dimension".
type FilterSet struct {
	Company    *string  `json:"company,omitempty"`
	PriceMin   *float64 `json:"price_min,omitempty"`
	PriceMax   *float64 `json:"price_max,omitempty"`
	CameraMin  *float64 `json:"camera_min,omitempty"`
	CameraMax  *float64 `json:"camera_max,omitempty"`
	BatteryMin *float64 `json:"battery_min,omitempty"`
	BatteryMax *float64 `json:"battery_max,omitempty"`
}

// Constraints translates the filter set into constraint form, in a stable
// order: company first, then price, camera, battery bounds.
func (f *FilterSet) Constraints() []Constraint {
	if f == nil {
		return nil
	}
	var out []Constraint
	if f.Company != nil && *f.Company != "" {
		out = append(out, Constraint{Column: ColCompany, Operator: OpEq, Value: strings.ToLower(*f.Company)})
	}
	ranges := []struct {
		col      string
		min, max *float64
	}{
		{ColPrice, f.PriceMin, f.PriceMax},
		{ColBackCamera, f.CameraMin, f.CameraMax},
		{ColBattery, f.BatteryMin, f.BatteryMax},
	}
	for _, r := range ranges {
		if r.min != nil {
			out = append(out, Constraint{Column: r.col, Operator: OpGTE, Value: *r.min})
		}
		if r.max != nil {
			out = append(out, Constraint{Column: r.col, Operator: OpLTE, Value: *r.max})
		}
	}
	return out
}

// CacheKey builds a canonical key for the optional response cache: lowered
// query text plus the filter values in fixed order.
func (f *FilterSet) CacheKey(query string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(query)))
	if f == nil {
		return b.String()
	}
	if f.Company != nil {
		fmt.Fprintf(&b, "|c=%s", strings.ToLower(*f.Company))
	}
	for _, v := range []*float64{f.PriceMin, f.PriceMax, f.CameraMin, f.CameraMax, f.BatteryMin, f.BatteryMax} {
		if v != nil {
			fmt.Fprintf(&b, "|%g", *v)
		} else {
			b.WriteString("|-")
		}
	}
	return b.String()
}

// CompareRequest selects phones by their "Company - Model" display strings.
type CompareRequest struct {
	Selections []string `json:"selections" binding:"required"`
}

// FilterMeta is the sidebar metadata: known companies and attribute ranges.
type FilterMeta struct {
	Companies    []string `json:"companies"`
	PriceRange   [2]int   `json:"price_range"`
	CameraRange  [2]int   `json:"camera_range"`
	BatteryRange [2]int   `json:"battery_range"`
}
