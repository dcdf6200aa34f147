package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeConstraint_ReplacesByColumnAndOperator(t *testing.T) {
	in := &Intent{
		Constraints: []Constraint{
			{Column: ColPrice, Operator: OpLTE, Value: float64(80000)},
		},
	}

	in.MergeConstraint(Constraint{Column: ColPrice, Operator: OpLTE, Value: float64(50000)})

	require.Len(t, in.Constraints, 1)
	assert.Equal(t, float64(50000), in.Constraints[0].Value)
}

func TestMergeConstraint_DifferentOperatorsCoexist(t *testing.T) {
	in := &Intent{}

	in.MergeConstraint(Constraint{Column: ColPrice, Operator: OpGTE, Value: float64(20000)})
	in.MergeConstraint(Constraint{Column: ColPrice, Operator: OpLTE, Value: float64(50000)})

	assert.Len(t, in.Constraints, 2)
}

func TestMergeConstraint_CompanyEqualityAccumulates(t *testing.T) {
	in := &Intent{
		Constraints: []Constraint{
			{Column: ColCompany, Operator: OpEq, Value: "apple"},
		},
	}

	in.MergeConstraint(Constraint{Column: ColCompany, Operator: OpEq, Value: "samsung"})

	require.Len(t, in.Constraints, 2)
	companies := in.CompanyConstraints()
	require.Len(t, companies, 2)
	assert.Equal(t, "apple", companies[0].Value)
	assert.Equal(t, "samsung", companies[1].Value)
}

func TestMergeConstraint_CompanyDuplicateIsNoOp(t *testing.T) {
	in := &Intent{
		Constraints: []Constraint{
			{Column: ColCompany, Operator: OpEq, Value: "apple"},
		},
	}

	// Same company twice, differing only in case.
	in.MergeConstraint(Constraint{Column: ColCompany, Operator: OpEq, Value: "Apple"})
	in.MergeConstraint(Constraint{Column: ColCompany, Operator: OpEq, Value: "apple"})

	assert.Len(t, in.Constraints, 1)
}

func TestMergeConstraint_MergingSameFilterSetTwiceIsIdempotent(t *testing.T) {
	company := "Samsung"
	min := float64(20000)
	max := float64(60000)
	filters := &FilterSet{Company: &company, PriceMin: &min, PriceMax: &max}

	in := &Intent{}
	for i := 0; i < 2; i++ {
		for _, fc := range filters.Constraints() {
			in.MergeConstraint(fc)
		}
	}

	assert.Len(t, in.Constraints, 3)
}

func TestNormalize_LowercasesStringColumnsOnly(t *testing.T) {
	in := &Intent{
		Constraints: []Constraint{
			{Column: ColCompany, Operator: OpEq, Value: "Apple"},
			{Column: ColModel, Operator: OpEq, Value: "iPhone 15 Pro"},
			{Column: ColPrice, Operator: OpLTE, Value: float64(90000)},
		},
	}

	in.Normalize()

	assert.Equal(t, "apple", in.Constraints[0].Value)
	assert.Equal(t, "iphone 15 pro", in.Constraints[1].Value)
	assert.Equal(t, float64(90000), in.Constraints[2].Value)
}

func TestFallbackIntent(t *testing.T) {
	in := FallbackIntent("oracle unreachable")

	assert.Equal(t, TaskQuery, in.Task)
	assert.Equal(t, "oracle unreachable", in.Err)
	assert.NotNil(t, in.Entities.Companies)
	assert.NotNil(t, in.Entities.Models)
	assert.Empty(t, in.Constraints)
}

func TestFilterSet_ConstraintsStableOrder(t *testing.T) {
	company := "OnePlus"
	priceMax := float64(45000)
	batteryMin := float64(5000)
	filters := &FilterSet{Company: &company, PriceMax: &priceMax, BatteryMin: &batteryMin}

	got := filters.Constraints()

	require.Len(t, got, 3)
	assert.Equal(t, Constraint{Column: ColCompany, Operator: OpEq, Value: "oneplus"}, got[0])
	assert.Equal(t, Constraint{Column: ColPrice, Operator: OpLTE, Value: priceMax}, got[1])
	assert.Equal(t, Constraint{Column: ColBattery, Operator: OpGTE, Value: batteryMin}, got[2])
}

func TestFilterSet_CacheKey(t *testing.T) {
	company := "Apple"
	max := float64(90000)
	a := &FilterSet{Company: &company, PriceMax: &max}
	b := &FilterSet{Company: &company, PriceMax: &max}

	assert.Equal(t, a.CacheKey("  Best Camera Phone "), b.CacheKey("best camera phone"))

	var nilSet *FilterSet
	assert.NotEqual(t, a.CacheKey("best camera phone"), nilSet.CacheKey("best camera phone"))
	assert.Equal(t, "best camera phone", nilSet.CacheKey("Best Camera Phone"))
}
