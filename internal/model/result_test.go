package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeRows(t *testing.T) {
	rows := []Row{
		{ColModel: "iPhone 15", ColPrice: float64(79900)},
		{ColModel: "Galaxy S24", ColPrice: float64(74999)},
		{ColModel: "iPhone 15", ColPrice: float64(79900)},
		{ColModel: "iPhone 15", ColPrice: float64(69900)}, // different price, kept
	}

	got := DedupeRows(rows)

	require.Len(t, got, 3)
	assert.Equal(t, "iPhone 15", got[0].Str(ColModel))
	assert.Equal(t, "Galaxy S24", got[1].Str(ColModel))
	equal, _ := got[2].Float(ColPrice)
	assert.Equal(t, float64(69900), equal)
}

func TestDedupeByModel(t *testing.T) {
	rows := []Row{
		{ColModel: "iPhone 15", ColPrice: float64(79900)},
		{ColModel: "IPHONE 15", ColPrice: float64(69900)}, // same model, first wins
		{ColModel: "Galaxy S24"},
	}

	got := DedupeByModel(rows)

	require.Len(t, got, 2)
	price, ok := got[0].Float(ColPrice)
	require.True(t, ok)
	assert.Equal(t, float64(79900), price)
}

func TestRowStr(t *testing.T) {
	row := Row{ColCompany: "Apple", ColRAM: float64(8)}

	assert.Equal(t, "Apple", row.Str(ColCompany))
	assert.Equal(t, "8", row.Str(ColRAM))
	assert.Equal(t, "", row.Str("missing"))
}

func TestCorrectionString(t *testing.T) {
	c := Correction{Kind: CorrectionCompany, Original: "aple", Corrected: "Apple"}
	assert.Equal(t, "Company: 'aple' → 'Apple'", c.String())
}
