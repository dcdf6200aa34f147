package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"core/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_AppendsBuyLinks(t *testing.T) {
	oracle := &fakeOracle{response: "Here is my comparison."}
	s := NewSummarizer(oracle, "gemini-2.0-flash", 4)

	rows := []model.Row{
		{model.ColCompany: "Apple", model.ColModel: "iPhone 15", model.ColPrice: float64(79900)},
	}

	got, err := s.Summarize(context.Background(), "best phone?", rows)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Here is my comparison."))
	assert.Contains(t, got, "## 🛒 Ready to Buy?")
	assert.Contains(t, got, "https://www.amazon.in/s?k=Apple+iPhone+15")
	assert.Contains(t, got, "https://www.flipkart.com/search?q=Apple+iPhone+15")
	assert.Contains(t, got, "₹79,900")
}

func TestSummarize_DedupesAndCaps(t *testing.T) {
	oracle := &fakeOracle{response: "ok"}
	s := NewSummarizer(oracle, "gemini-2.0-flash", 2)

	rows := []model.Row{
		{model.ColModel: "Phone A"},
		{model.ColModel: "phone a"}, // duplicate, case-insensitive
		{model.ColModel: "Phone B"},
		{model.ColModel: "Phone C"}, // over the cap
	}

	got, err := s.Summarize(context.Background(), "compare these", rows)
	require.NoError(t, err)

	require.Len(t, oracle.prompts, 1)
	prompt := oracle.prompts[0]
	assert.Contains(t, prompt, "Phone A")
	assert.Contains(t, prompt, "Phone B")
	assert.NotContains(t, prompt, "Phone C")

	assert.Contains(t, got, "Phone A")
	assert.NotContains(t, got, "Phone C")
}

func TestSummarize_OracleErrorPropagates(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("quota")}
	s := NewSummarizer(oracle, "gemini-2.0-flash", 4)

	_, err := s.Summarize(context.Background(), "q", []model.Row{{model.ColModel: "X"}})
	assert.Error(t, err)
}

func TestBuyLinks_SkipsRowsWithoutModel(t *testing.T) {
	got := buyLinks([]model.Row{{model.ColCompany: "Apple"}})
	assert.NotContains(t, got, "amazon.in")
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "79,900", formatPrice(79900))
	assert.Equal(t, "29,999", formatPrice(29999))
	assert.Equal(t, "999", formatPrice(999))
	assert.Equal(t, "1,000,000", formatPrice(1000000))
}
