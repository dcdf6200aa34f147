package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"core/internal/model"
)

// Summarizer produces the natural-language comparison for a result set and
// the general-QA answers. Marketplace links are generated deterministically
// here, with no oracle involvement, so they are always well-formed.
type Summarizer struct {
	oracle    Oracle
	modelName string
	limit     int
}

// NewSummarizer creates a summarizer that sends at most limit unique phones
// to the oracle.
func NewSummarizer(oracle Oracle, modelName string, limit int) *Summarizer {
	return &Summarizer{
		oracle:    oracle,
		modelName: modelName,
		limit:     limit,
	}
}

// Summarize narrates rows against the original question. Rows are deduped by
// model identity (first occurrence wins) and capped before serialization. A
// failed oracle call returns an error, never malformed prose.
func (s *Summarizer) Summarize(ctx context.Context, userQuery string, rows []model.Row) (string, error) {
	unique := model.DedupeByModel(rows)
	if len(unique) > s.limit {
		unique = unique[:s.limit]
	}

	data, err := json.Marshal(unique)
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}

	summary, err := s.oracle.GenerateText(ctx, s.modelName, summaryPrompt(len(unique), userQuery, len(rows), string(data)), GenConfig{
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}

	return summary + buyLinks(unique), nil
}

// AnswerGeneral answers a tech question with no database access.
func (s *Summarizer) AnswerGeneral(ctx context.Context, userQuery string) (string, error) {
	return s.oracle.GenerateText(ctx, s.modelName, generalQAPrompt(userQuery), GenConfig{
		Temperature: 0.4,
	})
}

// buyLinks renders the marketplace section: one amazon.in and one flipkart
// search link per phone, built by URL-encoding "Company Model".
func buyLinks(rows []model.Row) string {
	var b strings.Builder
	b.WriteString("\n\n---\n\n## 🛒 Ready to Buy?\n\n")

	for _, row := range rows {
		company := row.Str(model.ColCompany)
		phone := row.Str(model.ColModel)
		if phone == "" {
			continue
		}

		search := strings.TrimSpace(company + " " + phone)
		encoded := url.QueryEscape(search)
		amazon := "https://www.amazon.in/s?k=" + encoded
		flipkart := "https://www.flipkart.com/search?q=" + encoded

		fmt.Fprintf(&b, "### %s %s\n", company, phone)
		price, ok := row.Float(model.ColPrice)
		if ok {
			fmt.Fprintf(&b, "**₹%s** | ", formatPrice(price))
		}
		fmt.Fprintf(&b, "[🛒 Amazon](%s) | [🛒 Flipkart](%s)\n\n", amazon, flipkart)
	}

	b.WriteString("*Prices may vary. Links open search results on respective platforms.*\n")
	return b.String()
}

// formatPrice renders a price with thousands separators, no decimals.
func formatPrice(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
