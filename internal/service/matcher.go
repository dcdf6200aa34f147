package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"core/internal/repository"

	"github.com/rs/zerolog"
)

// NearestIndex is the nearest-neighbor service boundary consumed by the
// matcher. Satisfied by repository.NameIndex.
type NearestIndex interface {
	Nearest(ctx context.Context, embedding []float32, topK int, vtype, company string) ([]repository.NameMatch, error)
}

// Matcher resolves free-text name mentions to canonical catalog names via
// embedding similarity. It soft-fails: embedding errors, index errors and
// below-threshold results all come back as "no match", never as an error.
type Matcher struct {
	embedder  Embedder
	index     NearestIndex
	threshold float64
	log       zerolog.Logger
}

// NewMatcher creates a matcher with the given similarity threshold.
func NewMatcher(embedder Embedder, index NearestIndex, threshold float64, log zerolog.Logger) *Matcher {
	return &Matcher{
		embedder:  embedder,
		index:     index,
		threshold: threshold,
		log:       log.With().Str("component", "matcher").Logger(),
	}
}

// FindSimilar returns the closest canonical name for text, restricted to
// vectors tagged vtype and, for model lookups with a resolved company
// context, to that company. The second return is false when nothing scored
// above the threshold.
func (m *Matcher) FindSimilar(ctx context.Context, text, vtype, companyFilter string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	embedding, err := m.embedder.Embed(ctx, text)
	if err != nil {
		m.log.Debug().Err(err).Str("text", text).Msg("embedding unavailable, no correction possible")
		return "", false
	}

	// Company context narrows model lookups only.
	company := ""
	if vtype == repository.VectorTypeModel && companyFilter != "" {
		company = strings.ToLower(companyFilter)
	}

	matches, err := m.index.Nearest(ctx, embedding, 1, vtype, company)
	if err != nil {
		m.log.Warn().Err(err).Str("text", text).Msg("name index lookup failed")
		return "", false
	}
	if len(matches) == 0 || matches[0].Score <= m.threshold {
		return "", false
	}
	return matches[0].Name, true
}

// NameUpserter is the write side of the name index, used by the build job.
type NameUpserter interface {
	Upsert(ctx context.Context, id, vtype, name, company string, embedding []float32) error
}

// IndexCatalog is the slice of the catalog store the build job reads.
type IndexCatalog interface {
	Companies(ctx context.Context) ([]string, error)
	ModelNames(ctx context.Context) ([]repository.ModelName, error)
}

// IndexBuilder embeds every distinct company and (company, model) pair and
// upserts tagged vectors. Administrative batch job, out of the query hot
// path; callers run it once after ingestion or periodically.
type IndexBuilder struct {
	catalog  IndexCatalog
	embedder Embedder
	index    NameUpserter
	delay    time.Duration
	log      zerolog.Logger
}

// NewIndexBuilder creates a builder that pauses delay between embedding
// calls to stay under the embedding service's rate limits.
func NewIndexBuilder(catalog IndexCatalog, embedder Embedder, index NameUpserter, delay time.Duration, log zerolog.Logger) *IndexBuilder {
	return &IndexBuilder{
		catalog:  catalog,
		embedder: embedder,
		index:    index,
		delay:    delay,
		log:      log.With().Str("component", "index-builder").Logger(),
	}
}

// Build runs the batch job and returns the number of vectors written.
func (b *IndexBuilder) Build(ctx context.Context) (int, error) {
	companies, err := b.catalog.Companies(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read companies: %w", err)
	}
	models, err := b.catalog.ModelNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read model names: %w", err)
	}

	b.log.Info().Int("companies", len(companies)).Int("models", len(models)).Msg("building name index")

	written := 0
	for i, company := range companies {
		emb, err := b.embedder.Embed(ctx, company)
		if err != nil {
			b.log.Warn().Err(err).Str("company", company).Msg("skipping company, embedding failed")
			continue
		}
		id := fmt.Sprintf("comp_%d", i)
		if err := b.index.Upsert(ctx, id, repository.VectorTypeCompany, company, "", emb); err != nil {
			return written, err
		}
		written++
		if err := b.pause(ctx); err != nil {
			return written, err
		}
	}

	for i, mn := range models {
		emb, err := b.embedder.Embed(ctx, mn.Model)
		if err != nil {
			b.log.Warn().Err(err).Str("model", mn.Model).Msg("skipping model, embedding failed")
			continue
		}
		id := fmt.Sprintf("mod_%d", i)
		if err := b.index.Upsert(ctx, id, repository.VectorTypeModel, mn.Model, strings.ToLower(mn.Company), emb); err != nil {
			return written, err
		}
		written++
		if err := b.pause(ctx); err != nil {
			return written, err
		}
	}

	b.log.Info().Int("written", written).Msg("name index build complete")
	return written, nil
}

func (b *IndexBuilder) pause(ctx context.Context) error {
	if b.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(b.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
