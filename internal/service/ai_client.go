package service

import "context"

// GenConfig tunes one oracle generation call.
type GenConfig struct {
	Temperature     float64
	MaxOutputTokens int
}

// Oracle is the language-understanding service boundary: one prompt in, free
// text out. Implementations wrap a remote model behind the bounded retry
// policy.
type Oracle interface {
	GenerateText(ctx context.Context, model, prompt string, cfg GenConfig) (string, error)
}

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Ensure GeminiClient satisfies both boundaries.
var (
	_ Oracle   = (*GeminiClient)(nil)
	_ Embedder = (*GeminiClient)(nil)
)
