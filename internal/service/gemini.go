package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"core/internal/config"

	"github.com/rs/zerolog"
)

// GeminiClient talks to the Gemini generateContent and embedContent REST
// endpoints. Generation calls are wrapped in a bounded retry policy: at most
// cfg.MaxRetries retries, exponential backoff, 429 responses honoring a
// server-supplied Retry-After. Malformed responses and other HTTP logic
// errors are never retried.
type GeminiClient struct {
	cfg        *config.GeminiConfig
	httpClient *http.Client
	log        zerolog.Logger
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(cfg *config.GeminiConfig, log zerolog.Logger) *GeminiClient {
	return &GeminiClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		log: log.With().Str("component", "gemini").Logger(),
	}
}

// IsEnabled returns whether the client is configured and ready.
func (c *GeminiClient) IsEnabled() bool {
	return c.cfg.Enabled
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type embedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// GenerateText sends one prompt to the given model and returns the first
// candidate's text.
func (c *GeminiClient) GenerateText(ctx context.Context, model, prompt string, cfg GenConfig) (string, error) {
	if !c.cfg.Enabled {
		return "", ErrOracleDisabled
	}

	temp := cfg.Temperature
	req := generateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     &temp,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.APIBase, model, c.cfg.APIKey)

	body, err := c.postWithRetry(ctx, url, req)
	if err != nil {
		return "", err
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &MalformedError{Reason: fmt.Sprintf("unparsable response body: %v", err)}
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &MalformedError{Reason: "response has no candidates"}
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// Embed returns the embedding vector for text. No retry policy: the matcher
// treats any failure as "no correction possible".
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.cfg.Enabled {
		return nil, ErrOracleDisabled
	}

	modelPath := "models/" + c.cfg.EmbeddingModel
	req := embedRequest{
		Model:   modelPath,
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}
	url := fmt.Sprintf("%s/%s:embedContent?key=%s", c.cfg.APIBase, modelPath, c.cfg.APIKey)

	body, err := c.post(ctx, url, req)
	if err != nil {
		return nil, err
	}

	var result embedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &MalformedError{Reason: fmt.Sprintf("unparsable embedding response: %v", err)}
	}
	if len(result.Embedding.Values) == 0 {
		return nil, &MalformedError{Reason: "embedding response has no values"}
	}
	return result.Embedding.Values, nil
}

// postWithRetry issues the request under the bounded retry policy.
func (c *GeminiClient) postWithRetry(ctx context.Context, url string, payload any) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		body, err := c.post(ctx, url, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !retryable(err) || attempt == c.cfg.MaxRetries {
			break
		}

		delay := c.backoffDelay(err, attempt)
		c.log.Warn().Err(err).Dur("delay", delay).Int("attempt", attempt+1).Msg("retrying oracle call")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &TransportError{Err: ctx.Err()}
		}
	}
	return nil, lastErr
}

// backoffDelay picks the wait before the next attempt: the server-supplied
// Retry-After for rate limits, exponential backoff otherwise.
func (c *GeminiClient) backoffDelay(err error, attempt int) time.Duration {
	if rl, ok := err.(*RateLimitError); ok && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	delay := c.cfg.RetryDelay
	for i := 0; i < attempt; i++ {
		delay *= c.cfg.BackoffFactor
	}
	return time.Duration(delay * float64(time.Second))
}

// post issues one HTTP round-trip and classifies its failure modes.
func (c *GeminiClient) post(ctx context.Context, url string, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		return nil, &APIError{Status: resp.StatusCode, Body: truncate(string(body), 200)}
	}
}

func parseRetryAfter(h string) time.Duration {
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
