package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"core/internal/cache"
	"core/internal/model"
	"core/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AskProcessor is the pipeline boundary consumed by the assist handler.
type AskProcessor interface {
	Process(ctx context.Context, userQuery string, filters *model.FilterSet, onStatus service.StatusFunc) *model.Result
}

// QueryLogger records completed turns for offline analysis.
type QueryLogger interface {
	LogQuery(ctx context.Context, id, query, task string, corrections, results int, tookMs int64) error
}

// AssistHandler handles the conversational endpoints.
type AssistHandler struct {
	processor AskProcessor
	cache     cache.Client // nil disables caching
	cacheTTL  time.Duration
	queryLog  QueryLogger // nil disables logging
	log       zerolog.Logger
}

// NewAssistHandler creates a new assist handler. cacheClient and queryLog may
// be nil.
func NewAssistHandler(processor AskProcessor, cacheClient cache.Client, cacheTTL time.Duration, queryLog QueryLogger, log zerolog.Logger) *AssistHandler {
	return &AssistHandler{
		processor: processor,
		cache:     cacheClient,
		cacheTTL:  cacheTTL,
		queryLog:  queryLog,
		log:       log.With().Str("component", "assist").Logger(),
	}
}

// Ask handles POST /api/v1/ask
func (h *AssistHandler) Ask(c *gin.Context) {
	var req model.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	key := req.Filters.CacheKey(req.Query)
	if h.cache != nil {
		if body, err := h.cache.Get(c.Request.Context(), key); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			return
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.log.Warn().Err(err).Msg("cache lookup failed")
		}
	}

	start := time.Now()
	result := h.processor.Process(c.Request.Context(), req.Query, req.Filters, nil)
	h.recordTurn(req.Query, result, time.Since(start))

	if h.cache != nil {
		if body, err := json.Marshal(result); err == nil {
			if err := h.cache.Set(c.Request.Context(), key, body, h.cacheTTL); err != nil {
				h.log.Warn().Err(err).Msg("cache store failed")
			}
		}
	}

	c.JSON(http.StatusOK, result)
}

// AskStream handles POST /api/v1/ask/stream - SSE streaming variant
func (h *AssistHandler) AskStream(c *gin.Context) {
	var req model.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Transfer-Encoding", "chunked")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, "start", map[string]any{"query": req.Query})
	flusher.Flush()

	start := time.Now()
	result := h.processor.Process(c.Request.Context(), req.Query, req.Filters, func(msg string) {
		sendSSE(c, "status", map[string]any{"message": msg})
		flusher.Flush()
	})
	h.recordTurn(req.Query, result, time.Since(start))

	sendSSE(c, "result", result)
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// recordTurn writes the turn to the query log off the request path.
func (h *AssistHandler) recordTurn(query string, result *model.Result, took time.Duration) {
	if h.queryLog == nil {
		return
	}
	id := uuid.NewString()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.queryLog.LogQuery(ctx, id, query, result.Task, len(result.Corrections), len(result.Results), took.Milliseconds()); err != nil {
			h.log.Warn().Err(err).Str("id", id).Msg("query log write failed")
		}
	}()
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
