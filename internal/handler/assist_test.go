package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"core/internal/cache"
	"core/internal/model"
	"core/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProcessor struct {
	result   *model.Result
	statuses []string
	calls    int
}

func (f *fakeProcessor) Process(ctx context.Context, userQuery string, filters *model.FilterSet, onStatus service.StatusFunc) *model.Result {
	f.calls++
	for _, s := range f.statuses {
		if onStatus != nil {
			onStatus(s)
		}
	}
	return f.result
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
	done    chan struct{}
}

func (r *recordingLogger) LogQuery(ctx context.Context, id, query, task string, corrections, results int, tookMs int64) error {
	r.mu.Lock()
	r.entries = append(r.entries, query)
	r.mu.Unlock()
	close(r.done)
	return nil
}

func newAskRouter(h *AssistHandler) *gin.Engine {
	r := gin.New()
	r.POST("/api/v1/ask", h.Ask)
	r.POST("/api/v1/ask/stream", h.AskStream)
	return r
}

func doAsk(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAsk(t *testing.T) {
	processor := &fakeProcessor{result: &model.Result{Task: "query", Content: "Here you go."}}
	h := NewAssistHandler(processor, nil, 0, nil, zerolog.Nop())
	r := newAskRouter(h)

	w := doAsk(t, r, "/api/v1/ask", `{"query": "best camera phone"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var got model.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Here you go.", got.Content)
}

func TestAsk_MissingQueryRejected(t *testing.T) {
	h := NewAssistHandler(&fakeProcessor{result: &model.Result{}}, nil, 0, nil, zerolog.Nop())
	r := newAskRouter(h)

	w := doAsk(t, r, "/api/v1/ask", `{"filters": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAsk_CacheHitSkipsPipeline(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCache, err := cache.NewRedisClient(cache.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)

	processor := &fakeProcessor{result: &model.Result{Content: "fresh"}}
	h := NewAssistHandler(processor, redisCache, time.Minute, nil, zerolog.Nop())
	r := newAskRouter(h)

	body := `{"query": "best camera phone"}`
	first := doAsk(t, r, "/api/v1/ask", body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 1, processor.calls)

	second := doAsk(t, r, "/api/v1/ask", body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, processor.calls, "second request must be served from cache")
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestAsk_DifferentFiltersMissCache(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCache, err := cache.NewRedisClient(cache.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)

	processor := &fakeProcessor{result: &model.Result{Content: "x"}}
	h := NewAssistHandler(processor, redisCache, time.Minute, nil, zerolog.Nop())
	r := newAskRouter(h)

	doAsk(t, r, "/api/v1/ask", `{"query": "phones", "filters": {"price_max": 50000}}`)
	doAsk(t, r, "/api/v1/ask", `{"query": "phones", "filters": {"price_max": 90000}}`)

	assert.Equal(t, 2, processor.calls)
}

func TestAsk_RecordsQueryLog(t *testing.T) {
	logger := &recordingLogger{done: make(chan struct{})}
	h := NewAssistHandler(&fakeProcessor{result: &model.Result{Task: "query"}}, nil, 0, logger, zerolog.Nop())
	r := newAskRouter(h)

	doAsk(t, r, "/api/v1/ask", `{"query": "log me"}`)

	select {
	case <-logger.done:
	case <-time.After(2 * time.Second):
		t.Fatal("query log was never written")
	}
	logger.mu.Lock()
	defer logger.mu.Unlock()
	assert.Equal(t, []string{"log me"}, logger.entries)
}

func TestAskStream(t *testing.T) {
	processor := &fakeProcessor{
		result:   &model.Result{Content: "streamed answer"},
		statuses: []string{"🔍 Analyzing your question..."},
	}
	h := NewAssistHandler(processor, nil, 0, nil, zerolog.Nop())
	r := newAskRouter(h)

	w := doAsk(t, r, "/api/v1/ask/stream", `{"query": "best phone"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	body := w.Body.String()
	var events []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
	}
	assert.Equal(t, []string{"start", "status", "result", "done"}, events)
	assert.Contains(t, body, "streamed answer")
}
