package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/assistant/internal/assistant"
	"github.com/volunteerhub/assistant/internal/catalog"
	"github.com/volunteerhub/assistant/internal/http/handlers"
	"github.com/volunteerhub/assistant/internal/webchat"
	"github.com/volunteerhub/assistant/pkg/logging"
)

type stubRetriever struct{}

func (stubRetriever) Retrieve(context.Context, catalog.Preference) []catalog.Opportunity {
	return []catalog.Opportunity{{ID: "1", Title: "Food Pantry Assistant"}}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	wc := webchat.NewHandler(webchat.Config{
		Retriever:     stubRetriever{},
		Saved:         assistant.NewSavedStore(assistant.NewMemoryKV(), nil),
		Seen:          assistant.NewMemoryKV(),
		Logger:        logging.New("error"),
		AutoOpenDelay: time.Hour,
		FollowUpDelay: time.Hour,
		WidgetJS:      []byte("// widget"),
	})
	t.Cleanup(wc.Shutdown)

	return New(&Config{
		Logger:         logging.New("error"),
		Webchat:        wc,
		Search:         handlers.NewSearchHandler(stubRetriever{}, nil),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	})
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsMounted(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchRoute(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/search?q=food+pantry", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Food Pantry Assistant")
}

func TestWebchatRoutes(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/webchat/widget.js", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/webchat/history?session=none", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimitAppliedToMessages(t *testing.T) {
	wc := webchat.NewHandler(webchat.Config{
		Retriever:     stubRetriever{},
		Saved:         assistant.NewSavedStore(assistant.NewMemoryKV(), nil),
		Seen:          assistant.NewMemoryKV(),
		Logger:        logging.New("error"),
		AutoOpenDelay: time.Hour,
		FollowUpDelay: time.Hour,
	})
	t.Cleanup(wc.Shutdown)

	r := New(&Config{
		Webchat:            wc,
		RateLimitPerSecond: 0.0001,
		RateLimitBurst:     1,
	})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/webchat/message", nil)
		req.Header.Set("X-Real-Ip", "10.0.0.9")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	first := send()
	assert.NotEqual(t, http.StatusTooManyRequests, first)
	assert.Equal(t, http.StatusTooManyRequests, send())
}
