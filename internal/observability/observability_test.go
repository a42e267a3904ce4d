package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextDefaultsToNop(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
}

func TestRequestLoggerLogsByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := chi.NewRouter()
	r.Use(InjectLogger(zap.New(core)))
	r.Use(RequestLogger)
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })

	for _, p := range []string{"/ok", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.EqualValues(t, http.StatusNotFound, entries[1].ContextMap()["status"])
}

func TestRecoveryAnswers500(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := InjectLogger(zap.New(core))(Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	ObserveRequest(http.MethodGet, "/*", http.StatusOK, 10*time.Millisecond)
	ObservePageRender("cs", "static")
	ObserveCMSFetch("page", nil, time.Millisecond)
	SetStaticPages(3)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `web_page_renders_total{locale="cs",outcome="static"}`)
	require.Contains(t, body, "web_static_pages 3")
	require.Contains(t, body, "web_cms_fetch_duration_seconds")
}
