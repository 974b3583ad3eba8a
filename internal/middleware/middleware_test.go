package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/metrics-test/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/metrics-test/{id}", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics-test/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.InDelta(t, before+2, testutil.ToFloat64(counter), 0.001)
	assert.InDelta(t, 0, testutil.ToFloat64(HTTPRequestsInFlight), 0.001)
}

func TestRequestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(logger))
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Empty(t, buf.String(), "2xx logs at debug")

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "path=/boom")
	assert.Contains(t, out, "status=502")
	assert.Contains(t, out, "request_id=")
}
