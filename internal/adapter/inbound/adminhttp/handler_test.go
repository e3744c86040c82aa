package adminhttp_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appgauge/appgauge/internal/adapter/inbound/adminhttp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClearer struct {
	cleared int
	entries int
}

func (f *fakeClearer) ClearCache() int {
	f.cleared++
	return f.entries
}

func newMux(clearer adminhttp.CacheClearer, check func(*http.Request) ([]string, error)) *http.ServeMux {
	mux := http.NewServeMux()
	adminhttp.NewHandlers(clearer, check, testLogger()).RegisterAdminRoutes(mux)
	return mux
}

func TestHealthz(t *testing.T) {
	mux := newMux(&fakeClearer{}, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCacheClear(t *testing.T) {
	clearer := &fakeClearer{entries: 4}
	mux := newMux(clearer, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/cache/clear", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, clearer.cleared)

	var body struct {
		Evicted int `json:"evicted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Evicted)
}

func TestContractCheck_Disabled(t *testing.T) {
	mux := newMux(&fakeClearer{}, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/contract-check", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestContractCheck_ReportsDrift(t *testing.T) {
	check := func(r *http.Request) ([]string, error) {
		return []string{"/v1/shadow-it"}, nil
	}
	mux := newMux(&fakeClearer{}, check)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/contract-check", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		OK      bool     `json:"ok"`
		Missing []string `json:"missing_paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.OK)
	assert.Equal(t, []string{"/v1/shadow-it"}, body.Missing)
}
