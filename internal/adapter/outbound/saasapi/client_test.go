package saasapi_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appgauge/appgauge/internal/adapter/outbound/saasapi"
	"github.com/appgauge/appgauge/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_ListApplications_DecodesEnvelopeAndSendsBearer(t *testing.T) {
	assert := assert.New(t)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal("/v1/applications", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"applications":[{"id":"a1b2","name":"Figma","status":"active","totalLicenses":100,"usedLicenses":60}]}`))
	}))
	defer srv.Close()

	c := saasapi.New(srv.URL, "secret-token", srv.Client(), testLogger())
	apps, err := c.ListApplications(context.Background())

	require.NoError(t, err)
	assert.Equal("Bearer secret-token", gotAuth)
	require.Len(t, apps, 1)
	assert.Equal("a1b2", apps[0].ID)
	assert.Equal("Figma", apps[0].Name)
	assert.Equal(100.0, apps[0].TotalLicenses)
}

func TestClient_GetApplication_404MapsToNotFound(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such application", http.StatusNotFound)
	}))
	defer srv.Close()

	c := saasapi.New(srv.URL, "k", srv.Client(), testLogger())
	_, err := c.GetApplication(context.Background(), "deadbeef")

	require.Error(t, err)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal("application", nf.Resource)
	assert.Equal("deadbeef", nf.ID)
	assert.Equal(domain.CodeNotFound, domain.ErrorCode(err))
}

func TestClient_401MapsToUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := saasapi.New(srv.URL, "k", srv.Client(), testLogger())
	_, err := c.ListContracts(context.Background())

	require.Error(t, err)
	var ua *domain.UnauthorizedError
	require.ErrorAs(t, err, &ua)
	assert.Equal(t, "bad token", ua.Reason)
}

func TestClient_429CarriesDecodedResetTimestamp(t *testing.T) {
	assert := assert.New(t)
	reset := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "100")
		w.Header().Set("X-RateLimit-Reset", "1748781000") // 2025-06-01T12:30:00Z
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := saasapi.New(srv.URL, "k", srv.Client(), testLogger())
	_, err := c.ListShadowIT(context.Background())

	require.Error(t, err)
	var rl *domain.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(100, rl.Limit)
	assert.True(rl.ResetAt.Equal(reset), "want %s, got %s", reset, rl.ResetAt)
	assert.Equal(domain.CodeRateLimited, domain.ErrorCode(err))
}

func TestClient_ServerErrorMapsToUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := saasapi.New(srv.URL, "k", srv.Client(), testLogger())
	_, err := c.ListUsers(context.Background())

	require.Error(t, err)
	var ue *domain.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusInternalServerError, ue.Status)
}

func TestClient_UsageAndAlertsQueryParams(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/applications/abc123/usage":
			assert.Equal("last90days", r.URL.Query().Get("period"))
			_, _ = w.Write([]byte(`{"usage":{"applicationId":"abc123","activeUsers":12,"activePercent":40,"totalUsers":30,"period":"last90days"}}`))
		case "/v1/alerts/renewals":
			assert.Equal("30", r.URL.Query().Get("daysAhead"))
			_, _ = w.Write([]byte(`{"alerts":[]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := saasapi.New(srv.URL, "k", srv.Client(), testLogger())

	usage, err := c.GetApplicationUsage(context.Background(), "abc123", "last90days")
	require.NoError(t, err)
	assert.Equal(40.0, usage.ActivePercent)

	alerts, err := c.ListRenewalAlerts(context.Background(), 30)
	require.NoError(t, err)
	assert.Empty(alerts)
}
