// Package saasapi is the HTTP client for the upstream SaaS-management API.
// It is the only place that speaks the wire protocol: envelope decoding and
// the mapping from HTTP status codes into the typed error taxonomy both
// happen here, so everything above it deals in domain values and typed
// errors only.
package saasapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/appgauge/appgauge/internal/domain"
)

// Client calls the upstream REST API. All requests carry the configured
// bearer token; the per-request timeout on the injected http.Client is the
// only time bound applied.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// New creates a Client. baseURL is the upstream origin without the /v1
// prefix (e.g. "https://api.example.com").
func New(baseURL, apiKey string, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		logger:  logger.With("component", "saasapi_client"),
	}
}

// get performs a GET against path, decodes the single-field envelope into
// out, and maps failures into the typed taxonomy. resource and id feed the
// NotFound mapping for 404s.
func (c *Client) get(ctx context.Context, path string, query url.Values, resource, id string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	log := c.logger.With(slog.String("url", u))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &domain.UpstreamError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error("Upstream request failed", slog.Any("error", err))
		return &domain.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.UpstreamError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("Upstream returned non-success status", slog.Int("status_code", resp.StatusCode))
		return c.statusError(resp, resource, id, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &domain.UpstreamError{Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// statusError translates a non-2xx response into the taxonomy. Failed
// responses are never cached by callers.
func (c *Client) statusError(resp *http.Response, resource, id string, body []byte) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return &domain.NotFoundError{Resource: resource, ID: id}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &domain.UnauthorizedError{Reason: strings.TrimSpace(string(body))}
	case http.StatusTooManyRequests:
		return &domain.RateLimitError{
			Limit:   headerInt(resp.Header, "X-RateLimit-Limit"),
			ResetAt: rateLimitReset(resp.Header),
		}
	default:
		return &domain.UpstreamError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body))),
		}
	}
}

func headerInt(h http.Header, key string) int {
	n, err := strconv.Atoi(h.Get(key))
	if err != nil {
		return 0
	}
	return n
}

// rateLimitReset decodes the reset hint. X-RateLimit-Reset is a Unix
// timestamp; Retry-After is a delay in seconds. Returns zero time when
// neither is present or parseable.
func rateLimitReset(h http.Header) time.Time {
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(sec, 0).UTC()
		}
	}
	if v := h.Get("Retry-After"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			return time.Now().Add(time.Duration(sec) * time.Second).UTC()
		}
	}
	return time.Time{}
}

// ListApplications fetches the full application inventory.
func (c *Client) ListApplications(ctx context.Context) ([]domain.Application, error) {
	var env struct {
		Applications []domain.Application `json:"applications"`
	}
	if err := c.get(ctx, "/v1/applications", nil, "applications", "", &env); err != nil {
		return nil, err
	}
	return env.Applications, nil
}

// GetApplication fetches one application by canonical ID.
func (c *Client) GetApplication(ctx context.Context, id string) (*domain.Application, error) {
	var env struct {
		Application domain.Application `json:"application"`
	}
	if err := c.get(ctx, "/v1/applications/"+url.PathEscape(id), nil, "application", id, &env); err != nil {
		return nil, err
	}
	return &env.Application, nil
}

// GetApplicationUsage fetches the usage snapshot for one application over
// the given period.
func (c *Client) GetApplicationUsage(ctx context.Context, id, period string) (*domain.ApplicationUsage, error) {
	q := url.Values{"period": {period}}
	var env struct {
		Usage domain.ApplicationUsage `json:"usage"`
	}
	if err := c.get(ctx, "/v1/applications/"+url.PathEscape(id)+"/usage", q, "application usage", id, &env); err != nil {
		return nil, err
	}
	return &env.Usage, nil
}

// ListContracts fetches every contract in the organization.
func (c *Client) ListContracts(ctx context.Context) ([]domain.Contract, error) {
	var env struct {
		Contracts []domain.Contract `json:"contracts"`
	}
	if err := c.get(ctx, "/v1/contracts", nil, "contracts", "", &env); err != nil {
		return nil, err
	}
	return env.Contracts, nil
}

// ListApplicationContracts fetches the contracts attached to one application.
func (c *Client) ListApplicationContracts(ctx context.Context, id string) ([]domain.Contract, error) {
	var env struct {
		Contracts []domain.Contract `json:"contracts"`
	}
	if err := c.get(ctx, "/v1/applications/"+url.PathEscape(id)+"/contracts", nil, "application contracts", id, &env); err != nil {
		return nil, err
	}
	return env.Contracts, nil
}

// ListApplicationLicenses fetches the seat assignments for one application.
func (c *Client) ListApplicationLicenses(ctx context.Context, id string) ([]domain.License, error) {
	var env struct {
		Licenses []domain.License `json:"licenses"`
	}
	if err := c.get(ctx, "/v1/applications/"+url.PathEscape(id)+"/licenses", nil, "application licenses", id, &env); err != nil {
		return nil, err
	}
	return env.Licenses, nil
}

// ListUsers fetches the organization directory.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var env struct {
		Users []domain.User `json:"users"`
	}
	if err := c.get(ctx, "/v1/users", nil, "users", "", &env); err != nil {
		return nil, err
	}
	return env.Users, nil
}

// ListShadowIT fetches discovered applications without procurement visibility.
func (c *Client) ListShadowIT(ctx context.Context) ([]domain.ShadowITApp, error) {
	var env struct {
		ShadowIT []domain.ShadowITApp `json:"shadowIT"`
	}
	if err := c.get(ctx, "/v1/shadow-it", nil, "shadow IT", "", &env); err != nil {
		return nil, err
	}
	return env.ShadowIT, nil
}

// GetSpendAnalytics fetches aggregated spend for the given period.
func (c *Client) GetSpendAnalytics(ctx context.Context, period string) (*domain.SpendAnalytics, error) {
	q := url.Values{"period": {period}}
	var env struct {
		Analytics domain.SpendAnalytics `json:"analytics"`
	}
	if err := c.get(ctx, "/v1/analytics/spend", q, "spend analytics", "", &env); err != nil {
		return nil, err
	}
	return &env.Analytics, nil
}

// ListLicenseRecommendations fetches upstream right-sizing suggestions.
func (c *Client) ListLicenseRecommendations(ctx context.Context) ([]domain.LicenseRecommendation, error) {
	var env struct {
		Recommendations []domain.LicenseRecommendation `json:"recommendations"`
	}
	if err := c.get(ctx, "/v1/recommendations/licenses", nil, "license recommendations", "", &env); err != nil {
		return nil, err
	}
	return env.Recommendations, nil
}

// ListRenewalAlerts fetches contracts renewing within daysAhead days.
func (c *Client) ListRenewalAlerts(ctx context.Context, daysAhead int) ([]domain.RenewalAlert, error) {
	q := url.Values{"daysAhead": {strconv.Itoa(daysAhead)}}
	var env struct {
		Alerts []domain.RenewalAlert `json:"alerts"`
	}
	if err := c.get(ctx, "/v1/alerts/renewals", q, "renewal alerts", "", &env); err != nil {
		return nil, err
	}
	return env.Alerts, nil
}
