// Package openapi verifies the adapter's assumptions about the upstream
// API surface against the vendor's published OpenAPI document. The vendor
// ships breaking path changes behind minor releases often enough that a
// cheap startup-time drift check pays for itself.
package openapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// requiredPaths are the upstream endpoints the adapter calls. Path
// parameters use the OpenAPI brace convention.
var requiredPaths = []string{
	"/v1/applications",
	"/v1/applications/{id}",
	"/v1/applications/{id}/usage",
	"/v1/applications/{id}/contracts",
	"/v1/applications/{id}/licenses",
	"/v1/contracts",
	"/v1/users",
	"/v1/shadow-it",
	"/v1/analytics/spend",
	"/v1/recommendations/licenses",
	"/v1/alerts/renewals",
}

// Checker downloads the upstream OpenAPI document and reports endpoints
// the adapter depends on that are missing from it.
type Checker struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewChecker creates a Checker.
func NewChecker(client *http.Client, logger *slog.Logger) *Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return &Checker{
		httpClient: client,
		logger:     logger.With("component", "openapi_checker"),
	}
}

// Check fetches the document at docURL and returns the required paths it
// does not declare. An empty slice means no drift. A fetch or parse
// failure is an error; missing paths are data, not an error.
func (c *Checker) Check(ctx context.Context, docURL string) ([]string, error) {
	log := c.logger.With(slog.String("doc_url", docURL))
	log.Info("Checking upstream OpenAPI document for contract drift")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", docURL, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch OpenAPI document from %s: %w", docURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch OpenAPI document from %s: status %s", docURL, resp.Status)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI document body: %w", err)
	}

	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: true}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}

	declared := make(map[string]struct{})
	if doc.Paths != nil {
		for path := range doc.Paths.Map() {
			declared[normalizePath(path)] = struct{}{}
		}
	}

	var missing []string
	for _, want := range requiredPaths {
		if _, ok := declared[normalizePath(want)]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		log.Warn("Upstream OpenAPI document is missing required paths",
			slog.Int("missing_count", len(missing)),
			slog.String("paths", strings.Join(missing, ", ")))
	} else {
		log.Info("All required upstream paths declared")
	}
	return missing, nil
}

// normalizePath erases parameter names so /v1/applications/{appId} and
// /v1/applications/{id} compare equal.
func normalizePath(p string) string {
	segs := strings.Split(strings.TrimRight(p, "/"), "/")
	for i, s := range segs {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			segs[i] = "{}"
		}
	}
	return strings.Join(segs, "/")
}
