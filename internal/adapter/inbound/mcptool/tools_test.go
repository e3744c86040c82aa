package mcptool

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appgauge/appgauge/internal/adapter/outbound/memcache"
	"github.com/appgauge/appgauge/internal/domain"
	"github.com/appgauge/appgauge/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubClient is a hand-rolled UpstreamClient serving canned data.
type stubClient struct {
	apps      []domain.Application
	usage     map[string]*domain.ApplicationUsage
	contracts map[string][]domain.Contract
}

func (s *stubClient) ListApplications(ctx context.Context) ([]domain.Application, error) {
	return s.apps, nil
}

func (s *stubClient) GetApplication(ctx context.Context, id string) (*domain.Application, error) {
	for _, a := range s.apps {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "application", ID: id}
}

func (s *stubClient) GetApplicationUsage(ctx context.Context, id, period string) (*domain.ApplicationUsage, error) {
	if u, ok := s.usage[id]; ok {
		out := *u
		out.Period = period
		return &out, nil
	}
	return nil, &domain.NotFoundError{Resource: "application usage", ID: id}
}

func (s *stubClient) ListContracts(ctx context.Context) ([]domain.Contract, error) {
	var all []domain.Contract
	for _, cs := range s.contracts {
		all = append(all, cs...)
	}
	return all, nil
}

func (s *stubClient) ListApplicationContracts(ctx context.Context, id string) ([]domain.Contract, error) {
	return s.contracts[id], nil
}

func (s *stubClient) ListApplicationLicenses(ctx context.Context, id string) ([]domain.License, error) {
	return nil, nil
}

func (s *stubClient) ListUsers(ctx context.Context) ([]domain.User, error) { return nil, nil }

func (s *stubClient) ListShadowIT(ctx context.Context) ([]domain.ShadowITApp, error) {
	return nil, nil
}

func (s *stubClient) GetSpendAnalytics(ctx context.Context, period string) (*domain.SpendAnalytics, error) {
	return &domain.SpendAnalytics{Period: period}, nil
}

func (s *stubClient) ListLicenseRecommendations(ctx context.Context) ([]domain.LicenseRecommendation, error) {
	return nil, nil
}

func (s *stubClient) ListRenewalAlerts(ctx context.Context, daysAhead int) ([]domain.RenewalAlert, error) {
	return nil, nil
}

func newTestServer(client usecase.UpstreamClient) *Server {
	logger := testLogger()
	gateway := usecase.NewGateway(client, memcache.New(logger), usecase.TTLs{}, logger)
	resolver := usecase.NewResolver(gateway, logger)
	analyzer := usecase.NewAnalyzer(gateway, logger)
	return NewServer(gateway, resolver, analyzer, logger)
}

func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestHandleGetApplication_ResolvesByName(t *testing.T) {
	s := newTestServer(&stubClient{
		apps: []domain.Application{{ID: "a1b2", Name: "Figma", Status: "active"}},
	})

	res, err := s.handleGetApplication(context.Background(), callReq(map[string]any{"application": "figma"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var payload struct {
		Application domain.Application `json:"application"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, "a1b2", payload.Application.ID)
}

func TestHandleGetApplication_NotFoundCarriesMachineCode(t *testing.T) {
	s := newTestServer(&stubClient{})

	res, err := s.handleGetApplication(context.Background(), callReq(map[string]any{"application": "Ghost"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(resultText(t, res), domain.CodeNotFound+":"),
		"error text should start with the stable code, got %q", resultText(t, res))
}

func TestHandleGetApplication_MissingArgRejected(t *testing.T) {
	s := newTestServer(&stubClient{})

	res, err := s.handleGetApplication(context.Background(), callReq(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), domain.CodeInvalidInput)
}

func TestHandleFindUnderutilized_DefaultsAndRanking(t *testing.T) {
	s := newTestServer(&stubClient{
		apps: []domain.Application{{ID: "a1", Name: "Asana", TotalLicenses: 100}},
		usage: map[string]*domain.ApplicationUsage{
			"a1": {ApplicationID: "a1", ActivePercent: 30, ActiveUsers: 20},
		},
		contracts: map[string][]domain.Contract{
			"a1": {{Status: "active", Amount: 1200, PaymentFrequency: "monthly"}},
		},
	})

	// No threshold argument: the default of 50 applies.
	res, err := s.handleFindUnderutilized(context.Background(), callReq(map[string]any{}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var payload struct {
		Underutilized []domain.UnderutilizationResult `json:"underutilized"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	require.Len(t, payload.Underutilized, 1)
	r := payload.Underutilized[0]
	require.NotNil(t, r.PotentialSavings)
	assert.Equal(t, 11520.0, *r.PotentialSavings)
}

func TestHandleGetApplicationUsage_PeriodArgumentForwarded(t *testing.T) {
	s := newTestServer(&stubClient{
		apps:  []domain.Application{{ID: "a1b2", Name: "Figma", Status: "active"}},
		usage: map[string]*domain.ApplicationUsage{"a1b2": {ApplicationID: "a1b2"}},
	})

	res, err := s.handleGetApplicationUsage(context.Background(), callReq(map[string]any{
		"application": "a1b2",
		"period":      "last90days",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var payload struct {
		Usage domain.ApplicationUsage `json:"usage"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, "last90days", payload.Usage.Period)
}

func TestHandleFindUnderutilized_ExplicitThresholdApplies(t *testing.T) {
	s := newTestServer(&stubClient{
		apps: []domain.Application{{ID: "a1", Name: "Asana", TotalLicenses: 100}},
		usage: map[string]*domain.ApplicationUsage{
			"a1": {ApplicationID: "a1", ActivePercent: 30},
		},
	})

	// 30% active sits above an explicit cutoff of 25, so nothing matches.
	res, err := s.handleFindUnderutilized(context.Background(), callReq(map[string]any{"threshold": 25.0}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var payload struct {
		Underutilized []domain.UnderutilizationResult `json:"underutilized"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Empty(t, payload.Underutilized)
}

func TestHandleClearCache_ReportsEvictedCount(t *testing.T) {
	s := newTestServer(&stubClient{})

	// Populate one cache entry, then clear it.
	_, err := s.handleListApplications(context.Background(), callReq(nil))
	require.NoError(t, err)

	res, err := s.handleClearCache(context.Background(), callReq(nil))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var payload struct {
		Cleared bool `json:"cleared"`
		Evicted int  `json:"evicted"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.True(t, payload.Cleared)
	assert.Equal(t, 1, payload.Evicted)
}
