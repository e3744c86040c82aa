package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/appgauge/appgauge/internal/domain"
)

// Gateway is the single point of contact with the upstream API. It applies
// cache-aside reads over the UpstreamClient port: check the cache, hit the
// network only on a miss, store the result under the operation's TTL.
// Failed calls are never cached; the typed error propagates to the caller
// unchanged. Entries are never refreshed in the background, so the
// staleness window equals the configured TTL.
type Gateway struct {
	client UpstreamClient
	cache  Cache
	ttls   TTLs
	logger *slog.Logger
	tracer trace.Tracer
}

// NewGateway wires the gateway from its collaborators. Zero or negative
// fields in ttls fall back to the defaults.
func NewGateway(client UpstreamClient, cache Cache, ttls TTLs, logger *slog.Logger) *Gateway {
	def := DefaultTTLs()
	if ttls.Applications <= 0 {
		ttls.Applications = def.Applications
	}
	if ttls.Usage <= 0 {
		ttls.Usage = def.Usage
	}
	if ttls.Contracts <= 0 {
		ttls.Contracts = def.Contracts
	}
	if ttls.Licenses <= 0 {
		ttls.Licenses = def.Licenses
	}
	if ttls.Users <= 0 {
		ttls.Users = def.Users
	}
	if ttls.ShadowIT <= 0 {
		ttls.ShadowIT = def.ShadowIT
	}
	if ttls.Spend <= 0 {
		ttls.Spend = def.Spend
	}
	if ttls.Recommendations <= 0 {
		ttls.Recommendations = def.Recommendations
	}
	if ttls.RenewalAlerts <= 0 {
		ttls.RenewalAlerts = def.RenewalAlerts
	}
	return &Gateway{
		client: client,
		cache:  cache,
		ttls:   ttls,
		logger: logger.With("component", "gateway"),
		tracer: otel.Tracer("github.com/appgauge/appgauge/internal/usecase"),
	}
}

// ClearCache drops every cached entry and reports how many were evicted.
// Operator-level invalidation.
func (g *Gateway) ClearCache() int {
	return g.cache.Clear()
}

// cacheKey derives a deterministic key from the operation name and its
// argument tuple. All arguments are primitives, so plain joining yields a
// stable representation.
func cacheKey(op string, args ...string) string {
	if len(args) == 0 {
		return op
	}
	return op + ":" + strings.Join(args, ":")
}

// fetchCached implements the cache-aside read for one gateway operation.
// The span records whether the call was served from memory.
func fetchCached[T any](ctx context.Context, g *Gateway, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	ctx, span := g.tracer.Start(ctx, "gateway."+key)
	defer span.End()

	if v, ok := g.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			g.logger.Debug("Cache hit", slog.String("key", key))
			return typed, nil
		}
		// A foreign value under our key means the key scheme is broken
		// somewhere; drop it and refetch.
		g.logger.Warn("Cache entry has unexpected type, discarding", slog.String("key", key))
		g.cache.Delete(key)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	var zero T
	value, err := fetch(ctx)
	if err != nil {
		span.RecordError(err)
		return zero, err
	}
	g.cache.Set(key, value, ttl)
	return value, nil
}

// ListApplications returns the full application inventory.
func (g *Gateway) ListApplications(ctx context.Context) ([]domain.Application, error) {
	return fetchCached(ctx, g, cacheKey("applications"), g.ttls.Applications, g.client.ListApplications)
}

// GetApplication returns one application by canonical ID. Fails with
// domain.NotFoundError when the upstream answers 404.
func (g *Gateway) GetApplication(ctx context.Context, id string) (*domain.Application, error) {
	if id == "" {
		return nil, &domain.InvalidInputError{Param: "id", Reason: "must not be empty"}
	}
	return fetchCached(ctx, g, cacheKey("application", id), g.ttls.Applications, func(ctx context.Context) (*domain.Application, error) {
		return g.client.GetApplication(ctx, id)
	})
}

// GetApplicationUsage returns the usage snapshot for one application.
// Distinct periods cache under distinct keys and never collide.
func (g *Gateway) GetApplicationUsage(ctx context.Context, id, period string) (*domain.ApplicationUsage, error) {
	if id == "" {
		return nil, &domain.InvalidInputError{Param: "id", Reason: "must not be empty"}
	}
	if period == "" {
		period = DefaultUsagePeriod
	}
	return fetchCached(ctx, g, cacheKey("usage", id, period), g.ttls.Usage, func(ctx context.Context) (*domain.ApplicationUsage, error) {
		return g.client.GetApplicationUsage(ctx, id, period)
	})
}

// ListContracts returns every contract in the organization.
func (g *Gateway) ListContracts(ctx context.Context) ([]domain.Contract, error) {
	return fetchCached(ctx, g, cacheKey("contracts"), g.ttls.Contracts, g.client.ListContracts)
}

// ListApplicationContracts returns the contracts attached to one application.
func (g *Gateway) ListApplicationContracts(ctx context.Context, id string) ([]domain.Contract, error) {
	if id == "" {
		return nil, &domain.InvalidInputError{Param: "id", Reason: "must not be empty"}
	}
	return fetchCached(ctx, g, cacheKey("contracts", id), g.ttls.Contracts, func(ctx context.Context) ([]domain.Contract, error) {
		return g.client.ListApplicationContracts(ctx, id)
	})
}

// ListApplicationLicenses returns the seat assignments for one application.
func (g *Gateway) ListApplicationLicenses(ctx context.Context, id string) ([]domain.License, error) {
	if id == "" {
		return nil, &domain.InvalidInputError{Param: "id", Reason: "must not be empty"}
	}
	return fetchCached(ctx, g, cacheKey("licenses", id), g.ttls.Licenses, func(ctx context.Context) ([]domain.License, error) {
		return g.client.ListApplicationLicenses(ctx, id)
	})
}

// ListUsers returns the organization directory.
func (g *Gateway) ListUsers(ctx context.Context) ([]domain.User, error) {
	return fetchCached(ctx, g, cacheKey("users"), g.ttls.Users, g.client.ListUsers)
}

// ListShadowIT returns applications discovered without procurement
// visibility.
func (g *Gateway) ListShadowIT(ctx context.Context) ([]domain.ShadowITApp, error) {
	return fetchCached(ctx, g, cacheKey("shadow-it"), g.ttls.ShadowIT, g.client.ListShadowIT)
}

// GetSpendAnalytics returns aggregated spend for the given period.
func (g *Gateway) GetSpendAnalytics(ctx context.Context, period string) (*domain.SpendAnalytics, error) {
	if period == "" {
		period = DefaultSpendPeriod
	}
	return fetchCached(ctx, g, cacheKey("spend", period), g.ttls.Spend, func(ctx context.Context) (*domain.SpendAnalytics, error) {
		return g.client.GetSpendAnalytics(ctx, period)
	})
}

// ListLicenseRecommendations returns upstream right-sizing suggestions.
func (g *Gateway) ListLicenseRecommendations(ctx context.Context) ([]domain.LicenseRecommendation, error) {
	return fetchCached(ctx, g, cacheKey("recommendations"), g.ttls.Recommendations, g.client.ListLicenseRecommendations)
}

// ListRenewalAlerts returns contracts renewing within daysAhead days.
func (g *Gateway) ListRenewalAlerts(ctx context.Context, daysAhead int) ([]domain.RenewalAlert, error) {
	if daysAhead <= 0 {
		daysAhead = DefaultRenewalDaysAhead
	}
	return fetchCached(ctx, g, cacheKey("renewal-alerts", strconv.Itoa(daysAhead)), g.ttls.RenewalAlerts, func(ctx context.Context) ([]domain.RenewalAlert, error) {
		return g.client.ListRenewalAlerts(ctx, daysAhead)
	})
}
