package usecase

import (
	"context"
	"time"

	"github.com/appgauge/appgauge/internal/domain"
)

// Default argument values shared by the gateway and the tool layer.
const (
	DefaultUsagePeriod      = "last30days"
	DefaultSpendPeriod      = "last12months"
	DefaultRenewalDaysAhead = 90
)

// UpstreamClient is the outbound port to the SaaS-management API. The
// saasapi adapter implements it; tests substitute a mock. Every method
// returns typed taxonomy errors from the domain package.
type UpstreamClient interface {
	ListApplications(ctx context.Context) ([]domain.Application, error)
	GetApplication(ctx context.Context, id string) (*domain.Application, error)
	GetApplicationUsage(ctx context.Context, id, period string) (*domain.ApplicationUsage, error)
	ListContracts(ctx context.Context) ([]domain.Contract, error)
	ListApplicationContracts(ctx context.Context, id string) ([]domain.Contract, error)
	ListApplicationLicenses(ctx context.Context, id string) ([]domain.License, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListShadowIT(ctx context.Context) ([]domain.ShadowITApp, error)
	GetSpendAnalytics(ctx context.Context, period string) (*domain.SpendAnalytics, error)
	ListLicenseRecommendations(ctx context.Context) ([]domain.LicenseRecommendation, error)
	ListRenewalAlerts(ctx context.Context, daysAhead int) ([]domain.RenewalAlert, error)
}

// Cache is the outbound port for response caching. The memcache adapter
// implements it. Implementations must never return a value whose TTL has
// elapsed. Clear reports the number of entries dropped.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
	Clear() int
}

// TTLs holds the per-resource cache lifetimes. Slower-changing resources
// get longer TTLs to cut upstream load without a staleness risk at the
// assistant's typical query cadence.
type TTLs struct {
	Applications    time.Duration
	Usage           time.Duration
	Contracts       time.Duration
	Licenses        time.Duration
	Users           time.Duration
	ShadowIT        time.Duration
	Spend           time.Duration
	Recommendations time.Duration
	RenewalAlerts   time.Duration
}

// DefaultTTLs returns the stock lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{
		Applications:    10 * time.Minute,
		Usage:           5 * time.Minute,
		Contracts:       30 * time.Minute,
		Licenses:        15 * time.Minute,
		Users:           15 * time.Minute,
		ShadowIT:        30 * time.Minute,
		Spend:           60 * time.Minute,
		Recommendations: 30 * time.Minute,
		RenewalAlerts:   15 * time.Minute,
	}
}
