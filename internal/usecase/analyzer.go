package usecase

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/appgauge/appgauge/internal/domain"
)

// AnalyzerGateway is the slice of the gateway the analyzer consumes.
type AnalyzerGateway interface {
	ListApplications(ctx context.Context) ([]domain.Application, error)
	GetApplication(ctx context.Context, id string) (*domain.Application, error)
	GetApplicationUsage(ctx context.Context, id, period string) (*domain.ApplicationUsage, error)
	ListApplicationContracts(ctx context.Context, id string) ([]domain.Contract, error)
}

// Analyzer computes underutilization findings from usage and contract
// data. It owns no state; every invocation is a pure function over gateway
// outputs. Applications are visited sequentially; after the first full
// pass the gateway serves most calls from memory.
type Analyzer struct {
	gateway AnalyzerGateway
	logger  *slog.Logger
}

// NewAnalyzer creates an Analyzer over the given gateway slice.
func NewAnalyzer(gateway AnalyzerGateway, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		gateway: gateway,
		logger:  logger.With("component", "analyzer"),
	}
}

// FindUnderutilized returns applications whose active-user percentage over
// the default usage period falls below threshold (0-100), ranked by
// descending potential savings with unknown-cost entries last. appID
// narrows the analysis to a single application when non-empty.
//
// A usage or contract fetch failure for a single application is logged
// and skips that application; it never aborts the batch.
func (a *Analyzer) FindUnderutilized(ctx context.Context, threshold float64, appID string) ([]domain.UnderutilizationResult, error) {
	if threshold < 0 || threshold > 100 {
		return nil, &domain.InvalidInputError{Param: "threshold", Reason: "must be between 0 and 100"}
	}

	var apps []domain.Application
	if appID != "" {
		app, err := a.gateway.GetApplication(ctx, appID)
		if err != nil {
			return nil, err
		}
		apps = []domain.Application{*app}
	} else {
		var err error
		apps, err = a.gateway.ListApplications(ctx)
		if err != nil {
			return nil, err
		}
	}

	results := make([]domain.UnderutilizationResult, 0, len(apps))
	for _, app := range apps {
		usage, err := a.gateway.GetApplicationUsage(ctx, app.ID, DefaultUsagePeriod)
		if err != nil {
			a.logger.Warn("Skipping application, usage fetch failed",
				slog.String("application_id", app.ID),
				slog.String("application_name", app.Name),
				slog.Any("error", err))
			continue
		}
		if usage.ActivePercent >= threshold {
			continue
		}

		contracts, err := a.gateway.ListApplicationContracts(ctx, app.ID)
		if err != nil {
			a.logger.Warn("Skipping application, contracts fetch failed",
				slog.String("application_id", app.ID),
				slog.String("application_name", app.Name),
				slog.Any("error", err))
			continue
		}

		results = append(results, buildFinding(app, usage, contracts))
	}

	// Stable: ties and nil-savings entries keep their relative order so
	// repeated runs over identical input produce identical output.
	sort.SliceStable(results, func(i, j int) bool {
		si, sj := results[i].PotentialSavings, results[j].PotentialSavings
		switch {
		case si != nil && sj != nil:
			return *si > *sj
		case si != nil:
			return true
		default:
			return false
		}
	})
	return results, nil
}

// buildFinding derives the metrics for one underutilized application.
func buildFinding(app domain.Application, usage *domain.ApplicationUsage, contracts []domain.Contract) domain.UnderutilizationResult {
	res := domain.UnderutilizationResult{
		ApplicationName:    app.Name,
		ActiveUsersPercent: usage.ActivePercent,
		TotalLicenses:      app.TotalLicenses,
	}

	// Data skew can put active users above allocated seats; clamp instead
	// of reporting negative slack.
	unused := math.Round(app.TotalLicenses) - math.Round(usage.ActiveUsers)
	if unused < 0 {
		unused = 0
	}
	res.UnusedLicenses = unused

	if active := ActiveContract(contracts); active != nil {
		cost := AnnualizeContract(*active)
		res.AnnualCost = &cost

		// The floor denominator avoids a divide-by-zero for zero-license
		// applications; the positivity check below filters the nonsense
		// estimate that substitution can produce.
		savings := cost / math.Max(app.TotalLicenses, 1) * unused
		if savings > 0 {
			res.PotentialSavings = &savings
		}
	}
	return res
}

// ActiveContract picks the contract used for cost derivation: the one with
// Status == active and the latest StartDate. Start dates are ISO-formatted
// upstream, so lexical comparison orders them; equal or absent start dates
// fall back to list order.
func ActiveContract(contracts []domain.Contract) *domain.Contract {
	var active *domain.Contract
	for i := range contracts {
		c := &contracts[i]
		if c.Status != domain.ContractStatusActive {
			continue
		}
		if active == nil || c.StartDate > active.StartDate {
			active = c
		}
	}
	return active
}

// AnnualizeContract normalizes a contract amount to an annual figure.
// One-time amounts are carried as-is, a known simplification.
func AnnualizeContract(c domain.Contract) float64 {
	switch c.PaymentFrequency {
	case domain.FrequencyMonthly:
		return c.Amount * 12
	case domain.FrequencyQuarterly:
		return c.Amount * 4
	case domain.FrequencyAnnually, domain.FrequencyOneTime:
		return c.Amount
	default:
		return c.Amount
	}
}
