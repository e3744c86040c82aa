package domain

// Types in this package mirror the resources exposed by the upstream
// SaaS-management API. They are immutable snapshots: each fetch produces a
// fresh value and nothing in this process mutates them afterwards.

// Application is a managed SaaS application known to the upstream inventory.
type Application struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	Status        string  `json:"status"`
	Owner         string  `json:"owner,omitempty"`
	TotalLicenses float64 `json:"totalLicenses"`
	UsedLicenses  float64 `json:"usedLicenses"`
	Vendor        string  `json:"vendor,omitempty"`
	Website       string  `json:"website,omitempty"`
}

// FeatureUsage reports adoption of a single feature within an application.
type FeatureUsage struct {
	Name         string  `json:"name"`
	ActiveUsers  float64 `json:"activeUsers"`
	AdoptionRate float64 `json:"adoptionRate"`
	LastActivity string  `json:"lastActivity,omitempty"`
}

// ApplicationUsage is the usage snapshot for one application over a period.
// Cached keyed by (applicationId, period); distinct periods never collide.
type ApplicationUsage struct {
	ApplicationID string         `json:"applicationId"`
	ActiveUsers   float64        `json:"activeUsers"`
	ActivePercent float64        `json:"activePercent"`
	TotalUsers    float64        `json:"totalUsers"`
	Period        string         `json:"period"`
	Features      []FeatureUsage `json:"features,omitempty"`
}

// Payment frequencies accepted on contracts.
const (
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyAnnually  = "annually"
	FrequencyOneTime   = "one-time"
)

// ContractStatusActive marks the contract used for cost derivation.
const ContractStatusActive = "active"

// Contract is a procurement contract attached to an application. An
// application may carry several; cost derivation considers only the one
// with Status == ContractStatusActive (latest StartDate wins on ties,
// see usecase.ActiveContract).
type Contract struct {
	ID               string  `json:"id"`
	ApplicationID    string  `json:"applicationId"`
	Status           string  `json:"status"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	PaymentFrequency string  `json:"paymentFrequency"`
	AutoRenewal      bool    `json:"autoRenewal"`
	StartDate        string  `json:"startDate,omitempty"`
	EndDate          string  `json:"endDate,omitempty"`
	RenewalDate      string  `json:"renewalDate,omitempty"`
}

// License is a seat assignment within an application.
type License struct {
	ID            string `json:"id"`
	ApplicationID string `json:"applicationId"`
	UserEmail     string `json:"userEmail,omitempty"`
	Tier          string `json:"tier,omitempty"`
	Status        string `json:"status"`
	LastActivity  string `json:"lastActivity,omitempty"`
}

// User is an organization member tracked by the upstream directory.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Department string `json:"department,omitempty"`
	Status     string `json:"status"`
}

// ShadowITApp is an application discovered in use without procurement
// visibility.
type ShadowITApp struct {
	Name       string  `json:"name"`
	Category   string  `json:"category,omitempty"`
	UserCount  float64 `json:"userCount"`
	RiskLevel  string  `json:"riskLevel,omitempty"`
	FirstSeen  string  `json:"firstSeen,omitempty"`
	DataShared bool    `json:"dataShared,omitempty"`
}

// SpendByCategory is one slice of the spend analytics breakdown.
type SpendByCategory struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// SpendAnalytics aggregates spend over a reporting period.
type SpendAnalytics struct {
	Period     string            `json:"period"`
	TotalSpend float64           `json:"totalSpend"`
	Currency   string            `json:"currency"`
	ByCategory []SpendByCategory `json:"byCategory,omitempty"`
	Trend      []float64         `json:"trend,omitempty"`
}

// LicenseRecommendation is an upstream-computed right-sizing suggestion.
type LicenseRecommendation struct {
	ApplicationID    string  `json:"applicationId"`
	ApplicationName  string  `json:"applicationName"`
	Action           string  `json:"action"`
	CurrentLicenses  float64 `json:"currentLicenses"`
	SuggestedChange  float64 `json:"suggestedChange"`
	EstimatedSavings float64 `json:"estimatedSavings"`
	Reason           string  `json:"reason,omitempty"`
}

// RenewalAlert flags a contract approaching its renewal date.
type RenewalAlert struct {
	ApplicationID   string  `json:"applicationId"`
	ApplicationName string  `json:"applicationName"`
	ContractID      string  `json:"contractId"`
	RenewalDate     string  `json:"renewalDate"`
	DaysRemaining   int     `json:"daysRemaining"`
	Amount          float64 `json:"amount"`
	AutoRenewal     bool    `json:"autoRenewal"`
}

// UnderutilizationResult is a derived finding, computed on demand by the
// analyzer and never cached. AnnualCost and PotentialSavings are nil when
// no active contract exists for the application.
type UnderutilizationResult struct {
	ApplicationName    string   `json:"applicationName"`
	ActiveUsersPercent float64  `json:"activeUsersPercent"`
	TotalLicenses      float64  `json:"totalLicenses"`
	UnusedLicenses     float64  `json:"unusedLicenses"`
	AnnualCost         *float64 `json:"annualCost"`
	PotentialSavings   *float64 `json:"potentialSavings"`
}
