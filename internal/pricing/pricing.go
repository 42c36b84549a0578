package pricing

// Tier is the static pricing configuration for a subscription level.
// Changing a tier is a deployment-time change, not a database write.
type Tier struct {
	PricePerMonth  float64
	IncludedEvents int
	OveragePer1k   float64
	MaxAPICalls    int
	Features       []string
	Description    string
}

// Tiers is the fixed pricing table (monthly, EUR).
var Tiers = map[string]Tier{
	"demo": {
		PricePerMonth:  0.00,
		IncludedEvents: 100,
		OveragePer1k:   0.00,
		MaxAPICalls:    1000,
		Features:       []string{"basic_analytics", "csv_export"},
		Description:    "Free demo account - 14 day trial",
	},
	"particulier": {
		PricePerMonth:  19.00,
		IncludedEvents: 500,
		OveragePer1k:   3.00,
		MaxAPICalls:    5000,
		Features:       []string{"basic_analytics", "csv_export", "mobile_app"},
		Description:    "For individuals and sole traders",
	},
	"mkb": {
		PricePerMonth:  49.00,
		IncludedEvents: 5000,
		OveragePer1k:   2.50,
		MaxAPICalls:    50000,
		Features:       []string{"advanced_analytics", "api_access", "priority_support"},
		Description:    "For SMB companies (1-50 employees)",
	},
	"starter": {
		PricePerMonth:  29.00,
		IncludedEvents: 1000,
		OveragePer1k:   5.00,
		MaxAPICalls:    10000,
		Features:       []string{"basic_analytics", "csv_export"},
		Description:    "Starter package for small companies",
	},
	"professional": {
		PricePerMonth:  99.00,
		IncludedEvents: 10000,
		OveragePer1k:   3.00,
		MaxAPICalls:    100000,
		Features:       []string{"advanced_analytics", "api_access", "ai_assistant"},
		Description:    "Professional package for growing companies",
	},
	"enterprise": {
		PricePerMonth:  299.00,
		IncludedEvents: 100000,
		OveragePer1k:   1.50,
		MaxAPICalls:    1000000,
		Features:       []string{"all_features", "dedicated_support", "custom_integration", "sla_guarantee"},
		Description:    "Enterprise package with 99.9% SLA guarantee",
	},
}

// Operational costs per month.
const (
	HostingPerTenant    = 5.00
	StoragePerGB        = 0.10
	APICostPer1k        = 0.05
	SupportPerTenant    = 10.00
	DevelopmentMonthly  = 2000.00
	InfrastructureFixed = 100.00
	MarketingCACTarget  = 50.00
)

// TierOrDefault resolves a stored tier name, falling back to starter for
// unknown values so old rows keep computing.
func TierOrDefault(name string) Tier {
	if t, ok := Tiers[name]; ok {
		return t
	}
	return Tiers["starter"]
}

// UpgradePath maps a tier to the next one offered in pricing
// recommendations. Tiers without a defined upgrade map to "".
var UpgradePath = map[string]string{
	"demo":         "starter",
	"particulier":  "mkb",
	"starter":      "professional",
	"mkb":          "professional",
	"professional": "enterprise",
}
