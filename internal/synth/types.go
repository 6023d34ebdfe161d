package synth

import "time"

// Categorical field names recognized in Config.Distributions.
const (
	FieldIncomeBracket   = "income_bracket"
	FieldRegion          = "region"
	FieldContractType    = "contract_type"
	FieldCallType        = "call_type"
	FieldTransactionType = "transaction_type"
	FieldFeature         = "feature"
)

// Customer is one synthetic account. ChurnDate is non-nil iff IsChurned,
// and always lies in [SignupDate+tenure floor, observation window end].
type Customer struct {
	CustomerID    string
	Age           int
	IncomeBracket string
	Region        string
	ContractType  string
	SignupDate    time.Time
	IsChurned     bool
	ChurnDate     *time.Time
}

// Transaction is a single billing event for a customer.
type Transaction struct {
	TransactionID string
	CustomerID    string
	Amount        float64
	Date          time.Time
	Type          string
}

// SupportInteraction is a single support contact. Churned customers show an
// elevated interaction rate in the configured window before their churn date.
type SupportInteraction struct {
	InteractionID   string
	CustomerID      string
	CallType        string
	DurationMinutes int
	Date            time.Time
	Resolved        bool
}

// UsageRecord is a sampled engagement measurement. Usage trends downward in
// the pre-churn window for churned customers and stays stationary otherwise.
type UsageRecord struct {
	CustomerID       string
	Date             time.Time
	DailyUsage       float64
	FeaturesAccessed []string
	Sessions         int
}

// Dataset is the full output of one generation run. Rows are in a fixed
// deterministic order: customers by id, dependent tables by customer id,
// then date, then draw sequence.
type Dataset struct {
	Customers           []Customer
	Transactions        []Transaction
	SupportInteractions []SupportInteraction
	UsageRecords        []UsageRecord
}

// AgeSpec describes the clipped normal distribution for customer age.
type AgeSpec struct {
	Min    int
	Max    int
	Mean   float64
	StdDev float64
}

// TransactionSpec describes per-customer transaction generation.
type TransactionSpec struct {
	MonthlyRate float64
	AmountMin   float64
	AmountMax   float64
}

// SupportSpec describes per-customer support interaction generation.
type SupportSpec struct {
	MonthlyRate     float64
	DurationMinMins int
	DurationMaxMins int
	ResolvedRate    float64
}

// UsageSpec describes the usage sampling cadence and magnitude.
type UsageSpec struct {
	BaseDailyMean   float64
	NoiseStdDev     float64
	RecordEveryDays int
	MaxFeatures     int
	MaxSessions     int
}

// Config is the full generator input. It is resolved (dates parsed, defaults
// applied) by the caller; Generate validates it eagerly before consuming any
// randomness.
type Config struct {
	NumCustomers       int
	ChurnRate          float64
	Seed               int64
	WindowStart        time.Time
	WindowEnd          time.Time
	SignupLookbackDays int
	MinimumTenureDays  int

	Distributions map[string]map[string]float64

	Age          AgeSpec
	Transactions TransactionSpec
	Support      SupportSpec
	Usage        UsageSpec

	SupportSpike SupportSpikePolicy
	UsageDecay   UsageDecayPolicy
}

// tenureFloorDays is the effective minimum tenure. Churning on the signup
// day is never valid, so the floor is at least one day even when the
// configured floor is zero.
func (c Config) tenureFloorDays() int {
	if c.MinimumTenureDays < 1 {
		return 1
	}
	return c.MinimumTenureDays
}

// signupRange returns the inclusive date range signup dates are drawn from.
// The upper bound leaves room for the tenure floor so every customer has at
// least one feasible churn date.
func (c Config) signupRange() (time.Time, time.Time) {
	start := c.WindowStart.AddDate(0, 0, -c.SignupLookbackDays)
	end := c.WindowEnd.AddDate(0, 0, -c.tenureFloorDays())
	return start, end
}
