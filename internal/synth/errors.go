package synth

import "fmt"

// ConfigError reports invalid or infeasible generator input. It is always
// raised before any randomness is consumed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// InvariantError reports an internal consistency failure detected by the
// post-generation validation sweep. Given a config that passed the
// feasibility check this should be unreachable; any occurrence is an
// algorithm bug, not bad input, and is surfaced rather than dropped.
type InvariantError struct {
	Table  string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("generation invariant violated in %s: %s", e.Table, e.Reason)
}

// Validate checks every config constraint, including feasibility of the
// tenure floor against the observation window. Returns a *ConfigError naming
// the offending field, or nil.
func (c Config) Validate() error {
	if c.NumCustomers <= 0 {
		return &ConfigError{Field: "data.num_customers", Reason: "must be > 0"}
	}
	if c.ChurnRate < 0 || c.ChurnRate > 1 {
		return &ConfigError{Field: "data.churn_rate", Reason: "must be in [0,1]"}
	}
	if c.WindowStart.IsZero() || c.WindowEnd.IsZero() {
		return &ConfigError{Field: "data.observation_window", Reason: "start and end dates are required"}
	}
	if !c.WindowStart.Before(c.WindowEnd) {
		return &ConfigError{Field: "data.observation_window", Reason: "start date must precede end date"}
	}
	if c.SignupLookbackDays < 0 {
		return &ConfigError{Field: "data.signup_lookback_days", Reason: "must be >= 0"}
	}
	if c.MinimumTenureDays < 0 {
		return &ConfigError{Field: "data.minimum_tenure_days", Reason: "must be >= 0"}
	}
	if start, end := c.signupRange(); end.Before(start) {
		return &ConfigError{
			Field:  "data.minimum_tenure_days",
			Reason: "tenure floor exceeds observation window plus signup lookback; no valid churn date exists",
		}
	}
	for _, field := range []string{
		FieldIncomeBracket, FieldRegion, FieldContractType,
		FieldCallType, FieldTransactionType, FieldFeature,
	} {
		if err := validateWeights(field, c.Distributions[field]); err != nil {
			return err
		}
	}
	if c.Age.Min <= 0 || c.Age.Max < c.Age.Min {
		return &ConfigError{Field: "customers.age", Reason: "min must be > 0 and <= max"}
	}
	if c.Age.StdDev < 0 {
		return &ConfigError{Field: "customers.age.stddev", Reason: "must be >= 0"}
	}
	if c.Transactions.MonthlyRate < 0 {
		return &ConfigError{Field: "transactions.monthly_rate", Reason: "must be >= 0"}
	}
	if c.Transactions.AmountMax < c.Transactions.AmountMin {
		return &ConfigError{Field: "transactions.amount_max", Reason: "must be >= amount_min"}
	}
	if c.Support.MonthlyRate < 0 {
		return &ConfigError{Field: "support.monthly_rate", Reason: "must be >= 0"}
	}
	if c.Support.DurationMinMins <= 0 || c.Support.DurationMaxMins < c.Support.DurationMinMins {
		return &ConfigError{Field: "support.duration", Reason: "duration bounds must be positive and ordered"}
	}
	if c.Support.ResolvedRate < 0 || c.Support.ResolvedRate > 1 {
		return &ConfigError{Field: "support.resolved_rate", Reason: "must be in [0,1]"}
	}
	if c.Usage.RecordEveryDays <= 0 {
		return &ConfigError{Field: "usage.record_every_days", Reason: "must be > 0"}
	}
	if c.Usage.MaxFeatures <= 0 {
		return &ConfigError{Field: "usage.max_features", Reason: "must be > 0"}
	}
	if c.Usage.MaxSessions <= 0 {
		return &ConfigError{Field: "usage.max_sessions", Reason: "must be > 0"}
	}
	if err := c.SupportSpike.validate(); err != nil {
		return err
	}
	if err := c.UsageDecay.validate(); err != nil {
		return err
	}
	return nil
}

func validateWeights(field string, weights map[string]float64) error {
	if len(weights) == 0 {
		return &ConfigError{Field: "distributions." + field, Reason: "at least one category is required"}
	}
	positive := false
	for category, w := range weights {
		if w < 0 {
			return &ConfigError{
				Field:  "distributions." + field,
				Reason: fmt.Sprintf("weight for %q must be >= 0", category),
			}
		}
		if w > 0 {
			positive = true
		}
	}
	if !positive {
		return &ConfigError{Field: "distributions." + field, Reason: "at least one positive weight is required"}
	}
	return nil
}
