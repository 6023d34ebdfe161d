package synth

import (
	"fmt"
	"math"
	"time"
)

// validateDataset is the assembly-time invariant sweep. It re-checks every
// cross-table guarantee the generator is supposed to uphold: id uniqueness,
// referential integrity, temporal containment, the tenure floor, churn-date
// presence, and quota exactness. Any violation is an InvariantError.
func validateDataset(cfg Config, ds *Dataset) error {
	byID := make(map[string]*Customer, len(ds.Customers))
	churned := 0
	for i := range ds.Customers {
		c := &ds.Customers[i]
		if _, dup := byID[c.CustomerID]; dup {
			return &InvariantError{Table: "customers", Reason: fmt.Sprintf("duplicate customer_id %s", c.CustomerID)}
		}
		byID[c.CustomerID] = c

		if c.IsChurned != (c.ChurnDate != nil) {
			return &InvariantError{Table: "customers", Reason: fmt.Sprintf("%s: churn_date presence does not match is_churned", c.CustomerID)}
		}
		if c.ChurnDate != nil {
			churned++
			if !c.ChurnDate.After(c.SignupDate) {
				return &InvariantError{Table: "customers", Reason: fmt.Sprintf("%s: churn_date not after signup_date", c.CustomerID)}
			}
			if c.ChurnDate.Before(cfg.WindowStart) {
				return &InvariantError{Table: "customers", Reason: fmt.Sprintf("%s: churn_date precedes observation window", c.CustomerID)}
			}
			if c.ChurnDate.After(cfg.WindowEnd) {
				return &InvariantError{Table: "customers", Reason: fmt.Sprintf("%s: churn_date beyond observation window", c.CustomerID)}
			}
			if daysBetween(c.SignupDate, *c.ChurnDate) < cfg.MinimumTenureDays {
				return &InvariantError{Table: "customers", Reason: fmt.Sprintf("%s: tenure below %d-day floor", c.CustomerID, cfg.MinimumTenureDays)}
			}
		}
	}

	quota := int(math.Round(cfg.ChurnRate * float64(cfg.NumCustomers)))
	if churned != quota {
		return &InvariantError{Table: "customers", Reason: fmt.Sprintf("churned count %d does not match quota %d", churned, quota)}
	}

	txIDs := make(map[string]struct{}, len(ds.Transactions))
	for i := range ds.Transactions {
		t := &ds.Transactions[i]
		if _, dup := txIDs[t.TransactionID]; dup {
			return &InvariantError{Table: "transactions", Reason: fmt.Sprintf("duplicate transaction_id %s", t.TransactionID)}
		}
		txIDs[t.TransactionID] = struct{}{}
		if err := checkContainment("transactions", byID, cfg, t.CustomerID, t.Date); err != nil {
			return err
		}
	}

	intIDs := make(map[string]struct{}, len(ds.SupportInteractions))
	for i := range ds.SupportInteractions {
		s := &ds.SupportInteractions[i]
		if _, dup := intIDs[s.InteractionID]; dup {
			return &InvariantError{Table: "support_interactions", Reason: fmt.Sprintf("duplicate interaction_id %s", s.InteractionID)}
		}
		intIDs[s.InteractionID] = struct{}{}
		if err := checkContainment("support_interactions", byID, cfg, s.CustomerID, s.Date); err != nil {
			return err
		}
	}

	for i := range ds.UsageRecords {
		u := &ds.UsageRecords[i]
		if err := checkContainment("usage_records", byID, cfg, u.CustomerID, u.Date); err != nil {
			return err
		}
	}

	return nil
}

// checkContainment verifies the foreign key and that the record date lies in
// [signup_date, min(churn_date, window end)].
func checkContainment(table string, byID map[string]*Customer, cfg Config, customerID string, date time.Time) error {
	c, ok := byID[customerID]
	if !ok {
		return &InvariantError{Table: table, Reason: fmt.Sprintf("unknown customer_id %s", customerID)}
	}
	if date.Before(c.SignupDate) {
		return &InvariantError{Table: table, Reason: fmt.Sprintf("%s: record date precedes signup", customerID)}
	}
	limit := cfg.WindowEnd
	if c.ChurnDate != nil {
		limit = *c.ChurnDate
	}
	if date.After(limit) {
		return &InvariantError{Table: table, Reason: fmt.Sprintf("%s: record date after active range end", customerID)}
	}
	return nil
}
