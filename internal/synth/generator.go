package synth

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const daysPerMonth = 30.0

// Generate produces the four related datasets for the given config. It is a
// pure function of the config and its seed: validation runs first (fail
// fast, before any randomness is consumed), then a single generation pass,
// then a full invariant sweep. Either all four tables are returned valid or
// an error is returned and nothing else.
func Generate(cfg Config) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sd := newSeeder(cfg.Seed)

	customers := generateCustomers(sd, cfg)
	assignChurnLabels(sd, cfg, customers)
	assignChurnDates(sd, cfg, customers)

	ds := &Dataset{Customers: customers}
	for i := range customers {
		c := &customers[i]
		activeEnd := cfg.WindowEnd
		if c.ChurnDate != nil {
			activeEnd = *c.ChurnDate
		}
		ds.Transactions = append(ds.Transactions, generateTransactions(sd, cfg, uint64(i), c, activeEnd)...)
		ds.SupportInteractions = append(ds.SupportInteractions, generateSupport(sd, cfg, uint64(i), c, activeEnd)...)
		ds.UsageRecords = append(ds.UsageRecords, generateUsage(sd, cfg, uint64(i), c, activeEnd)...)
	}

	assignRecordIDs(ds)

	if err := validateDataset(cfg, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

func generateCustomers(sd seeder, cfg Config) []Customer {
	signupStart, signupEnd := cfg.signupRange()
	customers := make([]Customer, cfg.NumCustomers)
	for i := range customers {
		rng := sd.stream(streamCustomer, uint64(i))
		age := int(math.Round(clippedNormal(rng, cfg.Age.Mean, cfg.Age.StdDev,
			float64(cfg.Age.Min), float64(cfg.Age.Max))))
		customers[i] = Customer{
			CustomerID:    fmt.Sprintf("CUST%06d", i+1),
			Age:           age,
			IncomeBracket: weightedChoice(rng, cfg.Distributions[FieldIncomeBracket]),
			Region:        weightedChoice(rng, cfg.Distributions[FieldRegion]),
			ContractType:  weightedChoice(rng, cfg.Distributions[FieldContractType]),
			SignupDate:    uniformDate(rng, signupStart, signupEnd),
		}
	}
	return customers
}

// assignChurnLabels marks exactly round(churn_rate * num_customers)
// customers as churned. Quota-based assignment keeps aggregate statistics
// deterministic; the shuffle runs on its own sub-stream so the label split
// is stable regardless of other config knobs.
func assignChurnLabels(sd seeder, cfg Config, customers []Customer) {
	quota := int(math.Round(cfg.ChurnRate * float64(cfg.NumCustomers)))
	order := make([]int, len(customers))
	for i := range order {
		order[i] = i
	}
	rng := sd.stream(streamChurnQuota, 0)
	rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
	for _, idx := range order[:quota] {
		customers[idx].IsChurned = true
	}
}

// assignChurnDates draws each churned customer's churn date uniformly from
// [max(signup + tenure floor, window start), window end]. Churn events are
// only observable inside the window, so signups from the lookback period are
// clamped to the window start. The signup range guarantees the interval is
// never empty, so no re-draw loop is needed.
func assignChurnDates(sd seeder, cfg Config, customers []Customer) {
	for i := range customers {
		if !customers[i].IsChurned {
			continue
		}
		rng := sd.stream(streamChurnDate, uint64(i))
		earliest := customers[i].SignupDate.AddDate(0, 0, cfg.tenureFloorDays())
		if earliest.Before(cfg.WindowStart) {
			earliest = cfg.WindowStart
		}
		d := uniformDate(rng, earliest, cfg.WindowEnd)
		customers[i].ChurnDate = &d
	}
}

func generateTransactions(sd seeder, cfg Config, idx uint64, c *Customer, activeEnd time.Time) []Transaction {
	rng := sd.stream(streamTxns, idx)
	activeDays := daysBetween(c.SignupDate, activeEnd) + 1
	count := poisson(rng, cfg.Transactions.MonthlyRate*float64(activeDays)/daysPerMonth)

	txns := make([]Transaction, 0, count)
	for i := 0; i < count; i++ {
		span := cfg.Transactions.AmountMax - cfg.Transactions.AmountMin
		txns = append(txns, Transaction{
			CustomerID: c.CustomerID,
			Date:       uniformDate(rng, c.SignupDate, activeEnd),
			Amount:     roundCents(cfg.Transactions.AmountMin + rng.Float64()*span),
			Type:       weightedChoice(rng, cfg.Distributions[FieldTransactionType]),
		})
	}
	sort.SliceStable(txns, func(a, b int) bool { return txns[a].Date.Before(txns[b].Date) })
	return txns
}

func generateSupport(sd seeder, cfg Config, idx uint64, c *Customer, activeEnd time.Time) []SupportInteraction {
	rng := sd.stream(streamSupport, idx)
	activeDays := daysBetween(c.SignupDate, activeEnd) + 1
	baseCount := poisson(rng, cfg.Support.MonthlyRate*float64(activeDays)/daysPerMonth)

	dates := make([]time.Time, 0, baseCount)
	for i := 0; i < baseCount; i++ {
		dates = append(dates, uniformDate(rng, c.SignupDate, activeEnd))
	}
	if c.ChurnDate != nil {
		baseDaily := cfg.Support.MonthlyRate / daysPerMonth
		dates = append(dates, cfg.SupportSpike.ExtraInteractions(rng, baseDaily, c.SignupDate, *c.ChurnDate)...)
	}
	sort.SliceStable(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

	out := make([]SupportInteraction, 0, len(dates))
	durSpan := cfg.Support.DurationMaxMins - cfg.Support.DurationMinMins
	for _, d := range dates {
		out = append(out, SupportInteraction{
			CustomerID:      c.CustomerID,
			CallType:        weightedChoice(rng, cfg.Distributions[FieldCallType]),
			DurationMinutes: cfg.Support.DurationMinMins + rng.Intn(durSpan+1),
			Date:            d,
			Resolved:        rng.Float64() < cfg.Support.ResolvedRate,
		})
	}
	return out
}

func generateUsage(sd seeder, cfg Config, idx uint64, c *Customer, activeEnd time.Time) []UsageRecord {
	rng := sd.stream(streamUsage, idx)
	var out []UsageRecord
	for d := c.SignupDate; !d.After(activeEnd); d = d.AddDate(0, 0, cfg.Usage.RecordEveryDays) {
		amount := cfg.Usage.BaseDailyMean + rng.NormFloat64()*cfg.Usage.NoiseStdDev
		if amount < 0 {
			amount = 0
		}
		if c.ChurnDate != nil {
			amount *= cfg.UsageDecay.Factor(d, *c.ChurnDate)
		}
		k := 1 + rng.Intn(cfg.Usage.MaxFeatures)
		out = append(out, UsageRecord{
			CustomerID:       c.CustomerID,
			Date:             d,
			DailyUsage:       roundCents(amount),
			FeaturesAccessed: weightedSample(rng, cfg.Distributions[FieldFeature], k),
			Sessions:         1 + rng.Intn(cfg.Usage.MaxSessions),
		})
	}
	return out
}

// assignRecordIDs numbers dependent rows in their final deterministic order
// (customer, then date, then draw sequence). Doing this in a separate
// assembly pass keeps per-customer generation order-independent, so the
// per-customer loops could run in parallel without changing output.
func assignRecordIDs(ds *Dataset) {
	for i := range ds.Transactions {
		ds.Transactions[i].TransactionID = fmt.Sprintf("TX%08d", i+1)
	}
	for i := range ds.SupportInteractions {
		ds.SupportInteractions[i].InteractionID = fmt.Sprintf("INT%08d", i+1)
	}
}
