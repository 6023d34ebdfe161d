// Package postgres loads generated runs into PostgreSQL. The whole run is
// written in a single transaction so the all-or-nothing rule extends to the
// database sink: a failed load leaves no partial rows behind.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/churn-predictor/internal/synth"
)

// DatasetRepo writes generated datasets to PostgreSQL.
type DatasetRepo struct{ db *sql.DB }

// NewDatasetRepo creates a Postgres-backed dataset repository.
func NewDatasetRepo(db *sql.DB) *DatasetRepo { return &DatasetRepo{db: db} }

const insertBatchSize = 500

// EnsureSchema creates the run tables if they do not exist yet.
func (r *DatasetRepo) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS churn_runs (
			run_id        TEXT PRIMARY KEY,
			generated_at  TIMESTAMPTZ NOT NULL,
			num_customers INT NOT NULL,
			seed          BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS churn_customers (
			run_id         TEXT NOT NULL REFERENCES churn_runs(run_id),
			customer_id    TEXT NOT NULL,
			age            INT NOT NULL,
			income_bracket TEXT NOT NULL,
			region         TEXT NOT NULL,
			contract_type  TEXT NOT NULL,
			signup_date    DATE NOT NULL,
			is_churned     BOOLEAN NOT NULL,
			churn_date     DATE,
			PRIMARY KEY (run_id, customer_id)
		)`,
		`CREATE TABLE IF NOT EXISTS churn_transactions (
			run_id         TEXT NOT NULL REFERENCES churn_runs(run_id),
			transaction_id TEXT NOT NULL,
			customer_id    TEXT NOT NULL,
			amount         NUMERIC(10,2) NOT NULL,
			date           DATE NOT NULL,
			type           TEXT NOT NULL,
			PRIMARY KEY (run_id, transaction_id)
		)`,
		`CREATE TABLE IF NOT EXISTS churn_support_interactions (
			run_id           TEXT NOT NULL REFERENCES churn_runs(run_id),
			interaction_id   TEXT NOT NULL,
			customer_id      TEXT NOT NULL,
			call_type        TEXT NOT NULL,
			duration_minutes INT NOT NULL,
			date             DATE NOT NULL,
			resolved         BOOLEAN NOT NULL,
			PRIMARY KEY (run_id, interaction_id)
		)`,
		`CREATE TABLE IF NOT EXISTS churn_usage_records (
			run_id            TEXT NOT NULL REFERENCES churn_runs(run_id),
			customer_id       TEXT NOT NULL,
			date              DATE NOT NULL,
			daily_usage       NUMERIC(10,2) NOT NULL,
			features_accessed TEXT NOT NULL,
			sessions          INT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun inserts the run header and all four tables in one transaction.
func (r *DatasetRepo) SaveRun(ctx context.Context, runID string, seed int64, generatedAt time.Time, ds *synth.Dataset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run insert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO churn_runs (run_id, generated_at, num_customers, seed) VALUES ($1, $2, $3, $4)`,
		runID, generatedAt.UTC(), len(ds.Customers), seed,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err := r.insertCustomers(ctx, tx, runID, ds.Customers); err != nil {
		return err
	}
	if err := r.insertTransactions(ctx, tx, runID, ds.Transactions); err != nil {
		return err
	}
	if err := r.insertSupport(ctx, tx, runID, ds.SupportInteractions); err != nil {
		return err
	}
	if err := r.insertUsage(ctx, tx, runID, ds.UsageRecords); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run insert: %w", err)
	}
	return nil
}

func (r *DatasetRepo) insertCustomers(ctx context.Context, tx *sql.Tx, runID string, customers []synth.Customer) error {
	for start := 0; start < len(customers); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(customers) {
			end = len(customers)
		}
		batch := customers[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO churn_customers
			(run_id, customer_id, age, income_bracket, region, contract_type, signup_date, is_churned, churn_date) VALUES `)
		args := make([]interface{}, 0, len(batch)*9)
		for i := range batch {
			c := &batch[i]
			if i > 0 {
				sb.WriteString(",")
			}
			base := i * 9
			fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
			var churnDate interface{}
			if c.ChurnDate != nil {
				churnDate = *c.ChurnDate
			}
			args = append(args, runID, c.CustomerID, c.Age, c.IncomeBracket, c.Region,
				c.ContractType, c.SignupDate, c.IsChurned, churnDate)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert customers: %w", err)
		}
	}
	return nil
}

func (r *DatasetRepo) insertTransactions(ctx context.Context, tx *sql.Tx, runID string, txns []synth.Transaction) error {
	for start := 0; start < len(txns); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(txns) {
			end = len(txns)
		}
		batch := txns[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO churn_transactions
			(run_id, transaction_id, customer_id, amount, date, type) VALUES `)
		args := make([]interface{}, 0, len(batch)*6)
		for i := range batch {
			t := &batch[i]
			if i > 0 {
				sb.WriteString(",")
			}
			base := i * 6
			fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5, base+6)
			args = append(args, runID, t.TransactionID, t.CustomerID, t.Amount, t.Date, t.Type)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert transactions: %w", err)
		}
	}
	return nil
}

func (r *DatasetRepo) insertSupport(ctx context.Context, tx *sql.Tx, runID string, interactions []synth.SupportInteraction) error {
	for start := 0; start < len(interactions); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(interactions) {
			end = len(interactions)
		}
		batch := interactions[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO churn_support_interactions
			(run_id, interaction_id, customer_id, call_type, duration_minutes, date, resolved) VALUES `)
		args := make([]interface{}, 0, len(batch)*7)
		for i := range batch {
			s := &batch[i]
			if i > 0 {
				sb.WriteString(",")
			}
			base := i * 7
			fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7)
			args = append(args, runID, s.InteractionID, s.CustomerID, s.CallType,
				s.DurationMinutes, s.Date, s.Resolved)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert support interactions: %w", err)
		}
	}
	return nil
}

func (r *DatasetRepo) insertUsage(ctx context.Context, tx *sql.Tx, runID string, records []synth.UsageRecord) error {
	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO churn_usage_records
			(run_id, customer_id, date, daily_usage, features_accessed, sessions) VALUES `)
		args := make([]interface{}, 0, len(batch)*6)
		for i := range batch {
			u := &batch[i]
			if i > 0 {
				sb.WriteString(",")
			}
			base := i * 6
			fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5, base+6)
			args = append(args, runID, u.CustomerID, u.Date, u.DailyUsage,
				strings.Join(u.FeaturesAccessed, ";"), u.Sessions)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert usage records: %w", err)
		}
	}
	return nil
}
