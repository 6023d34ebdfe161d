package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/churn-predictor/internal/synth"
)

func sampleDataset() *synth.Dataset {
	churn := time.Date(2023, 9, 15, 0, 0, 0, 0, time.UTC)
	return &synth.Dataset{
		Customers: []synth.Customer{
			{
				CustomerID: "CUST000001", Age: 34, IncomeBracket: "Medium", Region: "North",
				ContractType: "Monthly", SignupDate: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
				IsChurned: true, ChurnDate: &churn,
			},
			{
				CustomerID: "CUST000002", Age: 51, IncomeBracket: "High", Region: "West",
				ContractType: "Annual", SignupDate: time.Date(2022, 11, 20, 0, 0, 0, 0, time.UTC),
			},
		},
		Transactions: []synth.Transaction{
			{TransactionID: "TX00000001", CustomerID: "CUST000001", Amount: 49.9,
				Date: time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC), Type: "subscription"},
		},
		SupportInteractions: []synth.SupportInteraction{
			{InteractionID: "INT00000001", CustomerID: "CUST000001", CallType: "billing",
				DurationMinutes: 12, Date: time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)},
		},
		UsageRecords: []synth.UsageRecord{
			{CustomerID: "CUST000002", Date: time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC),
				DailyUsage: 118.25, FeaturesAccessed: []string{"dashboard", "reports"}, Sessions: 6},
		},
	}
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{
		"churn_runs", "churn_customers", "churn_transactions",
		"churn_support_interactions", "churn_usage_records",
	} {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + table).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	repo := NewDatasetRepo(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := sampleDataset()
	generatedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO churn_runs").
		WithArgs("run-1", generatedAt, 2, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO churn_customers").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO churn_transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO churn_support_interactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO churn_usage_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewDatasetRepo(db)
	require.NoError(t, repo.SaveRun(context.Background(), "run-1", 42, generatedAt, ds))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunEmptyTablesSkipInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := &synth.Dataset{Customers: sampleDataset().Customers}
	generatedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO churn_runs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO churn_customers").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	repo := NewDatasetRepo(db)
	require.NoError(t, repo.SaveRun(context.Background(), "run-2", 7, generatedAt, ds))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("duplicate key value violates unique constraint")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO churn_runs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO churn_customers").
		WillReturnError(boom)
	mock.ExpectRollback()

	repo := NewDatasetRepo(db)
	err = repo.SaveRun(context.Background(), "run-3", 42, time.Now().UTC(), sampleDataset())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "insert customers")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunBeginFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	repo := NewDatasetRepo(db)
	err = repo.SaveRun(context.Background(), "run-4", 42, time.Now().UTC(), sampleDataset())
	assert.ErrorContains(t, err, "begin run insert")
	assert.NoError(t, mock.ExpectationsWereMet())
}
