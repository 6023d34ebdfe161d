// Package dataset serializes generated datasets to CSV with fixed,
// documented column orders. Output is all-or-nothing: every table is
// written to a scratch directory first and files are only moved into the
// target directory after all four serialized cleanly.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ignite/churn-predictor/internal/synth"
)

const dateLayout = "2006-01-02"

// Table names accepted by Rows.
const (
	TableCustomers    = "customers"
	TableTransactions = "transactions"
	TableSupport      = "support_interactions"
	TableUsage        = "usage_records"
)

// Files holds the output file name for each table.
type Files struct {
	Customers    string
	Transactions string
	Support      string
	Usage        string
}

// Write serializes all four tables into dir. On any serialization error the
// scratch directory is discarded and dir is left untouched, so partial
// output is never observable.
func Write(dir string, files Files, ds *synth.Dataset) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.MkdirTemp(dir, ".run-")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	tables := []tableFile{
		{files.Customers, TableCustomers},
		{files.Transactions, TableTransactions},
		{files.Support, TableSupport},
		{files.Usage, TableUsage},
	}
	for _, t := range tables {
		header, rows, err := Rows(ds, t.name)
		if err != nil {
			return err
		}
		if err := writeCSV(filepath.Join(tmp, t.file), header, rows); err != nil {
			return fmt.Errorf("writing %s: %w", t.name, err)
		}
	}

	// Park any previous run's files in the scratch directory so a failed
	// swap can put them back; the target directory never holds a mix of old
	// and new tables.
	for i, t := range tables {
		dst := filepath.Join(dir, t.file)
		if _, err := os.Stat(dst); err != nil {
			continue
		}
		if err := os.Rename(dst, filepath.Join(tmp, t.file+".prev")); err != nil {
			restorePrevious(dir, tmp, tables[:i])
			return fmt.Errorf("staging previous %s: %w", t.name, err)
		}
	}
	for _, t := range tables {
		if err := os.Rename(filepath.Join(tmp, t.file), filepath.Join(dir, t.file)); err != nil {
			rollbackSwap(dir, tmp, tables)
			return fmt.Errorf("moving %s into place: %w", t.name, err)
		}
	}
	return nil
}

type tableFile struct {
	file string
	name string
}

// restorePrevious undoes the parking phase: any previous-run file already
// moved into the scratch directory goes back to its original location.
func restorePrevious(dir, tmp string, parked []tableFile) {
	for _, t := range parked {
		prev := filepath.Join(tmp, t.file+".prev")
		if _, err := os.Stat(prev); err == nil {
			_ = os.Rename(prev, filepath.Join(dir, t.file))
		}
	}
}

// rollbackSwap undoes a partially completed swap: parked previous files are
// put back (overwriting any new file already in place) and new files with no
// previous counterpart are removed.
func rollbackSwap(dir, tmp string, tables []tableFile) {
	for _, t := range tables {
		dst := filepath.Join(dir, t.file)
		prev := filepath.Join(tmp, t.file+".prev")
		if _, err := os.Stat(prev); err == nil {
			_ = os.Rename(prev, dst)
		} else {
			_ = os.Remove(dst)
		}
	}
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// Rows returns the header and serialized rows for one table. Used both by
// the CSV writer and by the API preview endpoint so the two always agree on
// column order.
func Rows(ds *synth.Dataset, table string) ([]string, [][]string, error) {
	switch table {
	case TableCustomers:
		header := []string{"customer_id", "age", "income_bracket", "region", "contract_type", "signup_date", "is_churned", "churn_date"}
		rows := make([][]string, 0, len(ds.Customers))
		for i := range ds.Customers {
			c := &ds.Customers[i]
			churnDate := ""
			if c.ChurnDate != nil {
				churnDate = c.ChurnDate.Format(dateLayout)
			}
			rows = append(rows, []string{
				c.CustomerID,
				strconv.Itoa(c.Age),
				c.IncomeBracket,
				c.Region,
				c.ContractType,
				c.SignupDate.Format(dateLayout),
				strconv.FormatBool(c.IsChurned),
				churnDate,
			})
		}
		return header, rows, nil

	case TableTransactions:
		header := []string{"transaction_id", "customer_id", "amount", "date", "type"}
		rows := make([][]string, 0, len(ds.Transactions))
		for i := range ds.Transactions {
			t := &ds.Transactions[i]
			rows = append(rows, []string{
				t.TransactionID,
				t.CustomerID,
				strconv.FormatFloat(t.Amount, 'f', 2, 64),
				t.Date.Format(dateLayout),
				t.Type,
			})
		}
		return header, rows, nil

	case TableSupport:
		header := []string{"interaction_id", "customer_id", "call_type", "duration", "date", "resolved"}
		rows := make([][]string, 0, len(ds.SupportInteractions))
		for i := range ds.SupportInteractions {
			s := &ds.SupportInteractions[i]
			rows = append(rows, []string{
				s.InteractionID,
				s.CustomerID,
				s.CallType,
				strconv.Itoa(s.DurationMinutes),
				s.Date.Format(dateLayout),
				strconv.FormatBool(s.Resolved),
			})
		}
		return header, rows, nil

	case TableUsage:
		header := []string{"customer_id", "date", "daily_usage_amount", "features_accessed", "sessions"}
		rows := make([][]string, 0, len(ds.UsageRecords))
		for i := range ds.UsageRecords {
			u := &ds.UsageRecords[i]
			rows = append(rows, []string{
				u.CustomerID,
				u.Date.Format(dateLayout),
				strconv.FormatFloat(u.DailyUsage, 'f', 2, 64),
				strings.Join(u.FeaturesAccessed, ";"),
				strconv.Itoa(u.Sessions),
			})
		}
		return header, rows, nil
	}
	return nil, nil, fmt.Errorf("unknown table %q", table)
}

// TableNames lists the tables in write order.
func TableNames() []string {
	return []string{TableCustomers, TableTransactions, TableSupport, TableUsage}
}
