package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/churn-predictor/internal/config"
	"github.com/ignite/churn-predictor/internal/dataset"
	"github.com/ignite/churn-predictor/internal/pkg/httputil"
	"github.com/ignite/churn-predictor/internal/pkg/logger"
	"github.com/ignite/churn-predictor/internal/synth"
)

// Handlers holds the API endpoint handlers. The last generated run is kept
// in memory for preview; each run's CSVs land under the configured output
// directory in a per-run-id subdirectory so runs never clobber each other.
type Handlers struct {
	cfg       *config.Config
	startTime time.Time

	mu      sync.RWMutex
	lastRun *RunSummary
	lastDS  *synth.Dataset
}

// NewHandlers creates the handler set for the given configuration.
func NewHandlers(cfg *config.Config) *Handlers {
	return &Handlers{cfg: cfg, startTime: time.Now()}
}

// GenerateRequest optionally overrides sizing knobs for one run.
type GenerateRequest struct {
	NumCustomers *int     `json:"num_customers,omitempty"`
	ChurnRate    *float64 `json:"churn_rate,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
}

// RunSummary describes one completed generation run.
type RunSummary struct {
	RunID               string    `json:"run_id"`
	GeneratedAt         time.Time `json:"generated_at"`
	Seed                int64     `json:"seed"`
	NumCustomers        int       `json:"num_customers"`
	ChurnedCustomers    int       `json:"churned_customers"`
	Transactions        int       `json:"transactions"`
	SupportInteractions int       `json:"support_interactions"`
	UsageRecords        int       `json:"usage_records"`
	OutputDir           string    `json:"output_dir"`
}

// HandleGenerate runs the generator and writes the CSV bundle.
//
//	POST /api/generate
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if r.ContentLength > 0 && !httputil.Decode(w, r, &req) {
		return
	}

	// Work on a copy so request overrides never leak into server config.
	cfg := *h.cfg
	if req.NumCustomers != nil {
		cfg.Data.NumCustomers = *req.NumCustomers
	}
	if req.ChurnRate != nil {
		cfg.Data.ChurnRate = *req.ChurnRate
	}
	if req.Seed != nil {
		cfg.Random.Seed = req.Seed
	}

	gc, err := cfg.Generator()
	if err != nil {
		writeGenerateError(w, err)
		return
	}

	started := time.Now()
	ds, err := synth.Generate(gc)
	if err != nil {
		writeGenerateError(w, err)
		return
	}

	runID := uuid.NewString()
	outDir := filepath.Join(cfg.Data.OutputDir, runID)
	files := dataset.Files{
		Customers:    cfg.Data.Files.Customers,
		Transactions: cfg.Data.Files.Transactions,
		Support:      cfg.Data.Files.Support,
		Usage:        cfg.Data.Files.Usage,
	}
	if err := dataset.Write(outDir, files, ds); err != nil {
		httputil.InternalError(w, err)
		return
	}

	summary := summarize(runID, gc.Seed, ds, outDir)
	h.mu.Lock()
	h.lastRun = &summary
	h.lastDS = ds
	h.mu.Unlock()

	logger.Info("generation run complete",
		"run_id", runID,
		"customers", summary.NumCustomers,
		"churned", summary.ChurnedCustomers,
		"elapsed", time.Since(started).String(),
	)
	httputil.OK(w, summary)
}

// HandleLatestRun returns the summary of the most recent run.
//
//	GET /api/runs/latest
func (h *Handlers) HandleLatestRun(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	last := h.lastRun
	h.mu.RUnlock()
	if last == nil {
		httputil.NotFound(w, "no runs generated yet")
		return
	}
	httputil.OK(w, last)
}

// PreviewResponse is the first N rows of one table from the last run.
type PreviewResponse struct {
	RunID  string     `json:"run_id"`
	Table  string     `json:"table"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Total  int        `json:"total_rows"`
}

// HandlePreview returns the first rows of one table from the last run.
//
//	GET /api/runs/latest/preview?table=customers&limit=20
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	last, ds := h.lastRun, h.lastDS
	h.mu.RUnlock()
	if last == nil {
		httputil.NotFound(w, "no runs generated yet")
		return
	}

	table := r.URL.Query().Get("table")
	if table == "" {
		table = dataset.TableCustomers
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	header, rows, err := dataset.Rows(ds, table)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	total := len(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	httputil.OK(w, PreviewResponse{
		RunID:  last.RunID,
		Table:  table,
		Header: header,
		Rows:   rows,
		Total:  total,
	})
}

// HandleHealth is a liveness probe that also reports the last run id.
//
//	GET /health
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	lastRunID := ""
	if h.lastRun != nil {
		lastRunID = h.lastRun.RunID
	}
	h.mu.RUnlock()

	httputil.OK(w, map[string]string{
		"status":      "healthy",
		"uptime":      time.Since(h.startTime).Round(time.Second).String(),
		"last_run_id": lastRunID,
	})
}

// writeGenerateError maps the generator error taxonomy onto HTTP statuses:
// bad input is the caller's fault, invariant failures are ours.
func writeGenerateError(w http.ResponseWriter, err error) {
	var cfgErr *synth.ConfigError
	if errors.As(err, &cfgErr) {
		httputil.BadRequestField(w, cfgErr.Field, cfgErr.Reason)
		return
	}
	httputil.InternalError(w, err)
}

func summarize(runID string, seed int64, ds *synth.Dataset, outDir string) RunSummary {
	churned := 0
	for i := range ds.Customers {
		if ds.Customers[i].IsChurned {
			churned++
		}
	}
	return RunSummary{
		RunID:               runID,
		GeneratedAt:         time.Now().UTC(),
		Seed:                seed,
		NumCustomers:        len(ds.Customers),
		ChurnedCustomers:    churned,
		Transactions:        len(ds.Transactions),
		SupportInteractions: len(ds.SupportInteractions),
		UsageRecords:        len(ds.UsageRecords),
		OutputDir:           outDir,
	}
}
