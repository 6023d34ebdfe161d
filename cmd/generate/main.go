package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/ignite/churn-predictor/internal/config"
	"github.com/ignite/churn-predictor/internal/dataset"
	"github.com/ignite/churn-predictor/internal/repository/postgres"
	"github.com/ignite/churn-predictor/internal/storage"
	"github.com/ignite/churn-predictor/internal/synth"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	outDir := flag.String("out", "", "output directory override")
	customers := flag.Int("customers", 0, "num_customers override")
	churnRate := flag.Float64("churn-rate", 0, "churn_rate override")
	seed := flag.Int64("seed", 0, "random seed override")
	seedSet := false
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *outDir != "" {
		cfg.Data.OutputDir = *outDir
	}
	if *customers > 0 {
		cfg.Data.NumCustomers = *customers
	}
	if *churnRate > 0 {
		cfg.Data.ChurnRate = *churnRate
	}
	if seedSet {
		cfg.Random.Seed = seed
	}

	gc, err := cfg.Generator()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	started := time.Now()
	ds, err := synth.Generate(gc)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
	log.Printf("Generated %d customers, %d transactions, %d support interactions, %d usage records in %s",
		len(ds.Customers), len(ds.Transactions), len(ds.SupportInteractions), len(ds.UsageRecords),
		time.Since(started).Round(time.Millisecond))

	files := dataset.Files{
		Customers:    cfg.Data.Files.Customers,
		Transactions: cfg.Data.Files.Transactions,
		Support:      cfg.Data.Files.Support,
		Usage:        cfg.Data.Files.Usage,
	}
	if err := dataset.Write(cfg.Data.OutputDir, files, ds); err != nil {
		log.Fatalf("Writing CSVs: %v", err)
	}
	log.Printf("Wrote CSVs to %s", cfg.Data.OutputDir)

	ctx := context.Background()
	runID := uuid.NewString()

	if cfg.Postgres.Enabled {
		db, err := sql.Open("postgres", cfg.Postgres.DatabaseURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatalf("ping: %v", err)
		}

		repo := postgres.NewDatasetRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Ensuring schema: %v", err)
		}
		if err := repo.SaveRun(ctx, runID, gc.Seed, started.UTC(), ds); err != nil {
			log.Fatalf("Loading run into Postgres: %v", err)
		}
		log.Printf("Loaded run %s into Postgres", runID)
	}

	// Publish the CSV bundle when a storage backend is configured.
	if cfg.Storage.Type == "s3" || cfg.Storage.LocalPath != "" {
		store, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			log.Fatalf("Initializing storage: %v", err)
		}
		dests, err := store.PublishRun(ctx, runID, cfg.Data.OutputDir, []string{
			files.Customers, files.Transactions, files.Support, files.Usage,
		})
		if err != nil {
			log.Fatalf("Publishing artifacts: %v", err)
		}
		for _, d := range dests {
			log.Printf("Published %s", d)
		}
	}
}
