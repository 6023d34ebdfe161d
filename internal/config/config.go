package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/churn-predictor/internal/synth"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig                  `yaml:"server"`
	Data          DataConfig                    `yaml:"data"`
	Random        RandomConfig                  `yaml:"random"`
	Customers     CustomersConfig               `yaml:"customers"`
	Distributions map[string]map[string]float64 `yaml:"distributions"`
	Transactions  TransactionsConfig            `yaml:"transactions"`
	Support       SupportConfig                 `yaml:"support"`
	Usage         UsageConfig                   `yaml:"usage"`
	Signals       SignalsConfig                 `yaml:"signals"`
	Storage       StorageConfig                 `yaml:"storage"`
	Postgres      PostgresConfig                `yaml:"postgres"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DataConfig holds dataset sizing, the observation window, and output paths
type DataConfig struct {
	OutputDir          string      `yaml:"output_dir"`
	NumCustomers       int         `yaml:"num_customers"`
	ChurnRate          float64     `yaml:"churn_rate"`
	ObservationStart   string      `yaml:"observation_start"` // YYYY-MM-DD
	ObservationEnd     string      `yaml:"observation_end"`   // YYYY-MM-DD
	SignupLookbackDays int         `yaml:"signup_lookback_days"`
	MinimumTenureDays  int         `yaml:"minimum_tenure_days"`
	Files              FilesConfig `yaml:"files"`
}

// FilesConfig holds output CSV file names
type FilesConfig struct {
	Customers    string `yaml:"customers"`
	Transactions string `yaml:"transactions"`
	Support      string `yaml:"support"`
	Usage        string `yaml:"usage"`
}

// RandomConfig holds the master seed. The seed is required: reproducibility
// is a hard requirement, not a default, so absence is a config error rather
// than a silent fallback.
type RandomConfig struct {
	Seed *int64 `yaml:"seed"`
}

// CustomersConfig holds demographic distribution parameters
type CustomersConfig struct {
	Age AgeConfig `yaml:"age"`
}

// AgeConfig holds the clipped normal age distribution
type AgeConfig struct {
	Min    int     `yaml:"min"`
	Max    int     `yaml:"max"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
}

// TransactionsConfig holds transaction rate and amount bounds
type TransactionsConfig struct {
	MonthlyRate float64 `yaml:"monthly_rate"`
	AmountMin   float64 `yaml:"amount_min"`
	AmountMax   float64 `yaml:"amount_max"`
}

// SupportConfig holds support interaction rate and duration bounds
type SupportConfig struct {
	MonthlyRate        float64 `yaml:"monthly_rate"`
	DurationMinMinutes int     `yaml:"duration_min_minutes"`
	DurationMaxMinutes int     `yaml:"duration_max_minutes"`
	ResolvedRate       float64 `yaml:"resolved_rate"`
}

// UsageConfig holds usage sampling cadence and magnitude
type UsageConfig struct {
	BaseDailyMean   float64 `yaml:"base_daily_mean"`
	NoiseStdDev     float64 `yaml:"noise_stddev"`
	RecordEveryDays int     `yaml:"record_every_days"`
	MaxFeatures     int     `yaml:"max_features"`
	MaxSessions     int     `yaml:"max_sessions"`
}

// SignalsConfig holds the tunable pre-churn signal policies
type SignalsConfig struct {
	SupportSpike SupportSpikeConfig `yaml:"support_spike"`
	UsageDecay   UsageDecayConfig   `yaml:"usage_decay"`
}

// SupportSpikeConfig boosts support density before churn
type SupportSpikeConfig struct {
	WindowDays int     `yaml:"window_days"`
	Multiplier float64 `yaml:"multiplier"`
}

// UsageDecayConfig shapes the engagement decline before churn
type UsageDecayConfig struct {
	WindowDays int     `yaml:"window_days"`
	Curve      string  `yaml:"curve"` // "linear" or "exponential"
	Floor      float64 `yaml:"floor"`
}

// StorageConfig holds artifact publishing configuration
type StorageConfig struct {
	Type       string `yaml:"type"` // "local" or "s3"
	LocalPath  string `yaml:"local_path"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role)
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// PostgresConfig holds the optional database sink
type PostgresConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DatabaseURL string `yaml:"database_url"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Data.OutputDir == "" {
		cfg.Data.OutputDir = "data/raw"
	}
	if cfg.Data.NumCustomers == 0 {
		cfg.Data.NumCustomers = 1000
	}
	if cfg.Data.ChurnRate == 0 {
		cfg.Data.ChurnRate = 0.2
	}
	if cfg.Data.ObservationStart == "" {
		cfg.Data.ObservationStart = "2023-01-01"
	}
	if cfg.Data.ObservationEnd == "" {
		cfg.Data.ObservationEnd = "2023-12-31"
	}
	if cfg.Data.SignupLookbackDays == 0 {
		cfg.Data.SignupLookbackDays = 365
	}
	if cfg.Data.MinimumTenureDays == 0 {
		cfg.Data.MinimumTenureDays = 30
	}
	if cfg.Data.Files.Customers == "" {
		cfg.Data.Files.Customers = "customers.csv"
	}
	if cfg.Data.Files.Transactions == "" {
		cfg.Data.Files.Transactions = "transactions.csv"
	}
	if cfg.Data.Files.Support == "" {
		cfg.Data.Files.Support = "support_interactions.csv"
	}
	if cfg.Data.Files.Usage == "" {
		cfg.Data.Files.Usage = "usage_records.csv"
	}
	if cfg.Customers.Age.Min == 0 {
		cfg.Customers.Age.Min = 18
	}
	if cfg.Customers.Age.Max == 0 {
		cfg.Customers.Age.Max = 75
	}
	if cfg.Customers.Age.Mean == 0 {
		cfg.Customers.Age.Mean = 42
	}
	if cfg.Customers.Age.StdDev == 0 {
		cfg.Customers.Age.StdDev = 12
	}
	if cfg.Distributions == nil {
		cfg.Distributions = map[string]map[string]float64{}
	}
	applyDistributionDefaults(cfg.Distributions)
	if cfg.Transactions.MonthlyRate == 0 {
		cfg.Transactions.MonthlyRate = 2.5
	}
	if cfg.Transactions.AmountMin == 0 {
		cfg.Transactions.AmountMin = 10
	}
	if cfg.Transactions.AmountMax == 0 {
		cfg.Transactions.AmountMax = 500
	}
	if cfg.Support.MonthlyRate == 0 {
		cfg.Support.MonthlyRate = 0.8
	}
	if cfg.Support.DurationMinMinutes == 0 {
		cfg.Support.DurationMinMinutes = 2
	}
	if cfg.Support.DurationMaxMinutes == 0 {
		cfg.Support.DurationMaxMinutes = 30
	}
	if cfg.Support.ResolvedRate == 0 {
		cfg.Support.ResolvedRate = 0.8
	}
	if cfg.Usage.BaseDailyMean == 0 {
		cfg.Usage.BaseDailyMean = 120
	}
	if cfg.Usage.NoiseStdDev == 0 {
		cfg.Usage.NoiseStdDev = 25
	}
	if cfg.Usage.RecordEveryDays == 0 {
		cfg.Usage.RecordEveryDays = 7
	}
	if cfg.Usage.MaxFeatures == 0 {
		cfg.Usage.MaxFeatures = 5
	}
	if cfg.Usage.MaxSessions == 0 {
		cfg.Usage.MaxSessions = 20
	}
	if cfg.Signals.SupportSpike.WindowDays == 0 {
		cfg.Signals.SupportSpike.WindowDays = 30
	}
	if cfg.Signals.SupportSpike.Multiplier == 0 {
		cfg.Signals.SupportSpike.Multiplier = 3.0
	}
	if cfg.Signals.UsageDecay.WindowDays == 0 {
		cfg.Signals.UsageDecay.WindowDays = 60
	}
	if cfg.Signals.UsageDecay.Curve == "" {
		cfg.Signals.UsageDecay.Curve = "linear"
	}
	if cfg.Signals.UsageDecay.Floor == 0 {
		cfg.Signals.UsageDecay.Floor = 0.1
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}

	return &cfg, nil
}

// applyDistributionDefaults fills any missing categorical field with the
// stock telecom distributions.
func applyDistributionDefaults(dists map[string]map[string]float64) {
	defaults := map[string]map[string]float64{
		synth.FieldIncomeBracket:   {"Low": 0.3, "Medium": 0.5, "High": 0.2},
		synth.FieldRegion:          {"North": 1, "South": 1, "East": 1, "West": 1},
		synth.FieldContractType:    {"Monthly": 0.6, "Annual": 0.3, "TwoYear": 0.1},
		synth.FieldCallType:        {"technical": 0.4, "billing": 0.3, "account": 0.2, "other": 0.1},
		synth.FieldTransactionType: {"subscription": 0.6, "purchase": 0.3, "refund": 0.05, "fee": 0.05},
		synth.FieldFeature:         {"dashboard": 0.3, "reports": 0.2, "mobile": 0.2, "alerts": 0.15, "api": 0.15},
	}
	for field, weights := range defaults {
		if len(dists[field]) == 0 {
			dists[field] = weights
		}
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so local overrides can live in .env and real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CHURN_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing CHURN_SEED: %w", err)
		}
		cfg.Random.Seed = &seed
	}
	if v := os.Getenv("CHURN_OUTPUT_DIR"); v != "" {
		cfg.Data.OutputDir = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DatabaseURL = v
		if !cfg.Postgres.Enabled {
			cfg.Postgres.Enabled = true
		}
	}
	if v := os.Getenv("CHURN_S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
		cfg.Storage.Type = "s3"
	}
	if v := os.Getenv("CHURN_S3_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}

	return cfg, nil
}

// Generator resolves the generator input from the loaded configuration.
// Missing or unparsable required fields are reported as synth.ConfigError
// so callers see a single error taxonomy for bad input.
func (c *Config) Generator() (synth.Config, error) {
	var gc synth.Config

	if c.Random.Seed == nil {
		return gc, &synth.ConfigError{Field: "random.seed", Reason: "required for reproducibility; no default is applied"}
	}
	start, err := time.Parse("2006-01-02", c.Data.ObservationStart)
	if err != nil {
		return gc, &synth.ConfigError{Field: "data.observation_start", Reason: "must be a YYYY-MM-DD date"}
	}
	end, err := time.Parse("2006-01-02", c.Data.ObservationEnd)
	if err != nil {
		return gc, &synth.ConfigError{Field: "data.observation_end", Reason: "must be a YYYY-MM-DD date"}
	}

	gc = synth.Config{
		NumCustomers:       c.Data.NumCustomers,
		ChurnRate:          c.Data.ChurnRate,
		Seed:               *c.Random.Seed,
		WindowStart:        start.UTC(),
		WindowEnd:          end.UTC(),
		SignupLookbackDays: c.Data.SignupLookbackDays,
		MinimumTenureDays:  c.Data.MinimumTenureDays,
		Distributions:      c.Distributions,
		Age: synth.AgeSpec{
			Min:    c.Customers.Age.Min,
			Max:    c.Customers.Age.Max,
			Mean:   c.Customers.Age.Mean,
			StdDev: c.Customers.Age.StdDev,
		},
		Transactions: synth.TransactionSpec{
			MonthlyRate: c.Transactions.MonthlyRate,
			AmountMin:   c.Transactions.AmountMin,
			AmountMax:   c.Transactions.AmountMax,
		},
		Support: synth.SupportSpec{
			MonthlyRate:     c.Support.MonthlyRate,
			DurationMinMins: c.Support.DurationMinMinutes,
			DurationMaxMins: c.Support.DurationMaxMinutes,
			ResolvedRate:    c.Support.ResolvedRate,
		},
		Usage: synth.UsageSpec{
			BaseDailyMean:   c.Usage.BaseDailyMean,
			NoiseStdDev:     c.Usage.NoiseStdDev,
			RecordEveryDays: c.Usage.RecordEveryDays,
			MaxFeatures:     c.Usage.MaxFeatures,
			MaxSessions:     c.Usage.MaxSessions,
		},
		SupportSpike: synth.SupportSpikePolicy{
			WindowDays: c.Signals.SupportSpike.WindowDays,
			Multiplier: c.Signals.SupportSpike.Multiplier,
		},
		UsageDecay: synth.UsageDecayPolicy{
			WindowDays: c.Signals.UsageDecay.WindowDays,
			Curve:      c.Signals.UsageDecay.Curve,
			Floor:      c.Signals.UsageDecay.Floor,
		},
	}
	return gc, nil
}
