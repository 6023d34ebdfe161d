package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/churn-predictor/internal/synth"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "0.0.0.0"
  port: 9090

data:
  output_dir: "out"
  num_customers: 250
  churn_rate: 0.35
  observation_start: "2022-06-01"
  observation_end: "2022-12-31"
  minimum_tenure_days: 45

random:
  seed: 7

signals:
  usage_decay:
    curve: "exponential"

postgres:
  enabled: true
  database_url: "postgres://localhost/churn"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "out", cfg.Data.OutputDir)
	assert.Equal(t, 250, cfg.Data.NumCustomers)
	assert.Equal(t, 0.35, cfg.Data.ChurnRate)
	assert.Equal(t, "2022-06-01", cfg.Data.ObservationStart)
	assert.Equal(t, 45, cfg.Data.MinimumTenureDays)
	require.NotNil(t, cfg.Random.Seed)
	assert.Equal(t, int64(7), *cfg.Random.Seed)
	assert.Equal(t, "exponential", cfg.Signals.UsageDecay.Curve)
	assert.True(t, cfg.Postgres.Enabled)

	// Unset sections fall back to defaults.
	assert.Equal(t, 365, cfg.Data.SignupLookbackDays)
	assert.Equal(t, "customers.csv", cfg.Data.Files.Customers)
	assert.Equal(t, 2.5, cfg.Transactions.MonthlyRate)
	assert.Equal(t, 0.8, cfg.Support.ResolvedRate)
	assert.Equal(t, 7, cfg.Usage.RecordEveryDays)
	assert.Equal(t, 30, cfg.Signals.SupportSpike.WindowDays)
	assert.Equal(t, 3.0, cfg.Signals.SupportSpike.Multiplier)
	assert.Equal(t, 0.1, cfg.Signals.UsageDecay.Floor)
	assert.Equal(t, "local", cfg.Storage.Type)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "random:\n  seed: 1\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 1000, cfg.Data.NumCustomers)
	assert.Equal(t, 0.2, cfg.Data.ChurnRate)
	assert.Equal(t, "2023-01-01", cfg.Data.ObservationStart)
	assert.Equal(t, "2023-12-31", cfg.Data.ObservationEnd)
	assert.Equal(t, 30, cfg.Data.MinimumTenureDays)
	assert.Equal(t, 18, cfg.Customers.Age.Min)
	assert.Equal(t, 75, cfg.Customers.Age.Max)
	assert.Equal(t, 120.0, cfg.Usage.BaseDailyMean)
	assert.Equal(t, "linear", cfg.Signals.UsageDecay.Curve)

	// Stock categorical distributions are filled in.
	assert.Equal(t, 0.5, cfg.Distributions[synth.FieldIncomeBracket]["Medium"])
	assert.Len(t, cfg.Distributions[synth.FieldRegion], 4)
	assert.Equal(t, 0.6, cfg.Distributions[synth.FieldTransactionType]["subscription"])
}

func TestLoadDistributionOverride(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
random:
  seed: 1
distributions:
  region:
    Urban: 0.7
    Rural: 0.3
`))
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"Urban": 0.7, "Rural": 0.3}, cfg.Distributions[synth.FieldRegion])
	// Other fields still get defaults.
	assert.Len(t, cfg.Distributions[synth.FieldCallType], 4)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "data: [not: a: map"))
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("CHURN_SEED", "99")
	t.Setenv("CHURN_OUTPUT_DIR", "/tmp/override")
	t.Setenv("DATABASE_URL", "postgres://db/churn")
	t.Setenv("CHURN_S3_BUCKET", "churn-artifacts")
	t.Setenv("CHURN_S3_REGION", "eu-west-1")

	cfg, err := LoadFromEnv(writeConfig(t, "random:\n  seed: 1\n"))
	require.NoError(t, err)

	require.NotNil(t, cfg.Random.Seed)
	assert.Equal(t, int64(99), *cfg.Random.Seed)
	assert.Equal(t, "/tmp/override", cfg.Data.OutputDir)
	assert.True(t, cfg.Postgres.Enabled)
	assert.Equal(t, "postgres://db/churn", cfg.Postgres.DatabaseURL)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "churn-artifacts", cfg.Storage.S3Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.AWSRegion)
}

func TestLoadFromEnvBadSeed(t *testing.T) {
	t.Setenv("CHURN_SEED", "not-a-number")
	_, err := LoadFromEnv(writeConfig(t, "random:\n  seed: 1\n"))
	assert.ErrorContains(t, err, "CHURN_SEED")
}

func TestGeneratorRequiresSeed(t *testing.T) {
	cfg, err := Load(writeConfig(t, "data:\n  num_customers: 10\n"))
	require.NoError(t, err)
	require.Nil(t, cfg.Random.Seed)

	_, err = cfg.Generator()
	var cfgErr *synth.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "random.seed", cfgErr.Field)
}

func TestGeneratorBadDates(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
random:
  seed: 1
data:
  observation_start: "01/02/2023"
`))
	require.NoError(t, err)

	_, err = cfg.Generator()
	var cfgErr *synth.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "data.observation_start", cfgErr.Field)
}

func TestGeneratorMapping(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
random:
  seed: 42
data:
  num_customers: 100
  churn_rate: 0.2
support:
  duration_min_minutes: 5
  duration_max_minutes: 40
`))
	require.NoError(t, err)

	gc, err := cfg.Generator()
	require.NoError(t, err)

	assert.Equal(t, int64(42), gc.Seed)
	assert.Equal(t, 100, gc.NumCustomers)
	assert.Equal(t, 0.2, gc.ChurnRate)
	assert.Equal(t, "2023-01-01", gc.WindowStart.Format("2006-01-02"))
	assert.Equal(t, "2023-12-31", gc.WindowEnd.Format("2006-01-02"))
	assert.Equal(t, 5, gc.Support.DurationMinMins)
	assert.Equal(t, 40, gc.Support.DurationMaxMins)
	assert.Equal(t, synth.CurveLinear, gc.UsageDecay.Curve)

	// The resolved config must pass generator validation as-is.
	require.NoError(t, gc.Validate())
}

func TestGetHost(t *testing.T) {
	c := ServerConfig{Host: "localhost"}
	assert.Equal(t, "localhost", c.GetHost())

	t.Setenv("SERVER_HOST", "10.0.0.5")
	assert.Equal(t, "10.0.0.5", c.GetHost())

	t.Setenv("ECS_CONTAINER_METADATA_URI", "http://169.254.170.2/v3")
	assert.Equal(t, "0.0.0.0", c.GetHost(), "containers listen on all interfaces")
}

func TestGetAWSProfile(t *testing.T) {
	c := StorageConfig{AWSProfile: "dev"}
	assert.Equal(t, "dev", c.GetAWSProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "prod")
	assert.Equal(t, "prod", c.GetAWSProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "iam")
	assert.Equal(t, "", c.GetAWSProfile(), "iam means use the default credential chain")
}
