package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// unsetEnv clears keys for the test and restores them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

var monitorEnvKeys = []string{
	"HELIUS_API_KEY", "HELIUS_API_URL", "RPC_ENDPOINT", "WS_ENDPOINT", "PROGRAM_ID", "COMMITMENT",
	"CHECK_INTERVAL", "SOL_PRICE", "REPORT_INTERVAL", "BATCH_INTERVAL", "BATCH_SIZE", "ENQUEUE_DELAY",
	"TOP_N", "MINT_FETCH_RPS", "NATIVE_SYMBOL", "CURRENCY", "LOCALE", "LOG_LEVEL", "LOG_FORMAT",
	"LOG_OUTPUT", "LOG_MAX_AGE_DAYS", "POSTGRES_DSN", "CLICKHOUSE_DSN", "KAFKA_BROKERS", "KAFKA_TOPIC", "METRICS_ADDR",
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 180*time.Second, cfg.Window)
	assert.Equal(t, 200.0, cfg.FiatRate)
	assert.Equal(t, 10*time.Second, cfg.ReportInterval)
	assert.Equal(t, time.Second, cfg.BatchInterval)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.EnqueueDelay)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, "finalized", cfg.Commitment)
	assert.Equal(t, "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8", cfg.ProgramID)
	assert.Equal(t, "SOL", cfg.NativeSymbol)

	// only the API key is missing
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "HELIUS_API_KEY")
}

func TestApplyDerived_HeliusEndpoints(t *testing.T) {
	cfg := Default()
	cfg.HeliusAPIKey = "abc-123"
	cfg.ApplyDerived()

	assert.Equal(t, "https://mainnet.helius-rpc.com/?api-key=abc-123", cfg.RPCEndpoint)
	assert.Equal(t, "wss://mainnet.helius-rpc.com/?api-key=abc-123", cfg.WSEndpoint)
	assert.NoError(t, cfg.Validate())

	explicit := Default()
	explicit.HeliusAPIKey = "k"
	explicit.RPCEndpoint = "http://localhost:8899"
	explicit.ApplyDerived()
	assert.Equal(t, "http://localhost:8899", explicit.RPCEndpoint)
	assert.Contains(t, explicit.WSEndpoint, "helius-rpc.com")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"HELIUS_API_KEY":  "key",
		"CHECK_INTERVAL":  "300",
		"SOL_PRICE":       "150.5",
		"REPORT_INTERVAL": "30s",
		"BATCH_SIZE":      "50",
		"TOP_N":           "5",
		"KAFKA_BROKERS":   "k1:9092, k2:9092,,",
		"COMMITMENT":      "confirmed",
		"LOG_LEVEL":       "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.HeliusAPIKey)
	assert.Equal(t, 300*time.Second, cfg.Window)
	assert.Equal(t, 150.5, cfg.FiatRate)
	assert.Equal(t, 30*time.Second, cfg.ReportInterval)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 5, cfg.TopN)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "confirmed", cfg.Commitment)
	assert.Equal(t, "info", cfg.LogLevel, "empty values keep the current setting")
}

func TestApplyEnv_InvalidNumbers(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"SOL_PRICE":      "two hundred",
		"CHECK_INTERVAL": "soon",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "SOL_PRICE")
	assert.Contains(t, err.Error(), "CHECK_INTERVAL")
}

func TestValidate_Ranges(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.HeliusAPIKey = "k"
		cfg.ApplyDerived()
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"batch size zero", func(c *Config) { c.BatchSize = 0 }, "batch size"},
		{"batch size over cap", func(c *Config) { c.BatchSize = 101 }, "batch size"},
		{"top-n zero", func(c *Config) { c.TopN = 0 }, "top-n"},
		{"top-n over cap", func(c *Config) { c.TopN = 11 }, "top-n"},
		{"window", func(c *Config) { c.Window = 0 }, "window"},
		{"report interval", func(c *Config) { c.ReportInterval = -time.Second }, "report interval"},
		{"batch interval", func(c *Config) { c.BatchInterval = 0 }, "batch interval"},
		{"sol price", func(c *Config) { c.FiatRate = 0 }, "sol price"},
		{"sol price NaN", func(c *Config) { c.FiatRate = math.NaN() }, "sol price"},
		{"sol price Inf", func(c *Config) { c.FiatRate = math.Inf(1) }, "sol price"},
		{"mint rps zero", func(c *Config) { c.MintFetchRPS = 0 }, "mint fetch rate"},
		{"mint rps NaN", func(c *Config) { c.MintFetchRPS = math.NaN() }, "mint fetch rate"},
		{"mint rps Inf", func(c *Config) { c.MintFetchRPS = math.Inf(1) }, "mint fetch rate"},
		{"commitment", func(c *Config) { c.Commitment = "max" }, "commitment"},
		{"program", func(c *Config) { c.ProgramID = "raydium" }, "program id"},
		{"kafka topic", func(c *Config) { c.KafkaBrokers = []string{"b:9092"}; c.KafkaTopic = "" }, "kafka topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, valid().Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
helius_api_key: from-yaml
window: 5m
sol_price: 175
top_n: 3
kafka_brokers:
  - broker-1:9092
`), 0o600))

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "from-yaml", cfg.HeliusAPIKey)
	assert.Equal(t, 5*time.Minute, cfg.Window)
	assert.Equal(t, 175.0, cfg.FiatRate)
	assert.Equal(t, 3, cfg.TopN)
	assert.Equal(t, []string{"broker-1:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 100, cfg.BatchSize, "absent keys keep defaults")
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_n: [1, 2"), 0o600))
	assert.Error(t, cfg.LoadFile(path))
}

func TestLoad_Precedence(t *testing.T) {
	unsetEnv(t, monitorEnvKeys...)

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "monitor.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("helius_api_key: yaml-key\ntop_n: 3\nsol_price: 100\nbatch_size: 20\n"), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("SOL_PRICE=150\nTOP_N=4\n"), 0o600))

	t.Setenv("TOP_N", "5")

	cfg, err := Load([]string{"-config", yamlPath, "-env-file", envPath, "-top-n", "6"})
	require.NoError(t, err)

	assert.Equal(t, "yaml-key", cfg.HeliusAPIKey)
	assert.Equal(t, 20, cfg.BatchSize, "yaml over defaults")
	assert.Equal(t, 150.0, cfg.FiatRate, ".env over yaml")
	assert.Equal(t, 6, cfg.TopN, "flags over env")
	assert.Equal(t, "https://mainnet.helius-rpc.com/?api-key=yaml-key", cfg.RPCEndpoint)
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	unsetEnv(t, monitorEnvKeys...)
	t.Setenv("HELIUS_API_KEY", "env-key")
	t.Setenv("BATCH_SIZE", "25")

	cfg, err := Load([]string{"-env-file", "", "-kafka-brokers", "a:9092,b:9092"})
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.HeliusAPIKey)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
}

func TestLoad_NonFiniteSolPrice(t *testing.T) {
	unsetEnv(t, monitorEnvKeys...)
	t.Setenv("HELIUS_API_KEY", "k")

	for _, v := range []string{"NaN", "+Inf", "-Inf"} {
		t.Setenv("SOL_PRICE", v)
		_, err := Load([]string{"-env-file", ""})
		require.Error(t, err, v)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "sol price")
	}
}

func TestLoad_ClickhouseDSN(t *testing.T) {
	unsetEnv(t, monitorEnvKeys...)
	t.Setenv("HELIUS_API_KEY", "k")
	t.Setenv("CLICKHOUSE_DSN", "clickhouse://env:9000/swaps")

	cfg, err := Load([]string{"-env-file", ""})
	require.NoError(t, err)
	assert.Equal(t, "clickhouse://env:9000/swaps", cfg.ClickhouseDSN)

	cfg, err = Load([]string{"-env-file", "", "-clickhouse-dsn", "clickhouse://flag:9000/swaps"})
	require.NoError(t, err)
	assert.Equal(t, "clickhouse://flag:9000/swaps", cfg.ClickhouseDSN)
}

func TestLoad_ValidationFailure(t *testing.T) {
	unsetEnv(t, monitorEnvKeys...)

	_, err := Load([]string{"-env-file", "", "-helius-api-key", "k", "-batch-size", "500"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_BadFlag(t *testing.T) {
	_, err := Load([]string{"-no-such-flag"})
	assert.Error(t, err)
}
