// Package config loads monitor settings from defaults, an optional YAML file,
// a .env file, environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"raydium-swap-monitor/internal/address"
)

const (
	heliusRPCBase = "https://mainnet.helius-rpc.com/"
	heliusWSBase  = "wss://mainnet.helius-rpc.com/"

	raydiumAMMProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	maxBatchSize        = 100
	maxTopN             = 10
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all monitor settings.
type Config struct {
	HeliusAPIKey  string `yaml:"helius_api_key"`
	EnrichmentURL string `yaml:"enrichment_url"`
	RPCEndpoint   string `yaml:"rpc_endpoint"`
	WSEndpoint    string `yaml:"ws_endpoint"`
	ProgramID     string `yaml:"program_id"`
	Commitment    string `yaml:"commitment"`

	Window         time.Duration `yaml:"window"`
	FiatRate       float64       `yaml:"sol_price"`
	ReportInterval time.Duration `yaml:"report_interval"`
	BatchInterval  time.Duration `yaml:"batch_interval"`
	BatchSize      int           `yaml:"batch_size"`
	EnqueueDelay   time.Duration `yaml:"enqueue_delay"`
	TopN           int           `yaml:"top_n"`
	MintFetchRPS   float64       `yaml:"mint_fetch_rps"`

	NativeSymbol string `yaml:"native_symbol"`
	Currency     string `yaml:"currency"`
	Locale       string `yaml:"locale"`

	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	LogOutput     string `yaml:"log_output"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`

	PostgresDSN   string   `yaml:"postgres_dsn"`
	ClickhouseDSN string   `yaml:"clickhouse_dsn"`
	KafkaBrokers  []string `yaml:"kafka_brokers"`
	KafkaTopic    string   `yaml:"kafka_topic"`
	MetricsAddr   string   `yaml:"metrics_addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		EnrichmentURL:  "https://api.helius.xyz",
		ProgramID:      raydiumAMMProgramID,
		Commitment:     "finalized",
		Window:         180 * time.Second,
		FiatRate:       200,
		ReportInterval: 10 * time.Second,
		BatchInterval:  time.Second,
		BatchSize:      maxBatchSize,
		EnqueueDelay:   10 * time.Second,
		TopN:           maxTopN,
		MintFetchRPS:   1,
		NativeSymbol:   "SOL",
		Currency:       "USD",
		Locale:         "en-US",
		LogLevel:       "info",
		LogFormat:      "json",
		LogOutput:      "stdout",
		LogMaxAgeDays:  7,
		KafkaTopic:     "raydium.leaderboard",
		MetricsAddr:    ":9090",
	}
}

// Load builds the configuration for the given command-line arguments.
// -config names a YAML file; -env-file names a dotenv file (default ".env",
// silently skipped when absent).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	envFile := fs.String("env-file", ".env", "Path to dotenv file")
	flags := Default()
	bindFlags(fs, flags)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file '%s': %w", *envFile, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		applyFlag(cfg, flags, f.Name)
	})

	cfg.ApplyDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays settings from a YAML file. Keys absent from the file keep
// their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// ApplyEnv overlays settings from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, parse func(string) error) {
		if v, ok := lookup(key); ok && v != "" {
			if err := parse(v); err != nil {
				errs = append(errs, fmt.Errorf("%s=%q: %w", key, v, err))
			}
		}
	}

	str("HELIUS_API_KEY", &c.HeliusAPIKey)
	str("HELIUS_API_URL", &c.EnrichmentURL)
	str("RPC_ENDPOINT", &c.RPCEndpoint)
	str("WS_ENDPOINT", &c.WSEndpoint)
	str("PROGRAM_ID", &c.ProgramID)
	str("COMMITMENT", &c.Commitment)
	str("NATIVE_SYMBOL", &c.NativeSymbol)
	str("CURRENCY", &c.Currency)
	str("LOCALE", &c.Locale)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("LOG_OUTPUT", &c.LogOutput)
	str("POSTGRES_DSN", &c.PostgresDSN)
	str("CLICKHOUSE_DSN", &c.ClickhouseDSN)
	str("KAFKA_TOPIC", &c.KafkaTopic)
	str("METRICS_ADDR", &c.MetricsAddr)
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.KafkaBrokers = splitList(v)
	}

	num("CHECK_INTERVAL", durationInto(&c.Window))
	num("REPORT_INTERVAL", durationInto(&c.ReportInterval))
	num("BATCH_INTERVAL", durationInto(&c.BatchInterval))
	num("ENQUEUE_DELAY", durationInto(&c.EnqueueDelay))
	num("SOL_PRICE", floatInto(&c.FiatRate))
	num("MINT_FETCH_RPS", floatInto(&c.MintFetchRPS))
	num("BATCH_SIZE", intInto(&c.BatchSize))
	num("TOP_N", intInto(&c.TopN))
	num("LOG_MAX_AGE_DAYS", intInto(&c.LogMaxAgeDays))

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ApplyDerived fills Helius mainnet endpoints from the API key when no
// explicit endpoint is set.
func (c *Config) ApplyDerived() {
	if c.HeliusAPIKey == "" {
		return
	}
	if c.RPCEndpoint == "" {
		c.RPCEndpoint = withAPIKey(heliusRPCBase, c.HeliusAPIKey)
	}
	if c.WSEndpoint == "" {
		c.WSEndpoint = withAPIKey(heliusWSBase, c.HeliusAPIKey)
	}
}

// Validate checks required settings and ranges.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.HeliusAPIKey == "" {
		fail("HELIUS_API_KEY is required")
	}
	if c.RPCEndpoint == "" {
		fail("RPC endpoint is required")
	}
	if c.WSEndpoint == "" {
		fail("WebSocket endpoint is required")
	}
	if err := address.Validate(c.ProgramID); err != nil {
		fail("program id: %v", err)
	}
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		fail("commitment must be processed, confirmed or finalized, got '%s'", c.Commitment)
	}

	for name, d := range map[string]time.Duration{
		"window":          c.Window,
		"report interval": c.ReportInterval,
		"batch interval":  c.BatchInterval,
		"enqueue delay":   c.EnqueueDelay,
	} {
		if d <= 0 {
			fail("%s must be positive, got %s", name, d)
		}
	}
	if c.BatchSize < 1 || c.BatchSize > maxBatchSize {
		fail("batch size must be in 1..%d, got %d", maxBatchSize, c.BatchSize)
	}
	if c.TopN < 1 || c.TopN > maxTopN {
		fail("top-n must be in 1..%d, got %d", maxTopN, c.TopN)
	}
	if c.FiatRate <= 0 || !finite(c.FiatRate) {
		fail("sol price must be positive, got %v", c.FiatRate)
	}
	if c.MintFetchRPS <= 0 || !finite(c.MintFetchRPS) {
		fail("mint fetch rate must be positive, got %v", c.MintFetchRPS)
	}
	if c.NativeSymbol == "" {
		fail("native symbol is required")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		fail("kafka topic is required when brokers are set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func bindFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.HeliusAPIKey, "helius-api-key", c.HeliusAPIKey, "Helius API key")
	fs.StringVar(&c.EnrichmentURL, "enrichment-url", c.EnrichmentURL, "Enriched transactions API base URL")
	fs.StringVar(&c.RPCEndpoint, "rpc-endpoint", c.RPCEndpoint, "Solana RPC HTTP endpoint (default derived from API key)")
	fs.StringVar(&c.WSEndpoint, "ws-endpoint", c.WSEndpoint, "Solana WebSocket endpoint (default derived from API key)")
	fs.StringVar(&c.ProgramID, "program", c.ProgramID, "Program ID to monitor")
	fs.StringVar(&c.Commitment, "commitment", c.Commitment, "Subscription commitment: processed, confirmed, finalized")
	fs.DurationVar(&c.Window, "window", c.Window, "Trailing aggregation window")
	fs.Float64Var(&c.FiatRate, "sol-price", c.FiatRate, "Fiat price of one SOL")
	fs.DurationVar(&c.ReportInterval, "report-interval", c.ReportInterval, "Leaderboard interval")
	fs.DurationVar(&c.BatchInterval, "batch-interval", c.BatchInterval, "Signature batch interval")
	fs.IntVar(&c.BatchSize, "batch-size", c.BatchSize, "Signatures per enrichment request (max 100)")
	fs.DurationVar(&c.EnqueueDelay, "enqueue-delay", c.EnqueueDelay, "Delay before a detected signature is queued")
	fs.IntVar(&c.TopN, "top-n", c.TopN, "Leaderboard length (max 10)")
	fs.Float64Var(&c.MintFetchRPS, "mint-fetch-rps", c.MintFetchRPS, "Mint detail lookups per second")
	fs.StringVar(&c.NativeSymbol, "native-symbol", c.NativeSymbol, "Native asset symbol in descriptions")
	fs.StringVar(&c.Currency, "currency", c.Currency, "ISO 4217 market cap currency")
	fs.StringVar(&c.Locale, "locale", c.Locale, "BCP 47 locale for number formatting")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: json or text")
	fs.StringVar(&c.LogOutput, "log-output", c.LogOutput, "Log output: stdout, stderr or file path")
	fs.StringVar(&c.PostgresDSN, "postgres-dsn", c.PostgresDSN, "PostgreSQL DSN for the leaderboard archive (empty to disable)")
	fs.StringVar(&c.ClickhouseDSN, "clickhouse-dsn", c.ClickhouseDSN, "ClickHouse DSN for the swap archive (empty to disable)")
	fs.Func("kafka-brokers", "Comma-separated Kafka brokers (empty to disable)", func(v string) error {
		c.KafkaBrokers = splitList(v)
		return nil
	})
	fs.StringVar(&c.KafkaTopic, "kafka-topic", c.KafkaTopic, "Kafka topic for reports")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Prometheus metrics HTTP address (empty to disable)")
}

func applyFlag(dst, src *Config, name string) {
	switch name {
	case "helius-api-key":
		dst.HeliusAPIKey = src.HeliusAPIKey
	case "enrichment-url":
		dst.EnrichmentURL = src.EnrichmentURL
	case "rpc-endpoint":
		dst.RPCEndpoint = src.RPCEndpoint
	case "ws-endpoint":
		dst.WSEndpoint = src.WSEndpoint
	case "program":
		dst.ProgramID = src.ProgramID
	case "commitment":
		dst.Commitment = src.Commitment
	case "window":
		dst.Window = src.Window
	case "sol-price":
		dst.FiatRate = src.FiatRate
	case "report-interval":
		dst.ReportInterval = src.ReportInterval
	case "batch-interval":
		dst.BatchInterval = src.BatchInterval
	case "batch-size":
		dst.BatchSize = src.BatchSize
	case "enqueue-delay":
		dst.EnqueueDelay = src.EnqueueDelay
	case "top-n":
		dst.TopN = src.TopN
	case "mint-fetch-rps":
		dst.MintFetchRPS = src.MintFetchRPS
	case "native-symbol":
		dst.NativeSymbol = src.NativeSymbol
	case "currency":
		dst.Currency = src.Currency
	case "locale":
		dst.Locale = src.Locale
	case "log-level":
		dst.LogLevel = src.LogLevel
	case "log-format":
		dst.LogFormat = src.LogFormat
	case "log-output":
		dst.LogOutput = src.LogOutput
	case "postgres-dsn":
		dst.PostgresDSN = src.PostgresDSN
	case "clickhouse-dsn":
		dst.ClickhouseDSN = src.ClickhouseDSN
	case "kafka-brokers":
		dst.KafkaBrokers = src.KafkaBrokers
	case "kafka-topic":
		dst.KafkaTopic = src.KafkaTopic
	case "metrics-addr":
		dst.MetricsAddr = src.MetricsAddr
	}
}

// durationInto accepts Go durations ("3m") or bare integers as seconds ("180").
func durationInto(dst *time.Duration) func(string) error {
	return func(v string) error {
		if secs, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(secs) * time.Second
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

func floatInto(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func intInto(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func withAPIKey(base, key string) string {
	return base + "?api-key=" + url.QueryEscape(key)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
