// Package config loads service configuration from defaults, an optional YAML
// file, the environment and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Resolver sources.
const (
	ResolverStore   = "store"
	ResolverInfoAPI = "infoapi"
)

// Config holds all service settings.
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Storage struct {
		Backend       string `yaml:"backend"`
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
		Migrate       bool   `yaml:"migrate"`
	} `yaml:"storage"`

	InfoAPI struct {
		Endpoint  string        `yaml:"endpoint"`
		RateLimit float64       `yaml:"rate_limit"`
		Burst     int           `yaml:"burst"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"info_api"`

	Search struct {
		Resolver    string            `yaml:"resolver"`
		Debounce    time.Duration     `yaml:"debounce"`
		MinChars    int               `yaml:"min_chars"`
		PageStart   int               `yaml:"page_start"`
		PageStep    int               `yaml:"page_step"`
		ResultLimit int               `yaml:"result_limit"`
		InfoPath    string            `yaml:"info_path"`
		ChainPath   string            `yaml:"chain_path"`
		StableSwap  bool              `yaml:"stable_swap"`
		Names       map[string]string `yaml:"names"`
		Symbols     map[string]string `yaml:"symbols"`
	} `yaml:"search"`

	Anniversary struct {
		RPCEndpoint       string   `yaml:"rpc_endpoint"`
		Contract          string   `yaml:"contract"`
		ChainID           int64    `yaml:"chain_id"`
		ExcludedLocations []string `yaml:"excluded_locations"`
		// PrivateKey is read from the environment only.
		PrivateKey string `yaml:"-"`
	} `yaml:"anniversary"`

	Ingest struct {
		Interval time.Duration `yaml:"interval"`
		Top      int           `yaml:"top"`
		Once     bool          `yaml:"once"`
	} `yaml:"ingest"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	var c Config
	c.HTTP.Addr = ":8080"
	c.Storage.Backend = BackendMemory
	c.InfoAPI.RateLimit = 10
	c.InfoAPI.Burst = 10
	c.InfoAPI.Timeout = 30 * time.Second
	c.Search.Resolver = ResolverStore
	c.Search.Debounce = 600 * time.Millisecond
	c.Search.MinChars = 2
	c.Search.PageStart = 3
	c.Search.PageStep = 5
	c.Search.ResultLimit = 100
	c.Search.InfoPath = "info/v3"
	c.Anniversary.ChainID = 56
	c.Anniversary.ExcludedLocations = []string{"/profile", "/pottery", "/lottery"}
	c.Ingest.Interval = 5 * time.Minute
	c.Ingest.Top = 500
	return &c
}

// LoadFile decodes a YAML file over c. Keys missing from the file keep their values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadEnvFile loads KEY=VALUE lines from path into the process environment.
// A missing file is not an error. Existing variables are not overridden.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
	return nil
}

// ApplyEnv overrides c with any variables set in getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, set func(string) error) {
		if v := getenv(key); v != "" {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}

	str("DEXINFO_ADDR", &c.HTTP.Addr)
	str("DEXINFO_BACKEND", &c.Storage.Backend)
	str("POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("CLICKHOUSE_DSN", &c.Storage.ClickhouseDSN)
	str("DEXINFO_INFO_ENDPOINT", &c.InfoAPI.Endpoint)
	str("DEXINFO_RESOLVER", &c.Search.Resolver)
	str("DEXINFO_INFO_PATH", &c.Search.InfoPath)
	str("DEXINFO_CHAIN_PATH", &c.Search.ChainPath)
	str("DEXINFO_RPC_ENDPOINT", &c.Anniversary.RPCEndpoint)
	str("DEXINFO_ANNIVERSARY_CONTRACT", &c.Anniversary.Contract)
	str("DEXINFO_PRIVATE_KEY", &c.Anniversary.PrivateKey)

	num("DEXINFO_MIGRATE", func(v string) (err error) {
		c.Storage.Migrate, err = strconv.ParseBool(v)
		return err
	})
	num("DEXINFO_INFO_RATE_LIMIT", func(v string) (err error) {
		c.InfoAPI.RateLimit, err = strconv.ParseFloat(v, 64)
		return err
	})
	num("DEXINFO_DEBOUNCE", func(v string) (err error) {
		c.Search.Debounce, err = time.ParseDuration(v)
		return err
	})
	num("DEXINFO_MIN_CHARS", func(v string) (err error) {
		c.Search.MinChars, err = strconv.Atoi(v)
		return err
	})
	num("DEXINFO_CHAIN_ID", func(v string) (err error) {
		c.Anniversary.ChainID, err = strconv.ParseInt(v, 10, 64)
		return err
	})
	num("DEXINFO_INGEST_INTERVAL", func(v string) (err error) {
		c.Ingest.Interval, err = time.ParseDuration(v)
		return err
	})
	if v := getenv("DEXINFO_EXCLUDED_LOCATIONS"); v != "" {
		c.Anniversary.ExcludedLocations = splitList(v)
	}

	return errors.Join(errs...)
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http addr is required")
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" || c.Storage.ClickhouseDSN == "" {
			return errors.New("postgres and clickhouse DSNs are required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Search.Resolver {
	case ResolverStore:
	case ResolverInfoAPI:
		if c.InfoAPI.Endpoint == "" {
			return errors.New("info api endpoint is required for the infoapi resolver")
		}
	default:
		return fmt.Errorf("unknown resolver %q", c.Search.Resolver)
	}

	if c.InfoAPI.Endpoint != "" && !strings.HasPrefix(c.InfoAPI.Endpoint, "http://") && !strings.HasPrefix(c.InfoAPI.Endpoint, "https://") {
		return fmt.Errorf("invalid info api endpoint: %s", c.InfoAPI.Endpoint)
	}
	if c.InfoAPI.RateLimit < 0 {
		return errors.New("info api rate limit must not be negative")
	}

	if c.Search.Debounce <= 0 {
		return errors.New("debounce must be positive")
	}
	if c.Search.MinChars < 1 {
		return errors.New("min chars must be at least 1")
	}
	if c.Search.PageStart <= 0 || c.Search.PageStep <= 0 {
		return errors.New("page start and step must be positive")
	}
	if c.Search.ResultLimit <= 0 {
		return errors.New("result limit must be positive")
	}
	if strings.Trim(c.Search.InfoPath, "/") == "" {
		return errors.New("info path is required")
	}

	if c.Anniversary.Contract != "" && !common.IsHexAddress(c.Anniversary.Contract) {
		return fmt.Errorf("invalid anniversary contract: %s", c.Anniversary.Contract)
	}
	if c.Anniversary.ChainID <= 0 {
		return errors.New("chain id must be positive")
	}

	if c.Ingest.Interval <= 0 || c.Ingest.Top <= 0 {
		return errors.New("ingest interval and top must be positive")
	}
	return nil
}

// AnniversaryEnabled reports whether the anniversary contract is configured.
func (c *Config) AnniversaryEnabled() bool {
	return c.Anniversary.RPCEndpoint != "" && c.Anniversary.Contract != ""
}

// Load builds a Config from args and getenv. --config names an optional YAML
// file; flags given explicitly win over the file and the environment.
func Load(name string, args []string, getenv func(string) string) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML config file")

	// Flags bind to a scratch copy; only visited ones are copied over.
	fc := Default()
	var excluded string
	bind := map[string]func(dst *Config){
		"addr":                 func(d *Config) { d.HTTP.Addr = fc.HTTP.Addr },
		"backend":              func(d *Config) { d.Storage.Backend = fc.Storage.Backend },
		"postgres-dsn":         func(d *Config) { d.Storage.PostgresDSN = fc.Storage.PostgresDSN },
		"clickhouse-dsn":       func(d *Config) { d.Storage.ClickhouseDSN = fc.Storage.ClickhouseDSN },
		"migrate":              func(d *Config) { d.Storage.Migrate = fc.Storage.Migrate },
		"info-endpoint":        func(d *Config) { d.InfoAPI.Endpoint = fc.InfoAPI.Endpoint },
		"info-rate-limit":      func(d *Config) { d.InfoAPI.RateLimit = fc.InfoAPI.RateLimit },
		"resolver":             func(d *Config) { d.Search.Resolver = fc.Search.Resolver },
		"debounce":             func(d *Config) { d.Search.Debounce = fc.Search.Debounce },
		"min-chars":            func(d *Config) { d.Search.MinChars = fc.Search.MinChars },
		"page-start":           func(d *Config) { d.Search.PageStart = fc.Search.PageStart },
		"page-step":            func(d *Config) { d.Search.PageStep = fc.Search.PageStep },
		"result-limit":         func(d *Config) { d.Search.ResultLimit = fc.Search.ResultLimit },
		"info-path":            func(d *Config) { d.Search.InfoPath = fc.Search.InfoPath },
		"chain-path":           func(d *Config) { d.Search.ChainPath = fc.Search.ChainPath },
		"stable-swap":          func(d *Config) { d.Search.StableSwap = fc.Search.StableSwap },
		"rpc-endpoint":         func(d *Config) { d.Anniversary.RPCEndpoint = fc.Anniversary.RPCEndpoint },
		"anniversary-contract": func(d *Config) { d.Anniversary.Contract = fc.Anniversary.Contract },
		"chain-id":             func(d *Config) { d.Anniversary.ChainID = fc.Anniversary.ChainID },
		"excluded-locations":   func(d *Config) { d.Anniversary.ExcludedLocations = splitList(excluded) },
		"ingest-interval":      func(d *Config) { d.Ingest.Interval = fc.Ingest.Interval },
		"ingest-top":           func(d *Config) { d.Ingest.Top = fc.Ingest.Top },
		"once":                 func(d *Config) { d.Ingest.Once = fc.Ingest.Once },
	}

	fs.StringVar(&fc.HTTP.Addr, "addr", fc.HTTP.Addr, "HTTP listen address")
	fs.StringVar(&fc.Storage.Backend, "backend", fc.Storage.Backend, "Storage backend (memory, postgres)")
	fs.StringVar(&fc.Storage.PostgresDSN, "postgres-dsn", "", "PostgreSQL connection string")
	fs.StringVar(&fc.Storage.ClickhouseDSN, "clickhouse-dsn", "", "ClickHouse connection string")
	fs.BoolVar(&fc.Storage.Migrate, "migrate", false, "Run migrations on startup")
	fs.StringVar(&fc.InfoAPI.Endpoint, "info-endpoint", "", "Info API GraphQL endpoint")
	fs.Float64Var(&fc.InfoAPI.RateLimit, "info-rate-limit", fc.InfoAPI.RateLimit, "Info API requests per second")
	fs.StringVar(&fc.Search.Resolver, "resolver", fc.Search.Resolver, "Search source (store, infoapi)")
	fs.DurationVar(&fc.Search.Debounce, "debounce", fc.Search.Debounce, "Search input debounce")
	fs.IntVar(&fc.Search.MinChars, "min-chars", fc.Search.MinChars, "Minimum query length")
	fs.IntVar(&fc.Search.PageStart, "page-start", fc.Search.PageStart, "Rows shown before \"see more\"")
	fs.IntVar(&fc.Search.PageStep, "page-step", fc.Search.PageStep, "Rows added per \"see more\"")
	fs.IntVar(&fc.Search.ResultLimit, "result-limit", fc.Search.ResultLimit, "Maximum results per kind")
	fs.StringVar(&fc.Search.InfoPath, "info-path", fc.Search.InfoPath, "Info route prefix")
	fs.StringVar(&fc.Search.ChainPath, "chain-path", "", "Chain route segment")
	fs.BoolVar(&fc.Search.StableSwap, "stable-swap", false, "Append stable swap query to routes")
	fs.StringVar(&fc.Anniversary.RPCEndpoint, "rpc-endpoint", "", "EVM JSON-RPC endpoint")
	fs.StringVar(&fc.Anniversary.Contract, "anniversary-contract", "", "Anniversary achievement contract address")
	fs.Int64Var(&fc.Anniversary.ChainID, "chain-id", fc.Anniversary.ChainID, "Chain ID")
	fs.StringVar(&excluded, "excluded-locations", "", "Comma-separated paths where the anniversary prompt is hidden")
	fs.DurationVar(&fc.Ingest.Interval, "ingest-interval", fc.Ingest.Interval, "Ingest run interval")
	fs.IntVar(&fc.Ingest.Top, "ingest-top", fc.Ingest.Top, "Tokens and pools pulled per ingest run")
	fs.BoolVar(&fc.Ingest.Once, "once", false, "Ingest once and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	fs.Visit(func(f *flag.Flag) {
		if apply, ok := bind[f.Name]; ok {
			apply(cfg)
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
