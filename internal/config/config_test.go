package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 600*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 2, cfg.Search.MinChars)
	assert.Equal(t, 3, cfg.Search.PageStart)
	assert.Equal(t, 5, cfg.Search.PageStep)
	assert.Equal(t, int64(56), cfg.Anniversary.ChainID)
	assert.False(t, cfg.AnniversaryEnabled())
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlData := `
http:
  addr: ":9000"
search:
  debounce: 300ms
  min_chars: 3
  chain_path: bsc
  symbols:
    "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82": CAKE2
anniversary:
  excluded_locations: ["/nfts"]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

	env := envMap(map[string]string{
		"DEXINFO_MIN_CHARS": "4",
		"DEXINFO_ADDR":      ":9100",
	})

	cfg, err := Load("test", []string{"--config", path, "--addr", ":9200"}, env)
	require.NoError(t, err)

	assert.Equal(t, ":9200", cfg.HTTP.Addr, "flag wins over env and file")
	assert.Equal(t, 4, cfg.Search.MinChars, "env wins over file")
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce, "file wins over default")
	assert.Equal(t, "bsc", cfg.Search.ChainPath)
	assert.Equal(t, []string{"/nfts"}, cfg.Anniversary.ExcludedLocations)
	assert.Equal(t, "CAKE2", cfg.Search.Symbols["0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82"])
	assert.Equal(t, 5, cfg.Search.PageStep, "untouched default")
}

func TestLoad_UnvisitedFlagKeepsEnv(t *testing.T) {
	env := envMap(map[string]string{"DEXINFO_DEBOUNCE": "1s"})
	cfg, err := Load("test", []string{"--page-step", "10"}, env)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Search.Debounce)
	assert.Equal(t, 10, cfg.Search.PageStep)
}

func TestLoad_ExcludedLocationsFlag(t *testing.T) {
	cfg, err := Load("test", []string{"--excluded-locations", " /a, ,/b "}, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Anniversary.ExcludedLocations)
}

func TestApplyEnv_BadNumber(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{"DEXINFO_CHAIN_ID": "bsc"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEXINFO_CHAIN_ID")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = BackendPostgres }},
		{"infoapi without endpoint", func(c *Config) { c.Search.Resolver = ResolverInfoAPI }},
		{"bad endpoint scheme", func(c *Config) { c.InfoAPI.Endpoint = "ftp://x" }},
		{"zero debounce", func(c *Config) { c.Search.Debounce = 0 }},
		{"zero min chars", func(c *Config) { c.Search.MinChars = 0 }},
		{"zero page step", func(c *Config) { c.Search.PageStep = 0 }},
		{"empty info path", func(c *Config) { c.Search.InfoPath = "/" }},
		{"bad contract", func(c *Config) { c.Anniversary.Contract = "not-an-address" }},
		{"zero chain", func(c *Config) { c.Anniversary.ChainID = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_PostgresBackend(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = BackendPostgres
	cfg.Storage.PostgresDSN = "postgres://localhost/dexinfo"
	cfg.Storage.ClickhouseDSN = "clickhouse://localhost:9000/default"
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nDEXINFO_TEST_A=one\nDEXINFO_TEST_B=\"two\"\nbroken line\nDEXINFO_TEST_C=three\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("DEXINFO_TEST_C", "preset")
	t.Setenv("DEXINFO_TEST_A", "")
	t.Setenv("DEXINFO_TEST_B", "")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "one", os.Getenv("DEXINFO_TEST_A"))
	assert.Equal(t, "two", os.Getenv("DEXINFO_TEST_B"))
	assert.Equal(t, "preset", os.Getenv("DEXINFO_TEST_C"))

	assert.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
}
