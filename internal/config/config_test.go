package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const mainYAML = `Name: stockd
Env: dev
Pipeline:
  Concurrency: 8
  QuoteEnabled: true
  Symbols:
    - "600519"
    - "000858"
DataSource:
  File: datasource.yaml
LLM:
  File: llm.yaml
`

const datasourceYAML = `adapters:
  tushare:
    type: tushare
    priority: 100
    token: ${TUSHARE_TOKEN}
  sina:
    type: sina
    priority: 50
kinds:
  daily:
    ttl: 1h
throttle:
  qps: 2
`

const llmYAML = `api_key: test-key
model: deepseek-chat
`

func TestLoadHydratesSections(t *testing.T) {
	t.Setenv("TUSHARE_TOKEN", "tok-abc")
	t.Setenv("NO_DOTENV", "1")

	dir := t.TempDir()
	writeFile(t, dir, "datasource.yaml", datasourceYAML)
	writeFile(t, dir, "llm.yaml", llmYAML)
	mainPath := writeFile(t, dir, "daily.yaml", mainYAML)

	cfg, err := Load(mainPath)
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.False(t, cfg.IsTestEnv())
	require.Equal(t, 8, cfg.Pipeline.Concurrency)
	require.True(t, cfg.Pipeline.QuoteEnabled)
	require.Equal(t, []string{"600519", "000858"}, cfg.Pipeline.Symbols)
	require.Equal(t, dir, cfg.BaseDir())

	require.NotNil(t, cfg.DataSource.Value)
	require.Equal(t, "tok-abc", cfg.DataSource.Value.Adapters["tushare"].Token)
	require.NotNil(t, cfg.LLM.Value)
	require.Equal(t, "test-key", cfg.LLM.Value.APIKey)
	require.Nil(t, cfg.Notify.Value)
	require.Nil(t, cfg.Analyzer.Value)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	dir := t.TempDir()
	mainPath := writeFile(t, dir, "daily.yaml", "Name: stockd\n")

	cfg, err := Load(mainPath)
	require.NoError(t, err)
	require.Equal(t, "test", cfg.Env)
	require.True(t, cfg.IsTestEnv())
	require.Equal(t, 4, cfg.Pipeline.Concurrency)
	require.Equal(t, "reports", cfg.Pipeline.JournalDir)
	require.Equal(t, 10, cfg.TTL.Short)
	require.Equal(t, 60, cfg.TTL.Medium)
	require.Equal(t, 300, cfg.TTL.Long)
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	dir := t.TempDir()
	mainPath := writeFile(t, dir, "daily.yaml", "Name: stockd\nEnv: staging\n")

	_, err := Load(mainPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "env")
}

func TestLoadRejectsMissingSectionFile(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	dir := t.TempDir()
	mainPath := writeFile(t, dir, "daily.yaml", "Name: stockd\nDataSource:\n  File: missing.yaml\n")

	_, err := Load(mainPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "datasource")
}

func TestLoadAnalyzerSection(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	dir := t.TempDir()
	writeFile(t, dir, "analyzer.yaml", "bias_threshold: 6.0\nmin_bars: 40\n")
	mainPath := writeFile(t, dir, "daily.yaml", "Name: stockd\nAnalyzer:\n  File: analyzer.yaml\n")

	cfg, err := Load(mainPath)
	require.NoError(t, err)
	require.NotNil(t, cfg.Analyzer.Value)
	require.InDelta(t, 6.0, cfg.Analyzer.Value.BiasThreshold, 1e-9)
	require.Equal(t, 40, cfg.Analyzer.Value.MinBars)
}
