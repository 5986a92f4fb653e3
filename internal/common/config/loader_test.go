// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: test\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(".", "data", "raw"), cfg.Pipeline.InputDir)
	assert.Equal(t, filepath.Join(".", "outputs", "successful"), cfg.Pipeline.SuccessDir)
	assert.Equal(t, filepath.Join(".", "outputs", "failed"), cfg.Pipeline.FailDir)
	assert.Equal(t, "20220101", cfg.Pipeline.ReferenceDate)
	assert.Equal(t, ".csv", cfg.Pipeline.DataExtension)
	assert.True(t, cfg.Pipeline.SkipProcessed)
	assert.Equal(t, 1, cfg.Pipeline.Parallelism)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.Metrics.Address)
	assert.Equal(t, "none", cfg.Tracing.Exporter)
}

func TestLoadFromFile_Overrides(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  input_dir: /data/in
  success_dir: /data/ok
  fail_dir: /data/ko
  reference_date: "20230615"
  data_extension: csv
  skip_processed: false
  parallelism: 4
workers:
  ingest-and-process:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/in", cfg.Pipeline.InputDir)
	assert.Equal(t, ".csv", cfg.Pipeline.DataExtension)
	assert.False(t, cfg.Pipeline.SkipProcessed)
	assert.Equal(t, 4, cfg.Pipeline.Parallelism)

	w := cfg.Workers["ingest-and-process"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 1, w.MaxJobsActive)
	assert.Equal(t, cfg.Camunda.Timeout, w.Timeout)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("PIPELINE_INPUT_DIR", "/from/env")
	path := writeConfig(t, "pipeline:\n  input_dir: /from/file\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Pipeline.InputDir)
}

func TestLoadFromFile_EnvPlaceholder(t *testing.T) {
	t.Setenv("BATCH_ROOT", "/mnt/batches")
	path := writeConfig(t, "pipeline:\n  input_dir: ${BATCH_ROOT}/raw\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/batches/raw", cfg.Pipeline.InputDir)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad reference date", "pipeline:\n  reference_date: \"2022-01-01\"\n"},
		{"same output dirs", "pipeline:\n  success_dir: /out\n  fail_dir: /out/\n"},
		{"unknown trace exporter", "tracing:\n  exporter: jaeger\n"},
		{"otlp without endpoint", "tracing:\n  exporter: otlp\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile_Tracing(t *testing.T) {
	t.Setenv("TRACING_ENDPOINT", "collector:4317")
	path := writeConfig(t, "tracing:\n  exporter: OTLP\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "otlp", cfg.Tracing.Exporter)
	assert.Equal(t, "collector:4317", cfg.Tracing.Endpoint)
	assert.True(t, cfg.Tracing.Insecure)
}

func TestParseReferenceDate(t *testing.T) {
	ref, err := ParseReferenceDate("20220101")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), ref)

	_, err = ParseReferenceDate("20221301")
	assert.Error(t, err)
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Camunda: CamundaConfig{Timeout: 1000}}
	w := GetWorkerConfig(cfg, "missing")
	assert.True(t, w.Enabled)
	assert.Equal(t, 1000, w.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "missing"))
}
