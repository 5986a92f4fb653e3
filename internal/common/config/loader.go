// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const referenceDateLayout = "20060102"

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and lets environment variables override any key (PIPELINE_INPUT_DIR, ...).
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// bools cannot be defaulted after unmarshal, and AutomaticEnv only
	// resolves keys viper already knows about
	v.SetDefault("pipeline.input_dir", filepath.Join(".", "data", "raw"))
	v.SetDefault("pipeline.success_dir", filepath.Join(".", "outputs", "successful"))
	v.SetDefault("pipeline.fail_dir", filepath.Join(".", "outputs", "failed"))
	v.SetDefault("pipeline.reference_date", "20220101")
	v.SetDefault("pipeline.data_extension", ".csv")
	v.SetDefault("pipeline.skip_processed", true)
	v.SetDefault("pipeline.parallelism", 1)
	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking from the working directory
// up to the module root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "member-pipeline"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 1
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 300000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Pipeline.Parallelism <= 0 {
		cfg.Pipeline.Parallelism = 1
	}
	if cfg.Pipeline.DataExtension != "" && !strings.HasPrefix(cfg.Pipeline.DataExtension, ".") {
		cfg.Pipeline.DataExtension = "." + cfg.Pipeline.DataExtension
	}

	if cfg.Registry.Path == "" {
		cfg.Registry.Path = filepath.Join("configs", "activity-registry.json")
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":8080"
	}

	cfg.Tracing.Exporter = strings.ToLower(strings.TrimSpace(cfg.Tracing.Exporter))
	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = "none"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			// batch runs own the output directories; one at a time
			worker.MaxJobsActive = 1
		}
		if worker.Timeout == 0 {
			worker.Timeout = cfg.Camunda.Timeout
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	p := cfg.Pipeline
	if p.InputDir == "" {
		return fmt.Errorf("pipeline.input_dir is required")
	}
	if p.SuccessDir == "" {
		return fmt.Errorf("pipeline.success_dir is required")
	}
	if p.FailDir == "" {
		return fmt.Errorf("pipeline.fail_dir is required")
	}
	if filepath.Clean(p.SuccessDir) == filepath.Clean(p.FailDir) {
		return fmt.Errorf("pipeline.success_dir and pipeline.fail_dir must differ")
	}
	if p.DataExtension == "" {
		return fmt.Errorf("pipeline.data_extension is required")
	}
	if _, err := ParseReferenceDate(p.ReferenceDate); err != nil {
		return fmt.Errorf("pipeline.reference_date: %w", err)
	}

	switch cfg.Tracing.Exporter {
	case "none":
	case "otlp":
		if cfg.Tracing.Endpoint == "" {
			return fmt.Errorf("tracing.endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("tracing.exporter must be none or otlp, got %q", cfg.Tracing.Exporter)
	}
	return nil
}

// ParseReferenceDate parses a YYYYMMDD reference date as a UTC calendar day.
func ParseReferenceDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(referenceDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYYMMDD, got %q: %w", s, err)
	}
	return t, nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 1,
		Timeout:       cfg.Camunda.Timeout,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
