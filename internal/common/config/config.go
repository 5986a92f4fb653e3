// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Pipeline PipelineConfig          `mapstructure:"pipeline"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Registry RegistryConfig          `mapstructure:"registry"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Metrics  MetricsConfig           `mapstructure:"metrics"`
	Tracing  TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// PipelineConfig holds the flat-file locations and the fixed reference date
// used for age computation.
type PipelineConfig struct {
	InputDir      string `mapstructure:"input_dir"`
	SuccessDir    string `mapstructure:"success_dir"`
	FailDir       string `mapstructure:"fail_dir"`
	ReferenceDate string `mapstructure:"reference_date"` // YYYYMMDD
	DataExtension string `mapstructure:"data_extension"`
	SkipProcessed bool   `mapstructure:"skip_processed"`
	Parallelism   int    `mapstructure:"parallelism"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// RegistryConfig points at the activity registry describing the task types.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the health/metrics HTTP listener settings.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// TracingConfig selects where batch and audit spans are exported.
// Exporter is "none" or "otlp"; Endpoint is the collector's gRPC host:port.
type TracingConfig struct {
	Exporter string `mapstructure:"exporter"`
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}
