// internal/workers/pipeline/ingest-and-process/config.go
package ingestandprocess

import (
	"fmt"
	"time"

	"member-pipeline/internal/common/config"
	"member-pipeline/internal/pipeline"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	Settings      pipeline.Settings
}

// ConfigFromApp builds the worker config from the loaded application config.
func ConfigFromApp(cfg *config.Config) (*Config, error) {
	settings, err := pipeline.SettingsFromConfig(cfg.Pipeline)
	if err != nil {
		return nil, err
	}
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Enabled:       wcfg.Enabled,
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
		Settings:      settings,
	}, nil
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return c.Settings.Validate()
}
