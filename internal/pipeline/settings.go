// Package pipeline holds the configuration object and the diagnostic
// collaborator shared by the batch processor and the output auditor.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"member-pipeline/internal/common/config"
	"member-pipeline/internal/common/errors"
	"member-pipeline/internal/models"
)

const (
	SuccessPrefix = "successful_"
	FailPrefix    = "failed_"
)

// Settings is passed explicitly into every entry point. Nothing in the
// pipeline reads process-wide state.
type Settings struct {
	InputDir      string
	SuccessDir    string
	FailDir       string
	ReferenceDate time.Time
	DataExtension string
	SkipProcessed bool
	Parallelism   int
}

// SettingsFromConfig converts the loaded pipeline section into Settings.
func SettingsFromConfig(cfg config.PipelineConfig) (Settings, error) {
	ref, err := config.ParseReferenceDate(cfg.ReferenceDate)
	if err != nil {
		return Settings{}, errors.NewConfigInvalidError("pipeline.reference_date", err)
	}
	s := Settings{
		InputDir:      cfg.InputDir,
		SuccessDir:    cfg.SuccessDir,
		FailDir:       cfg.FailDir,
		ReferenceDate: ref,
		DataExtension: cfg.DataExtension,
		SkipProcessed: cfg.SkipProcessed,
		Parallelism:   cfg.Parallelism,
	}
	return s, s.Validate()
}

// Validate checks the settings are usable and fills the extension dot and
// parallelism floor.
func (s *Settings) Validate() error {
	if s.InputDir == "" || s.SuccessDir == "" || s.FailDir == "" {
		return errors.NewConfigInvalidError("input, success and fail directories are required", nil)
	}
	if filepath.Clean(s.SuccessDir) == filepath.Clean(s.FailDir) {
		return errors.NewConfigInvalidError(
			fmt.Sprintf("success and fail directories must differ: %s", s.SuccessDir), nil)
	}
	if s.ReferenceDate.IsZero() {
		return errors.NewConfigInvalidError("reference date is required", nil)
	}
	if s.DataExtension == "" {
		s.DataExtension = ".csv"
	}
	if !strings.HasPrefix(s.DataExtension, ".") {
		s.DataExtension = "." + s.DataExtension
	}
	if s.Parallelism < 1 {
		s.Parallelism = 1
	}
	return nil
}

// WithDirs returns a copy with any non-empty override applied.
func (s Settings) WithDirs(inputDir, successDir, failDir string) Settings {
	if inputDir != "" {
		s.InputDir = inputDir
	}
	if successDir != "" {
		s.SuccessDir = successDir
	}
	if failDir != "" {
		s.FailDir = failDir
	}
	return s
}

// SuccessPath is where the accepted rows of input file name are written.
func (s Settings) SuccessPath(name string) string {
	return filepath.Join(s.SuccessDir, SuccessPrefix+name)
}

// FailPath is where the rejected rows of input file name are written.
func (s Settings) FailPath(name string) string {
	return filepath.Join(s.FailDir, FailPrefix+name)
}

// RequiredColumns lists the input columns a batch must carry. A name may be
// given combined or as first and last name columns.
func RequiredColumns(batch *models.RawBatch) []string {
	var missing []string
	for _, col := range []string{models.ColEmail, models.ColDateOfBirth, models.ColMobileNo} {
		if !batch.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if !batch.HasColumn(models.ColName) &&
		!(batch.HasColumn(models.ColFirstName) && batch.HasColumn(models.ColLastName)) {
		missing = append(missing, models.ColName)
	}
	return missing
}
