// Package audit re-reads written outputs as plain strings, re-validates every
// row and checks that accepted files hold only successes and rejected files
// only failures.
package audit

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"

	"member-pipeline/internal/common/errors"
	"member-pipeline/internal/common/metrics"
	"member-pipeline/internal/common/observability"
	"member-pipeline/internal/models"
	"member-pipeline/internal/pipeline"
	"member-pipeline/internal/pipeline/eligibility"
	"member-pipeline/internal/pipeline/table"
)

const runKind = "audit"

// FileReport is the audit outcome of one output file. Rate is the share of
// rows that belong in the file's partition.
type FileReport struct {
	Partition string  `json:"partition"`
	File      string  `json:"file"`
	Rows      int     `json:"rows"`
	Successes int     `json:"successes"`
	Failures  int     `json:"failures"`
	Rate      float64 `json:"rate"`
	Pass      bool    `json:"pass"`
}

// Report aggregates every audited file. Pass is the AND over all files.
type Report struct {
	RunID   string       `json:"runId"`
	Pass    bool         `json:"pass"`
	Files   []FileReport `json:"files"`
	Ignored []string     `json:"ignored,omitempty"`
}

// FailedFiles lists the files that did not pass.
func (r *Report) FailedFiles() []string {
	var failed []string
	for _, f := range r.Files {
		if !f.Pass {
			failed = append(failed, f.File)
		}
	}
	return failed
}

type Auditor struct {
	fs        afero.Fs
	settings  pipeline.Settings
	validator *eligibility.Validator
	observer  pipeline.Observer
	obs       *observability.Observability
}

func NewAuditor(fs afero.Fs, settings pipeline.Settings, observer pipeline.Observer, obs *observability.Observability) *Auditor {
	if observer == nil {
		observer = pipeline.NopObserver{}
	}
	return &Auditor{
		fs:        fs,
		settings:  settings,
		validator: eligibility.New(settings.ReferenceDate),
		observer:  observer,
		obs:       obs,
	}
}

type partition struct {
	name        string
	dir         string
	wantSuccess bool
}

// Run audits both output directories. The report is returned even when the
// audit fails, alongside an OUTPUT_VALIDITY_FAILURE error.
func (a *Auditor) Run(ctx context.Context) (report *Report, err error) {
	start := time.Now()
	report = &Report{RunID: uuid.New().String(), Pass: true}
	a.observer.RunStarted(report.RunID, runKind)
	defer func() {
		elapsed := time.Since(start)
		a.observer.RunFinished(report.RunID, runKind, err, elapsed)
		status := "success"
		if err != nil {
			status = "failure"
		}
		a.obs.RecordRun(ctx, runKind, status)
		a.obs.RecordRunDuration(ctx, elapsed, runKind, status)
	}()

	if err := a.settings.Validate(); err != nil {
		return report, err
	}

	ctx, span := a.obs.StartSpan(ctx, "pipeline.audit")
	defer span.End()

	partitions := []partition{
		{name: metrics.PartitionSuccessful, dir: a.settings.SuccessDir, wantSuccess: true},
		{name: metrics.PartitionFailed, dir: a.settings.FailDir, wantSuccess: false},
	}

	for _, part := range partitions {
		entries, err := table.List(a.fs, part.dir)
		if err != nil {
			return report, errors.NewOutputReadFailedError(part.dir, err)
		}
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if e.IsDir() || filepath.Ext(e.Name()) != a.settings.DataExtension {
				report.Ignored = append(report.Ignored, filepath.Join(part.dir, e.Name()))
				a.observer.AuditIgnored(part.name, e.Name())
				continue
			}

			fr, err := a.auditFile(part, e.Name())
			if err != nil {
				return report, err
			}
			report.Files = append(report.Files, fr)
			report.Pass = report.Pass && fr.Pass
			a.observer.Audited(fr.Partition, fr.File, fr.Rows, fr.Successes, fr.Rate, fr.Pass)
		}
	}

	span.SetAttributes(attribute.Bool("pass", report.Pass), attribute.Int("files", len(report.Files)))
	if !report.Pass {
		return report, errors.NewOutputValidityFailure(report.FailedFiles())
	}
	return report, nil
}

func (a *Auditor) auditFile(part partition, name string) (FileReport, error) {
	path := filepath.Join(part.dir, name)
	fr := FileReport{Partition: part.name, File: name}

	batch, err := table.Read(a.fs, path)
	if err != nil {
		return fr, errors.NewOutputReadFailedError(path, err)
	}

	records, err := RecordsFromStrings(batch)
	if err != nil {
		return fr, errors.NewOutputReadFailedError(path, err)
	}

	for _, rec := range records {
		if a.validator.Validate(rec).Success {
			fr.Successes++
		}
	}
	fr.Rows = len(records)
	fr.Failures = fr.Rows - fr.Successes

	belonging := fr.Failures
	if part.wantSuccess {
		belonging = fr.Successes
	}
	fr.Pass = belonging == fr.Rows
	if fr.Rows > 0 {
		fr.Rate = float64(belonging) / float64(fr.Rows)
	}
	return fr, nil
}

// RecordsFromStrings rebuilds cleaned records from an output file without
// trusting any typing from the original run. The date of birth is already
// canonical and is taken verbatim. Empty cells are null.
func RecordsFromStrings(batch *models.RawBatch) ([]models.CleanedRecord, error) {
	required := []string{models.ColFirstName, models.ColLastName, models.ColEmail, models.ColDateOfBirth, models.ColMobileNo}
	idx := make(map[string]int, len(required))
	var missing []string
	for _, col := range required {
		i := batch.Index(col)
		if i < 0 {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, &missingColumnsError{columns: missing}
	}

	records := make([]models.CleanedRecord, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		records = append(records, models.CleanedRecord{
			FirstName:   models.StringPtr(row[idx[models.ColFirstName]]),
			LastName:    models.StringPtr(row[idx[models.ColLastName]]),
			Email:       models.StringPtr(row[idx[models.ColEmail]]),
			DateOfBirth: models.StringPtr(row[idx[models.ColDateOfBirth]]),
			MobileNo:    models.StringPtr(row[idx[models.ColMobileNo]]),
		})
	}
	return records, nil
}

type missingColumnsError struct {
	columns []string
}

func (e *missingColumnsError) Error() string {
	return "missing columns: " + strings.Join(e.columns, ", ")
}
