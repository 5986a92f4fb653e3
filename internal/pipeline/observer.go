// internal/pipeline/observer.go
package pipeline

import (
	"time"

	"member-pipeline/internal/common/logger"
	"member-pipeline/internal/common/metrics"
	"member-pipeline/internal/pipeline/cleaner"
)

// Stage is a checkpoint in the life of one input file.
type Stage string

const (
	StageDiscovered Stage = "Discovered"
	StageIngested   Stage = "Ingested"
	StageCleaned    Stage = "Cleaned"
	StageValidated  Stage = "Validated"
	StageSplit      Stage = "Split"
	StageWritten    Stage = "Written"
	StageDone       Stage = "Done"
	StageSkipped    Stage = "Skipped"
	StageRejected   Stage = "Rejected"
)

// Observer receives diagnostics at fixed pipeline checkpoints. The
// transformation packages never log; the processor and auditor call this.
// Implementations must be safe for concurrent use.
type Observer interface {
	RunStarted(runID, kind string)
	StageReached(file string, stage Stage)
	Cleaned(file string, report cleaner.Report)
	Split(file string, accepted, rejected int)
	FileSkipped(file, reason string)
	FileFailed(file string, err error)
	Audited(partition, file string, rows, successes int, rate float64, pass bool)
	AuditIgnored(partition, file string)
	RunFinished(runID, kind string, err error, elapsed time.Duration)
}

// LogObserver logs each checkpoint and updates the Prometheus counters.
type LogObserver struct {
	log logger.Logger
}

func NewLogObserver(log logger.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) RunStarted(runID, kind string) {
	o.log.Info("Run started", map[string]interface{}{"runId": runID, "kind": kind})
}

func (o *LogObserver) StageReached(file string, stage Stage) {
	o.log.Debug("Stage reached", map[string]interface{}{"file": file, "stage": string(stage)})
	if stage == StageDone {
		metrics.PipelineFiles.WithLabelValues(metrics.OutcomeProcessed).Inc()
	}
}

func (o *LogObserver) Cleaned(file string, report cleaner.Report) {
	for col, n := range report.NullCounts {
		if n > 0 {
			metrics.PipelineFieldNulls.WithLabelValues(col).Add(float64(n))
		}
	}
	metrics.PipelineDuplicatesRemoved.Add(float64(report.DuplicatesRemoved))

	o.log.Info("Batch cleaned", map[string]interface{}{
		"file":              file,
		"rows":              report.Rows,
		"duplicatesRemoved": report.DuplicatesRemoved,
		"nullCounts":        report.NullCounts,
	})
	for _, raw := range report.UnparseableDates {
		o.log.Warn("Unparseable date of birth", map[string]interface{}{"file": file, "value": raw})
	}
}

func (o *LogObserver) Split(file string, accepted, rejected int) {
	metrics.PipelineRecords.WithLabelValues(metrics.RecordAccepted).Add(float64(accepted))
	metrics.PipelineRecords.WithLabelValues(metrics.RecordRejected).Add(float64(rejected))
	o.log.Info("Batch split", map[string]interface{}{"file": file, "accepted": accepted, "rejected": rejected})
}

func (o *LogObserver) FileSkipped(file, reason string) {
	metrics.PipelineFiles.WithLabelValues(metrics.OutcomeSkipped).Inc()
	o.log.Info("File skipped", map[string]interface{}{"file": file, "reason": reason})
}

func (o *LogObserver) FileFailed(file string, err error) {
	metrics.PipelineFiles.WithLabelValues(metrics.OutcomeFailed).Inc()
	o.log.Error("File failed", map[string]interface{}{"file": file, "error": err})
}

func (o *LogObserver) Audited(partition, file string, rows, successes int, rate float64, pass bool) {
	result := metrics.AuditPass
	if !pass {
		result = metrics.AuditFail
	}
	metrics.AuditFiles.WithLabelValues(partition, result).Inc()

	fields := map[string]interface{}{
		"partition": partition,
		"file":      file,
		"rows":      rows,
		"successes": successes,
		"failures":  rows - successes,
		"rate":      rate,
		"pass":      pass,
	}
	if pass {
		o.log.Info("Output file audited", fields)
	} else {
		o.log.Error("Output file failed audit", fields)
	}
}

func (o *LogObserver) AuditIgnored(partition, file string) {
	o.log.Warn("Ignoring non-data file in output directory", map[string]interface{}{
		"partition": partition,
		"file":      file,
	})
}

func (o *LogObserver) RunFinished(runID, kind string, err error, elapsed time.Duration) {
	fields := map[string]interface{}{
		"runId":      runID,
		"kind":       kind,
		"durationMs": elapsed.Milliseconds(),
	}
	if err != nil {
		fields["error"] = err
		o.log.Error("Run failed", fields)
		return
	}
	o.log.Info("Run finished", fields)
}

// NopObserver discards every checkpoint.
type NopObserver struct{}

func (NopObserver) RunStarted(string, string) {}
func (NopObserver) StageReached(string, Stage) {}
func (NopObserver) Cleaned(string, cleaner.Report) {}
func (NopObserver) Split(string, int, int) {}
func (NopObserver) FileSkipped(string, string) {}
func (NopObserver) FileFailed(string, error) {}
func (NopObserver) Audited(string, string, int, int, float64, bool) {}
func (NopObserver) AuditIgnored(string, string) {}
func (NopObserver) RunFinished(string, string, error, time.Duration) {}
