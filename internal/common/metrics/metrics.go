// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"

	RecordAccepted = "accepted"
	RecordRejected = "rejected"

	PartitionSuccessful = "successful"
	PartitionFailed     = "failed"

	AuditPass = "pass"
	AuditFail = "fail"
)

var (
	PipelineFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_files_total",
			Help: "Input files handled by the batch processor, by outcome",
		},
		[]string{"outcome"},
	)

	PipelineRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_records_total",
			Help: "Validated records written, by outcome",
		},
		[]string{"outcome"},
	)

	PipelineFieldNulls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_field_nulls_total",
			Help: "Null or empty values observed per column after stripping",
		},
		[]string{"column"},
	)

	PipelineDuplicatesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_duplicates_removed_total",
			Help: "Exact duplicate rows dropped during cleaning",
		},
	)

	AuditFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_audit_files_total",
			Help: "Output files checked by the auditor, by partition and result",
		},
		[]string{"partition", "result"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)
