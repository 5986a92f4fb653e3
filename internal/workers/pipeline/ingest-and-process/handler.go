// internal/workers/pipeline/ingest-and-process/handler.go
package ingestandprocess

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/spf13/afero"

	"member-pipeline/internal/common/errors"
	"member-pipeline/internal/common/logger"
	"member-pipeline/internal/common/metrics"
	"member-pipeline/internal/common/observability"
	"member-pipeline/internal/common/validation"
	"member-pipeline/internal/pipeline"
	"member-pipeline/internal/pipeline/batch"
	"member-pipeline/pkg/registry"
)

const TaskType = "ingest-and-process"

// Runner runs one processing pass.
type Runner interface {
	Run(ctx context.Context) (*batch.Result, error)
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	inputSchema  map[string]interface{}
	newRunner    func(settings pipeline.Settings) Runner
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	Config        *Config
	Fs            afero.Fs
	Logger        logger.Logger
	Observability *observability.Observability
	// Activity, when set, supplies the input schema from the registry.
	Activity *registry.Activity
	// NewRunner overrides the batch processor, for tests.
	NewRunner func(settings pipeline.Settings) Runner
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required for %s", TaskType)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	newRunner := opts.NewRunner
	if newRunner == nil {
		observer := pipeline.NewLogObserver(log)
		newRunner = func(settings pipeline.Settings) Runner {
			return batch.NewProcessor(fs, settings, observer, opts.Observability)
		}
	}

	var (
		inputSchema map[string]interface{}
		handlerOpts []errors.HandlerOption
	)
	if opts.Activity != nil {
		inputSchema = opts.Activity.InputSchema
		handlerOpts = append(handlerOpts, errors.WithDeclaredCodes(opts.Activity.DeclaresError))
	}

	h := &Handler{
		config:       opts.Config,
		logger:       log,
		inputSchema:  inputSchema,
		newRunner:    newRunner,
		errorHandler: errors.NewErrorHandler(log, handlerOpts...),
	}
	return h, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing batch ingest request", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := h.process(ctx, job)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	if err := h.completeJob(ctx, client, job, output); err != nil {
		return err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	return nil
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := h.parseInput(job)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidJobInputError(fmt.Sprintf("parse variables: %v", err))
	}

	var result *validation.ValidationResult
	if h.inputSchema != nil {
		result = validation.ValidateVariables(variables, h.inputSchema)
	} else {
		result = validation.ValidateInput(variables, GetInputSchema())
	}
	if !result.Valid {
		return nil, errors.NewInvalidJobInputError(fmt.Sprintf("validation errors: %v", result.GetErrorMessages()))
	}

	input := &Input{}
	input.InputDir, _ = variables["inputDir"].(string)
	input.SuccessDir, _ = variables["successDir"].(string)
	input.FailDir, _ = variables["failDir"].(string)
	return input, nil
}

// Execute runs the batch processor with the job's directory overrides.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	settings := h.config.Settings.WithDirs(input.InputDir, input.SuccessDir, input.FailDir)
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	res, err := h.newRunner(settings).Run(ctx)
	if err != nil {
		return nil, err
	}

	return &Output{
		Status:          0,
		RunID:           res.RunID,
		FilesDiscovered: res.Discovered,
		FilesProcessed:  res.Processed,
		FilesSkipped:    res.Skipped,
		Accepted:        res.Accepted,
		Rejected:        res.Rejected,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}

	h.logger.Info("Batch ingest completed", map[string]interface{}{
		"jobKey":         job.GetKey(),
		"runId":          output.RunID,
		"filesProcessed": output.FilesProcessed,
		"accepted":       output.Accepted,
		"rejected":       output.Rejected,
	})
	return nil
}
