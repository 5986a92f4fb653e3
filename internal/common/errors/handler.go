// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"member-pipeline/internal/common/metrics"
)

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler reports a failed pipeline job back to the workflow engine.
type ErrorHandler struct {
	logger   Logger
	declared func(code string) bool
}

type HandlerOption func(*ErrorHandler)

// WithDeclaredCodes makes the handler warn when it throws a code the
// activity does not list, since the process model has no boundary event for it.
func WithDeclaredCodes(declared func(code string) bool) HandlerOption {
	return func(h *ErrorHandler) { h.declared = declared }
}

func NewErrorHandler(logger Logger, opts ...HandlerOption) *ErrorHandler {
	h := &ErrorHandler{logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleJobError throws err to the workflow as a BPMN error. A failed batch
// or audit is final for the run, so the job is never failed with retries.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	metrics.WorkerJobsFailed.WithLabelValues(job.GetType(), bpmnErr.Code).Inc()
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.GetKey(),
		"jobType":          job.GetType(),
		"errorCode":        string(stdErr.Code),
		"message":          stdErr.Message,
		"details":          stdErr.Details,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.GetProcessInstanceKey(),
	})
	if h.declared != nil && !h.declared(bpmnErr.Code) {
		h.logger.Warn("Throwing error code not declared for activity", map[string]interface{}{
			"jobType":   job.GetType(),
			"errorCode": bpmnErr.Code,
		})
	}

	if sendErr := h.throw(ctx, client, job.GetKey(), bpmnErr); sendErr != nil {
		h.logger.Error("failed to throw BPMN error", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  sendErr.Error(),
		})
	}
}

func (h *ErrorHandler) throw(ctx context.Context, client worker.JobClient, jobKey int64, bpmnErr *BPMNError) error {
	cmd := client.NewThrowErrorCommand().
		JobKey(jobKey).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	vars, err := json.Marshal(bpmnErr.ToErrorVariables())
	if err != nil {
		_, err = cmd.Send(ctx)
		return err
	}
	withVars, err := cmd.VariablesFromString(string(vars))
	if err != nil {
		_, err = cmd.Send(ctx)
		return err
	}
	_, err = withVars.Send(ctx)
	return err
}
