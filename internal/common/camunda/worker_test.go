// internal/common/camunda/worker_test.go
package camunda

import (
	"errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"member-pipeline/internal/common/metrics"
)

type stubHandler struct {
	err   error
	calls int
	seen  float64
}

func (s *stubHandler) Handle(client worker.JobClient, job entities.Job) error {
	s.calls++
	s.seen = testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues("stub-task"))
	return s.err
}

func TestWrapHandler_TracksActiveJobs(t *testing.T) {
	h := &stubHandler{}
	fn := wrapHandler("stub-task", h, zap.NewNop())

	fn(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1}})

	assert.Equal(t, 1, h.calls)
	assert.Equal(t, float64(1), h.seen)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues("stub-task")))
}

func TestWrapHandler_LogsHandlerError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := &stubHandler{err: errors.New("throw failed")}
	fn := wrapHandler("stub-task", h, zap.New(core))

	fn(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42}})

	entries := logs.FilterMessage("Handler returned error").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, int64(42), entries[0].ContextMap()["jobKey"])
	}
}
