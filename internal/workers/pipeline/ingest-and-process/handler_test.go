// internal/workers/pipeline/ingest-and-process/handler_test.go
package ingestandprocess

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"member-pipeline/internal/common/errors"
	"member-pipeline/internal/common/logger"
	"member-pipeline/internal/pipeline"
	"member-pipeline/internal/pipeline/batch"
	"member-pipeline/pkg/registry"
)

// ==========================
// Mock Runner Implementation
// ==========================

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context) (*batch.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.Result), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func createTestConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 1,
		Timeout:       30 * time.Second,
		Settings: pipeline.Settings{
			InputDir:      "/data/raw",
			SuccessDir:    "/out/successful",
			FailDir:       "/out/failed",
			ReferenceDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			DataExtension: ".csv",
			SkipProcessed: true,
			Parallelism:   1,
		},
	}
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "applicant-registration",
		ElementId:          "Activity_IngestAndProcess",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            1,
		Variables:          string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestHandler(t *testing.T, opts HandlerOptions) *Handler {
	t.Helper()
	if opts.Config == nil {
		opts.Config = createTestConfig()
	}
	opts.Logger = &testLogger{t: t}
	h, err := NewHandler(opts)
	require.NoError(t, err)
	return h
}

// ==========================
// Construction
// ==========================

func TestNewHandler_InvalidConfig(t *testing.T) {
	cfg := createTestConfig()
	cfg.Timeout = 0

	_, err := NewHandler(HandlerOptions{Config: cfg, Logger: &testLogger{t: t}})
	assert.Error(t, err)

	_, err = NewHandler(HandlerOptions{Logger: &testLogger{t: t}})
	assert.Error(t, err)
}

// ==========================
// Input Parsing
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, HandlerOptions{})

	tests := []struct {
		name      string
		variables map[string]interface{}
		expected  *Input
		wantErr   bool
	}{
		{
			name:      "no overrides",
			variables: map[string]interface{}{"applicationId": "abc"},
			expected:  &Input{},
		},
		{
			name:      "all overrides",
			variables: map[string]interface{}{"inputDir": "/in", "successDir": "/ok", "failDir": "/ko"},
			expected:  &Input{InputDir: "/in", SuccessDir: "/ok", FailDir: "/ko"},
		},
		{
			name:      "wrong type",
			variables: map[string]interface{}{"inputDir": 42},
			wantErr:   true,
		},
		{
			name:      "empty string",
			variables: map[string]interface{}{"successDir": ""},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(createMockJob(1, tt.variables))
			if tt.wantErr {
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidJobInput), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, input)
		})
	}
}

func TestHandler_ParseInput_RegistrySchema(t *testing.T) {
	activity := &registry.Activity{
		TaskType: TaskType,
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"inputDir"},
			"properties": map[string]interface{}{
				"inputDir": map[string]interface{}{"type": "string"},
			},
		},
	}
	h := newTestHandler(t, HandlerOptions{Activity: activity})

	_, err := h.parseInput(createMockJob(1, map[string]interface{}{}))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidJobInput))

	input, err := h.parseInput(createMockJob(1, map[string]interface{}{"inputDir": "/in"}))
	require.NoError(t, err)
	assert.Equal(t, "/in", input.InputDir)
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute_AppliesOverrides(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything).Return(&batch.Result{
		RunID:      "run-1",
		Discovered: 3,
		Processed:  2,
		Skipped:    1,
		Accepted:   5,
		Rejected:   4,
	}, nil)

	var got pipeline.Settings
	h := newTestHandler(t, HandlerOptions{NewRunner: func(s pipeline.Settings) Runner {
		got = s
		return runner
	}})

	output, err := h.Execute(context.Background(), &Input{SuccessDir: "/elsewhere"})
	require.NoError(t, err)

	assert.Equal(t, "/data/raw", got.InputDir)
	assert.Equal(t, "/elsewhere", got.SuccessDir)
	assert.Equal(t, &Output{
		Status:          0,
		RunID:           "run-1",
		FilesDiscovered: 3,
		FilesProcessed:  2,
		FilesSkipped:    1,
		Accepted:        5,
		Rejected:        4,
	}, output)
	runner.AssertExpectations(t)
}

func TestHandler_Execute_PropagatesPipelineError(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything).Return(nil, errors.NewInvalidInputFilenameError("notes.txt", ".csv"))

	h := newTestHandler(t, HandlerOptions{NewRunner: func(pipeline.Settings) Runner { return runner }})

	output, err := h.Execute(context.Background(), &Input{})
	assert.Nil(t, output)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInputFilename))
}

func TestHandler_Execute_RejectsCollidingOverrides(t *testing.T) {
	h := newTestHandler(t, HandlerOptions{NewRunner: func(pipeline.Settings) Runner {
		t.Fatal("runner must not be built")
		return nil
	}})

	_, err := h.Execute(context.Background(), &Input{SuccessDir: "/same", FailDir: "/same"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeConfigInvalid))
}

func TestHandler_Execute_EndToEnd(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/raw/applications_1.csv", []byte(
		"name,email,date_of_birth,mobile_no\n"+
			"Tan Wei,tan@x.com,01/01/1990,91234567\n"+
			"Lim Bo,lim@x.com,13/13/2020,91234567\n"+
			"Ong Li,tan@x,01/01/1990,91234567\n"), 0o644))

	h := newTestHandler(t, HandlerOptions{Fs: fs})

	output, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.NotEmpty(t, output.RunID)
	assert.Equal(t, 1, output.FilesProcessed)
	assert.Equal(t, 1, output.Accepted)
	assert.Equal(t, 2, output.Rejected)

	second, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.FilesSkipped)
	assert.Zero(t, second.FilesProcessed)
}
