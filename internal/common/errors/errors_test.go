// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, 0},
		{"validity failure", NewOutputValidityFailure([]string{"successful_a.csv"}), 2},
		{"wrapped validity failure", fmt.Errorf("audit: %w", NewOutputValidityFailure(nil)), 2},
		{"invalid filename", NewInvalidInputFilenameError("notes.txt", ".csv"), 1},
		{"plain error", stderrors.New("disk on fire"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExitCode(tt.err))
		})
	}
}

func TestNormalize(t *testing.T) {
	cause := stderrors.New("permission denied")
	stdErr := NewOutputWriteFailedError("/out/successful_a.csv", cause)

	assert.Same(t, stdErr, Normalize(fmt.Errorf("wrapped: %w", stdErr)))
	assert.ErrorIs(t, stdErr, cause)

	internal := Normalize(stderrors.New("boom"))
	require.NotNil(t, internal)
	assert.Equal(t, ErrCodeInternal, internal.Code)
	assert.Nil(t, Normalize(nil))
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewInvalidInputFilenameError("readme.md", ".csv")
	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "INVALID_INPUT_FILENAME", bpmnErr.Code)
	assert.False(t, bpmnErr.Retryable)
	assert.Zero(t, bpmnErr.Retries)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "INVALID_INPUT_FILENAME", vars["originalErrorCode"])
	assert.Equal(t, "Invalid input filename", vars["errorMessage"])
	assert.Contains(t, vars["errorDetails"], "readme.md")
}

func TestConvertToBPMNError_UnmappedCodeFallsBack(t *testing.T) {
	bpmnErr := ConvertToBPMNError(Normalize(stderrors.New("x")))
	assert.Equal(t, string(ErrCodeInternal), bpmnErr.Code)
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeInvalidInputFilename:  "INGEST",
		ErrCodeInputReadFailed:       "INGEST",
		ErrCodeMalformedInputFile:    "INGEST",
		ErrCodeOutputWriteFailed:     "OUTPUT",
		ErrCodeOutputReadFailed:      "OUTPUT",
		ErrCodeOutputValidityFailure: "AUDIT",
		ErrCodeInvalidJobInput:       "VALIDATION",
		ErrCodeConfigInvalid:         "VALIDATION",
		ErrCodeBrokerUnavailable:     "EXTERNAL",
		ErrCodeInternal:              "OTHER",
	}
	for code, category := range tests {
		assert.Equal(t, category, GetErrorCategory(code), string(code))
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("run: %w", NewMalformedInputFileError("a.csv", "missing column email", nil))
	assert.True(t, HasCode(err, ErrCodeMalformedInputFile))
	assert.False(t, HasCode(err, ErrCodeInputReadFailed))
	assert.False(t, IsOutputValidityFailure(err))
}
