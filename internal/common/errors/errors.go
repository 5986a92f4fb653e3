// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInputFilename ErrorCode = "INVALID_INPUT_FILENAME"
	ErrCodeInputReadFailed      ErrorCode = "INPUT_READ_FAILED"
	ErrCodeMalformedInputFile   ErrorCode = "MALFORMED_INPUT_FILE"

	ErrCodeOutputWriteFailed     ErrorCode = "OUTPUT_WRITE_FAILED"
	ErrCodeOutputReadFailed      ErrorCode = "OUTPUT_READ_FAILED"
	ErrCodeOutputValidityFailure ErrorCode = "OUTPUT_VALIDITY_FAILURE"

	ErrCodeInvalidJobInput ErrorCode = "INVALID_JOB_INPUT"
	ErrCodeConfigInvalid   ErrorCode = "CONFIG_INVALID"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the receiver.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidInputFilenameError is raised when the input directory holds an entry
// without the data-file extension. It aborts the whole run.
func NewInvalidInputFilenameError(filename, extension string) *StandardError {
	return newError(ErrCodeInvalidInputFilename, "Invalid input filename",
		fmt.Sprintf("filename: %s, expected extension: %s", filename, extension), nil).
		WithMetadata("filename", filename)
}

// NewInputReadFailedError wraps an I/O failure while reading an input batch or listing a directory.
func NewInputReadFailedError(path string, err error) *StandardError {
	return newError(ErrCodeInputReadFailed, "Failed to read input",
		fmt.Sprintf("path: %s, error: %v", path, err), err).
		WithMetadata("path", path)
}

// NewMalformedInputFileError flags a structural problem in a batch file
// (missing header, missing required column, ragged row).
func NewMalformedInputFileError(path, details string, err error) *StandardError {
	return newError(ErrCodeMalformedInputFile, "Malformed input file",
		fmt.Sprintf("path: %s, %s", path, details), err).
		WithMetadata("path", path)
}

// NewOutputWriteFailedError wraps an I/O failure on the accept or reject side.
func NewOutputWriteFailedError(path string, err error) *StandardError {
	return newError(ErrCodeOutputWriteFailed, "Failed to write output",
		fmt.Sprintf("path: %s, error: %v", path, err), err).
		WithMetadata("path", path)
}

// NewOutputReadFailedError wraps an I/O or parse failure while auditing outputs.
func NewOutputReadFailedError(path string, err error) *StandardError {
	return newError(ErrCodeOutputReadFailed, "Failed to read output",
		fmt.Sprintf("path: %s, error: %v", path, err), err).
		WithMetadata("path", path)
}

// NewOutputValidityFailure signals that written outputs violate the
// accepted/rejected membership invariant. It indicates a pipeline defect.
func NewOutputValidityFailure(failedFiles []string) *StandardError {
	return newError(ErrCodeOutputValidityFailure, "Output data fail validity check",
		fmt.Sprintf("files: %s", strings.Join(failedFiles, ", ")), nil).
		WithMetadata("failedFiles", failedFiles)
}

// NewInvalidJobInputError reports job variables that do not match the activity schema.
func NewInvalidJobInputError(details string) *StandardError {
	return newError(ErrCodeInvalidJobInput, "Invalid job input", details, nil)
}

// NewConfigInvalidError reports unusable pipeline settings.
func NewConfigInvalidError(details string, err error) *StandardError {
	return newError(ErrCodeConfigInvalid, "Invalid configuration", details, err)
}

// NewBrokerUnavailableError wraps a failed gateway call. It is the only
// retryable code; the worker manager may reconnect.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	stdErr := newError(ErrCodeBrokerUnavailable, "Workflow broker unavailable",
		fmt.Sprintf("operation: %s, error: %v", operation, err), err)
	stdErr.Retryable = true
	return stdErr
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInputFilename:  "INVALID_INPUT_FILENAME",
	ErrCodeInputReadFailed:       "INPUT_READ_FAILED",
	ErrCodeMalformedInputFile:    "MALFORMED_INPUT_FILE",
	ErrCodeOutputWriteFailed:     "OUTPUT_WRITE_FAILED",
	ErrCodeOutputReadFailed:      "OUTPUT_READ_FAILED",
	ErrCodeOutputValidityFailure: "OUTPUT_VALIDITY_FAILURE",
	ErrCodeInvalidJobInput:       "INVALID_JOB_INPUT",
	ErrCodeConfigInvalid:         "CONFIG_INVALID",
	ErrCodeBrokerUnavailable:     "BROKER_UNAVAILABLE",
}

// GetRetryCount returns the retry budget for a code. Batch failures abort the
// run and are never retried, so every code maps to zero.
func GetRetryCount(code ErrorCode) int {
	return 0
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   GetRetryCount(stdErr.Code),
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// Normalize returns err as a *StandardError, wrapping unknown errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), err)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// IsOutputValidityFailure reports whether err is an audit failure.
func IsOutputValidityFailure(err error) bool {
	return HasCode(err, ErrCodeOutputValidityFailure)
}

// ExitCode maps a pipeline error to a process status code:
// 0 success, 2 audit failure, 1 any other fatal condition.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsOutputValidityFailure(err):
		return 2
	default:
		return 1
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INPUT") || strings.Contains(codeStr, "INPUT_FILE"):
		return "INGEST"
	case strings.Contains(codeStr, "VALIDITY"):
		return "AUDIT"
	case strings.HasPrefix(codeStr, "OUTPUT"):
		return "OUTPUT"
	case strings.Contains(codeStr, "CONFIG") || strings.Contains(codeStr, "JOB_INPUT"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "BROKER"):
		return "EXTERNAL"
	default:
		return "OTHER"
	}
}
