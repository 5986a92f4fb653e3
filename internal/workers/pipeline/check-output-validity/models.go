// internal/workers/pipeline/check-output-validity/models.go
package checkoutputvalidity

import "member-pipeline/internal/pipeline/audit"

type Input struct {
	SuccessDir string `json:"successDir,omitempty"`
	FailDir    string `json:"failDir,omitempty"`
}

type Output struct {
	Status int                `json:"status"`
	RunID  string             `json:"runId"`
	Pass   bool               `json:"pass"`
	Files  []audit.FileReport `json:"files"`
}
