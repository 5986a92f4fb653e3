// internal/workers/pipeline/ingest-and-process/models.go
package ingestandprocess

// Input holds optional directory overrides. Empty fields fall back to the
// configured pipeline directories.
type Input struct {
	InputDir   string `json:"inputDir,omitempty"`
	SuccessDir string `json:"successDir,omitempty"`
	FailDir    string `json:"failDir,omitempty"`
}

type Output struct {
	Status          int    `json:"status"`
	RunID           string `json:"runId"`
	FilesDiscovered int    `json:"filesDiscovered"`
	FilesProcessed  int    `json:"filesProcessed"`
	FilesSkipped    int    `json:"filesSkipped"`
	Accepted        int    `json:"accepted"`
	Rejected        int    `json:"rejected"`
}
