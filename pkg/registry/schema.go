// pkg/registry/schema.go
package registry

import "time"

// Implementation states an activity may declare.
const (
	StatusImplemented = "implemented"
	StatusPlanned     = "planned"
)

// Schema is a JSON schema document as decoded from the registry file.
type Schema = map[string]interface{}

// ActivityRegistry lists the task types the pipeline exposes to the workflow engine.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID                   string   `json:"id"`
	DisplayName          string   `json:"displayName"`
	Description          string   `json:"description"`
	Category             string   `json:"category"`
	Version              string   `json:"version"`
	TaskType             string   `json:"taskType"`
	ImplementationStatus string   `json:"implementationStatus"`
	InputSchema          Schema   `json:"inputSchema"`
	OutputSchema         Schema   `json:"outputSchema"`
	ErrorCodes           []string `json:"errorCodes"`
	Timeout              string   `json:"timeout"`
	Workflows            []string `json:"workflows"`
	Tags                 []string `json:"tags"`
}

// TimeoutDuration parses Timeout. An empty timeout is zero.
func (a *Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(a.Timeout)
}

// DeclaresError reports whether code is listed in ErrorCodes. An activity
// without a list declares every code.
func (a *Activity) DeclaresError(code string) bool {
	if len(a.ErrorCodes) == 0 {
		return true
	}
	for _, c := range a.ErrorCodes {
		if c == code {
			return true
		}
	}
	return false
}
