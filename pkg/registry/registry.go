// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"

	"member-pipeline/internal/common/validation"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	return LoadRegistryFs(afero.NewOsFs(), path)
}

func LoadRegistryFs(fs afero.Fs, path string) (*ActivityRegistry, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// FindByTaskType returns the activity bound to taskType.
func (r *ActivityRegistry) FindByTaskType(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Validate checks ids and task types are unique, timeouts parse and every
// schema compiles. It returns one message per problem.
func (r *ActivityRegistry) Validate() []string {
	var problems []string
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)

	for _, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("activity %q: id and taskType are required", a.DisplayName))
			continue
		}
		if ids[a.ID] {
			problems = append(problems, fmt.Sprintf("activity %s: duplicate id", a.ID))
		}
		if taskTypes[a.TaskType] {
			problems = append(problems, fmt.Sprintf("activity %s: duplicate taskType %s", a.ID, a.TaskType))
		}
		ids[a.ID], taskTypes[a.TaskType] = true, true

		if _, err := a.TimeoutDuration(); err != nil {
			problems = append(problems, fmt.Sprintf("activity %s: timeout: %v", a.ID, err))
		}
		for name, schema := range map[string]Schema{"inputSchema": a.InputSchema, "outputSchema": a.OutputSchema} {
			if len(schema) == 0 {
				continue
			}
			if err := validation.CompileSchema(schema); err != nil {
				problems = append(problems, fmt.Sprintf("activity %s: %s: %v", a.ID, name, err))
			}
		}
	}
	return problems
}
