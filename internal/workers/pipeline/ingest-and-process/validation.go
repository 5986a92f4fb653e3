// internal/workers/pipeline/ingest-and-process/validation.go
package ingestandprocess

import "member-pipeline/internal/common/validation"

// GetInputSchema is used when no registry entry is supplied. Process
// variables outside the schema are allowed since Zeebe sends every
// variable in scope.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"inputDir": {
				Type:        "string",
				Description: "Directory holding the input batches",
				MinLength:   validation.IntPtr(1),
			},
			"successDir": {
				Type:        "string",
				Description: "Directory receiving successful_<name> files",
				MinLength:   validation.IntPtr(1),
			},
			"failDir": {
				Type:        "string",
				Description: "Directory receiving failed_<name> files",
				MinLength:   validation.IntPtr(1),
			},
		},
		AdditionalProperties: true,
	}
}
