// internal/workers/pipeline/check-output-validity/validation.go
package checkoutputvalidity

import "member-pipeline/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"successDir": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
			},
			"failDir": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
			},
		},
		AdditionalProperties: true,
	}
}
