// internal/pipeline/memberid/memberid_test.go
package memberid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_Golden(t *testing.T) {
	tests := []struct {
		lastName string
		dob      string
		expected string
	}{
		{"Tan", "19900101", "Tan_d6165"},
		{"Wei", "19900101", "Wei_d6165"},
		{"Lim", "20000229", "Lim_78958"},
		{"Ong", "19850615", "Ong_c6ff3"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.lastName, tt.dob))
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	assert.Equal(t, Generate("Tan", "19900101"), Generate("Tan", "19900101"))
	assert.NotEqual(t, Generate("Tan", "19900101"), Generate("Tan", "19900102"))
}

func TestHash(t *testing.T) {
	h := Hash("19900101")
	assert.Len(t, h, 64)
	assert.Equal(t, "d6165", h[:5])
}
