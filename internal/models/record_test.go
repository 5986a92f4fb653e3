// internal/models/record_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanedRecord_Named(t *testing.T) {
	tests := []struct {
		name     string
		record   CleanedRecord
		expected bool
	}{
		{"first and last", CleanedRecord{FirstName: StringPtr("Tan"), LastName: StringPtr("Wei")}, true},
		{"single word", CleanedRecord{FirstName: StringPtr("Madonna")}, false},
		{"empty last", CleanedRecord{FirstName: StringPtr("Tan"), LastName: new(string)}, false},
		{"nothing", CleanedRecord{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.Named())
		})
	}
}

func TestValidatedRecord_Value(t *testing.T) {
	r := ValidatedRecord{
		CleanedRecord: CleanedRecord{
			FirstName:   StringPtr("Tan"),
			LastName:    StringPtr("Wei"),
			DateOfBirth: StringPtr("19900101"),
		},
		Above18:  true,
		MemberID: "Wei_d6165",
	}

	assert.Equal(t, "Wei_d6165", r.Value(ColMemberID))
	assert.Equal(t, "19900101", r.Value(ColDateOfBirth))
	assert.Equal(t, "true", r.Value(ColAbove18))
	assert.Equal(t, "", r.Value(ColEmail))
	assert.Equal(t, "", r.Value("unknown"))
}

func TestRawBatch_Index(t *testing.T) {
	b := RawBatch{Columns: []string{ColName, ColEmail}}
	assert.Equal(t, 1, b.Index(ColEmail))
	assert.False(t, b.HasColumn(ColMobileNo))
}
