// internal/pipeline/audit/auditor_test.go
package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"member-pipeline/internal/common/errors"
	"member-pipeline/internal/models"
	"member-pipeline/internal/pipeline"
	"member-pipeline/internal/pipeline/batch"
)

// ==========================
// Test Helpers
// ==========================

const threeRowBatch = `name,email,date_of_birth,mobile_no
Tan Wei,tan@x.com,01/01/1990,91234567
Lim Bo,lim@x.com,13/13/2020,91234567
Ong Li,tan@x,01/01/1990,91234567
`

func createTestSettings() pipeline.Settings {
	return pipeline.Settings{
		InputDir:      "/data/raw",
		SuccessDir:    "/out/successful",
		FailDir:       "/out/failed",
		ReferenceDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		DataExtension: ".csv",
		SkipProcessed: true,
		Parallelism:   1,
	}
}

func processedFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/raw/applications_1.csv", []byte(threeRowBatch), 0o644))
	_, err := batch.NewProcessor(fs, createTestSettings(), nil, nil).Run(context.Background())
	require.NoError(t, err)
	return fs
}

// ==========================
// Run
// ==========================

func TestRun_PassesAfterProcessing(t *testing.T) {
	fs := processedFs(t)

	report, err := NewAuditor(fs, createTestSettings(), nil, nil).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Pass)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Files, 2)

	ok := report.Files[0]
	assert.Equal(t, "successful", ok.Partition)
	assert.Equal(t, "successful_applications_1.csv", ok.File)
	assert.Equal(t, 1, ok.Rows)
	assert.Equal(t, 1, ok.Successes)
	assert.Equal(t, 1.0, ok.Rate)

	ko := report.Files[1]
	assert.Equal(t, "failed", ko.Partition)
	assert.Equal(t, 2, ko.Rows)
	assert.Equal(t, 2, ko.Failures)
	assert.Equal(t, 1.0, ko.Rate)
}

func TestRun_UnderageAcceptedRowFails(t *testing.T) {
	fs := processedFs(t)
	path := "/out/successful/successful_applications_1.csv"

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	mutated := strings.Replace(string(data), ",19900101,", ",20100101,", 1)
	require.NotEqual(t, string(data), mutated)
	require.NoError(t, afero.WriteFile(fs, path, []byte(mutated), 0o644))

	report, err := NewAuditor(fs, createTestSettings(), nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsOutputValidityFailure(err))
	assert.Equal(t, 2, errors.ExitCode(err))

	require.NotNil(t, report)
	assert.False(t, report.Pass)
	assert.Equal(t, []string{"successful_applications_1.csv"}, report.FailedFiles())
	assert.Equal(t, 0.0, report.Files[0].Rate)
}

func TestRun_ValidRowInRejectedFileFails(t *testing.T) {
	fs := processedFs(t)
	path := "/out/failed/failed_applications_1.csv"

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	fixed := strings.Replace(string(data), "tan@x,", "tan@x.com,", 1)
	require.NoError(t, afero.WriteFile(fs, path, []byte(fixed), 0o644))

	report, err := NewAuditor(fs, createTestSettings(), nil, nil).Run(context.Background())
	assert.True(t, errors.IsOutputValidityFailure(err))
	assert.Equal(t, []string{"failed_applications_1.csv"}, report.FailedFiles())
	assert.Equal(t, 0.5, report.Files[1].Rate)
}

func TestRun_LeadingZeroMobileSurvivesRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/raw/a.csv", []byte(
		"name,email,date_of_birth,mobile_no\nTan Wei,tan@x.com,01/01/1990,01234567\n"), 0o644))
	_, err := batch.NewProcessor(fs, createTestSettings(), nil, nil).Run(context.Background())
	require.NoError(t, err)

	report, err := NewAuditor(fs, createTestSettings(), nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Files[0].Successes)
}

func TestRun_EmptyOutputsPassVacuously(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/successful/successful_a.csv",
		[]byte(strings.Join(models.AcceptedColumns, ",")+"\n"), 0o644))
	require.NoError(t, fs.MkdirAll("/out/failed", 0o755))

	report, err := NewAuditor(fs, createTestSettings(), nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Pass)
	assert.Zero(t, report.Files[0].Rows)
	assert.Zero(t, report.Files[0].Rate)
}

func TestRun_IgnoresNonDataFiles(t *testing.T) {
	fs := processedFs(t)
	require.NoError(t, afero.WriteFile(fs, "/out/successful/successful_b.csv.partial", []byte("junk"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/out/failed/README.md", []byte("notes"), 0o644))

	report, err := NewAuditor(fs, createTestSettings(), nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Files, 2)
	assert.ElementsMatch(t, []string{
		"/out/successful/successful_b.csv.partial",
		"/out/failed/README.md",
	}, report.Ignored)
}

func TestRun_MissingDirectory(t *testing.T) {
	_, err := NewAuditor(afero.NewMemMapFs(), createTestSettings(), nil, nil).Run(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeOutputReadFailed))
	assert.Equal(t, 1, errors.ExitCode(err))
}

func TestRun_OutputMissingColumns(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/successful/successful_a.csv", []byte("member_id,first_name\nx,y\n"), 0o644))
	require.NoError(t, fs.MkdirAll("/out/failed", 0o755))

	_, err := NewAuditor(fs, createTestSettings(), nil, nil).Run(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeOutputReadFailed))
}

func TestRun_EmptyExtensionDefaultsToCSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/successful/successful_b.csv", []byte(
		strings.Join(models.AcceptedColumns, ",")+"\nYeo_a1b2c,Ang,Yeo,ang@x.com,20150101,91234567,true\n"), 0o644))
	require.NoError(t, fs.MkdirAll("/out/failed", 0o755))

	settings := createTestSettings()
	settings.DataExtension = ""

	report, err := NewAuditor(fs, settings, nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsOutputValidityFailure(err))
	require.NotNil(t, report)
	assert.Empty(t, report.Ignored)
	require.Len(t, report.Files, 1)
	assert.False(t, report.Files[0].Pass)
}

func TestRun_InvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*pipeline.Settings)
	}{
		{"zero reference date", func(s *pipeline.Settings) { s.ReferenceDate = time.Time{} }},
		{"missing success dir", func(s *pipeline.Settings) { s.SuccessDir = "" }},
		{"same success and fail dir", func(s *pipeline.Settings) { s.FailDir = s.SuccessDir }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := processedFs(t)
			settings := createTestSettings()
			tt.mutate(&settings)

			report, err := NewAuditor(fs, settings, nil, nil).Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeConfigInvalid))
			assert.False(t, errors.IsOutputValidityFailure(err))
			assert.Equal(t, 1, errors.ExitCode(err))
			require.NotNil(t, report)
			assert.Empty(t, report.Files)
		})
	}
}

func TestRecordsFromStrings(t *testing.T) {
	records, err := RecordsFromStrings(&models.RawBatch{
		Columns: models.RejectedColumns,
		Rows:    [][]string{{"Madonna", "", "m@x.com", "", "91234567", "false"}},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].LastName)
	assert.Nil(t, records[0].DateOfBirth)
	assert.Equal(t, "91234567", *records[0].MobileNo)
}
