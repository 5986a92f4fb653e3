// Package cleaner turns a raw input batch into cleaned records: whitespace
// stripped, exact duplicates dropped, names split and the date of birth
// normalized. It reports diagnostics through Report and never fails.
package cleaner

import (
	"strconv"
	"strings"
	"unicode"

	"member-pipeline/internal/models"
	"member-pipeline/internal/pipeline/normalize"
)

// Report summarises one cleaning pass.
type Report struct {
	Rows              int            `json:"rows"`
	DuplicatesRemoved int            `json:"duplicatesRemoved"`
	NullCounts        map[string]int `json:"nullCounts"`
	UnparseableDates  []string       `json:"unparseableDates,omitempty"`
}

// Clean strips every field, counts nulls per column, removes exact duplicate
// rows and builds one CleanedRecord per remaining row in input order.
func Clean(batch *models.RawBatch) ([]models.CleanedRecord, Report) {
	report := Report{NullCounts: make(map[string]int, len(batch.Columns))}
	for _, col := range batch.Columns {
		report.NullCounts[col] = 0
	}

	seen := make(map[string]struct{}, len(batch.Rows))
	rows := make([][]string, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		stripped := make([]string, len(batch.Columns))
		for i := range batch.Columns {
			if i < len(row) {
				stripped[i] = strings.TrimSpace(row[i])
			}
			if stripped[i] == "" {
				report.NullCounts[batch.Columns[i]]++
			}
		}

		key := rowKey(stripped)
		if _, dup := seen[key]; dup {
			report.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, stripped)
	}

	idx := columnIndex{batch: batch}
	records := make([]models.CleanedRecord, 0, len(rows))
	for _, row := range rows {
		rec := models.CleanedRecord{
			Email: idx.get(row, models.ColEmail),
		}

		if batch.HasColumn(models.ColFirstName) || !batch.HasColumn(models.ColName) {
			rec.FirstName = idx.get(row, models.ColFirstName)
			rec.LastName = idx.get(row, models.ColLastName)
		} else {
			rec.Name = idx.get(row, models.ColName)
			rec.FirstName, rec.LastName = SplitName(rec.Name)
		}

		if mobile := idx.get(row, models.ColMobileNo); mobile != nil {
			rec.MobileNo = models.StringPtr(RemoveWhitespace(*mobile))
		}

		if raw := idx.get(row, models.ColDateOfBirth); raw != nil {
			if dob, ok := normalize.DateOfBirth(*raw); ok {
				rec.DateOfBirth = &dob
			} else {
				report.UnparseableDates = append(report.UnparseableDates, *raw)
			}
		}

		records = append(records, rec)
	}

	report.Rows = len(records)
	return records, report
}

// SplitName splits a full name on its first whitespace run. A name without
// whitespace yields a nil last name.
func SplitName(name *string) (first, last *string) {
	if name == nil {
		return nil, nil
	}
	i := strings.IndexFunc(*name, unicode.IsSpace)
	if i < 0 {
		return models.StringPtr(*name), nil
	}
	return models.StringPtr((*name)[:i]), models.StringPtr(strings.TrimLeftFunc((*name)[i:], unicode.IsSpace))
}

// RemoveWhitespace drops every whitespace rune from s.
func RemoveWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

type columnIndex struct {
	batch *models.RawBatch
}

func (c columnIndex) get(row []string, column string) *string {
	i := c.batch.Index(column)
	if i < 0 || i >= len(row) {
		return nil
	}
	return models.StringPtr(row[i])
}

func rowKey(row []string) string {
	var b strings.Builder
	for _, v := range row {
		b.WriteString(strconv.Quote(v))
		b.WriteByte(',')
	}
	return b.String()
}
