// Package eligibility derives age and validity flags for cleaned records and
// decides whether each record is accepted.
package eligibility

import (
	"math"
	"time"

	"member-pipeline/internal/models"
	"member-pipeline/internal/pipeline/normalize"
)

const (
	canonicalLayout = "20060102"
	secondsPerDay   = 24 * 60 * 60
	daysPerYear     = 365.0
	minimumAge      = 18.0
)

// Validator computes eligibility relative to a fixed reference date.
type Validator struct {
	Reference time.Time
}

func New(reference time.Time) *Validator {
	return &Validator{Reference: reference}
}

// Age returns whole days between dob and the reference date divided by 365.
// It returns NaN when dob is nil or not a calendar date.
func (v *Validator) Age(dob *string) float64 {
	if dob == nil {
		return math.NaN()
	}
	born, err := time.ParseInLocation(canonicalLayout, *dob, time.UTC)
	if err != nil {
		return math.NaN()
	}
	ref := time.Date(v.Reference.Year(), v.Reference.Month(), v.Reference.Day(), 0, 0, 0, 0, time.UTC)
	days := (ref.Unix() - born.Unix()) / secondsPerDay
	return float64(days) / daysPerYear
}

// Validate derives the flags for one record. A record succeeds only when it
// is named, has a valid mobile number and email, and is strictly over 18.
func (v *Validator) Validate(rec models.CleanedRecord) models.ValidatedRecord {
	out := models.ValidatedRecord{CleanedRecord: rec}

	if out.Name == nil && out.FirstName != nil && out.LastName != nil {
		name := *out.FirstName + " " + *out.LastName
		out.Name = &name
	}

	out.ValidMobileNo = rec.MobileNo != nil && normalize.IsValidMobile(*rec.MobileNo)
	out.ValidEmail = rec.Email != nil && normalize.IsValidEmail(*rec.Email)
	out.Age = v.Age(rec.DateOfBirth)
	// NaN compares false
	out.Above18 = out.Age > minimumAge
	out.Success = rec.Named() && out.ValidMobileNo && out.ValidEmail && out.Above18

	return out
}

// ValidateAll validates records in order.
func (v *Validator) ValidateAll(records []models.CleanedRecord) []models.ValidatedRecord {
	out := make([]models.ValidatedRecord, len(records))
	for i, rec := range records {
		out[i] = v.Validate(rec)
	}
	return out
}

// Split partitions validated records into accepted and rejected, keeping order.
func Split(records []models.ValidatedRecord) (accepted, rejected []models.ValidatedRecord) {
	for _, rec := range records {
		if rec.Success {
			accepted = append(accepted, rec)
		} else {
			rejected = append(rejected, rec)
		}
	}
	return accepted, rejected
}
