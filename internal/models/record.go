// internal/models/record.go
package models

// Column names used in input and output batches.
const (
	ColName        = "name"
	ColFirstName   = "first_name"
	ColLastName    = "last_name"
	ColEmail       = "email"
	ColDateOfBirth = "date_of_birth"
	ColMobileNo    = "mobile_no"
	ColAbove18     = "above_18"
	ColMemberID    = "member_id"
)

// AcceptedColumns is the projection written to successful_<name>.
var AcceptedColumns = []string{
	ColMemberID, ColFirstName, ColLastName, ColEmail, ColDateOfBirth, ColMobileNo, ColAbove18,
}

// RejectedColumns is the projection written to failed_<name>.
var RejectedColumns = []string{
	ColFirstName, ColLastName, ColEmail, ColDateOfBirth, ColMobileNo, ColAbove18,
}

// RawBatch is one input file as read from disk. Rows are aligned with Columns.
type RawBatch struct {
	Source  string     `json:"source"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Index returns the position of column, or -1.
func (b *RawBatch) Index(column string) int {
	for i, c := range b.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the batch carries column.
func (b *RawBatch) HasColumn(column string) bool {
	return b.Index(column) >= 0
}

// CleanedRecord is a stripped, deduplicated row. A nil field is a null value.
type CleanedRecord struct {
	Name        *string `json:"name,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	MobileNo    *string `json:"mobile_no,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"` // YYYYMMDD
}

// Named reports whether the record has both a first and a last name.
// Single-word names leave LastName nil and are not named.
func (r CleanedRecord) Named() bool {
	return nonEmpty(r.FirstName) && nonEmpty(r.LastName)
}

// ValidatedRecord carries the derived eligibility fields. Age is NaN when
// the date of birth is null or not a calendar date.
type ValidatedRecord struct {
	CleanedRecord
	Age           float64 `json:"age"`
	ValidMobileNo bool    `json:"valid_mobile_no"`
	ValidEmail    bool    `json:"valid_email"`
	Above18       bool    `json:"above_18"`
	Success       bool    `json:"success"`
	MemberID      string  `json:"member_id,omitempty"`
}

// Value returns the string form of column for output. Nulls render empty.
func (r ValidatedRecord) Value(column string) string {
	switch column {
	case ColMemberID:
		return r.MemberID
	case ColName:
		return deref(r.Name)
	case ColFirstName:
		return deref(r.FirstName)
	case ColLastName:
		return deref(r.LastName)
	case ColEmail:
		return deref(r.Email)
	case ColDateOfBirth:
		return deref(r.DateOfBirth)
	case ColMobileNo:
		return deref(r.MobileNo)
	case ColAbove18:
		if r.Above18 {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
