package store

import "time"

// Gender of a registered child.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// BirthDateLayout is the storage layout of Kid.BirthDate and Record.RecordDate.
const BirthDateLayout = "2006-01-02"

type Kid struct {
	Name      string
	BirthDate string // YYYY-MM-DD, may be empty
	Gender    Gender
	CreatedTs int64
	ID        int32
	UserID    int32
}

// Birth parses BirthDate. ok is false when the date is missing or malformed.
func (k *Kid) Birth() (time.Time, bool) {
	if k == nil || k.BirthDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(BirthDateLayout, k.BirthDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FindKid filters kids. Results are ordered by created_ts DESC, id DESC.
type FindKid struct {
	ID     *int32
	UserID *int32
	Limit  int
}
