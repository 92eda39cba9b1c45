package store

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// RecordType is the diary category of a Record.
type RecordType string

const (
	RecordTypeSleep  RecordType = "sleep"
	RecordTypeMeal   RecordType = "meal"
	RecordTypeDiaper RecordType = "diaper"
	RecordTypeHealth RecordType = "health"
	RecordTypeGrowth RecordType = "growth"
	RecordTypeEtc    RecordType = "etc"
)

// RecordTypes lists every category in display order.
var RecordTypes = []RecordType{
	RecordTypeSleep,
	RecordTypeMeal,
	RecordTypeDiaper,
	RecordTypeHealth,
	RecordTypeGrowth,
	RecordTypeEtc,
}

// Valid reports whether t is a known category.
func (t RecordType) Valid() bool {
	for _, rt := range RecordTypes {
		if rt == t {
			return true
		}
	}
	return false
}

type SleepDetail struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	SleepType string    `json:"sleep_type"` // nap | night
	Quality   string    `json:"quality,omitempty"`
}

// DurationHours returns the sleep duration rounded to two decimals.
func (d *SleepDetail) DurationHours() float64 {
	if d == nil || d.End.Before(d.Start) {
		return 0
	}
	hours := d.End.Sub(d.Start).Seconds() / 3600
	return math.Round(hours*100) / 100
}

type MealDetail struct {
	MealTime        *time.Time `json:"meal_datetime,omitempty"`
	MealType        string     `json:"meal_type"` // snack | breast_milk | formula | bottle | baby_food | other
	MealDetail      string     `json:"meal_detail,omitempty"`
	AmountText      string     `json:"amount_text,omitempty"`
	AmountML        float64    `json:"amount_ml,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	Burp            bool       `json:"burp,omitempty"`
}

type DiaperDetail struct {
	DiaperType string `json:"diaper_type"` // urine | stool | both
	Amount     string `json:"amount,omitempty"`
	Condition  string `json:"condition,omitempty"` // normal | diarrhea | constipation
	Color      string `json:"color,omitempty"`
}

// HasStool reports whether the diaper contained stool.
func (d *DiaperDetail) HasStool() bool {
	return d != nil && (d.DiaperType == "stool" || d.DiaperType == "both")
}

// HasUrine reports whether the diaper contained urine.
func (d *DiaperDetail) HasUrine() bool {
	return d != nil && (d.DiaperType == "urine" || d.DiaperType == "both")
}

type HealthDetail struct {
	Title     string   `json:"title"`
	Symptoms  []string `json:"symptoms,omitempty"`
	Medicines []string `json:"medicines,omitempty"`
}

type GrowthDetail struct {
	HeightCM            float64  `json:"height_cm,omitempty"`
	WeightKG            float64  `json:"weight_kg,omitempty"`
	HeadCircumferenceCM float64  `json:"head_circumference_cm,omitempty"`
	Activities          []string `json:"activities,omitempty"`
}

type EtcDetail struct {
	Title string `json:"title"`
}

// Record is one diary entry. Exactly one detail is set and it matches Type.
type Record struct {
	Sleep  *SleepDetail
	Meal   *MealDetail
	Diaper *DiaperDetail
	Health *HealthDetail
	Growth *GrowthDetail
	Etc    *EtcDetail

	Type       RecordType
	RecordDate string // YYYY-MM-DD
	Memo       string
	CreatedTs  int64
	ID         int32
	KidID      int32
}

// CreatedTime returns CreatedTs as a time in the local zone.
func (r *Record) CreatedTime() time.Time {
	return time.Unix(r.CreatedTs, 0)
}

func (r *Record) detailCount() int {
	n := 0
	for _, set := range []bool{r.Sleep != nil, r.Meal != nil, r.Diaper != nil, r.Health != nil, r.Growth != nil, r.Etc != nil} {
		if set {
			n++
		}
	}
	return n
}

func (r *Record) detail() any {
	switch r.Type {
	case RecordTypeSleep:
		if r.Sleep != nil {
			return r.Sleep
		}
	case RecordTypeMeal:
		if r.Meal != nil {
			return r.Meal
		}
	case RecordTypeDiaper:
		if r.Diaper != nil {
			return r.Diaper
		}
	case RecordTypeHealth:
		if r.Health != nil {
			return r.Health
		}
	case RecordTypeGrowth:
		if r.Growth != nil {
			return r.Growth
		}
	case RecordTypeEtc:
		if r.Etc != nil {
			return r.Etc
		}
	}
	return nil
}

// Validate checks the one-detail-per-entry invariant.
func (r *Record) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("unknown record type %q", r.Type)
	}
	if r.detailCount() != 1 || r.detail() == nil {
		return fmt.Errorf("record of type %q must carry exactly one matching detail", r.Type)
	}
	if r.RecordDate != "" {
		if _, err := time.Parse(BirthDateLayout, r.RecordDate); err != nil {
			return fmt.Errorf("invalid record date %q", r.RecordDate)
		}
	}
	return nil
}

// MarshalDetail encodes the typed detail for the payload column.
func (r *Record) MarshalDetail() ([]byte, error) {
	d := r.detail()
	if d == nil {
		return nil, fmt.Errorf("record of type %q has no detail", r.Type)
	}
	return json.Marshal(d)
}

// UnmarshalDetail decodes a payload column into the detail matching Type.
func (r *Record) UnmarshalDetail(data []byte) error {
	var target any
	switch r.Type {
	case RecordTypeSleep:
		r.Sleep = &SleepDetail{}
		target = r.Sleep
	case RecordTypeMeal:
		r.Meal = &MealDetail{}
		target = r.Meal
	case RecordTypeDiaper:
		r.Diaper = &DiaperDetail{}
		target = r.Diaper
	case RecordTypeHealth:
		r.Health = &HealthDetail{}
		target = r.Health
	case RecordTypeGrowth:
		r.Growth = &GrowthDetail{}
		target = r.Growth
	case RecordTypeEtc:
		r.Etc = &EtcDetail{}
		target = r.Etc
	default:
		return fmt.Errorf("unknown record type %q", r.Type)
	}
	return json.Unmarshal(data, target)
}

// FindRecord filters diary entries. Results are ordered by created_ts DESC, id DESC.
type FindRecord struct {
	Type         *RecordType
	ID           *int32
	KidID        int32
	CreatedAfter int64 // inclusive, unix seconds; zero means unbounded
	Limit        int
}
