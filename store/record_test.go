package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr bool
	}{
		{"matching detail", Record{Type: RecordTypeDiaper, Diaper: &DiaperDetail{DiaperType: "urine"}}, false},
		{"unknown type", Record{Type: "nap", Sleep: &SleepDetail{}}, true},
		{"mismatched detail", Record{Type: RecordTypeMeal, Sleep: &SleepDetail{}}, true},
		{"two details", Record{Type: RecordTypeMeal, Meal: &MealDetail{}, Etc: &EtcDetail{}}, true},
		{"no detail", Record{Type: RecordTypeGrowth}, true},
		{"bad date", Record{Type: RecordTypeEtc, Etc: &EtcDetail{}, RecordDate: "05/05/2025"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSleepDurationHours(t *testing.T) {
	start := time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)
	d := &SleepDetail{Start: start, End: start.Add(95 * time.Minute)}
	assert.InDelta(t, 1.58, d.DurationHours(), 0.0001)

	backwards := &SleepDetail{Start: start, End: start.Add(-time.Hour)}
	assert.Zero(t, backwards.DurationHours())

	var nilDetail *SleepDetail
	assert.Zero(t, nilDetail.DurationHours())
}

func TestUnmarshalDetailFollowsType(t *testing.T) {
	r := &Record{Type: RecordTypeHealth}
	require.NoError(t, r.UnmarshalDetail([]byte(`{"title":"감기","symptoms":["기침","콧물"]}`)))
	require.NotNil(t, r.Health)
	assert.Equal(t, []string{"기침", "콧물"}, r.Health.Symptoms)
	assert.NoError(t, r.Validate())

	bad := &Record{Type: "unknown"}
	assert.Error(t, bad.UnmarshalDetail([]byte(`{}`)))
}

func TestDiaperContents(t *testing.T) {
	both := &DiaperDetail{DiaperType: "both"}
	assert.True(t, both.HasStool())
	assert.True(t, both.HasUrine())

	urine := &DiaperDetail{DiaperType: "urine"}
	assert.False(t, urine.HasStool())
}

func TestKidBirth(t *testing.T) {
	k := &Kid{BirthDate: "2024-02-29"}
	birth, ok := k.Birth()
	require.True(t, ok)
	assert.Equal(t, time.February, birth.Month())

	_, ok = (&Kid{BirthDate: "bogus"}).Birth()
	assert.False(t, ok)
	_, ok = (&Kid{}).Birth()
	assert.False(t, ok)
}
