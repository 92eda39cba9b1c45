package insight

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/todoc/store"
)

var day0 = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func sleepRecord(date string, sleepType string, start time.Time, hours float64) *store.Record {
	return &store.Record{
		Type:       store.RecordTypeSleep,
		RecordDate: date,
		Sleep: &store.SleepDetail{
			Start:     start,
			End:       start.Add(time.Duration(hours * float64(time.Hour))),
			SleepType: sleepType,
		},
	}
}

func mealRecord(date string, ml float64) *store.Record {
	return &store.Record{Type: store.RecordTypeMeal, RecordDate: date, Meal: &store.MealDetail{MealType: "formula", AmountML: ml}}
}

func diaperRecord(diaperType, condition string) *store.Record {
	return &store.Record{Type: store.RecordTypeDiaper, RecordDate: "2025-03-03", Diaper: &store.DiaperDetail{DiaperType: diaperType, Condition: condition}}
}

func healthRecord(symptoms ...string) *store.Record {
	return &store.Record{Type: store.RecordTypeHealth, RecordDate: "2025-03-03", Health: &store.HealthDetail{Title: "컨디션", Symptoms: symptoms}}
}

func TestAnalyzeSleep_AveragesOverDaysWithRecords(t *testing.T) {
	records := []*store.Record{
		sleepRecord("2025-03-04", "night", day0.Add(24*time.Hour+20*time.Hour), 12),
		sleepRecord("2025-03-04", "nap", day0.Add(24*time.Hour+13*time.Hour), 3),
		sleepRecord("2025-03-03", "night", day0.Add(20*time.Hour), 12),
		sleepRecord("2025-03-03", "nap", day0.Add(13*time.Hour), 3),
	}

	got := NewAnalyzer(Thresholds{}).Analyze(records)[store.RecordTypeSleep]

	want := CategoryAnalysis{
		Category: store.RecordTypeSleep,
		Count:    4,
		Sleep: &SleepStats{
			TotalHours:      30,
			AvgDailyHours:   15,
			DaysWithRecords: 2,
			NapCount:        2,
			NightCount:      2,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sleep analysis mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, got.DaysWithRecords())
	assert.Contains(t, got.Describe(), "일평균 15.0시간")
}

func TestAnalyzeSleep_Anomalies(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())
	tests := []struct {
		name    string
		records []*store.Record
		want    Anomaly
	}{
		{"night only", []*store.Record{sleepRecord("2025-03-03", "night", day0, 11)}, NoNap},
		{"short", []*store.Record{
			sleepRecord("2025-03-03", "night", day0, 7),
			sleepRecord("2025-03-03", "nap", day0.Add(13*time.Hour), 1),
		}, LowSleep},
		{"long", []*store.Record{
			sleepRecord("2025-03-03", "night", day0, 13),
			sleepRecord("2025-03-03", "nap", day0.Add(14*time.Hour), 4),
		}, HighSleep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Analyze(tt.records)[store.RecordTypeSleep].Anomaly)
		})
	}
}

func TestAnalyzeMeal(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	few := a.Analyze([]*store.Record{mealRecord("2025-03-03", 120), mealRecord("2025-03-03", 120), mealRecord("2025-03-03", 120)})
	assert.Equal(t, LowMealCount, few[store.RecordTypeMeal].Anomaly)

	var small []*store.Record
	for i := 0; i < 4; i++ {
		small = append(small, mealRecord("2025-03-03", 50), mealRecord("2025-03-04", 50))
	}
	got := a.Analyze(small)[store.RecordTypeMeal]
	want := CategoryAnalysis{
		Category: store.RecordTypeMeal,
		Count:    8,
		Anomaly:  LowAmount,
		Meal: &MealStats{
			TypeCounts:      map[string]int{"formula": 8},
			TotalML:         400,
			AvgDailyCount:   4,
			MealCount:       8,
			DaysWithRecords: 2,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("meal analysis mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeDiaper(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())
	tests := []struct {
		name    string
		records []*store.Record
		want    Anomaly
		stats   DiaperStats
	}{
		{"urine only", []*store.Record{diaperRecord("urine", "")}, NoStool, DiaperStats{UrineCount: 1}},
		{"diarrhea", []*store.Record{
			diaperRecord("stool", "diarrhea"), diaperRecord("both", "diarrhea"), diaperRecord("stool", "diarrhea"),
		}, FrequentDiarrhea, DiaperStats{StoolCount: 3, UrineCount: 1, DiarrheaCount: 3}},
		{"few stools", []*store.Record{diaperRecord("stool", "normal"), diaperRecord("urine", "")}, LowStool, DiaperStats{StoolCount: 1, UrineCount: 1}},
		{"regular", []*store.Record{
			diaperRecord("stool", "normal"), diaperRecord("stool", "normal"), diaperRecord("both", "normal"),
		}, "", DiaperStats{StoolCount: 3, UrineCount: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.records)[store.RecordTypeDiaper]
			assert.Equal(t, tt.want, got.Anomaly)
			if diff := cmp.Diff(&tt.stats, got.Diaper); diff != "" {
				t.Errorf("diaper stats mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnalyzeHealthGrowthEtc(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	health := a.Analyze([]*store.Record{healthRecord("cough"), healthRecord("fever", "cough")})[store.RecordTypeHealth]
	assert.Equal(t, FeverDetected, health.Anomaly)
	assert.ElementsMatch(t, []string{"cough", "fever"}, health.Health.Symptoms)

	mild := a.Analyze([]*store.Record{healthRecord("runny_nose")})[store.RecordTypeHealth]
	assert.Equal(t, SymptomsDetected, mild.Anomaly)

	growth := a.Analyze([]*store.Record{
		{Type: store.RecordTypeGrowth, Growth: &store.GrowthDetail{HeightCM: 80.5, WeightKG: 10.2}},
		{Type: store.RecordTypeGrowth, Growth: &store.GrowthDetail{HeightCM: 79}},
	})[store.RecordTypeGrowth]
	assert.Empty(t, growth.Anomaly)
	assert.Equal(t, 80.5, growth.Growth.HeightCM)
	assert.Equal(t, "키 80.5cm, 몸무게 10.2kg", growth.Describe())

	var etc []*store.Record
	for _, title := range []string{"a", "b", "c", "d", "e", "f"} {
		etc = append(etc, &store.Record{Type: store.RecordTypeEtc, Etc: &store.EtcDetail{Title: title}})
	}
	misc := a.Analyze(etc)[store.RecordTypeEtc]
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, misc.Etc.Titles)
	assert.Equal(t, 6, misc.Count)
}

func TestSelectCategory(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	_, ok := SelectCategory(a.Analyze(nil), nil)
	assert.False(t, ok)

	// No anomalies: the larger category wins, ties keep display order.
	calm := a.Analyze([]*store.Record{
		sleepRecord("2025-03-03", "nap", day0, 2),
		sleepRecord("2025-03-03", "night", day0.Add(10*time.Hour), 10),
		{Type: store.RecordTypeGrowth, Growth: &store.GrowthDetail{HeightCM: 80}},
		{Type: store.RecordTypeGrowth, Growth: &store.GrowthDetail{HeightCM: 80}},
	})
	cat, ok := SelectCategory(calm, nil)
	require.True(t, ok)
	assert.Equal(t, store.RecordTypeSleep, cat)

	// Anomalies beat volume and the pick is drawn among them.
	mixed := a.Analyze([]*store.Record{
		healthRecord("fever"),
		diaperRecord("urine", ""),
		{Type: store.RecordTypeEtc, Etc: &store.EtcDetail{Title: "x"}},
		{Type: store.RecordTypeEtc, Etc: &store.EtcDetail{Title: "y"}},
		{Type: store.RecordTypeEtc, Etc: &store.EtcDetail{Title: "z"}},
	})
	rng := rand.New(rand.NewPCG(1, 2))
	seen := map[store.RecordType]bool{}
	for i := 0; i < 50; i++ {
		cat, ok := SelectCategory(mixed, rng)
		require.True(t, ok)
		seen[cat] = true
	}
	assert.Equal(t, map[store.RecordType]bool{store.RecordTypeHealth: true, store.RecordTypeDiaper: true}, seen)
}

func TestAnomalyLabel(t *testing.T) {
	assert.Equal(t, "없음", Anomaly("").Label())
	assert.Equal(t, "발열", FeverDetected.Label())
	assert.Equal(t, "custom", Anomaly("custom").Label())
}
