// Package insight produces the short dashboard messages shown for a child:
// the per-category insight and the weekly one-line summary.
package insight

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/hrygo/todoc/ai/diary"
	"github.com/hrygo/todoc/store"
)

// Anomaly names a pattern worth mentioning to the parent.
type Anomaly string

const (
	NoNap            Anomaly = "no_nap"
	LowSleep         Anomaly = "low_sleep"
	HighSleep        Anomaly = "high_sleep"
	LowMealCount     Anomaly = "low_meal_count"
	LowAmount        Anomaly = "low_amount"
	NoStool          Anomaly = "no_stool"
	FrequentDiarrhea Anomaly = "frequent_diarrhea"
	LowStool         Anomaly = "low_stool"
	FeverDetected    Anomaly = "fever_detected"
	SymptomsDetected Anomaly = "symptoms_detected"
)

var anomalyLabels = map[Anomaly]string{
	NoNap:            "낮잠 기록 없음",
	LowSleep:         "수면 시간 부족",
	HighSleep:        "수면 시간 많음",
	LowMealCount:     "식사 횟수 적음",
	LowAmount:        "1회 섭취량 적음",
	NoStool:          "대변 기록 없음",
	FrequentDiarrhea: "잦은 설사",
	LowStool:         "대변 횟수 적음",
	FeverDetected:    "발열",
	SymptomsDetected: "증상 있음",
}

// Label returns the Korean description of a, or "없음" when empty.
func (a Anomaly) Label() string {
	if a == "" {
		return "없음"
	}
	if l, ok := anomalyLabels[a]; ok {
		return l
	}
	return string(a)
}

// Thresholds tune the anomaly rules.
type Thresholds struct {
	WindowDays     int
	LowSleepHours  float64
	HighSleepHours float64
	MinMealsPerDay float64
	MinMealML      float64
	DiarrheaCount  int
	MinStool       int
}

// DefaultThresholds returns the stock rule values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WindowDays:     7,
		LowSleepHours:  10,
		HighSleepHours: 16,
		MinMealsPerDay: 4,
		MinMealML:      80,
		DiarrheaCount:  3,
		MinStool:       3,
	}
}

type SleepStats struct {
	TotalHours      float64
	AvgDailyHours   float64
	DaysWithRecords int
	NapCount        int
	NightCount      int
}

type MealStats struct {
	TypeCounts      map[string]int
	TotalML         float64
	AvgDailyCount   float64
	MealCount       int
	DaysWithRecords int
}

type DiaperStats struct {
	StoolCount    int
	UrineCount    int
	DiarrheaCount int
}

type HealthStats struct {
	Symptoms  []string
	Medicines []string
}

type GrowthStats struct {
	Activities []string
	HeightCM   float64
	WeightKG   float64
}

type EtcStats struct {
	Titles []string
}

// CategoryAnalysis is the result for one diary category. At most one of
// the stats pointers is set, matching Category.
type CategoryAnalysis struct {
	Sleep  *SleepStats
	Meal   *MealStats
	Diaper *DiaperStats
	Health *HealthStats
	Growth *GrowthStats
	Etc    *EtcStats

	Category store.RecordType
	Anomaly  Anomaly
	Count    int
}

// DaysWithRecords returns the averaging denominator, or 0 when the
// category does not average.
func (c CategoryAnalysis) DaysWithRecords() int {
	switch {
	case c.Sleep != nil:
		return c.Sleep.DaysWithRecords
	case c.Meal != nil:
		return c.Meal.DaysWithRecords
	}
	return 0
}

// Describe renders the aggregates as a short Korean line for prompts.
func (c CategoryAnalysis) Describe() string {
	switch {
	case c.Sleep != nil:
		s := c.Sleep
		return fmt.Sprintf("총 수면 %.1f시간, 일평균 %.1f시간, 낮잠 %d회, 밤잠 %d회",
			s.TotalHours, s.AvgDailyHours, s.NapCount, s.NightCount)
	case c.Meal != nil:
		m := c.Meal
		types := make([]string, 0, len(m.TypeCounts))
		for _, k := range slices.Sorted(maps.Keys(m.TypeCounts)) {
			types = append(types, fmt.Sprintf("%s %d회", diary.MealTypeLabel(k), m.TypeCounts[k]))
		}
		line := fmt.Sprintf("식사 %d회, 일평균 %.1f회", m.MealCount, m.AvgDailyCount)
		if m.TotalML > 0 {
			line += fmt.Sprintf(", 총 %.0fml", m.TotalML)
		}
		if len(types) > 0 {
			line += " (" + strings.Join(types, ", ") + ")"
		}
		return line
	case c.Diaper != nil:
		d := c.Diaper
		return fmt.Sprintf("대변 %d회, 소변 %d회, 설사 %d회", d.StoolCount, d.UrineCount, d.DiarrheaCount)
	case c.Health != nil:
		h := c.Health
		parts := []string{}
		if len(h.Symptoms) > 0 {
			parts = append(parts, "증상: "+strings.Join(lo.Map(h.Symptoms, func(s string, _ int) string {
				return diary.SymptomLabel(s)
			}), ", "))
		}
		if len(h.Medicines) > 0 {
			parts = append(parts, "약: "+strings.Join(h.Medicines, ", "))
		}
		if len(parts) == 0 {
			return fmt.Sprintf("건강 기록 %d건", c.Count)
		}
		return strings.Join(parts, " / ")
	case c.Growth != nil:
		g := c.Growth
		parts := []string{}
		if g.HeightCM > 0 {
			parts = append(parts, fmt.Sprintf("키 %.1fcm", g.HeightCM))
		}
		if g.WeightKG > 0 {
			parts = append(parts, fmt.Sprintf("몸무게 %.1fkg", g.WeightKG))
		}
		if len(g.Activities) > 0 {
			parts = append(parts, "활동: "+strings.Join(g.Activities, ", "))
		}
		if len(parts) == 0 {
			return fmt.Sprintf("성장 기록 %d건", c.Count)
		}
		return strings.Join(parts, ", ")
	case c.Etc != nil:
		return "최근 기록: " + strings.Join(c.Etc.Titles, ", ")
	}
	return ""
}

// Analysis holds one CategoryAnalysis per category with records.
type Analysis map[store.RecordType]CategoryAnalysis

// Analyzer aggregates a window of diary records. It is pure.
type Analyzer struct {
	th Thresholds
}

// NewAnalyzer creates an analyzer. Zero threshold fields take the defaults.
func NewAnalyzer(th Thresholds) *Analyzer {
	def := DefaultThresholds()
	if th.WindowDays <= 0 {
		th.WindowDays = def.WindowDays
	}
	if th.LowSleepHours <= 0 {
		th.LowSleepHours = def.LowSleepHours
	}
	if th.HighSleepHours <= 0 {
		th.HighSleepHours = def.HighSleepHours
	}
	if th.MinMealsPerDay <= 0 {
		th.MinMealsPerDay = def.MinMealsPerDay
	}
	if th.MinMealML <= 0 {
		th.MinMealML = def.MinMealML
	}
	if th.DiarrheaCount <= 0 {
		th.DiarrheaCount = def.DiarrheaCount
	}
	if th.MinStool <= 0 {
		th.MinStool = def.MinStool
	}
	return &Analyzer{th: th}
}

// Thresholds returns the effective thresholds.
func (a *Analyzer) Thresholds() Thresholds {
	return a.th
}

// Analyze aggregates records, which must be ordered newest first.
func (a *Analyzer) Analyze(records []*store.Record) Analysis {
	byType := lo.GroupBy(records, func(r *store.Record) store.RecordType { return r.Type })
	out := Analysis{}
	for _, rt := range store.RecordTypes {
		recs := byType[rt]
		if len(recs) == 0 {
			continue
		}
		var ca CategoryAnalysis
		switch rt {
		case store.RecordTypeSleep:
			ca = a.sleep(recs)
		case store.RecordTypeMeal:
			ca = a.meal(recs)
		case store.RecordTypeDiaper:
			ca = a.diaper(recs)
		case store.RecordTypeHealth:
			ca = a.health(recs)
		case store.RecordTypeGrowth:
			ca = a.growth(recs)
		case store.RecordTypeEtc:
			ca = a.etc(recs)
		}
		ca.Category = rt
		ca.Count = len(recs)
		out[rt] = ca
	}
	return out
}

func distinctDates(records []*store.Record) int {
	n := len(lo.Uniq(lo.Map(records, func(r *store.Record, _ int) string { return r.RecordDate })))
	return max(n, 1)
}

func (a *Analyzer) sleep(records []*store.Record) CategoryAnalysis {
	recs := lo.Filter(records, func(r *store.Record, _ int) bool { return r.Sleep != nil })
	s := &SleepStats{}
	for _, r := range recs {
		s.TotalHours += r.Sleep.DurationHours()
		if r.Sleep.SleepType == "nap" {
			s.NapCount++
		} else {
			s.NightCount++
		}
	}
	s.DaysWithRecords = distinctDates(recs)
	s.AvgDailyHours = s.TotalHours / float64(s.DaysWithRecords)

	ca := CategoryAnalysis{Sleep: s}
	switch {
	case s.NapCount == 0 && s.NightCount > 0:
		ca.Anomaly = NoNap
	case s.AvgDailyHours < a.th.LowSleepHours:
		ca.Anomaly = LowSleep
	case s.AvgDailyHours > a.th.HighSleepHours:
		ca.Anomaly = HighSleep
	}
	return ca
}

func (a *Analyzer) meal(records []*store.Record) CategoryAnalysis {
	recs := lo.Filter(records, func(r *store.Record, _ int) bool { return r.Meal != nil })
	m := &MealStats{TypeCounts: map[string]int{}}
	for _, r := range recs {
		m.MealCount++
		m.TotalML += r.Meal.AmountML
		m.TypeCounts[r.Meal.MealType]++
	}
	m.DaysWithRecords = distinctDates(recs)
	m.AvgDailyCount = float64(m.MealCount) / float64(m.DaysWithRecords)

	ca := CategoryAnalysis{Meal: m}
	switch {
	case m.AvgDailyCount < a.th.MinMealsPerDay:
		ca.Anomaly = LowMealCount
	case m.TotalML > 0 && m.TotalML/float64(m.MealCount) < a.th.MinMealML:
		ca.Anomaly = LowAmount
	}
	return ca
}

func (a *Analyzer) diaper(records []*store.Record) CategoryAnalysis {
	d := &DiaperStats{}
	for _, r := range records {
		if r.Diaper == nil {
			continue
		}
		if r.Diaper.HasStool() {
			d.StoolCount++
			if r.Diaper.Condition == "diarrhea" {
				d.DiarrheaCount++
			}
		}
		if r.Diaper.HasUrine() {
			d.UrineCount++
		}
	}

	ca := CategoryAnalysis{Diaper: d}
	switch {
	case d.StoolCount == 0:
		ca.Anomaly = NoStool
	case d.DiarrheaCount >= a.th.DiarrheaCount:
		ca.Anomaly = FrequentDiarrhea
	case d.StoolCount < a.th.MinStool && a.th.WindowDays >= 7:
		ca.Anomaly = LowStool
	}
	return ca
}

func (a *Analyzer) health(records []*store.Record) CategoryAnalysis {
	h := &HealthStats{}
	for _, r := range records {
		if r.Health == nil {
			continue
		}
		h.Symptoms = append(h.Symptoms, r.Health.Symptoms...)
		h.Medicines = append(h.Medicines, r.Health.Medicines...)
	}
	h.Symptoms = lo.Uniq(h.Symptoms)
	h.Medicines = lo.Uniq(h.Medicines)

	ca := CategoryAnalysis{Health: h}
	switch {
	case slices.Contains(h.Symptoms, "fever"):
		ca.Anomaly = FeverDetected
	case len(h.Symptoms) > 0:
		ca.Anomaly = SymptomsDetected
	}
	return ca
}

func (a *Analyzer) growth(records []*store.Record) CategoryAnalysis {
	g := &GrowthStats{}
	if latest, ok := lo.Find(records, func(r *store.Record) bool { return r.Growth != nil }); ok {
		g.HeightCM = latest.Growth.HeightCM
		g.WeightKG = latest.Growth.WeightKG
		g.Activities = latest.Growth.Activities
	}
	return CategoryAnalysis{Growth: g}
}

func (a *Analyzer) etc(records []*store.Record) CategoryAnalysis {
	titles := lo.FilterMap(records, func(r *store.Record, _ int) (string, bool) {
		if r.Etc == nil || r.Etc.Title == "" {
			return "", false
		}
		return r.Etc.Title, true
	})
	if len(titles) > 5 {
		titles = titles[:5]
	}
	return CategoryAnalysis{Etc: &EtcStats{Titles: titles}}
}

// SelectCategory picks the category to talk about: a random one among
// those with an anomaly, else the one with the most records (ties keep
// store.RecordTypes order). ok is false when there are no records.
// rng may be nil.
func SelectCategory(an Analysis, rng *rand.Rand) (store.RecordType, bool) {
	anomalies := lo.Filter(store.RecordTypes, func(rt store.RecordType, _ int) bool {
		ca, ok := an[rt]
		return ok && ca.Anomaly != ""
	})
	if len(anomalies) > 0 {
		if rng == nil {
			return anomalies[rand.IntN(len(anomalies))], true
		}
		return anomalies[rng.IntN(len(anomalies))], true
	}

	var (
		best  store.RecordType
		count int
	)
	for _, rt := range store.RecordTypes {
		if ca, ok := an[rt]; ok && ca.Count > count {
			best, count = rt, ca.Count
		}
	}
	return best, count > 0
}
