package diary

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/todoc/store"
)

// EntryLayout is the timestamp layout of a described entry.
const EntryLayout = "2006-01-02 15:04"

var categoryLabels = map[store.RecordType]string{
	store.RecordTypeSleep:  "수면",
	store.RecordTypeMeal:   "식사",
	store.RecordTypeDiaper: "배변",
	store.RecordTypeHealth: "건강",
	store.RecordTypeGrowth: "성장",
	store.RecordTypeEtc:    "기타",
}

var (
	sleepTypeLabels  = map[string]string{"nap": "낮잠", "night": "밤잠"}
	qualityLabels    = map[string]string{"good": "좋음", "normal": "보통", "bad": "나쁨"}
	mealTypeLabels   = map[string]string{"snack": "간식", "breast_milk": "모유", "formula": "분유", "bottle": "젖병", "baby_food": "이유식", "other": "기타"}
	diaperTypeLabels = map[string]string{"urine": "소변", "stool": "대변", "both": "소변+대변"}
	amountLabels     = map[string]string{"much": "많음", "normal": "보통", "little": "적음"}
	conditionLabels  = map[string]string{"normal": "정상", "diarrhea": "설사", "constipation": "변비"}
	colorLabels      = map[string]string{"yellow": "노란색", "brown": "갈색", "green": "초록색", "other": "기타"}
	symptomLabels    = map[string]string{"fever": "발열", "runny_nose": "콧물", "cough": "기침", "vomit": "구토", "diarrhea": "설사", "rash": "발진", "headache": "두통"}
	medicineLabels   = map[string]string{"antipyretic": "해열제", "painkiller": "진통제", "cold_medicine": "감기약", "antibiotic": "항생제", "ointment": "연고", "eye_drops": "안약"}
)

func label(labels map[string]string, v string) string {
	if l, ok := labels[v]; ok {
		return l
	}
	return v
}

// CategoryLabel returns the Korean name of a diary category.
func CategoryLabel(t store.RecordType) string {
	if l, ok := categoryLabels[t]; ok {
		return l
	}
	return string(t)
}

// MealTypeLabel returns the Korean name of a meal type.
func MealTypeLabel(v string) string { return label(mealTypeLabels, v) }

// SymptomLabel returns the Korean name of a symptom.
func SymptomLabel(v string) string { return label(symptomLabels, v) }

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinLabels(labels map[string]string, values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, label(labels, v))
	}
	return strings.Join(out, "/")
}

// Describe renders one entry as "2006-01-02 15:04 [type] detail" in loc.
func Describe(r *store.Record, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	detail := describeDetail(r, loc)
	if r.Memo != "" {
		if detail == "" {
			detail = r.Memo
		} else {
			detail += " (메모: " + r.Memo + ")"
		}
	}
	return fmt.Sprintf("%s [%s] %s", time.Unix(r.CreatedTs, 0).In(loc).Format(EntryLayout), r.Type, detail)
}

func describeDetail(r *store.Record, loc *time.Location) string {
	var parts []string
	switch {
	case r.Sleep != nil:
		s := r.Sleep
		parts = append(parts, fmt.Sprintf("%s %s시간 (%s~%s)",
			label(sleepTypeLabels, s.SleepType),
			formatNumber(s.DurationHours()),
			s.Start.In(loc).Format("15:04"),
			s.End.In(loc).Format("15:04")))
		if s.Quality != "" {
			parts = append(parts, "수면 질 "+label(qualityLabels, s.Quality))
		}
	case r.Meal != nil:
		m := r.Meal
		parts = append(parts, label(mealTypeLabels, m.MealType))
		if m.MealDetail != "" {
			parts = append(parts, m.MealDetail)
		}
		if m.AmountML > 0 {
			parts = append(parts, formatNumber(m.AmountML)+"ml")
		} else if m.AmountText != "" {
			parts = append(parts, m.AmountText)
		}
		if m.DurationMinutes > 0 {
			parts = append(parts, fmt.Sprintf("%d분", m.DurationMinutes))
		}
		if m.Burp {
			parts = append(parts, "트림함")
		}
	case r.Diaper != nil:
		d := r.Diaper
		parts = append(parts, label(diaperTypeLabels, d.DiaperType))
		if d.Amount != "" {
			parts = append(parts, "양 "+label(amountLabels, d.Amount))
		}
		if d.Condition != "" {
			parts = append(parts, "상태 "+label(conditionLabels, d.Condition))
		}
		if d.Color != "" {
			parts = append(parts, "색 "+label(colorLabels, d.Color))
		}
	case r.Health != nil:
		h := r.Health
		parts = append(parts, h.Title)
		if len(h.Symptoms) > 0 {
			parts = append(parts, "증상: "+joinLabels(symptomLabels, h.Symptoms))
		}
		if len(h.Medicines) > 0 {
			parts = append(parts, "약: "+joinLabels(medicineLabels, h.Medicines))
		}
	case r.Growth != nil:
		g := r.Growth
		if g.HeightCM > 0 {
			parts = append(parts, "키 "+formatNumber(g.HeightCM)+"cm")
		}
		if g.WeightKG > 0 {
			parts = append(parts, "몸무게 "+formatNumber(g.WeightKG)+"kg")
		}
		if g.HeadCircumferenceCM > 0 {
			parts = append(parts, "머리둘레 "+formatNumber(g.HeadCircumferenceCM)+"cm")
		}
		if len(parts) == 0 {
			parts = append(parts, "성장 기록")
		}
	case r.Etc != nil:
		parts = append(parts, r.Etc.Title)
	}
	return strings.Join(parts, ", ")
}
