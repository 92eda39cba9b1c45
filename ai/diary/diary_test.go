package diary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/todoc/store"
)

type fakeReader struct {
	records []*store.Record
	err     error
	since   time.Time
	limit   int
}

func (f *fakeReader) GetLatestRecord(_ context.Context, _ int32) (*store.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.records) == 0 {
		return nil, nil
	}
	return f.records[0], nil
}

func (f *fakeReader) ListRecordsSince(_ context.Context, _ int32, since time.Time, limit int) ([]*store.Record, error) {
	f.since, f.limit = since, limit
	return f.records, f.err
}

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func testKid() *store.Kid {
	return &store.Kid{ID: 7, UserID: 1, Name: "김민준", BirthDate: "2024-01-15", Gender: store.GenderMale}
}

func TestProfileSnapshot(t *testing.T) {
	b := NewBuilder(testKid(), nil, clock)
	want := "- 이름: 민준\n- 호칭: 민준이\n- 생년월일: 2024-01-15\n- 생후: 13개월\n- 성별: 남아"
	assert.Equal(t, want, b.ProfileSnapshot(context.Background()))

	kid := &store.Kid{ID: 8, Name: "서아", Gender: store.GenderFemale}
	snap := NewBuilder(kid, nil, clock).ProfileSnapshot(context.Background())
	assert.Contains(t, snap, "- 호칭: 서아가")
	assert.Contains(t, snap, "- 생후: 알 수 없음")
	assert.Contains(t, snap, "- 성별: 여아")

	for name, want := range map[string]string{
		"Emma": "- 이름: Emma\n- 호칭: Emma가\n",
		"힘찬이":  "- 이름: 힘찬이\n- 호칭: 힘찬이가\n",
	} {
		kid := &store.Kid{ID: 9, Name: name, Gender: store.GenderMale}
		snap := NewBuilder(kid, nil, clock).ProfileSnapshot(context.Background())
		assert.True(t, strings.HasPrefix(snap, want), snap)
	}

	assert.Equal(t, NoKidSelected, NewBuilder(nil, nil, clock).ProfileSnapshot(context.Background()))
}

func TestKidWithoutEntries(t *testing.T) {
	b := NewBuilder(testKid(), &fakeReader{}, clock)
	c := b.Snapshot(context.Background())

	assert.True(t, c.HasKid())
	assert.True(t, strings.HasPrefix(c.Profile, "- 이름: "))
	assert.Equal(t, NoLatestRecord, c.Latest)
	assert.Equal(t, NoRecentRecords, c.Recent)
}

func TestSentinelsWithoutReaderOrKid(t *testing.T) {
	c := NewBuilder(nil, &fakeReader{}, clock).Snapshot(context.Background())
	assert.Equal(t, NoKidSelected, c.Profile)
	assert.Equal(t, LatestUnavailable, c.Latest)
	assert.Equal(t, RecentUnavailable, c.Recent)
	assert.False(t, c.HasKid())

	c = NewBuilder(testKid(), nil, clock).Snapshot(context.Background())
	assert.Equal(t, LatestUnavailable, c.Latest)
	assert.Equal(t, RecentUnavailable, c.Recent)

	for _, s := range []string{NoKidSelected, LatestUnavailable, NoLatestRecord, RecentUnavailable, NoRecentRecords} {
		assert.True(t, IsSentinel(s), s)
	}
	assert.False(t, IsSentinel("2025-03-10 08:00 [sleep] 낮잠"))
}

func TestStorageErrorDegradesToSentinel(t *testing.T) {
	b := NewBuilder(testKid(), &fakeReader{err: errors.New("db down")}, clock)
	assert.Equal(t, LatestUnavailable, b.LatestEntry(context.Background()))
	assert.Equal(t, RecentUnavailable, b.RecentDigest(context.Background()))
}

func TestRecentDigest(t *testing.T) {
	start := time.Date(2025, 3, 9, 13, 0, 0, 0, time.UTC)
	reader := &fakeReader{records: []*store.Record{
		{
			Type:      store.RecordTypeSleep,
			CreatedTs: start.Add(2 * time.Hour).Unix(),
			Sleep:     &store.SleepDetail{SleepType: "nap", Start: start, End: start.Add(95 * time.Minute), Quality: "good"},
		},
		{
			Type:      store.RecordTypeMeal,
			CreatedTs: start.Add(-time.Hour).Unix(),
			Meal:      &store.MealDetail{MealType: "formula", AmountML: 120, DurationMinutes: 15, Burp: true},
		},
	}}
	b := NewBuilder(testKid(), reader, clock)

	digest := b.RecentDigest(context.Background())
	lines := strings.Split(digest, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2025-03-09 15:00 [sleep] 낮잠 1.58시간 (13:00~14:35), 수면 질 좋음", lines[0])
	assert.Equal(t, "2025-03-09 12:00 [meal] 분유, 120ml, 15분, 트림함", lines[1])

	assert.Equal(t, fixedNow.Add(-RecentWindow), reader.since)
	assert.Equal(t, RecentLimit, reader.limit)
	assert.Equal(t, lines[0], b.LatestEntry(context.Background()))
}

func TestDescribe(t *testing.T) {
	ts := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC).Unix()
	tests := []struct {
		name   string
		record *store.Record
		want   string
	}{
		{
			name:   "diaper",
			record: &store.Record{Type: store.RecordTypeDiaper, Diaper: &store.DiaperDetail{DiaperType: "stool", Amount: "much", Condition: "diarrhea", Color: "green"}},
			want:   "[diaper] 대변, 양 많음, 상태 설사, 색 초록색",
		},
		{
			name:   "health",
			record: &store.Record{Type: store.RecordTypeHealth, Health: &store.HealthDetail{Title: "열", Symptoms: []string{"fever", "cough"}, Medicines: []string{"antipyretic"}}},
			want:   "[health] 열, 증상: 발열/기침, 약: 해열제",
		},
		{
			name:   "growth",
			record: &store.Record{Type: store.RecordTypeGrowth, Growth: &store.GrowthDetail{HeightCM: 80.5, WeightKG: 10.2}},
			want:   "[growth] 키 80.5cm, 몸무게 10.2kg",
		},
		{
			name:   "empty growth",
			record: &store.Record{Type: store.RecordTypeGrowth, Growth: &store.GrowthDetail{}},
			want:   "[growth] 성장 기록",
		},
		{
			name:   "etc with memo",
			record: &store.Record{Type: store.RecordTypeEtc, Etc: &store.EtcDetail{Title: "첫 걸음"}, Memo: "거실에서"},
			want:   "[etc] 첫 걸음 (메모: 거실에서)",
		},
		{
			name:   "meal with text amount",
			record: &store.Record{Type: store.RecordTypeMeal, Meal: &store.MealDetail{MealType: "baby_food", MealDetail: "소고기죽", AmountText: "반 그릇"}},
			want:   "[meal] 이유식, 소고기죽, 반 그릇",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.record.CreatedTs = ts
			assert.Equal(t, "2025-03-01 08:30 "+tt.want, Describe(tt.record, time.UTC))
		})
	}
}

func TestAgeMonths(t *testing.T) {
	birth := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC), 11},
		{time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), 12},
	}
	prev := 0
	for _, tt := range tests {
		got := AgeMonths(birth, tt.now)
		assert.Equal(t, tt.want, got, tt.now.Format(time.DateOnly))
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "민준", ShortName("김민준"))
	assert.Equal(t, "서아", ShortName("서아"))
	assert.Equal(t, "Emma", ShortName("Emma"))
	assert.Equal(t, "힘찬이", ShortName("힘찬이"))

	assert.Equal(t, "민준이", SubjectForm("민준"))
	assert.Equal(t, "서아가", SubjectForm("서아"))
	assert.Equal(t, "Leo가", SubjectForm("Leo"))
	assert.Equal(t, "", SubjectForm(""))

	tests := map[string]string{
		"":     "아이",
		"김태우":  "태우",
		"이현동":  "현동이",
		"태우":   "태우",
		"힘찬이":  "힘찬이",
		"민준":   "민준이",
		"Leo":  "Leo",
		"김Leo": "Leo",
	}
	for in, want := range tests {
		assert.Equal(t, want, FriendlyName(in), in)
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "수면", CategoryLabel(store.RecordTypeSleep))
	assert.Equal(t, "기타", CategoryLabel(store.RecordTypeEtc))
	assert.Equal(t, "분유", MealTypeLabel("formula"))
	assert.Equal(t, "발열", SymptomLabel("fever"))
	assert.Equal(t, "unknown", SymptomLabel("unknown"))
}
