package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/todoc/ai/core/llm"
	"github.com/hrygo/todoc/ai/core/retrieval"
	"github.com/hrygo/todoc/ai/diary"
	"github.com/hrygo/todoc/ai/format"
	"github.com/hrygo/todoc/ai/persona"
	"github.com/hrygo/todoc/store"
)

// Weekly summary sentinels.
const (
	NoSummaryContext = "최근 7일 요약을 만들 수 없습니다 (아이 또는 DB 정보가 없어요)."
	NoWeeklyRecords  = "최근 7일 동안 등록된 일지 기록이 없습니다."
)

const (
	// SummaryMaxRunes caps the weekly sentence.
	SummaryMaxRunes = 120
	summaryLimit    = 80
	summaryQuery    = "최근 7일 아기 건강/성장/식습관 점검 체크리스트"
)

const summarySystem = `You are Summary AI for the home dashboard.
- Output: EXACTLY ONE Korean sentence (<=120자), 따뜻하고 상냥한 톤.
- 최근 7일 동안의 성장, 건강, 수면, 식사, 배변 신호를 짧게 묶어 전합니다.
- 이상이 없으면 "건강하게 잘 지내고 있어요" 같은 긍정적인 말을 넣습니다.
- 이상 징후가 보이면 짧게 언급하고 "계속되면 병원이나 전문가 상담" 정도의 부드러운 제안을 한 번만 합니다.
- 진단이나 과한 조언은 하지 않고, 수치는 꼭 필요할 때만 간단히 씁니다.`

// RecordReader lists a child's recent records.
type RecordReader interface {
	ListRecordsSince(ctx context.Context, kidID int32, since time.Time, limit int) ([]*store.Record, error)
}

// Summarizer writes the one-line weekly summary of the home dashboard.
type Summarizer struct {
	records   RecordReader
	retriever retrieval.Retriever
	llm       llm.Service
	now       func() time.Time
}

// NewSummarizer creates a summarizer. retriever may be nil.
func NewSummarizer(records RecordReader, retriever retrieval.Retriever, svc llm.Service, now func() time.Time) *Summarizer {
	if now == nil {
		now = time.Now
	}
	return &Summarizer{records: records, retriever: retriever, llm: svc, now: now}
}

// Weekly returns the summary sentence for kid. Missing inputs yield the
// sentinel strings; only LLM failures are errors.
func (s *Summarizer) Weekly(ctx context.Context, kid *store.Kid) (string, error) {
	if kid == nil || s.records == nil {
		return NoSummaryContext, nil
	}
	now := s.now()
	records, err := s.records.ListRecordsSince(ctx, kid.ID, now.Add(-diary.RecentWindow), summaryLimit)
	if err != nil {
		slog.Warn("insight: weekly records lookup failed", "kid_id", kid.ID, "error", err)
		return NoSummaryContext, nil
	}
	if len(records) == 0 {
		return NoWeeklyRecords, nil
	}
	if s.llm == nil {
		return NoSummaryContext, nil
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, diary.Describe(r, now.Location()))
	}
	user := fmt.Sprintf("아이 프로필:\n%s\n\n최근 7일 일지:\n%s\n\n참고 문서(RAG):\n%s",
		kidProfileLine(kid), strings.Join(lines, "\n"), s.ragContext(ctx))

	text, _, err := s.llm.Chat(ctx, []llm.Message{llm.SystemPrompt(summarySystem), llm.UserMessage(user)},
		llm.WithMaxTokens(200),
	)
	if err != nil {
		return "", fmt.Errorf("generate weekly summary: %w", err)
	}
	text = format.SingleLine(format.PlainText(text))
	if text == "" {
		return NoSummaryContext, nil
	}
	return format.Truncate(text, SummaryMaxRunes), nil
}

func kidProfileLine(kid *store.Kid) string {
	gender := "여아"
	if kid.Gender == store.GenderMale {
		gender = "남아"
	}
	return fmt.Sprintf("이름: %s, 생년월일: %s, 성별: %s", kid.Name, kid.BirthDate, gender)
}

// ragContext searches the parenting and common collections.
func (s *Summarizer) ragContext(ctx context.Context) string {
	if s.retriever == nil {
		return ""
	}
	snippets, err := s.retriever.Search(ctx, persona.Parenting, summaryQuery)
	if err != nil {
		slog.Warn("insight: weekly RAG lookup failed", "error", err)
		return ""
	}
	parts := make([]string, 0, len(snippets))
	for _, sn := range snippets {
		parts = append(parts, strings.TrimSpace(sn.Text))
	}
	return strings.Join(parts, "\n\n")
}
