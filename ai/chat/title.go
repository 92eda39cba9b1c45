package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/todoc/ai/core/llm"
	"github.com/hrygo/todoc/ai/format"
)

// Title generation limits.
const (
	titleTimeout     = 15 * time.Second
	titleMaxTokens   = 40
	titleTemperature = 0.1
	titleInputRunes  = 500
	// TitleMaxRunes caps session titles.
	TitleMaxRunes = 20
	// SnippetMaxRunes caps the question snippet shown on session cards.
	SnippetMaxRunes = 40
)

const titleSystemPrompt = `당신은 육아 상담 대화의 제목을 짓습니다.
- 사용자의 첫 질문을 20자 이내의 짧은 한국어 명사구로 요약합니다.
- 아이 이름, 따옴표, 이모지, 마침표는 넣지 않습니다.
- JSON으로만 답합니다: {"title": "..."}`

var titleSchema = llm.ObjectSchema(map[string]*llm.JSONSchema{
	"title": llm.StringProp("짧은 대화 제목"),
}, "title")

// TitleGenerator summarizes the first question of a session into a title.
type TitleGenerator struct {
	llm   llm.Service
	model string
}

// NewTitleGenerator creates a generator. A nil service always uses the
// truncated-message fallback.
func NewTitleGenerator(svc llm.Service, model string) *TitleGenerator {
	return &TitleGenerator{llm: svc, model: model}
}

// Generate returns a title of at most TitleMaxRunes runes. It never fails:
// any model problem falls back to the truncated message.
func (g *TitleGenerator) Generate(ctx context.Context, message string) string {
	fallback := strings.TrimSpace(format.Truncate(format.SingleLine(message), TitleMaxRunes))
	if g == nil || g.llm == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	start := time.Now()
	var out struct {
		Title string `json:"title"`
	}
	_, err := g.llm.ChatJSON(ctx, []llm.Message{
		llm.SystemPrompt(titleSystemPrompt),
		llm.UserMessage(format.Truncate(message, titleInputRunes)),
	}, titleSchema, &out,
		llm.WithModel(g.model),
		llm.WithTemperature(titleTemperature),
		llm.WithMaxTokens(titleMaxTokens),
		llm.WithSchemaName("title_generation"),
	)
	if err != nil {
		slog.Warn("title_generation_failed", "error", err, "latency_ms", time.Since(start).Milliseconds())
		return fallback
	}

	title := format.SingleLine(format.PlainText(out.Title))
	title = strings.Trim(title, `"'.`)
	if title == "" {
		return fallback
	}
	return format.Truncate(title, TitleMaxRunes)
}

// Snippet is the plain-text question preview of a session card.
func Snippet(message string) string {
	return format.Truncate(format.SingleLine(format.PlainText(message)), SnippetMaxRunes)
}

// DateLabel renders t as "MM.DD" followed by " 오늘" or " 어제" relative to now.
func DateLabel(t, now time.Time) string {
	t = t.In(now.Location())
	label := t.Format("01.02")
	ty, tm, td := t.Date()
	switch {
	case sameDay(ty, tm, td, now):
		return label + " 오늘"
	case sameDay(ty, tm, td, now.AddDate(0, 0, -1)):
		return label + " 어제"
	}
	return label
}

func sameDay(y int, m time.Month, d int, ref time.Time) bool {
	ry, rm, rd := ref.Date()
	return y == ry && m == rm && d == rd
}
