package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/todoc/ai/core/llm"
	"github.com/hrygo/todoc/ai/diary"
	"github.com/hrygo/todoc/ai/format"
)

// ErrEmptyInsight is returned when the model answers with no text.
var ErrEmptyInsight = errors.New("insight: empty generation")

const insightPrompt = `당신은 아이의 기록을 함께 살펴보는 육아 전문가입니다.
아래 최근 기록 분석을 보고 부모에게 건넬 인사이트를 1~2문장으로 써 주세요.

아이 호칭: %[1]s
카테고리: %[2]s
기록이 있는 날 수: %[3]d일
분석 데이터: %[4]s
특이사항: %[5]s

지켜 주세요:
- 따뜻하고 친근한 말투로 씁니다.
- 아이는 반드시 "%[1]s"(으)로 부릅니다.
- 평균은 기록이 있는 날을 기준으로 한 값입니다.
- 수치가 있으면 자연스럽게 녹여 씁니다.
- 특이사항이 있으면 부드럽게 조언하고, 없으면 칭찬이나 격려로 마무리합니다.
- 마크다운 없이 평범한 문장으로만 답합니다.`

// Generator turns a category analysis into one or two sentences.
type Generator struct {
	llm   llm.Service
	model string
}

// NewGenerator creates a generator. model may be empty for the default.
func NewGenerator(svc llm.Service, model string) *Generator {
	return &Generator{llm: svc, model: model}
}

// Prompt renders the generation prompt.
func Prompt(kidName string, ca CategoryAnalysis) string {
	return fmt.Sprintf(insightPrompt,
		diary.FriendlyName(kidName),
		diary.CategoryLabel(ca.Category),
		ca.DaysWithRecords(),
		ca.Describe(),
		ca.Anomaly.Label(),
	)
}

// Generate asks the model for the insight and returns it as plain text.
func (g *Generator) Generate(ctx context.Context, kidName string, ca CategoryAnalysis) (string, error) {
	if g.llm == nil {
		return "", ErrEmptyInsight
	}
	text, _, err := g.llm.Chat(ctx, []llm.Message{llm.UserMessage(Prompt(kidName, ca))},
		llm.WithModel(g.model),
		llm.WithTemperature(0.7),
		llm.WithMaxTokens(200),
	)
	if err != nil {
		return "", fmt.Errorf("generate %s insight: %w", ca.Category, err)
	}
	text = strings.TrimSpace(format.PlainText(text))
	if text == "" {
		return "", ErrEmptyInsight
	}
	return text, nil
}
