package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/todoc/ai/core/llm/llmtest"
)

func TestTitleGenerator(t *testing.T) {
	ctx := context.Background()
	message := "요즘 아이가 밤마다 두세 번씩 깨서 다시 재우기가 너무 어려워요"

	tests := []struct {
		name string
		gen  *TitleGenerator
		want string
	}{
		{"model title", NewTitleGenerator(llmtest.NewMockLLM().WithJSONResponse(`{"title":"\"밤중 각성 고민\""}`), ""), "밤중 각성 고민"},
		{"error falls back", NewTitleGenerator(llmtest.NewMockLLM().WithJSONError(errors.New("timeout")), ""), "요즘 아이가 밤마다 두세 번씩 깨서"},
		{"empty title falls back", NewTitleGenerator(llmtest.NewMockLLM().WithJSONResponse(`{"title":"  "}`), ""), "요즘 아이가 밤마다 두세 번씩 깨서"},
		{"nil generator", nil, "요즘 아이가 밤마다 두세 번씩 깨서"},
		{"long title capped", NewTitleGenerator(llmtest.NewMockLLM().WithJSONResponse(`{"title":"`+strings.Repeat("잠", 30)+`"}`), ""), strings.Repeat("잠", TitleMaxRunes)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.gen.Generate(ctx, message)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), TitleMaxRunes)
		})
	}
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "분유 양이 적당한가요?", Snippet("**분유** 양이\n적당한가요?"))
	assert.Len(t, []rune(Snippet(strings.Repeat("가", 100))), SnippetMaxRunes)
}

func TestDateLabel(t *testing.T) {
	now := time.Date(2025, 1, 26, 0, 30, 0, 0, time.UTC)

	assert.Equal(t, "01.26 오늘", DateLabel(now.Add(-10*time.Minute), now))
	assert.Equal(t, "01.25 어제", DateLabel(now.Add(-time.Hour), now))
	assert.Equal(t, "01.20", DateLabel(time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "12.31", DateLabel(time.Date(2024, 12, 31, 9, 0, 0, 0, time.UTC), now))
}
