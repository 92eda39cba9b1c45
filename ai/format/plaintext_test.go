package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "민준이가 잘 자고 있어요.", "민준이가 잘 자고 있어요."},
		{"emphasis", "**민준이**가 _잘_ 자요.", "민준이가 잘 자요."},
		{"heading and list", "# 요약\n\n- 수면 12시간\n- 식사 5회", "요약\n수면 12시간\n식사 5회"},
		{"link", "[가이드](https://example.com)를 보세요", "가이드를 보세요"},
		{"soft break", "첫 줄\n둘째 줄", "첫 줄 둘째 줄"},
		{"code", "```\nline\n```", "line"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "가나다", Truncate("가나다", 3))
	assert.Equal(t, "가나", Truncate("가나다", 2))
	assert.Equal(t, "", Truncate("가나다", 0))
	assert.Equal(t, "ab", Truncate("abc", 2))
}

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "a b c", SingleLine(" a\n b\t\tc "))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "hello", StripCodeFence("```markdown\nhello\n```"))
	assert.Equal(t, "hello", StripCodeFence("```\nhello\n```"))
	assert.Equal(t, "hello", StripCodeFence("hello"))
}
