package agent

import (
	"strings"

	"github.com/samber/lo"

	"github.com/hrygo/todoc/ai/core/llm"
	"github.com/hrygo/todoc/ai/diary"
	"github.com/hrygo/todoc/ai/persona"
	"github.com/hrygo/todoc/ai/tools"
)

const (
	languageLine      = "답변은 사용자 언어/경어에 맞추고, 데이터가 비어 있으면 솔직히 말한다."
	personalizeOnLine = "개인화: 필요. [Kid], [Latest], [Recent]의 기록을 근거로 이 아이에게 맞춰 답한다."
	personalizeOff    = "개인화: 불필요. 일반적인 정보 위주로 답하되, 아이 기록이 도움이 되면 참고한다."
)

// SystemPrompt assembles the per-turn system prompt: persona policy, tool
// catalog, language line, personalization flag and the diary blocks.
func SystemPrompt(policy *persona.Policy, registry *tools.Registry, personalize bool, dc diary.Context) string {
	web := registry != nil && registry.Has(tools.WebSearchName)

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(policy.System))
	sb.WriteString("\n\n")
	sb.WriteString(tools.Catalog(policy.Persona, web))
	sb.WriteString("\n")
	sb.WriteString(languageLine)
	sb.WriteString("\n")
	if personalize {
		sb.WriteString(personalizeOnLine)
	} else {
		sb.WriteString(personalizeOff)
	}

	writeBlock(&sb, "Kid", orSentinel(dc.Profile, diary.NoKidSelected))
	writeBlock(&sb, "Latest", orSentinel(dc.Latest, diary.LatestUnavailable))
	writeBlock(&sb, "Recent", orSentinel(dc.Recent, diary.RecentUnavailable))
	return sb.String()
}

func writeBlock(sb *strings.Builder, name, body string) {
	sb.WriteString("\n\n[")
	sb.WriteString(name)
	sb.WriteString("]\n")
	sb.WriteString(body)
}

func orSentinel(s, sentinel string) string {
	if strings.TrimSpace(s) == "" {
		return sentinel
	}
	return s
}

// History maps prior turns onto LLM messages. Unknown roles and empty
// turns are dropped.
func History(turns []Turn) []llm.Message {
	return lo.FilterMap(turns, func(t Turn, _ int) (llm.Message, bool) {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			return llm.Message{}, false
		}
		switch strings.ToLower(t.Role) {
		case llm.RoleUser:
			return llm.UserMessage(content), true
		case llm.RoleAssistant, "ai":
			return llm.AssistantMessage(content), true
		default:
			return llm.Message{}, false
		}
	})
}
