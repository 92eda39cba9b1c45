// Package routing decides whether the active persona should answer a
// message, and how an out-of-scope message is resolved.
package routing

import "github.com/hrygo/todoc/ai/persona"

// Kind is the classification outcome.
type Kind string

const (
	InScope   Kind = "in_scope"
	Ambiguous Kind = "ambiguous"
	OffTopic  Kind = "off_topic"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == InScope || k == Ambiguous || k == OffTopic
}

// TargetOther marks a message that fits none of the personas.
const TargetOther persona.Persona = "other"

// Reasons set by the router itself.
const (
	ReasonChildInfo = "child_info"
	ReasonFallback  = "fallback"
)

// DeflectionText is the fixed reply when the nutrition persona declines a question.
const DeflectionText = "이 질문은 영양 AI가 도와드리기 어려운 내용이에요. 육아 AI에게 물어봐 주시면 더 잘 안내해 드릴 수 있어요. 아이가 아프거나 증상이 계속된다면 가까운 소아과 진료를 꼭 받아 보세요."

// Decision is the routing outcome of one message. It never changes the session persona.
type Decision struct {
	Kind   Kind
	Target persona.Persona
	Reason string

	// Deflect skips generation and replies with DeflectionText.
	Deflect bool
	// SuggestParenting appends a note pointing to the parenting persona.
	SuggestParenting bool
}

// SuggestsOther reports whether the reply should suggest the target persona.
func (d Decision) SuggestsOther(current persona.Persona) bool {
	return d.Kind == Ambiguous && d.Target != current && d.Target.Valid()
}
