// Package postprocess finalizes generated replies: it drops free-text
// citation lines and appends the grounding disclaimer and persona hints.
// Process is pure and running it twice changes nothing.
package postprocess

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hrygo/todoc/ai/persona"
	"github.com/hrygo/todoc/ai/routing"
)

const (
	// Disclaimer is appended to retrieval-grounded replies.
	Disclaimer = "이 답변은 신뢰도 있는 문서 기반으로 생성되었어요!"
	// groundedMarker is the phrase whose presence means a disclaimer exists.
	groundedMarker = "문서 기반"

	// ParentingNote points medical users to the parenting persona.
	ParentingNote = "일상적인 육아 고민은 육아 AI에게 물어보시면 더 자세히 도와드릴 수 있어요."

	suggestionFormat = "이 질문은 %s에게 물어보시면 더 잘 맞는 답을 받을 수 있어요."
)

const citationWords = `출처|참고\s*문서|sources?|references?`

var (
	// markerRegex matches "출처: ...", "Sources - ...", "[출처] ..." and "**참고 문서**:".
	markerRegex = regexp.MustCompile(`(?i)^(\[(` + citationWords + `)\s*[\]:：]|(` + citationWords + `)\**\s*[:：\-–])`)
	// footnoteRegex matches "[1]" style footnote markers.
	footnoteRegex = regexp.MustCompile(`^\[\d+\]`)
	// sourceRegex matches a footnote whose body is a document name or URL.
	sourceRegex = regexp.MustCompile(`(?i)^\[\d+\]\s*(https?://|www\.|\S+\.(md|markdown|txt|pdf|html?)\b)`)
)

// Flags describe how the reply was produced.
type Flags struct {
	RetrievalUsed bool
	Current       persona.Persona
	Decision      routing.Decision
}

// Suggestion returns the cross-referral sentence for target.
func Suggestion(target persona.Persona) string {
	return fmt.Sprintf(suggestionFormat, target.DisplayName())
}

// Process applies, in order: citation stripping, the grounding disclaimer,
// the cross-referral suggestion and the parenting note.
func Process(text string, f Flags) string {
	out := StripCitations(text)

	if f.RetrievalUsed && !strings.Contains(out, groundedMarker) {
		out = appendParagraph(out, Disclaimer)
	}
	if f.Decision.SuggestsOther(f.Current) {
		if s := Suggestion(f.Decision.Target); !strings.Contains(out, s) {
			out = appendParagraph(out, s)
		}
	}
	if f.Decision.SuggestParenting && !strings.Contains(out, ParentingNote) {
		out = appendParagraph(out, ParentingNote)
	}
	return out
}

// StripCitations removes citation marker lines, footnotes that name a
// document or URL, and the footnote list directly under a marker line. It
// trims trailing blank lines.
func StripCitations(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	inList := false
	for _, line := range lines {
		s := trimMarkup(line)
		switch {
		case s == "":
			kept = append(kept, line)
		case markerRegex.MatchString(s):
			inList = true
		case footnoteRegex.MatchString(s) && (inList || sourceRegex.MatchString(s)):
		default:
			inList = false
			kept = append(kept, line)
		}
	}
	return strings.TrimRight(strings.Join(kept, "\n"), " \t\r\n")
}

// trimMarkup drops list bullets, emphasis and heading marks around a line.
func trimMarkup(line string) string {
	return strings.TrimLeft(strings.TrimSpace(line), "-*#> ")
}

func appendParagraph(text, paragraph string) string {
	if text == "" {
		return paragraph
	}
	return text + "\n\n" + paragraph
}
