package retrieval

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkRunes is the target chunk size for Ingest.
	DefaultChunkRunes = 800
	ingestBatchSize   = 16
)

// Chunk splits text on blank lines and packs paragraphs into chunks of at
// most maxRunes runes. Paragraphs longer than maxRunes are hard-split.
func Chunk(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = DefaultChunkRunes
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		n := utf8.RuneCountInString(para)
		if n > maxRunes {
			flush()
			runes := []rune(para)
			for i := 0; i < len(runes); i += maxRunes {
				chunks = append(chunks, strings.TrimSpace(string(runes[i:min(i+maxRunes, len(runes))])))
			}
			continue
		}
		if curLen > 0 && curLen+2+n > maxRunes {
			flush()
		}
		if curLen > 0 {
			cur.WriteString("\n\n")
			curLen += 2
		}
		cur.WriteString(para)
		curLen += n
	}
	flush()
	return chunks
}
