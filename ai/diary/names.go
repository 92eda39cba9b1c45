package diary

import (
	"time"
	"unicode/utf8"
)

const (
	hangulBase = 0xAC00
	hangulLast = 0xD7A3
)

// surnames are common Korean family-name syllables.
var surnames = map[rune]bool{}

func init() {
	for _, r := range "김이박최정강조윤장임한오서신권황안송류전홍고문양손배백허유남심노하곽성차주우구민나진지엄채원천방공현" {
		surnames[r] = true
	}
}

// hasBatchim reports whether r is a Hangul syllable with a final consonant.
// ok is false for anything that is not a Hangul syllable.
func hasBatchim(r rune) (batchim, ok bool) {
	if r < hangulBase || r > hangulLast {
		return false, false
	}
	return (r-hangulBase)%28 != 0, true
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

// ShortName drops a leading surname syllable from names with three or more
// runes. Other names are returned unchanged.
func ShortName(name string) string {
	runes := []rune(name)
	if len(runes) >= 3 && surnames[runes[0]] {
		return string(runes[1:])
	}
	return name
}

// SubjectForm appends the subject particle: 이 after a batchim, 가 otherwise.
// Non-Hangul endings get 가.
func SubjectForm(name string) string {
	if name == "" {
		return ""
	}
	if batchim, _ := hasBatchim(lastRune(name)); batchim {
		return name + "이"
	}
	return name + "가"
}

// FriendlyName turns a child's name into a warm form of address:
// 김태우 → 태우, 이현동 → 현동이, 힘찬이 → 힘찬이.
func FriendlyName(name string) string {
	if name == "" {
		return "아이"
	}
	name = ShortName(name)
	batchim, ok := hasBatchim(lastRune(name))
	if !ok || !batchim {
		return name
	}
	return name + "이"
}

// AgeMonths returns the number of whole calendar months between birth and now,
// never negative.
func AgeMonths(birth, now time.Time) int {
	months := (now.Year()-birth.Year())*12 + int(now.Month()-birth.Month())
	if now.Day() < birth.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
