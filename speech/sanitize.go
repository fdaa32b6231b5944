package speech

import "strings"

const (
	// MaxSpeechRunes bounds generated text read back to the user.
	MaxSpeechRunes = 500
	// minSentenceCut is the earliest sentence end a truncation may stop at;
	// anything shorter is hard-cut instead.
	minSentenceCut = 200
)

var markdownReplacer = strings.NewReplacer(
	"**", "",
	"__", "",
	"*", "",
	"#", "",
	"`", "",
	"\r\n\r\n", ". ",
	"\n\n", ". ",
	"\r\n", " ",
	"\n", " ",
)

// FormatForSpeech strips markdown, turns paragraph breaks into pauses and
// truncates long text. Truncation stops after the last full stop within the
// first MaxSpeechRunes runes when that stop lies past the 200th rune;
// otherwise the text is hard-cut and "..." appended.
func FormatForSpeech(text string) string {
	formatted := markdownReplacer.Replace(text)

	runes := []rune(formatted)
	if len(runes) > MaxSpeechRunes {
		head := runes[:MaxSpeechRunes]
		cut := lastIndexRune(head, '.')
		if cut > minSentenceCut {
			formatted = string(head[:cut+1])
		} else {
			formatted = string(head) + "..."
		}
	}

	return strings.TrimSpace(formatted)
}

func lastIndexRune(rs []rune, r rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}
