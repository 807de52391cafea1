package matching

import (
	"strings"
	"unicode"
)

// SplitSentences breaks free text into trimmed sentences, keeping source order.
// Lines are always boundaries; within a line a terminator ends a sentence when it
// is followed by whitespace or the end of the line. List bullets are stripped and
// fragments without any letter or digit are dropped.
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		for _, fragment := range splitLine(line) {
			if s := cleanSentence(fragment); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func splitLine(line string) []string {
	runes := []rune(line)
	var (
		parts []string
		start int
	)
	for i, r := range runes {
		if !isTerminator(r) {
			continue
		}
		if isCJKTerminator(r) || i == len(runes)-1 || unicode.IsSpace(runes[i+1]) {
			parts = append(parts, string(runes[start:i+1]))
			start = i + 1
		}
	}
	if start < len(runes) {
		parts = append(parts, string(runes[start:]))
	}
	return parts
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', ';':
		return true
	}
	return isCJKTerminator(r)
}

func isCJKTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '；':
		return true
	}
	return false
}

func cleanSentence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-*•·–> \t")
	s = strings.TrimSpace(s)
	if !strings.ContainsFunc(s, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
		return ""
	}
	return s
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
