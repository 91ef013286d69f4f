package caption

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	wordPattern  = regexp.MustCompile(`[\p{L}\p{N}_']+`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// Words returns lower-cased word tokens.
func Words(s string) []string {
	raw := wordPattern.FindAllString(strings.ToLower(s), -1)
	out := raw[:0]
	for _, w := range raw {
		w = strings.Trim(w, "'")
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Sentences splits on runs of '.', '!' or '?' that end the text or are
// followed by whitespace. Fragments without any word are dropped.
func Sentences(s string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		j := i
		for j+1 < len(runes) && isTerminator(runes[j+1]) {
			j++
		}
		if j+1 == len(runes) || unicode.IsSpace(runes[j+1]) {
			out = appendSentence(out, string(runes[start:j+1]))
			start = j + 1
		}
		i = j
	}
	if start < len(runes) {
		out = appendSentence(out, string(runes[start:]))
	}
	return out
}

func appendSentence(out []string, sentence string) []string {
	sentence = strings.TrimSpace(sentence)
	if len(Words(sentence)) == 0 {
		return out
	}
	return append(out, sentence)
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// CollapseSpace trims and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
