package validator

import (
	"regexp"
	"strings"
	"unicode"

	"postcraft/pkg/caption"
)

const DefaultCTA = "Learn more at the link in our bio."

var (
	fillerPattern = regexp.MustCompile(`(?i)\b(really|very|just|actually|basically|literally|totally|simply|quite|truly)\b[ \t]*`)
	// fixes " ," and " ." left behind when a filler word is removed before punctuation
	looseSpacePattern = regexp.MustCompile(`\s+([,.!?;:])`)
	defaultHashtags   = []string{"#smallbusiness", "#shoplocal", "#community", "#behindthescenes", "#newpost"}
)

// TightenOptions supplies brand material used to fill gaps.
type TightenOptions struct {
	// BrandHashtags pads the hashtag list before generic defaults are used.
	BrandHashtags []string
	CTA           string
}

// Tighten is the one deterministic auto-fix pass: strip filler words,
// shorten to a sentence boundary, bring hashtags into range and supply a CTA.
// The input is not modified.
func (v *Validator) Tighten(c caption.Candidate, cons caption.Constraints, opts TightenOptions) caption.Candidate {
	out := c.Clone()

	out.Caption = StripFiller(out.Caption)
	if cons.MaxChars > 0 && caption.Len(out.Caption) > cons.MaxChars {
		out.Caption = TruncateAtSentence(out.Caption, cons.MaxChars)
	}

	out.Hashtags = v.fitHashtags(out.Hashtags, cons, opts.BrandHashtags)

	if caption.Len(strings.TrimSpace(out.CTA)) < v.cfg.MinCTAChars {
		out.CTA = strings.TrimSpace(opts.CTA)
		if caption.Len(out.CTA) < v.cfg.MinCTAChars {
			out.CTA = DefaultCTA
		}
	}
	return out
}

// StripFiller removes filler words. A capitalized filler hands its capital
// to the next word ("Really good coffee." -> "Good coffee.").
func StripFiller(s string) string {
	var (
		b       strings.Builder
		last    int
		pending bool
	)
	write := func(seg string) {
		if pending {
			var ok bool
			seg, ok = upperFirst(seg)
			pending = !ok
		}
		b.WriteString(seg)
	}
	for _, m := range fillerPattern.FindAllStringIndex(s, -1) {
		write(s[last:m[0]])
		if r := []rune(s[m[0]:m[1]]); unicode.IsUpper(r[0]) {
			pending = true
		}
		last = m[1]
	}
	write(s[last:])

	out := looseSpacePattern.ReplaceAllString(b.String(), "$1")
	return caption.CollapseSpace(out)
}

func upperFirst(s string) (string, bool) {
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			return string(runes), true
		}
	}
	return s, false
}

// TruncateAtSentence keeps whole sentences while they fit in max runes. When
// not even the first sentence fits it cuts at a word boundary and ends with ".".
func TruncateAtSentence(s string, max int) string {
	var kept []string
	length := 0
	for _, sentence := range caption.Sentences(s) {
		n := caption.Len(sentence)
		if len(kept) > 0 {
			n++ // joining space
		}
		if length+n > max {
			break
		}
		kept = append(kept, sentence)
		length += n
	}
	if len(kept) > 0 {
		return strings.Join(kept, " ")
	}

	runes := []rune(strings.TrimSpace(s))
	if max < 2 {
		return ""
	}
	cut := runes[:max-1]
	if i := lastSpace(cut); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "."
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}

func (v *Validator) fitHashtags(tags []string, cons caption.Constraints, brand []string) []string {
	limit := v.HashtagLimit(cons)

	out := make([]string, 0, limit)
	seen := make(map[string]struct{})
	add := func(tag string) {
		n := caption.NormalizeHashtag(tag)
		if n == "" || isBlocklisted(n) {
			return
		}
		if _, dup := seen[n]; dup {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}

	for _, tag := range tags {
		add(tag)
	}
	for _, pool := range [][]string{brand, defaultHashtags} {
		for _, tag := range pool {
			if len(out) >= v.cfg.MinHashtags {
				break
			}
			add(tag)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
