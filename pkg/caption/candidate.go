package caption

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Candidate is one generated, not-yet-approved piece of content.
type Candidate struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
	CTA      string   `json:"cta,omitempty"`
}

// Text assembles the caption, call-to-action and hashtags as they would be posted.
func (c Candidate) Text() string {
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(c.Caption); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(c.CTA); s != "" {
		parts = append(parts, s)
	}
	if len(c.Hashtags) > 0 {
		parts = append(parts, strings.Join(c.Hashtags, " "))
	}
	return strings.Join(parts, "\n\n")
}

func (c Candidate) Clone() Candidate {
	c.Hashtags = append([]string(nil), c.Hashtags...)
	return c
}

// Len counts runes, not bytes.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

var hashtagBody = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// NormalizeHashtag lower-cases a tag, strips punctuation and adds the '#' prefix.
// It returns "" when nothing usable remains.
func NormalizeHashtag(tag string) string {
	body := strings.TrimLeft(strings.TrimSpace(tag), "#")
	body = hashtagBody.ReplaceAllString(strings.ToLower(body), "")
	if body == "" {
		return ""
	}
	return "#" + body
}

// NormalizeHashtags normalizes and de-duplicates while keeping first-seen order.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		n := NormalizeHashtag(tag)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
