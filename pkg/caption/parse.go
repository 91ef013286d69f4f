package caption

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	ctaLinePattern = regexp.MustCompile(`(?im)^[ \t]*cta[ \t]*:[ \t]*(.+?)[ \t]*$`)
	// Sentences opening with one of these phrases are treated as the call-to-action.
	actionPattern = regexp.MustCompile(`(?i)^(shop|book|sign up|learn more|order|get started|call|visit|try|download|join|register|subscribe|tap|click|dm us|message us|reserve|grab|claim|discover more)\b`)
	fencePattern  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

type structuredOutput struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
	CTA      string   `json:"cta"`
}

// Parse turns raw generator output into a Candidate. Structured JSON output
// is accepted when it decodes into a non-empty caption; anything else is
// parsed as free text.
func Parse(raw string) Candidate {
	trimmed := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		trimmed = m[1]
	}

	if strings.HasPrefix(trimmed, "{") {
		var out structuredOutput
		if err := json.Unmarshal([]byte(trimmed), &out); err == nil && strings.TrimSpace(out.Caption) != "" {
			c := parseText(out.Caption)
			c.Hashtags = NormalizeHashtags(append(c.Hashtags, out.Hashtags...))
			if cta := CollapseSpace(out.CTA); cta != "" {
				c.CTA = cta
			}
			return c
		}
	}

	return parseText(trimmed)
}

func parseText(text string) Candidate {
	var c Candidate

	if m := ctaLinePattern.FindStringSubmatchIndex(text); m != nil {
		c.CTA = CollapseSpace(text[m[2]:m[3]])
		text = text[:m[0]] + text[m[1]:]
	}

	c.Hashtags = NormalizeHashtags(hashtagPattern.FindAllString(text, -1))
	text = CollapseSpace(hashtagPattern.ReplaceAllString(text, " "))

	if c.CTA == "" {
		sentences := Sentences(text)
		if len(sentences) > 1 {
			for i := len(sentences) - 1; i >= 0; i-- {
				if actionPattern.MatchString(sentences[i]) {
					c.CTA = sentences[i]
					sentences = append(sentences[:i:i], sentences[i+1:]...)
					text = strings.Join(sentences, " ")
					break
				}
			}
		}
	}

	c.Caption = CollapseSpace(text)
	return c
}
