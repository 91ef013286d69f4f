// Package prompt assembles the system and user prompts for a generation request.
package prompt

import (
	"fmt"
	"strings"

	"postcraft/pkg/caption"
	"postcraft/services/content/internal/entity"
)

// Prompts is the pair handed to the text generator.
type Prompts struct {
	System string
	User   string
}

var formulas = map[entity.PostType]string{
	entity.PostTypePromo:        "Hook with the main benefit, back it with one concrete detail, close with the offer.",
	entity.PostTypeAnnouncement: "Lead with the news, explain why it matters to the audience, say what happens next.",
	entity.PostTypeTutorial:     "Promise an outcome, give up to three short steps, end with a tip.",
	entity.PostTypeTestimonial:  "Open with the customer's result, add a short quote, connect it to the reader.",
	entity.PostTypeFAQ:          "State the question plainly, answer it in two or three sentences.",
	entity.PostTypeEvent:        "Say what, when and where first, then one reason to attend.",
	entity.PostTypeSeasonal:     "Tie the brand to the season in the first line, keep it warm and brief.",
}

func Build(req entity.GenerationRequest, cons caption.Constraints, minHashtags, maxHashtags int) Prompts {
	b := req.Brand

	var sys strings.Builder
	fmt.Fprintf(&sys, "You write social media posts for %s.", b.Name)
	if b.Voice != "" {
		fmt.Fprintf(&sys, " Voice: %s.", b.Voice)
	}
	if b.TargetAudience != "" {
		fmt.Fprintf(&sys, " Audience: %s.", b.TargetAudience)
	}
	if len(b.BannedPhrases) > 0 {
		fmt.Fprintf(&sys, " Never use these phrases: %s.", strings.Join(b.BannedPhrases, "; "))
	}
	sys.WriteString(" Use short sentences and plain words.")
	sys.WriteString(` Reply with JSON only: {"caption": string, "hashtags": [string], "cta": string}.`)

	var user strings.Builder
	fmt.Fprintf(&user, "Write a %s post for %s.\n", req.PostType, req.Platform)
	fmt.Fprintf(&user, "Structure: %s\n", formulas[req.PostType])
	fmt.Fprintf(&user, "Keep the caption under %d characters and use %d to %d hashtags.\n", cons.MaxChars, minHashtags, maxHashtags)
	if len(b.ValueProps) > 0 {
		fmt.Fprintf(&user, "Value propositions: %s.\n", strings.Join(b.ValueProps, "; "))
	}
	if len(b.Keywords) > 0 {
		fmt.Fprintf(&user, "Keywords: %s.\n", strings.Join(b.Keywords, ", "))
	}
	if req.CampaignTheme != "" {
		fmt.Fprintf(&user, "Campaign theme: %s.\n", req.CampaignTheme)
	}
	if req.Product != "" {
		fmt.Fprintf(&user, "Product: %s.\n", req.Product)
	}
	if req.Tone != "" {
		fmt.Fprintf(&user, "Tone: %s.\n", req.Tone)
	}
	switch {
	case req.CTA != "":
		fmt.Fprintf(&user, "Call-to-action: %s\n", req.CTA)
	case len(b.PreferredCTAs) > 0:
		fmt.Fprintf(&user, "Pick a call-to-action from: %s\n", strings.Join(b.PreferredCTAs, "; "))
	}
	if len(b.RequiredDisclaimers) > 0 {
		fmt.Fprintf(&user, "Include verbatim: %s\n", strings.Join(b.RequiredDisclaimers, " "))
	}
	if req.Sponsored {
		user.WriteString("This is a paid partnership; include #ad.\n")
	}

	return Prompts{System: sys.String(), User: strings.TrimSpace(user.String())}
}

// SafetyText is what the prompt-safety screen inspects: every caller-controlled
// field Build writes into either prompt.
func SafetyText(req entity.GenerationRequest) string {
	b := req.Brand
	parts := []string{b.Name, req.CampaignTheme, req.Product, req.Tone, req.CTA}
	parts = append(parts, b.ValueProps...)
	parts = append(parts, b.Keywords...)
	parts = append(parts, b.Voice, b.TargetAudience)
	parts = append(parts, b.BannedPhrases...)
	parts = append(parts, b.RequiredDisclaimers...)
	parts = append(parts, b.PreferredCTAs...)
	return caption.CollapseSpace(strings.Join(parts, " "))
}
