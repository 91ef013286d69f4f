package entity

import (
	"strings"

	"postcraft/pkg/apperr"
	"postcraft/pkg/caption"
	"postcraft/pkg/safety"
)

type PostType string

const (
	PostTypePromo        PostType = "promo"
	PostTypeAnnouncement PostType = "announcement"
	PostTypeTutorial     PostType = "tutorial"
	PostTypeTestimonial  PostType = "testimonial"
	PostTypeFAQ          PostType = "faq"
	PostTypeEvent        PostType = "event"
	PostTypeSeasonal     PostType = "seasonal"
)

func (t PostType) Valid() bool {
	switch t {
	case PostTypePromo, PostTypeAnnouncement, PostTypeTutorial, PostTypeTestimonial,
		PostTypeFAQ, PostTypeEvent, PostTypeSeasonal:
		return true
	}
	return false
}

// BrandProfile is supplied by the caller and never modified during a generation.
type BrandProfile struct {
	Name                string   `json:"name"`
	Voice               string   `json:"voice"`
	TargetAudience      string   `json:"target_audience"`
	ValueProps          []string `json:"value_props"`
	BannedPhrases       []string `json:"banned_phrases"`
	RequiredDisclaimers []string `json:"required_disclaimers"`
	PreferredCTAs       []string `json:"preferred_ctas"`
	Keywords            []string `json:"keywords"`
}

type GenerationRequest struct {
	OwnerID       string           `json:"-"`
	Platform      caption.Platform `json:"platform"`
	PostType      PostType         `json:"post_type"`
	Brand         BrandProfile     `json:"brand"`
	CampaignTheme string           `json:"campaign_theme,omitempty"`
	Product       string           `json:"product,omitempty"`
	Tone          string           `json:"tone,omitempty"`
	CTA           string           `json:"cta,omitempty"`
	PriorCaptions []string         `json:"prior_captions,omitempty"`
	// Sponsored marks paid content that must carry a disclosure.
	Sponsored bool `json:"sponsored,omitempty"`
}

func (r GenerationRequest) Validate() error {
	var reasons []string
	if !r.Platform.Valid() {
		reasons = append(reasons, "platform.unknown")
	}
	if !r.PostType.Valid() {
		reasons = append(reasons, "post_type.unknown")
	}
	if strings.TrimSpace(r.Brand.Name) == "" {
		reasons = append(reasons, "brand.name_required")
	}
	if len(reasons) > 0 {
		return apperr.New(apperr.CodeInvalidRequest, "invalid generation request").WithReasons(reasons...)
	}
	return nil
}

// Score holds the five sub-scores, each in [0,1], and their mean.
type Score struct {
	Overall       float64  `json:"overall"`
	Clarity       float64  `json:"clarity"`
	Value         float64  `json:"value"`
	Specificity   float64  `json:"specificity"`
	BrandVoice    float64  `json:"brand_voice"`
	Actionability float64  `json:"actionability"`
	Feedback      []string `json:"feedback,omitempty"`
}

type Result struct {
	OK             bool                `json:"ok"`
	Best           caption.Candidate   `json:"best"`
	Candidates     []caption.Candidate `json:"candidates"`
	Scores         []Score             `json:"scores"`
	RequiresReview bool                `json:"requires_review"`
	WasRewritten   bool                `json:"was_rewritten,omitempty"`
	AutoFixed      bool                `json:"auto_fixed,omitempty"`
	UsedFallback   bool                `json:"used_fallback,omitempty"`
	Moderation     safety.Result       `json:"moderation"`
	Warnings       []string            `json:"warnings,omitempty"`
}
