// Package safety classifies prompts and content into allow, review or block.
package safety

import (
	"strings"

	"postcraft/pkg/caption"
)

type Decision string

const (
	DecisionAllow  Decision = "allow"
	DecisionReview Decision = "review"
	DecisionBlock  Decision = "block"
)

func (d Decision) rank() int {
	switch d {
	case DecisionBlock:
		return 2
	case DecisionReview:
		return 1
	default:
		return 0
	}
}

// Reason codes.
const (
	ReasonProhibitedContent = "prohibited_content"
	ReasonSensitiveContent  = "sensitive_content"
	ReasonExcessiveHashtags = "excessive_hashtags"
	ReasonMissingDisclosure = "missing_disclosure"
	ReasonSensitiveMedia    = "sensitive_media_combination"
	ReasonLikenessRisk      = "likeness_risk"
	ReasonEmptyPrompt       = "empty_prompt"
)

type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityVideo Modality = "video"
)

type Result struct {
	Decision    Decision           `json:"decision"`
	Reasons     []string           `json:"reasons"`
	Coaching    []string           `json:"coaching,omitempty"`
	SafeRewrite *caption.Candidate `json:"safe_rewrite,omitempty"`
}

func (r Result) Blocked() bool { return r.Decision == DecisionBlock }

func (r Result) NeedsReview() bool { return r.Decision == DecisionReview }

func (r Result) HasReason(reason string) bool {
	for _, have := range r.Reasons {
		if have == reason {
			return true
		}
	}
	return false
}

// finding is one check's verdict; findings are merged with block > review > allow.
type finding struct {
	decision Decision
	reason   string
	coaching string
}

func merge(findings []finding) Result {
	res := Result{Decision: DecisionAllow, Reasons: []string{}}
	seen := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		if f.decision.rank() > res.Decision.rank() {
			res.Decision = f.decision
		}
		if _, dup := seen[f.reason]; dup {
			continue
		}
		seen[f.reason] = struct{}{}
		res.Reasons = append(res.Reasons, f.reason)
		if f.coaching != "" {
			res.Coaching = append(res.Coaching, f.coaching)
		}
	}
	return res
}

type Moderator struct {
	rules       *compiled
	norms       map[caption.Platform]int
	maxHashtags int
	table       caption.Table
}

func New(rules *Rules) (*Moderator, error) {
	c, err := rules.compile()
	if err != nil {
		return nil, err
	}
	norms := make(map[caption.Platform]int, len(rules.HashtagNorms))
	for p, n := range rules.HashtagNorms {
		norms[p] = n
	}
	return &Moderator{
		rules:       c,
		norms:       norms,
		maxHashtags: rules.MaxHashtags,
		table:       caption.DefaultTable(),
	}, nil
}

// NewDefault compiles the embedded rule set; it panics only if that file is broken.
func NewDefault() *Moderator {
	rules, err := DefaultRules()
	if err != nil {
		panic(err)
	}
	m, err := New(rules)
	if err != nil {
		panic(err)
	}
	return m
}

// CheckPromptSafety screens a generation request before any model call.
func (m *Moderator) CheckPromptSafety(prompt string, modality Modality) Result {
	if strings.TrimSpace(prompt) == "" {
		return merge([]finding{{DecisionBlock, ReasonEmptyPrompt, "Describe the post you want to create."}})
	}

	var findings []finding
	for _, cat := range m.rules.prompt {
		if matchAny(cat.patterns, prompt) {
			findings = append(findings, finding{DecisionBlock, cat.reason, "This request asks for content we cannot generate."})
		}
	}
	if matchAny(m.rules.prohibited, prompt) {
		findings = append(findings, finding{DecisionBlock, ReasonProhibitedContent, "Remove references to prohibited goods or explicit material."})
	}
	if modality == ModalityImage || modality == ModalityVideo {
		if matchAny(m.rules.likeness, prompt) {
			findings = append(findings, finding{DecisionReview, ReasonLikenessRisk, "Depicting real people needs their consent; a reviewer will check this."})
		}
	}
	return merge(findings)
}

// ModerateContent classifies assembled caption and hashtag text. A safe
// rewrite is derived from the parsed text.
func (m *Moderator) ModerateContent(fullText string, platform caption.Platform, isAd bool) Result {
	return m.moderate(fullText, platform, isAd, func() caption.Candidate {
		return caption.Parse(fullText)
	})
}

// ModerateCandidate is ModerateContent for a structured candidate, so the
// safe rewrite keeps the candidate's own fields.
func (m *Moderator) ModerateCandidate(c caption.Candidate, platform caption.Platform, isAd bool) Result {
	return m.moderate(c.Text(), platform, isAd, c.Clone)
}

func (m *Moderator) moderate(text string, platform caption.Platform, isAd bool, base func() caption.Candidate) Result {
	findings := m.contentFindings(text, platform)

	prohibited := false
	for _, f := range findings {
		if f.decision == DecisionBlock {
			prohibited = true
		}
	}

	disclosureMissing := isAd && !matchAny(m.rules.disclosure, text)
	if disclosureMissing {
		findings = append(findings, finding{DecisionBlock, ReasonMissingDisclosure, "Paid or sponsored posts must carry a disclosure such as #ad."})
	}

	res := merge(findings)
	if disclosureMissing && !prohibited {
		rewrite := m.withDisclosure(base(), platform)
		res.SafeRewrite = &rewrite
	}
	return res
}

func (m *Moderator) contentFindings(text string, platform caption.Platform) []finding {
	var findings []finding
	if matchAny(m.rules.prohibited, text) {
		findings = append(findings, finding{DecisionBlock, ReasonProhibitedContent, "Remove references to prohibited goods or explicit material."})
	}
	if matchAny(m.rules.sensitive, text) {
		findings = append(findings, finding{DecisionReview, ReasonSensitiveContent, "Avoid absolute health or financial guarantees."})
	}
	if norm, ok := m.norms[platform]; ok {
		if n := len(caption.NormalizeHashtags(hashtagsIn(text))); n > norm {
			findings = append(findings, finding{DecisionReview, ReasonExcessiveHashtags, "Use fewer hashtags than the platform norm."})
		}
	}
	return findings
}

// PrePublishCheck is the final gate before a post goes live.
func (m *Moderator) PrePublishCheck(captionText string, mediaRefs []string, platform caption.Platform) Result {
	findings := m.contentFindings(captionText, platform)

	for _, ref := range mediaRefs {
		if matchAny(m.rules.prohibited, mediaName(ref)) {
			findings = append(findings, finding{DecisionBlock, ReasonProhibitedContent, "Remove media that references prohibited material."})
			break
		}
	}
	if len(mediaRefs) > 0 && matchAny(m.rules.medical, captionText) {
		findings = append(findings, finding{DecisionReview, ReasonSensitiveMedia, "Medical claims next to imagery need a human review before publishing."})
	}
	return merge(findings)
}

func (m *Moderator) withDisclosure(c caption.Candidate, platform caption.Platform) caption.Candidate {
	limit := m.maxHashtags
	if cons, ok := m.table.For(platform); ok && cons.MaxHashtags < limit {
		limit = cons.MaxHashtags
	}

	tags := []string{"#ad"}
	for _, tag := range caption.NormalizeHashtags(c.Hashtags) {
		if tag == "#ad" {
			continue
		}
		tags = append(tags, tag)
	}
	if limit > 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	c.Hashtags = tags
	return c
}

func hashtagsIn(text string) []string {
	var tags []string
	for _, field := range strings.Fields(text) {
		if strings.HasPrefix(field, "#") {
			tags = append(tags, field)
		}
	}
	return tags
}

// mediaName turns "s3://bucket/posts/nsfw_shot-01.jpg" into "posts nsfw shot 01 jpg"
// so word-boundary patterns can see the parts of a file name.
func mediaName(ref string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '_', '-', '.', ':':
			return ' '
		}
		return r
	}, ref)
}
