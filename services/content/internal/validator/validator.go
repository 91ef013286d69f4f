// Package validator runs the structural checks every winning candidate must
// pass and the single auto-fix pass applied when it does not.
package validator

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"postcraft/pkg/caption"
)

// Reason codes.
const (
	ReasonCaptionTooShort    = "caption.too_short"
	ReasonCaptionTooLong     = "caption.too_long"
	ReasonCTAMissing         = "cta.missing"
	ReasonHashtagCount       = "hashtags.count"
	ReasonHashtagBlocklist   = "hashtags.blocklisted"
	ReasonReadabilityHard    = "readability.hard"
	ReasonDuplicationSimilar = "duplication.too_similar"
)

type Config struct {
	MinCaptionChars     int
	MinCTAChars         int
	MinHashtags         int
	MaxHashtags         int
	SimilarityThreshold float64
	GradeFloor          float64
	GradeCeiling        float64
}

func DefaultConfig() Config {
	return Config{
		MinCaptionChars:     10,
		MinCTAChars:         3,
		MinHashtags:         3,
		MaxHashtags:         5,
		SimilarityThreshold: 0.92,
		GradeFloor:          1,
		GradeCeiling:        14,
	}
}

var spamHashtags = []*regexp.Regexp{
	regexp.MustCompile(`^#(follow4follow|like4like|f4f|l4l|followme|tagsforlikes|likeforlike|followforfollow|instagood|photooftheday|spam)$`),
	regexp.MustCompile(`^#(like|follow|comment|share)(4|for)(like|follow|comment|share)\w*$`),
}

// Report is the outcome of Validate. OK is true iff Reasons is empty.
type Report struct {
	OK       bool     `json:"ok"`
	Reasons  []string `json:"reasons"`
	Coaching []string `json:"coaching"`
}

func (r Report) Has(reason string) bool {
	for _, have := range r.Reasons {
		if have == reason {
			return true
		}
	}
	return false
}

func (r *Report) add(reason, coaching string) {
	r.Reasons = append(r.Reasons, reason)
	r.Coaching = append(r.Coaching, coaching)
}

type Validator struct {
	cfg Config
}

func New(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

func (v *Validator) Config() Config {
	return v.cfg
}

// HashtagLimit is the upper bound for hashtags on a platform.
func (v *Validator) HashtagLimit(cons caption.Constraints) int {
	limit := v.cfg.MaxHashtags
	if cons.MaxHashtags > 0 && cons.MaxHashtags < limit {
		limit = cons.MaxHashtags
	}
	return limit
}

// Validate runs every check and reports all failures; it has no side effects.
func (v *Validator) Validate(c caption.Candidate, cons caption.Constraints, priorCaptions []string) Report {
	report := Report{Reasons: []string{}, Coaching: []string{}}

	text := strings.TrimSpace(c.Caption)
	if n := caption.Len(text); n < v.cfg.MinCaptionChars {
		report.add(ReasonCaptionTooShort, fmt.Sprintf("Write at least %d characters of caption.", v.cfg.MinCaptionChars))
	}
	if n := caption.Len(c.Caption); n > cons.MaxChars {
		report.add(ReasonCaptionTooLong, fmt.Sprintf("Shorten the caption to %d characters or fewer (currently %d).", cons.MaxChars, n))
	}
	if caption.Len(strings.TrimSpace(c.CTA)) < v.cfg.MinCTAChars {
		report.add(ReasonCTAMissing, "Add a clear call-to-action.")
	}

	tags := caption.NormalizeHashtags(c.Hashtags)
	if limit := v.HashtagLimit(cons); len(tags) < v.cfg.MinHashtags || len(tags) > limit {
		report.add(ReasonHashtagCount, fmt.Sprintf("Use between %d and %d hashtags.", v.cfg.MinHashtags, limit))
	}
	if bad := Blocklisted(tags); len(bad) > 0 {
		report.add(ReasonHashtagBlocklist, fmt.Sprintf("Replace generic hashtags: %s.", strings.Join(bad, ", ")))
	}

	if grade := v.Grade(text); grade > cons.ReadabilityMaxGrade {
		report.add(ReasonReadabilityHard, fmt.Sprintf("Use shorter sentences; aim for grade %.0f or lower.", cons.ReadabilityMaxGrade))
	}

	for _, prior := range priorCaptions {
		if Similarity(text, prior) > v.cfg.SimilarityThreshold {
			report.add(ReasonDuplicationSimilar, "This caption is too close to a previous post; change the angle or wording.")
			break
		}
	}

	report.OK = len(report.Reasons) == 0
	return report
}

// Grade approximates reading difficulty as average words per sentence,
// clipped to the configured floor and ceiling.
func (v *Validator) Grade(text string) float64 {
	sentences := caption.Sentences(text)
	if len(sentences) == 0 {
		return v.cfg.GradeFloor
	}
	words := 0
	for _, s := range sentences {
		words += len(caption.Words(s))
	}
	avg := float64(words) / float64(len(sentences))
	return math.Min(v.cfg.GradeCeiling, math.Max(v.cfg.GradeFloor, avg))
}

// Blocklisted returns the normalized tags that match the spam list.
func Blocklisted(tags []string) []string {
	var out []string
	for _, tag := range tags {
		if isBlocklisted(caption.NormalizeHashtag(tag)) {
			out = append(out, tag)
		}
	}
	return out
}

func isBlocklisted(tag string) bool {
	for _, re := range spamHashtags {
		if re.MatchString(tag) {
			return true
		}
	}
	return false
}

// Similarity is the Jaccard index of the two word sets. Captions without words
// (emoji or punctuation only) fall back to comparing their whitespace-normalized
// text; two empty inputs score 0.
func Similarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		na, nb := caption.CollapseSpace(a), caption.CollapseSpace(b)
		if na != "" && na == nb {
			return 1
		}
		return 0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	words := caption.Words(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
