// Package critique scores candidates on five heuristics, refines the best
// two and picks a winner.
package critique

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"postcraft/pkg/caption"
	"postcraft/services/content/internal/entity"

	"golang.org/x/sync/errgroup"
)

// Feedback instructions, one per weak sub-score.
const (
	FeedbackSimplify    = "Simplify: shorten sentences and prefer plain words."
	FeedbackSpecificity = "Add specificity: quantify the benefit with a concrete number."
	FeedbackCTA         = "Add a clear call-to-action."
)

var ErrNoCandidates = errors.New("critique: no candidates")

var (
	valueMarkers    = regexp.MustCompile(`(?i)\b(save[sd]?|saving|savings|increase[sd]?|boost(s|ed)?|improve[sd]?|grow(s|th)?|faster|easier|better|more|less|reduce[sd]?|cut|free|earn|win|gain|protect|simplif(y|ies|ied))\b`)
	concreteMarkers = regexp.MustCompile(`(?i)(\d+([.,]\d+)?\s*(%|x\b|k\b|min\b|mins\b|hrs?\b|h\b|kg\b|km\b|ml\b)?|\$\d+|\b(customers|clients|users|people|hours|minutes|days|weeks|months|years|orders|steps|members|teams|miles|pounds)\b)`)
)

// VoiceScorer rates how well a candidate matches the brand voice, in [0,1].
// Without one, brand voice is a constant.
type VoiceScorer interface {
	ScoreVoice(c caption.Candidate, platform caption.Platform) float64
}

type Config struct {
	FeedbackThreshold float64
	DefaultBrandVoice float64
	DefaultCTA        string
	QuantifiedClaim   string
	// RefineTop is how many of the best initial candidates are refined.
	RefineTop int
}

func DefaultConfig() Config {
	return Config{
		FeedbackThreshold: 0.6,
		DefaultBrandVoice: 0.7,
		DefaultCTA:        "Learn more at the link in our bio.",
		QuantifiedClaim:   "Join 500+ customers who save time every week.",
		RefineTop:         2,
	}
}

type Engine struct {
	cfg   Config
	voice VoiceScorer
}

type Option func(*Engine)

func WithVoiceScorer(v VoiceScorer) Option {
	return func(e *Engine) { e.voice = v }
}

func New(cfg Config, opts ...Option) *Engine {
	if cfg.RefineTop <= 0 {
		cfg.RefineTop = 2
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Critique parses raw generator output and scores it.
func (e *Engine) Critique(raw string, platform caption.Platform) (caption.Candidate, entity.Score) {
	c := caption.Parse(raw)
	return c, e.Score(c, platform)
}

func (e *Engine) Score(c caption.Candidate, platform caption.Platform) entity.Score {
	body := strings.TrimSpace(c.Caption + " " + c.CTA)

	s := entity.Score{
		Clarity:       clarity(c.Caption),
		Value:         markerScore(valueMarkers, body),
		Specificity:   markerScore(concreteMarkers, body),
		BrandVoice:    e.cfg.DefaultBrandVoice,
		Actionability: 0.2,
	}
	if e.voice != nil {
		s.BrandVoice = clamp(e.voice.ScoreVoice(c, platform), 0, 1)
	}
	if caption.Len(strings.TrimSpace(c.CTA)) >= 3 {
		s.Actionability = 1.0
	}
	s.Overall = (s.Clarity + s.Value + s.Specificity + s.BrandVoice + s.Actionability) / 5

	if s.Clarity < e.cfg.FeedbackThreshold {
		s.Feedback = append(s.Feedback, FeedbackSimplify)
	}
	if s.Value < e.cfg.FeedbackThreshold {
		s.Feedback = append(s.Feedback, FeedbackSpecificity)
	}
	if s.Actionability < e.cfg.FeedbackThreshold {
		s.Feedback = append(s.Feedback, FeedbackCTA)
	}
	return s
}

func clarity(text string) float64 {
	words := caption.Words(text)
	sentences := caption.Sentences(text)
	if len(words) == 0 || len(sentences) == 0 {
		return 0.3
	}
	letters := 0
	for _, w := range words {
		letters += caption.Len(w)
	}
	avgWordLen := float64(letters) / float64(len(words))
	avgWPS := float64(len(words)) / float64(len(sentences))
	return clamp(15/(avgWordLen+avgWPS), 0.3, 1)
}

func markerScore(re *regexp.Regexp, text string) float64 {
	return math.Min(1, float64(len(re.FindAllStringIndex(text, -1)))/3)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

var simpler = []struct {
	from *regexp.Regexp
	to   string
}{
	{regexp.MustCompile(`(?i)\butilize\b`), "use"},
	{regexp.MustCompile(`(?i)\bleverage\b`), "use"},
	{regexp.MustCompile(`(?i)\bfacilitate\b`), "help"},
	{regexp.MustCompile(`(?i)\bimplement\b`), "set up"},
	{regexp.MustCompile(`(?i)\boptimize\b`), "improve"},
	{regexp.MustCompile(`(?i)\bendeavor\b`), "try"},
	{regexp.MustCompile(`(?i)\bcommence\b`), "start"},
	{regexp.MustCompile(`(?i)\bpurchase\b`), "buy"},
	{regexp.MustCompile(`(?i)\bdemonstrate\b`), "show"},
	{regexp.MustCompile(`(?i)\bapproximately\b`), "about"},
}

// Refine applies up to three fixed rewrites driven by feedback. It is pure.
func (e *Engine) Refine(c caption.Candidate, feedback []string) caption.Candidate {
	out := c.Clone()

	if hasFeedback(feedback, FeedbackSimplify) {
		for _, s := range simpler {
			out.Caption = s.from.ReplaceAllStringFunc(out.Caption, func(match string) string {
				return matchCase(match, s.to)
			})
		}
	}
	if caption.Len(strings.TrimSpace(out.CTA)) < 3 {
		out.CTA = e.cfg.DefaultCTA
	}
	if hasFeedback(feedback, FeedbackSpecificity) && e.cfg.QuantifiedClaim != "" {
		out.Caption = appendSentence(out.Caption, e.cfg.QuantifiedClaim)
	}
	return out
}

func hasFeedback(feedback []string, want string) bool {
	for _, f := range feedback {
		if f == want {
			return true
		}
	}
	return false
}

func matchCase(original, replacement string) string {
	r := []rune(original)
	if len(r) > 0 && unicode.IsUpper(r[0]) {
		rep := []rune(replacement)
		rep[0] = unicode.ToUpper(rep[0])
		return string(rep)
	}
	return replacement
}

func appendSentence(text, sentence string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return sentence
	}
	if last := []rune(text)[caption.Len(text)-1]; last != '.' && last != '!' && last != '?' {
		text += "."
	}
	return text + " " + sentence
}

// Scored is a candidate with its score and its position in the raw batch.
type Scored struct {
	Index     int               `json:"index"`
	Candidate caption.Candidate `json:"candidate"`
	Score     entity.Score      `json:"score"`
}

type Evaluation struct {
	// Initial holds every raw candidate, best first.
	Initial []Scored
	// Refined holds the refined top candidates, best first.
	Refined []Scored
	Winner  Scored
}

// Select critiques all raw outputs, refines the best ones concurrently,
// re-scores them and returns the best refined candidate. Ties keep input order.
func (e *Engine) Select(ctx context.Context, raws []string, platform caption.Platform) (Evaluation, error) {
	if len(raws) == 0 {
		return Evaluation{}, ErrNoCandidates
	}

	initial := make([]Scored, len(raws))
	for i, raw := range raws {
		c, score := e.Critique(raw, platform)
		initial[i] = Scored{Index: i, Candidate: c, Score: score}
	}
	sortScored(initial)

	top := initial
	if len(top) > e.cfg.RefineTop {
		top = top[:e.cfg.RefineTop]
	}

	refined := make([]Scored, len(top))
	group, gctx := errgroup.WithContext(ctx)
	for i, s := range top {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := e.Refine(s.Candidate, s.Score.Feedback)
			refined[i] = Scored{Index: s.Index, Candidate: c, Score: e.Score(c, platform)}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Evaluation{}, err
	}
	sortScored(refined)

	return Evaluation{Initial: initial, Refined: refined, Winner: refined[0]}, nil
}

func sortScored(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Score.Overall > s[j].Score.Overall })
}
