package validator

import (
	"strings"
	"testing"

	"postcraft/pkg/caption"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constraints(t *testing.T, p caption.Platform) caption.Constraints {
	t.Helper()
	c, ok := caption.DefaultTable().For(p)
	require.True(t, ok)
	return c
}

func validCandidate() caption.Candidate {
	return caption.Candidate{
		Caption:  "Our sourdough is baked fresh every morning.",
		CTA:      "Order yours today.",
		Hashtags: []string{"#bread", "#bakery", "#sourdough"},
	}
}

func TestValidate_OK(t *testing.T) {
	v := New(DefaultConfig())

	report := v.Validate(validCandidate(), constraints(t, caption.PlatformX), nil)

	assert.True(t, report.OK)
	assert.Empty(t, report.Reasons)
}

func TestValidate_ReportsEveryFailure(t *testing.T) {
	v := New(DefaultConfig())

	report := v.Validate(caption.Candidate{}, constraints(t, caption.PlatformX), nil)

	assert.False(t, report.OK)
	assert.Equal(t, []string{ReasonCaptionTooShort, ReasonCTAMissing, ReasonHashtagCount}, report.Reasons)
	assert.Len(t, report.Coaching, 3)
}

func TestValidate_TooLong(t *testing.T) {
	v := New(DefaultConfig())
	c := validCandidate()
	c.Caption = strings.Repeat("Fresh bread. ", 25)

	report := v.Validate(c, constraints(t, caption.PlatformX), nil)

	assert.True(t, report.Has(ReasonCaptionTooLong))
}

func TestValidate_TooLongCountsRunes(t *testing.T) {
	v := New(DefaultConfig())
	c := validCandidate()
	c.Caption = strings.Repeat("é", 260)

	report := v.Validate(c, constraints(t, caption.PlatformX), nil)

	assert.False(t, report.Has(ReasonCaptionTooLong))
}

func TestValidate_HashtagCount(t *testing.T) {
	v := New(DefaultConfig())

	tests := []struct {
		name     string
		platform caption.Platform
		tags     []string
		want     bool
	}{
		{"too few", caption.PlatformInstagram, []string{"#a", "#b"}, true},
		{"duplicates collapse", caption.PlatformInstagram, []string{"#a", "#A", "#b"}, true},
		{"in range", caption.PlatformInstagram, []string{"#a", "#b", "#c", "#d", "#e"}, false},
		{"above global max", caption.PlatformInstagram, []string{"#a", "#b", "#c", "#d", "#e", "#f"}, true},
		{"above platform max", caption.PlatformX, []string{"#a", "#b", "#c", "#d"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			c.Hashtags = tt.tags
			report := v.Validate(c, constraints(t, tt.platform), nil)
			assert.Equal(t, tt.want, report.Has(ReasonHashtagCount))
		})
	}
}

func TestValidate_Blocklisted(t *testing.T) {
	v := New(DefaultConfig())
	c := validCandidate()
	c.Hashtags = []string{"#bread", "#InstaGood", "#like4likes"}

	report := v.Validate(c, constraints(t, caption.PlatformInstagram), nil)

	assert.True(t, report.Has(ReasonHashtagBlocklist))
	assert.Equal(t, []string{"#InstaGood", "#like4likes"}, Blocklisted(c.Hashtags))
}

func TestValidate_Readability(t *testing.T) {
	v := New(DefaultConfig())
	c := validCandidate()
	c.Caption = "We bake every loaf by hand with organic flour from local farms and we deliver it warm to your door."

	assert.True(t, v.Validate(c, constraints(t, caption.PlatformTikTok), nil).Has(ReasonReadabilityHard))
	assert.Equal(t, 14.0, v.Grade(c.Caption))
	assert.Equal(t, 1.0, v.Grade(""))
}

func TestValidate_DuplicateOfPrior(t *testing.T) {
	v := New(DefaultConfig())
	c := validCandidate()

	report := v.Validate(c, constraints(t, caption.PlatformX), []string{"Something else entirely.", c.Caption})

	assert.True(t, report.Has(ReasonDuplicationSimilar))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Fresh bread daily", "fresh BREAD, daily!"))
	assert.Equal(t, 0.5, Similarity("the cat sat", "the cat ran"))
	assert.Equal(t, 0.0, Similarity("", ""))
}

func TestSimilarity_WordlessCaptions(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("🔥🔥 ✨", "🔥🔥 ✨"))
	assert.Equal(t, 1.0, Similarity(" 🔥🔥   ✨", "🔥🔥 ✨ "))
	assert.Equal(t, 0.0, Similarity("🔥🔥 ✨", "☕☕"))
	assert.Equal(t, 0.0, Similarity("🔥🔥 ✨", "Fresh bread daily"))
}

func TestValidate_WordlessDuplicateOfPrior(t *testing.T) {
	v := New(DefaultConfig())
	c := validCandidate()
	c.Caption = "🔥🔥🔥 ✨✨ ☕"

	report := v.Validate(c, constraints(t, caption.PlatformX), []string{c.Caption})

	assert.True(t, report.Has(ReasonDuplicationSimilar))
}

func TestStripFiller(t *testing.T) {
	assert.Equal(t, "This is a good coffee.", StripFiller("This is really a very good coffee."))
	assert.Equal(t, "Good coffee. Try it!", StripFiller("Really good coffee. Just try it!"))
	assert.Equal(t, "It's, fine.", StripFiller("It's just, fine."))
	assert.Equal(t, "See e.g. our menu.", StripFiller("See e.g. our menu."))
}

func TestTruncateAtSentence(t *testing.T) {
	assert.Equal(t, "One two. Three four.", TruncateAtSentence("One two. Three four. Five six.", 20))
	assert.Equal(t, "Fresh bread and.", TruncateAtSentence("Fresh bread and warm coffee every single morning", 20))
}

func TestTighten_FixesLongCaptionWithoutCTA(t *testing.T) {
	v := New(DefaultConfig())
	cons := constraints(t, caption.PlatformX)
	c := caption.Candidate{Caption: strings.TrimSpace(strings.Repeat("Our oat latte is back this week. ", 12))}
	require.False(t, v.Validate(c, cons, nil).OK)

	fixed := v.Tighten(c, cons, TightenOptions{BrandHashtags: []string{"Oat Latte", "#CoffeeLovers"}})

	assert.LessOrEqual(t, caption.Len(fixed.Caption), 260)
	assert.True(t, strings.HasSuffix(fixed.Caption, "week."))
	assert.Equal(t, DefaultCTA, fixed.CTA)
	assert.Equal(t, []string{"#oatlatte", "#coffeelovers", "#smallbusiness"}, fixed.Hashtags)
	assert.True(t, v.Validate(fixed, cons, nil).OK)
	assert.Empty(t, c.Hashtags)
}

func TestTighten_TrimsAndFiltersHashtags(t *testing.T) {
	v := New(DefaultConfig())
	c := validCandidate()
	c.Hashtags = []string{"#a1", "#instagood", "#b2", "#c3", "#d4", "#e5", "#f6"}

	fixed := v.Tighten(c, constraints(t, caption.PlatformInstagram), TightenOptions{})

	assert.Equal(t, []string{"#a1", "#b2", "#c3", "#d4", "#e5"}, fixed.Hashtags)
	assert.Len(t, c.Hashtags, 7)
}

func TestTighten_PrefersBrandCTA(t *testing.T) {
	v := New(DefaultConfig())
	c := validCandidate()
	c.CTA = ""

	fixed := v.Tighten(c, constraints(t, caption.PlatformInstagram), TightenOptions{CTA: "Order at the link in bio."})

	assert.Equal(t, "Order at the link in bio.", fixed.CTA)
}
