package caption

import "strings"

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformX         Platform = "x"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTikTok    Platform = "tiktok"
)

var platforms = []Platform{PlatformInstagram, PlatformFacebook, PlatformX, PlatformLinkedIn, PlatformTikTok}

func Platforms() []Platform {
	return append([]Platform(nil), platforms...)
}

func ParsePlatform(s string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

func (p Platform) Valid() bool {
	_, ok := defaultConstraints[p]
	return ok
}

// Constraints are the fixed per-platform format limits.
type Constraints struct {
	MaxChars            int      `json:"max_chars" yaml:"max_chars"`
	MaxHashtags         int      `json:"max_hashtags" yaml:"max_hashtags"`
	ReadabilityMaxGrade float64  `json:"readability_max_grade" yaml:"readability_max_grade"`
	AllowedAspectRatios []string `json:"allowed_aspect_ratios" yaml:"allowed_aspect_ratios"`
}

var defaultConstraints = map[Platform]Constraints{
	PlatformInstagram: {MaxChars: 2200, MaxHashtags: 30, ReadabilityMaxGrade: 10, AllowedAspectRatios: []string{"1:1", "4:5", "9:16"}},
	PlatformFacebook:  {MaxChars: 2000, MaxHashtags: 10, ReadabilityMaxGrade: 10, AllowedAspectRatios: []string{"1:1", "4:5", "16:9"}},
	PlatformX:         {MaxChars: 260, MaxHashtags: 3, ReadabilityMaxGrade: 10, AllowedAspectRatios: []string{"16:9", "1:1"}},
	PlatformLinkedIn:  {MaxChars: 3000, MaxHashtags: 5, ReadabilityMaxGrade: 12, AllowedAspectRatios: []string{"1:1", "1.91:1"}},
	PlatformTikTok:    {MaxChars: 2200, MaxHashtags: 5, ReadabilityMaxGrade: 8, AllowedAspectRatios: []string{"9:16"}},
}

// Table maps platforms to their constraints. It is read-only after construction.
type Table map[Platform]Constraints

func DefaultTable() Table {
	t := make(Table, len(defaultConstraints))
	for p, c := range defaultConstraints {
		c.AllowedAspectRatios = append([]string(nil), c.AllowedAspectRatios...)
		t[p] = c
	}
	return t
}

func (t Table) For(p Platform) (Constraints, bool) {
	c, ok := t[p]
	return c, ok
}
