package safety

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"

	"postcraft/pkg/caption"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// Rules is the declarative rule set a Moderator is compiled from.
type Rules struct {
	MaxHashtags  int                      `yaml:"max_hashtags"`
	Prohibited   []string                 `yaml:"prohibited"`
	Sensitive    []string                 `yaml:"sensitive"`
	Disclosure   []string                 `yaml:"disclosure"`
	Medical      []string                 `yaml:"medical"`
	Prompt       map[string][]string      `yaml:"prompt"`
	Likeness     []string                 `yaml:"likeness"`
	HashtagNorms map[caption.Platform]int `yaml:"hashtag_norms"`
}

func DefaultRules() (*Rules, error) {
	return parseRules(defaultRulesYAML)
}

// LoadRules reads a rule file; an empty path yields the embedded defaults.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read moderation rules: %w", err)
	}
	return parseRules(data)
}

func parseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse moderation rules: %w", err)
	}
	if rules.MaxHashtags <= 0 {
		rules.MaxHashtags = 5
	}
	return &rules, nil
}

type promptCategory struct {
	reason   string
	patterns []*regexp.Regexp
}

type compiled struct {
	prohibited []*regexp.Regexp
	sensitive  []*regexp.Regexp
	disclosure []*regexp.Regexp
	medical    []*regexp.Regexp
	likeness   []*regexp.Regexp
	prompt     []promptCategory
}

func (r *Rules) compile() (*compiled, error) {
	var (
		c   compiled
		err error
	)
	if c.prohibited, err = compileAll(r.Prohibited); err != nil {
		return nil, err
	}
	if c.sensitive, err = compileAll(r.Sensitive); err != nil {
		return nil, err
	}
	if c.disclosure, err = compileAll(r.Disclosure); err != nil {
		return nil, err
	}
	if c.medical, err = compileAll(r.Medical); err != nil {
		return nil, err
	}
	if c.likeness, err = compileAll(r.Likeness); err != nil {
		return nil, err
	}

	// Categories are evaluated in name order so reason lists are stable.
	names := make([]string, 0, len(r.Prompt))
	for name := range r.Prompt {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		patterns, err := compileAll(r.Prompt[name])
		if err != nil {
			return nil, err
		}
		c.prompt = append(c.prompt, promptCategory{reason: name, patterns: patterns})
	}
	return &c, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid moderation pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
