// Package lexicon holds the keyword and regex tables that drive message
// scoring and phrase extraction.
//
// Lexicons are plain data: the built-in default can be overlaid with a YAML
// file so tables can be versioned, swapped, or localized without touching
// the scoring code.
package lexicon

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is one scoring category: its vocabulary and normalization.
type Category struct {
	// Keywords are matched case-insensitively as whole words or phrases.
	Keywords []string `yaml:"keywords,omitempty"`
	// Patterns are case-insensitive regular expressions.
	Patterns []string `yaml:"patterns,omitempty"`
	// Weight is the per-hit contribution to the category score.
	Weight float64 `yaml:"weight"`
	// QuestionBonus is added when the message contains a question mark.
	QuestionBonus float64 `yaml:"question_bonus,omitempty"`
}

// Lexicon is the full, uncompiled table set.
type Lexicon struct {
	Version             string              `yaml:"version"`
	Categories          map[string]Category `yaml:"categories"`
	NeedsExtraction     []string            `yaml:"needs_extraction"`
	PainExtraction      []string            `yaml:"pain_extraction"`
	ObjectionExtraction []string            `yaml:"objection_extraction"`
	PositiveWords       []string            `yaml:"positive_words"`
	NegativeWords       []string            `yaml:"negative_words"`
}

// Parse decodes a YAML document and overlays it on the default lexicon.
// Categories present in the document replace the default category of the
// same name; non-empty lists replace the default lists.
func Parse(data []byte) (*Lexicon, error) {
	var overlay Lexicon
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon YAML: %w", err)
	}

	lex := Default()
	if overlay.Version != "" {
		lex.Version = overlay.Version
	}
	for name, cat := range overlay.Categories {
		lex.Categories[strings.ToLower(name)] = cat
	}
	if len(overlay.NeedsExtraction) > 0 {
		lex.NeedsExtraction = overlay.NeedsExtraction
	}
	if len(overlay.PainExtraction) > 0 {
		lex.PainExtraction = overlay.PainExtraction
	}
	if len(overlay.ObjectionExtraction) > 0 {
		lex.ObjectionExtraction = overlay.ObjectionExtraction
	}
	if len(overlay.PositiveWords) > 0 {
		lex.PositiveWords = overlay.PositiveWords
	}
	if len(overlay.NegativeWords) > 0 {
		lex.NegativeWords = overlay.NegativeWords
	}
	return lex, nil
}

// Load reads a YAML lexicon file from disk and overlays it on the default.
func Load(path string) (*Lexicon, error) {
	slog.Debug("lexicon.Load: reading lexicon file", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file %s: %w", path, err)
	}
	lex, err := Parse(data)
	if err != nil {
		return nil, err
	}
	slog.Info("lexicon.Load: lexicon loaded", "path", path, "version", lex.Version, "categories", len(lex.Categories))
	return lex, nil
}

// Compiled is a ready-to-use lexicon with every pattern compiled.
type Compiled struct {
	version    string
	categories map[string]compiledCategory
	needs      []*regexp.Regexp
	pains      []*regexp.Regexp
	objections []*regexp.Regexp
	positive   []*regexp.Regexp
	negative   []*regexp.Regexp
}

type compiledCategory struct {
	matchers      []*regexp.Regexp
	weight        float64
	questionBonus float64
}

// Compile validates and compiles every keyword and pattern.
func (l *Lexicon) Compile() (*Compiled, error) {
	c := &Compiled{
		version:    l.Version,
		categories: make(map[string]compiledCategory, len(l.Categories)),
	}

	for name, cat := range l.Categories {
		matchers, err := compileKeywords(cat.Keywords)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", name, err)
		}
		patterns, err := compilePatterns(cat.Patterns)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", name, err)
		}
		c.categories[strings.ToLower(name)] = compiledCategory{
			matchers:      append(matchers, patterns...),
			weight:        cat.Weight,
			questionBonus: cat.QuestionBonus,
		}
	}

	var err error
	if c.needs, err = compilePatterns(l.NeedsExtraction); err != nil {
		return nil, fmt.Errorf("needs extraction: %w", err)
	}
	if c.pains, err = compilePatterns(l.PainExtraction); err != nil {
		return nil, fmt.Errorf("pain extraction: %w", err)
	}
	if c.objections, err = compilePatterns(l.ObjectionExtraction); err != nil {
		return nil, fmt.Errorf("objection extraction: %w", err)
	}
	if c.positive, err = compileKeywords(l.PositiveWords); err != nil {
		return nil, fmt.Errorf("positive words: %w", err)
	}
	if c.negative, err = compileKeywords(l.NegativeWords); err != nil {
		return nil, fmt.Errorf("negative words: %w", err)
	}
	return c, nil
}

// MustCompile compiles the lexicon and panics on error. Intended for the
// built-in default, whose patterns are covered by tests.
func (l *Lexicon) MustCompile() *Compiled {
	c, err := l.Compile()
	if err != nil {
		panic(fmt.Sprintf("lexicon: %v", err))
	}
	return c
}

// Version returns the lexicon version label.
func (c *Compiled) Version() string { return c.version }

// HasCategory reports whether the named category is defined.
func (c *Compiled) HasCategory(name string) bool {
	_, ok := c.categories[name]
	return ok
}

// Weights returns the per-hit weight and question bonus of a category.
func (c *Compiled) Weights(name string) (weight, questionBonus float64) {
	cat := c.categories[name]
	return cat.weight, cat.questionBonus
}

// Count returns how many distinct keywords or patterns of the category
// occur in text. Each matcher counts at most once.
func (c *Compiled) Count(name, text string) int {
	cat, ok := c.categories[name]
	if !ok || text == "" {
		return 0
	}
	return countMatches(cat.matchers, text)
}

// ExtractNeeds returns need phrases stated by the salesperson.
func (c *Compiled) ExtractNeeds(text string) []string { return extract(c.needs, text) }

// ExtractPains returns pain points voiced by the buyer.
func (c *Compiled) ExtractPains(text string) []string { return extract(c.pains, text) }

// ExtractObjections returns objection phrases voiced by the buyer.
func (c *Compiled) ExtractObjections(text string) []string { return extract(c.objections, text) }

// Polarity counts positive and negative sentiment words in text.
func (c *Compiled) Polarity(text string) (positive, negative int) {
	return countMatches(c.positive, text), countMatches(c.negative, text)
}

func compileKeywords(words []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("invalid keyword %q: %w", w, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func countMatches(matchers []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range matchers {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

// extract returns the first capture group of every match, trimmed, in
// pattern order.
func extract(patterns []*regexp.Regexp, text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			phrase := strings.TrimSpace(m[1])
			phrase = strings.TrimRight(phrase, " .,!?;:")
			if len(phrase) < 3 {
				continue
			}
			out = append(out, phrase)
		}
	}
	return out
}
