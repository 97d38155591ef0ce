// Package phase infers where a sales conversation stands from message text.
//
// It holds the leaf analyzers of the conversation engine: the keyword and
// regex MessageScorer, the priority-ordered PhaseClassifier, and the small
// heuristics (rapport level, salesperson focus, sentiment) that the state
// manager combines on every turn.
package phase

import (
	"math"
	"strings"

	"github.com/BTreeMap/PitchIQ/internal/lexicon"
	"github.com/BTreeMap/PitchIQ/internal/models"
)

var scoredCategories = []string{
	models.CategoryRapport,
	models.CategoryBusiness,
	models.CategoryNeeds,
	models.CategoryObjection,
	models.CategoryInterest,
	models.CategoryClosing,
}

// Scorer turns a single message into category scores.
type Scorer struct {
	lex *lexicon.Compiled
}

// NewScorer creates a scorer over the given lexicon. A nil lexicon selects
// the built-in default.
func NewScorer(lex *lexicon.Compiled) *Scorer {
	if lex == nil {
		lex = lexicon.Default().MustCompile()
	}
	return &Scorer{lex: lex}
}

// Lexicon returns the compiled lexicon backing the scorer.
func (s *Scorer) Lexicon() *lexicon.Compiled { return s.lex }

// Score computes min(1, hits*weight [+question bonus]) for every category.
// An empty or whitespace-only message scores zero everywhere.
func (s *Scorer) Score(message string) models.Scores {
	var scores models.Scores
	if strings.TrimSpace(message) == "" {
		return scores
	}
	hasQuestion := strings.Contains(message, "?")

	for _, cat := range scoredCategories {
		weight, bonus := s.lex.Weights(cat)
		raw := float64(s.lex.Count(cat, message)) * weight
		if hasQuestion {
			raw += bonus
		}
		scores.Set(cat, round(math.Min(1.0, raw)))
	}
	return scores
}

// round trims float drift so threshold comparisons behave predictably
// (0.1*3 must compare equal to 0.3).
func round(v float64) float64 {
	return math.Round(v*10000) / 10000
}
