package phase

import (
	"github.com/BTreeMap/PitchIQ/internal/lexicon"
	"github.com/BTreeMap/PitchIQ/internal/models"
)

// RapportLevel estimates relationship warmth from the latest exchange.
// Warm language on both sides raises it; a buyer objection with no warmth
// lowers it; anything else is Medium.
func RapportLevel(user, ai models.Scores) models.RapportLevel {
	warmth := (user.Rapport + ai.Rapport) / 2
	switch {
	case warmth >= 0.5:
		return models.RapportHigh
	case ai.Objection > objectionThreshold && warmth < 0.2:
		return models.RapportLow
	default:
		return models.RapportMedium
	}
}

// Focus classifies what the salesperson concentrated on in their latest
// message. previousAI holds the scores of the buyer message that preceded
// it, if any. A message with no signal yields nil.
func Focus(user, previousAI models.Scores) *string {
	if user.IsZero() {
		return nil
	}

	label := func(s string) *string { return &s }

	if user.Closing > closingThreshold {
		return label(models.FocusClosing)
	}
	if previousAI.Objection > objectionThreshold {
		return label(models.FocusHandlingObjections)
	}

	type candidate struct {
		score float64
		focus string
	}
	// Ties resolve in this order.
	candidates := []candidate{
		{user.Needs, models.FocusDiscoveringNeeds},
		{max(user.Interest, user.Business), models.FocusPresentingSolution},
		{user.Rapport, models.FocusBuildingRapport},
		{user.Closing, models.FocusClosing},
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}
	if best.score == 0 {
		return nil
	}
	return label(best.focus)
}

// Sentiment compares positive and negative vocabulary across the last
// user and assistant messages. It carries no memory of earlier turns.
func Sentiment(lex *lexicon.Compiled, userMessage, aiMessage string) models.Sentiment {
	pos, neg := lex.Polarity(userMessage + "\n" + aiMessage)
	switch {
	case pos > neg:
		return models.SentimentPositive
	case neg > pos:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
