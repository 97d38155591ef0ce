package models

import (
	"errors"
	"fmt"
	"strings"
)

// Phase is a discrete stage of a sales conversation.
type Phase string

const (
	PhaseRapport           Phase = "rapport"
	PhaseDiscovery         Phase = "discovery"
	PhasePresentation      Phase = "presentation"
	PhaseObjectionHandling Phase = "objection_handling"
	PhaseClosing           Phase = "closing"
	PhaseUnknown           Phase = "unknown"
)

// ErrUnknownPhase is returned by ParsePhase for values outside the enum.
var ErrUnknownPhase = errors.New("unknown conversation phase")

// AllPhases lists every phase in conversation order, UNKNOWN last.
var AllPhases = []Phase{
	PhaseRapport,
	PhaseDiscovery,
	PhasePresentation,
	PhaseObjectionHandling,
	PhaseClosing,
	PhaseUnknown,
}

// IsValid reports whether p is one of the defined phases.
func (p Phase) IsValid() bool {
	for _, known := range AllPhases {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePhase converts a free-form string (e.g. an LLM reply) into a Phase.
// Case and surrounding whitespace are ignored, and "objection handling" or
// "objection-handling" are accepted for PhaseObjectionHandling.
func ParsePhase(s string) (Phase, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	p := Phase(norm)
	if !p.IsValid() {
		return PhaseUnknown, fmt.Errorf("%w: %q", ErrUnknownPhase, s)
	}
	return p, nil
}

// RapportLevel is a coarse estimate of relationship warmth.
type RapportLevel string

const (
	RapportLow    RapportLevel = "Low"
	RapportMedium RapportLevel = "Medium"
	RapportHigh   RapportLevel = "High"
)

// ParseRapportLevel accepts low/medium/high in any case.
func ParseRapportLevel(s string) (RapportLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RapportLow, true
	case "medium":
		return RapportMedium, true
	case "high":
		return RapportHigh, true
	}
	return "", false
}

// Sentiment is the tone of the most recent exchange.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment accepts positive/negative/neutral in any case.
func ParseSentiment(s string) (Sentiment, bool) {
	switch Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive, true
	case SentimentNegative:
		return SentimentNegative, true
	case SentimentNeutral:
		return SentimentNeutral, true
	}
	return "", false
}
