// Package style provides the fixed whitelist of buyer communication-style
// descriptors, validation, and prompt-guide construction for the simulated
// buyer.
package style

import (
	"strings"

	"github.com/BTreeMap/PitchIQ/internal/models"
)

// ---- Whitelist ----

// Axis names a communication-style dimension.
type Axis string

const (
	AxisChattiness Axis = "chattiness"
	AxisFormality  Axis = "formality"
	AxisEmotional  Axis = "emotional_expression"
)

// Axes lists every style dimension in prompt order.
var Axes = []Axis{AxisChattiness, AxisFormality, AxisEmotional}

// Values is the hard-coded set of descriptors per axis. The first entry of
// each list is the neutral default used when validation rejects a value.
var Values = map[Axis][]string{
	AxisChattiness: {"balanced", "reserved", "talkative"},
	AxisFormality:  {"professional", "formal", "casual"},
	AxisEmotional:  {"moderate", "reserved", "expressive"},
}

// Default returns the neutral style.
func Default() models.CommunicationStyle {
	return models.CommunicationStyle{
		Chattiness:          Values[AxisChattiness][0],
		Formality:           Values[AxisFormality][0],
		EmotionalExpression: Values[AxisEmotional][0],
	}
}

// IsValid reports whether value is a known descriptor for axis.
func IsValid(axis Axis, value string) bool {
	for _, v := range Values[axis] {
		if v == value {
			return true
		}
	}
	return false
}

// ---- Public API ----

// ValidateStyle normalizes descriptors and replaces unknown ones with the
// axis default. It reports whether any value had to be replaced.
func ValidateStyle(s models.CommunicationStyle) (models.CommunicationStyle, bool) {
	replaced := false
	clean := func(axis Axis, v string) string {
		v = strings.ToLower(strings.TrimSpace(v))
		if IsValid(axis, v) {
			return v
		}
		replaced = true
		return Values[axis][0]
	}
	out := models.CommunicationStyle{
		Chattiness:          clean(AxisChattiness, s.Chattiness),
		Formality:           clean(AxisFormality, s.Formality),
		EmotionalExpression: clean(AxisEmotional, s.EmotionalExpression),
	}
	return out, replaced
}

// BuildStyleGuide produces a compact instruction snippet for injection into
// the buyer's system prompt. Unknown descriptors fall back to the defaults.
func BuildStyleGuide(s models.CommunicationStyle) string {
	s, _ = ValidateStyle(s)

	var b strings.Builder
	b.WriteString("\n<COMMUNICATION STYLE>\nSpeak the way this buyer naturally speaks:\n")

	switch s.Chattiness {
	case "reserved":
		b.WriteString("- Keep answers short. Volunteer little unless asked directly.\n")
	case "talkative":
		b.WriteString("- Talk freely, share anecdotes, and sometimes drift off topic.\n")
	default:
		b.WriteString("- Answer in a few sentences and share details when they seem relevant.\n")
	}

	switch s.Formality {
	case "formal":
		b.WriteString("- Use formal diction and complete sentences.\n")
	case "casual":
		b.WriteString("- Use casual, everyday language and contractions.\n")
	default:
		b.WriteString("- Use a professional but approachable register.\n")
	}

	switch s.EmotionalExpression {
	case "reserved":
		b.WriteString("- Keep emotions in check. Show interest or concern only subtly.\n")
	case "expressive":
		b.WriteString("- Show your feelings openly, including excitement and frustration.\n")
	default:
		b.WriteString("- Let some emotion show when something matters to you.\n")
	}

	b.WriteString("- Stay in character as the buyer. NEVER act as the salesperson.\n")
	b.WriteString("</COMMUNICATION STYLE>\n")
	return b.String()
}
