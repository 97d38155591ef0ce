package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/PitchIQ/internal/models"
)

// maxAnalysisTurns bounds how much transcript is sent to the LLM.
const maxAnalysisTurns = 12

var errNoJSONObject = errors.New("no JSON object in reply")

// llmAnalysis is the JSON shape requested from the LLM.
type llmAnalysis struct {
	LikelyPhase      string   `json:"likely_phase"`
	RapportLevel     string   `json:"rapport_level"`
	NeedsIdentified  []string `json:"needs_identified"`
	ObjectionsRaised []string `json:"objections_raised"`
	SalespersonFocus *string  `json:"salesperson_focus"`
	Sentiment        string   `json:"sentiment"`
}

var knownFocus = map[string]bool{
	models.FocusBuildingRapport:    true,
	models.FocusDiscoveringNeeds:   true,
	models.FocusPresentingSolution: true,
	models.FocusHandlingObjections: true,
	models.FocusClosing:            true,
}

// analyzeWithLLM asks the completer for a structured analysis and applies
// it. It returns false when the reply cannot be used; an invalid phase
// also resets the phase to unknown. Callers hold m.mu.
func (m *Manager) analyzeWithLLM(ctx context.Context, history []models.Turn, businessContext string) bool {
	reply, err := m.completer.Complete(ctx, buildAnalysisPrompt(history, businessContext))
	if err != nil {
		slog.Warn("conversation.analyzeWithLLM: completion failed", "error", err)
		return false
	}

	analysis, err := parseAnalysis(reply)
	if err != nil {
		slog.Warn("conversation.analyzeWithLLM: unreadable reply", "error", err)
		return false
	}

	p, err := models.ParsePhase(analysis.LikelyPhase)
	if err != nil {
		slog.Warn("conversation.analyzeWithLLM: invalid phase", "value", analysis.LikelyPhase, "error", err)
		m.state.LikelyPhase = models.PhaseUnknown
		return false
	}

	m.state.LikelyPhase = p
	m.state.MessageCount = len(history)
	if level, ok := models.ParseRapportLevel(analysis.RapportLevel); ok {
		m.state.RapportLevel = level
	}
	if s, ok := models.ParseSentiment(analysis.Sentiment); ok {
		m.state.Sentiment = s
	}
	m.state.SalespersonFocus = nil
	if analysis.SalespersonFocus != nil {
		focus := strings.ToLower(strings.TrimSpace(*analysis.SalespersonFocus))
		if knownFocus[focus] {
			m.state.SalespersonFocus = &focus
		}
	}
	m.state.NeedsIdentified = mergeUnique(m.state.NeedsIdentified, analysis.NeedsIdentified)
	m.state.ObjectionsRaised = mergeUnique(m.state.ObjectionsRaised, analysis.ObjectionsRaised)
	return true
}

func buildAnalysisPrompt(history []models.Turn, businessContext string) string {
	var b strings.Builder
	b.WriteString("Analyze this sales roleplay conversation. The \"user\" is the salesperson and the \"assistant\" is the buyer.\n")
	if businessContext != "" {
		fmt.Fprintf(&b, "Business context: %s\n", businessContext)
	}
	b.WriteString("\nConversation:\n")
	start := max(0, len(history)-maxAnalysisTurns)
	for _, t := range history[start:] {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	b.WriteString(`
Respond with only a JSON object with these keys:
- "likely_phase": one of "rapport", "discovery", "presentation", "objection_handling", "closing"
- "rapport_level": one of "Low", "Medium", "High"
- "needs_identified": list of short phrases naming the buyer's needs or pain points
- "objections_raised": list of short phrases naming the buyer's objections
- "salesperson_focus": one of "building_rapport", "discovering_needs", "presenting_solution", "handling_objections", "closing", or null
- "sentiment": one of "positive", "negative", "neutral"
`)
	return b.String()
}

// parseAnalysis extracts the JSON object from a reply that may be wrapped
// in prose or a code fence.
func parseAnalysis(reply string) (llmAnalysis, error) {
	var a llmAnalysis
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return a, errNoJSONObject
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &a); err != nil {
		return a, fmt.Errorf("decode analysis: %w", err)
	}
	return a, nil
}
