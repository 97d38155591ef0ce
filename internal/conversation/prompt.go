package conversation

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/PitchIQ/internal/models"
	"github.com/BTreeMap/PitchIQ/internal/persona"
	"github.com/BTreeMap/PitchIQ/internal/style"
	"github.com/BTreeMap/PitchIQ/internal/util"
)

// phaseGuidance holds the buyer's behavioral instructions per phase.
// PhaseUnknown uses the rapport block.
var phaseGuidance = map[models.Phase]string{
	models.PhaseRapport: `The conversation is just getting started.
- Be polite but slightly guarded; you do not know this salesperson yet.
- Respond to small talk briefly and naturally.
- Do not volunteer business problems until the salesperson earns some trust.`,
	models.PhaseDiscovery: `The salesperson is trying to understand your situation.
- Answer questions honestly but do not hand over every detail at once.
- Reveal pain points gradually when questions are specific and thoughtful.
- Give vague answers to vague questions.`,
	models.PhasePresentation: `The salesperson is presenting a solution.
- Listen critically and ask how it applies to your specific situation.
- Push back on generic claims and ask for concrete examples.
- Show interest only when the solution addresses needs you mentioned.`,
	models.PhaseObjectionHandling: `You have raised concerns.
- Hold your objections until they are genuinely addressed.
- Accept evidence, references, or concessions that answer the concern.
- Raise a related worry if the answer is superficial.`,
	models.PhaseClosing: `The salesperson is asking for a commitment.
- Do not agree immediately; confirm the terms and next steps first.
- Mention anything still unresolved before committing.
- Agree to a reasonable next step if your concerns have been addressed.`,
}

// SystemPrompt assembles the simulated buyer's system prompt from the
// persona, the current state, and the phase guidance. persona may be nil.
func (m *Manager) SystemPrompt(p *models.PersonaFramework, salesInfo, userName string) string {
	state := m.State()

	var b strings.Builder
	b.WriteString("You are roleplaying a potential buyer in a sales training conversation. ")
	b.WriteString("Stay in character at all times and respond only as the buyer.\n\n")

	b.WriteString("<PERSONA>\n")
	if p != nil {
		b.WriteString(persona.Describe(*p))
	} else {
		b.WriteString("You are a busy professional evaluating whether this offering is worth your time.\n")
	}
	b.WriteString("</PERSONA>\n\n")

	b.WriteString("<SALES CONTEXT>\n")
	if userName != "" {
		fmt.Fprintf(&b, "The salesperson's name is %s.\n", userName)
	}
	if salesInfo != "" {
		fmt.Fprintf(&b, "They are selling: %s\n", salesInfo)
	}
	b.WriteString("</SALES CONTEXT>\n\n")

	b.WriteString(stateSummary(state))

	guidance, ok := phaseGuidance[state.LikelyPhase]
	if !ok {
		guidance = phaseGuidance[models.PhaseRapport]
	}
	b.WriteString("\n<PHASE GUIDANCE>\n")
	b.WriteString(guidance)
	b.WriteString("\n</PHASE GUIDANCE>\n")

	commStyle := style.Default()
	if p != nil {
		commStyle = p.CommunicationStyle
	}
	b.WriteString(style.BuildStyleGuide(commStyle))
	return b.String()
}

func stateSummary(s models.ConversationState) string {
	var b strings.Builder
	b.WriteString("<CONVERSATION STATE>\n")
	displayPhase := s.LikelyPhase
	if displayPhase == models.PhaseUnknown {
		displayPhase = models.PhaseRapport
	}
	fmt.Fprintf(&b, "Phase: %s\n", util.Humanize(string(displayPhase)))
	fmt.Fprintf(&b, "Your rapport with the salesperson: %s\n", s.RapportLevel)
	fmt.Fprintf(&b, "Mood of the last exchange: %s\n", s.Sentiment)
	if len(s.NeedsIdentified) > 0 {
		fmt.Fprintf(&b, "Needs you have shared: %s\n", strings.Join(s.NeedsIdentified, "; "))
	}
	if len(s.ObjectionsRaised) > 0 {
		fmt.Fprintf(&b, "Concerns you have raised: %s\n", strings.Join(s.ObjectionsRaised, "; "))
	}
	if s.SalespersonFocus != nil {
		fmt.Fprintf(&b, "The salesperson is currently focused on %s.\n", strings.ReplaceAll(*s.SalespersonFocus, "_", " "))
	}
	b.WriteString("</CONVERSATION STATE>\n")
	return b.String()
}
