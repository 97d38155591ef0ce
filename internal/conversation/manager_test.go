package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/BTreeMap/PitchIQ/internal/models"
)

// mockCompleter is a test double for genai.Completer.
type mockCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

var pipelineTranscript = []models.Turn{
	{Role: models.RoleUser, Content: "Hi, I'm John from ABC Software."},
	{Role: models.RoleAssistant, Content: "Hello John, how are you?"},
	{Role: models.RoleUser, Content: "I wanted to talk about our training software, what challenges do you face?"},
	{Role: models.RoleAssistant, Content: "Budget is tight and reps struggle with objections."},
}

func containsFold(items []string, want string) bool {
	for _, s := range items {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

func TestNewManager_InitialState(t *testing.T) {
	m := NewManager()
	s := m.State()
	if s.LikelyPhase != models.PhaseUnknown {
		t.Errorf("expected unknown phase, got %s", s.LikelyPhase)
	}
	if s.RapportLevel != models.RapportMedium || s.Sentiment != models.SentimentNeutral {
		t.Errorf("unexpected initial state: %+v", s)
	}
	if s.NeedsIdentified == nil || s.ObjectionsRaised == nil {
		t.Error("expected non-nil needs and objections")
	}
}

func TestUpdateState_FullPipeline(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	m.UpdateState(ctx, pipelineTranscript[:2], "")
	if got := m.CurrentPhase(); got != models.PhaseRapport {
		t.Fatalf("after greeting, phase = %s, want rapport", got)
	}

	m.UpdateState(ctx, pipelineTranscript, "")
	s := m.State()
	if s.LikelyPhase != models.PhaseDiscovery {
		t.Errorf("phase = %s, want discovery", s.LikelyPhase)
	}
	if s.MessageCount != 4 {
		t.Errorf("message count = %d, want 4", s.MessageCount)
	}
	if !containsFold(s.NeedsIdentified, "Objections") {
		t.Errorf("needs = %v, want an objection-handling need", s.NeedsIdentified)
	}
	if !containsFold(s.ObjectionsRaised, "Budget is tight") {
		t.Errorf("objections = %v, want budget concern", s.ObjectionsRaised)
	}
	if s.Sentiment != models.SentimentNegative {
		t.Errorf("sentiment = %s, want negative", s.Sentiment)
	}
	if s.SalespersonFocus == nil || *s.SalespersonFocus != models.FocusDiscoveringNeeds {
		t.Errorf("focus = %v, want discovering_needs", s.SalespersonFocus)
	}
}

func TestUpdateState_EmptyHistoryIsNoop(t *testing.T) {
	m := NewManager()
	before := m.State()
	m.UpdateState(context.Background(), nil, "ctx")
	after := m.State()
	if before.LikelyPhase != after.LikelyPhase || before.MessageCount != after.MessageCount {
		t.Errorf("state changed on empty history: %+v -> %+v", before, after)
	}
}

func TestUpdateState_NeedsNeverShrink(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	t1 := []models.Turn{
		{Role: models.RoleUser, Content: "Hello there, thanks for the time."},
		{Role: models.RoleAssistant, Content: "Sure. We struggle with onboarding new reps."},
		{Role: models.RoleUser, Content: "We need to cut ramp time. What else?"},
		{Role: models.RoleAssistant, Content: "Honestly I'm worried about the rollout."},
	}
	m.UpdateState(ctx, t1, "")
	first := m.State()
	if len(first.NeedsIdentified) == 0 {
		t.Fatal("expected needs after first update")
	}

	t2 := append(append([]models.Turn{}, t1...),
		models.Turn{Role: models.RoleUser, Content: "Got it, how does pricing sound?"},
		models.Turn{Role: models.RoleAssistant, Content: "Fine, I suppose."},
	)
	m.UpdateState(ctx, t2, "")
	second := m.State()

	for _, n := range first.NeedsIdentified {
		if !containsFold(second.NeedsIdentified, n) {
			t.Errorf("need %q lost after second update: %v", n, second.NeedsIdentified)
		}
	}
	for _, o := range first.ObjectionsRaised {
		if !containsFold(second.ObjectionsRaised, o) {
			t.Errorf("objection %q lost after second update: %v", o, second.ObjectionsRaised)
		}
	}
}

func TestUpdateState_DeduplicatesCaseInsensitively(t *testing.T) {
	m := NewManager()
	turns := []models.Turn{
		{Role: models.RoleUser, Content: "Hi."},
		{Role: models.RoleAssistant, Content: "We struggle with churn."},
	}
	m.UpdateState(context.Background(), turns, "")
	turns = append(turns,
		models.Turn{Role: models.RoleUser, Content: "Tell me more."},
		models.Turn{Role: models.RoleAssistant, Content: "We STRUGGLE WITH CHURN."},
	)
	m.UpdateState(context.Background(), turns, "")

	count := 0
	for _, n := range m.State().NeedsIdentified {
		if strings.EqualFold(n, "churn") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected churn once, got %d in %v", count, m.State().NeedsIdentified)
	}
}

func TestUpdateState_LLMPath(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		err        error
		wantPhase  models.Phase
		wantNeed   string
		wantFocus  string
		wantPrompt bool
	}{
		{
			name:      "valid analysis",
			reply:     "```json\n{\"likely_phase\": \"presentation\", \"rapport_level\": \"high\", \"needs_identified\": [\"Faster onboarding\"], \"objections_raised\": [], \"salesperson_focus\": \"presenting_solution\", \"sentiment\": \"positive\"}\n```",
			wantPhase: models.PhasePresentation,
			wantNeed:  "Faster onboarding",
			wantFocus: models.FocusPresentingSolution,
		},
		{
			name:      "completer error falls back",
			err:       errors.New("timeout"),
			wantPhase: models.PhaseDiscovery,
			wantNeed:  "Objections",
			wantFocus: models.FocusDiscoveringNeeds,
		},
		{
			name:      "malformed json falls back",
			reply:     "I think they are in discovery.",
			wantPhase: models.PhaseDiscovery,
			wantNeed:  "Objections",
			wantFocus: models.FocusDiscoveringNeeds,
		},
		{
			name:      "invalid phase falls back",
			reply:     `{"likely_phase": "negotiation", "rapport_level": "Low"}`,
			wantPhase: models.PhaseDiscovery,
			wantNeed:  "Objections",
			wantFocus: models.FocusDiscoveringNeeds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := &mockCompleter{reply: tt.reply, err: tt.err}
			m := NewManager(WithCompleter(mc))
			m.UpdateState(context.Background(), pipelineTranscript, "Sales training software")

			s := m.State()
			if s.LikelyPhase != tt.wantPhase {
				t.Errorf("phase = %s, want %s", s.LikelyPhase, tt.wantPhase)
			}
			if !containsFold(s.NeedsIdentified, tt.wantNeed) {
				t.Errorf("needs = %v, want %q", s.NeedsIdentified, tt.wantNeed)
			}
			if s.SalespersonFocus == nil || *s.SalespersonFocus != tt.wantFocus {
				t.Errorf("focus = %v, want %s", s.SalespersonFocus, tt.wantFocus)
			}
			if len(mc.prompts) != 1 || !strings.Contains(mc.prompts[0], "Business context: Sales training software") {
				t.Errorf("unexpected prompts: %v", mc.prompts)
			}
		})
	}
}

func TestUpdateState_LLMAccumulates(t *testing.T) {
	m := NewManager()
	m.UpdateState(context.Background(), pipelineTranscript, "")

	mc := &mockCompleter{reply: `{"likely_phase": "objection_handling", "rapport_level": "Medium", "needs_identified": ["objections"], "objections_raised": ["Unclear ROI"], "salesperson_focus": "mind_reading", "sentiment": "neutral"}`}
	m.completer = mc
	m.UpdateState(context.Background(), pipelineTranscript, "")

	s := m.State()
	if s.LikelyPhase != models.PhaseObjectionHandling {
		t.Errorf("phase = %s", s.LikelyPhase)
	}
	if !containsFold(s.ObjectionsRaised, "Budget is tight") || !containsFold(s.ObjectionsRaised, "Unclear ROI") {
		t.Errorf("objections not accumulated: %v", s.ObjectionsRaised)
	}
	n := 0
	for _, need := range s.NeedsIdentified {
		if strings.EqualFold(need, "objections") {
			n++
		}
	}
	if n != 1 {
		t.Errorf("duplicate needs: %v", s.NeedsIdentified)
	}
	if s.SalespersonFocus != nil {
		t.Errorf("unknown focus label should be dropped, got %q", *s.SalespersonFocus)
	}
}

func TestUpdatePhase(t *testing.T) {
	m := NewManager()

	if !m.UpdatePhase("Hi, how are you today?") {
		t.Error("expected unknown -> rapport change")
	}
	if m.CurrentPhase() != models.PhaseRapport {
		t.Fatalf("phase = %s, want rapport", m.CurrentPhase())
	}
	// Needs signal held in rapport while under four messages.
	if m.UpdatePhase("What challenges do you face?") {
		t.Error("discovery should be suppressed at message 2")
	}
	m.UpdatePhase("Thanks.")
	if !m.UpdatePhase("What problems are you trying to solve?") {
		t.Error("expected rapport -> discovery at message 4")
	}
	if m.CurrentPhase() != models.PhaseDiscovery {
		t.Errorf("phase = %s, want discovery", m.CurrentPhase())
	}
	if !m.UpdatePhase("Great, what are the next steps to get started?") {
		t.Error("expected closing")
	}
	if got := m.State().MessageCount; got != 5 {
		t.Errorf("message count = %d, want 5", got)
	}
}

func TestUpdatePhase_EarlyGuard(t *testing.T) {
	m := NewManager()
	m.UpdatePhase("Let's sign the contract today.")
	if m.CurrentPhase() != models.PhaseRapport {
		t.Errorf("first message moved phase to %s, want rapport", m.CurrentPhase())
	}
	m.UpdatePhase("Ready to sign the contract?")
	if m.CurrentPhase() != models.PhaseRapport {
		t.Errorf("second message moved phase to %s, want rapport", m.CurrentPhase())
	}
}

func TestRestore(t *testing.T) {
	focus := models.FocusClosing
	m := NewManager()
	m.Restore(models.ConversationState{
		LikelyPhase:      models.PhaseClosing,
		RapportLevel:     models.RapportHigh,
		NeedsIdentified:  []string{"Better reporting"},
		SalespersonFocus: &focus,
		Sentiment:        models.SentimentPositive,
		MessageCount:     9,
	})
	s := m.State()
	if s.LikelyPhase != models.PhaseClosing || s.MessageCount != 9 {
		t.Errorf("state not restored: %+v", s)
	}
	if s.ObjectionsRaised == nil {
		t.Error("nil objections should be normalized")
	}

	m.Restore(models.ConversationState{LikelyPhase: "bogus"})
	if m.CurrentPhase() != models.PhaseUnknown {
		t.Errorf("invalid phase should restore as unknown, got %s", m.CurrentPhase())
	}
}

func TestState_ReturnsCopy(t *testing.T) {
	m := NewManager()
	m.UpdateState(context.Background(), pipelineTranscript, "")
	s := m.State()
	s.NeedsIdentified[0] = "mutated"
	if m.State().NeedsIdentified[0] == "mutated" {
		t.Error("State() must return a deep copy")
	}
}

func TestSystemPrompt(t *testing.T) {
	m := NewManager()
	p := &models.PersonaFramework{
		Name:               "Priya Raman",
		Role:               "Operations Manager",
		Industry:           "Logistics",
		CommunicationStyle: models.CommunicationStyle{Chattiness: "reserved", Formality: "formal", EmotionalExpression: "reserved"},
	}

	prompt := m.SystemPrompt(p, "Route optimization software", "Dana")
	for _, want := range []string{
		"<PERSONA>", "You are Priya Raman, an Operations Manager.",
		"<SALES CONTEXT>", "The salesperson's name is Dana.", "They are selling: Route optimization software",
		"<CONVERSATION STATE>", "Phase: Rapport",
		"<PHASE GUIDANCE>", phaseGuidance[models.PhaseRapport],
		"<COMMUNICATION STYLE>", "Keep answers short.",
		"NEVER act as the salesperson.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	m.UpdateState(context.Background(), pipelineTranscript, "")
	prompt = m.SystemPrompt(nil, "", "")
	for _, want := range []string{
		"busy professional", "Phase: Discovery", phaseGuidance[models.PhaseDiscovery],
		"Concerns you have raised: Budget is tight", "focused on discovering needs",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "The salesperson's name is") {
		t.Error("empty user name should be omitted")
	}
}

func TestSystemPrompt_EveryPhaseHasGuidance(t *testing.T) {
	for _, p := range models.AllPhases {
		if p == models.PhaseUnknown {
			continue
		}
		if phaseGuidance[p] == "" {
			t.Errorf("no guidance for %s", p)
		}
	}
}

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr bool
	}{
		{"bare object", `{"likely_phase": "closing"}`, false},
		{"fenced", "```json\n{\"likely_phase\": \"closing\"}\n```", false},
		{"no object", "closing", true},
		{"broken json", `{"likely_phase": }`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parseAnalysis(tt.reply)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && a.LikelyPhase != "closing" {
				t.Errorf("LikelyPhase = %q", a.LikelyPhase)
			}
		})
	}
}

func TestBuildAnalysisPrompt_TruncatesHistory(t *testing.T) {
	var turns []models.Turn
	for i := 0; i < maxAnalysisTurns+5; i++ {
		turns = append(turns, models.Turn{Role: models.RoleUser, Content: "message-" + string(rune('a'+i))})
	}
	prompt := buildAnalysisPrompt(turns, "")
	if strings.Contains(prompt, "message-a\n") {
		t.Error("oldest turns should be dropped")
	}
	if !strings.Contains(prompt, "message-"+string(rune('a'+maxAnalysisTurns+4))) {
		t.Error("newest turn missing")
	}
	if strings.Contains(prompt, "Business context") {
		t.Error("empty business context should be omitted")
	}
}
