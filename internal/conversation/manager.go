// Package conversation tracks the inferred state of sales roleplay
// conversations and assembles the simulated buyer's system prompt.
package conversation

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/BTreeMap/PitchIQ/internal/genai"
	"github.com/BTreeMap/PitchIQ/internal/lexicon"
	"github.com/BTreeMap/PitchIQ/internal/models"
	"github.com/BTreeMap/PitchIQ/internal/phase"
	"github.com/BTreeMap/PitchIQ/internal/util"
)

// Opts holds configuration for a Manager.
type Opts struct {
	Lexicon   *lexicon.Compiled
	Completer genai.Completer
}

// Option configures a Manager.
type Option func(*Opts)

// WithLexicon replaces the built-in keyword lexicon.
func WithLexicon(lex *lexicon.Compiled) Option {
	return func(o *Opts) { o.Lexicon = lex }
}

// WithCompleter enables LLM-based state analysis. A nil completer keeps
// the manager on the heuristic path.
func WithCompleter(c genai.Completer) Option {
	return func(o *Opts) { o.Completer = c }
}

// Manager owns the state of one conversation. It is safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	scorer    *phase.Scorer
	lex       *lexicon.Compiled
	completer genai.Completer
	state     models.ConversationState
}

// NewManager creates a manager with a fresh state.
func NewManager(opts ...Option) *Manager {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	scorer := phase.NewScorer(cfg.Lexicon)
	return &Manager{
		scorer:    scorer,
		lex:       scorer.Lexicon(),
		completer: cfg.Completer,
		state:     models.NewConversationState(),
	}
}

// State returns a snapshot of the current state.
func (m *Manager) State() models.ConversationState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// CurrentPhase returns the current likely phase.
func (m *Manager) CurrentPhase() models.Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.LikelyPhase
}

// Restore replaces the state with a previously persisted snapshot.
func (m *Manager) Restore(state models.ConversationState) {
	if state.NeedsIdentified == nil {
		state.NeedsIdentified = []string{}
	}
	if state.ObjectionsRaised == nil {
		state.ObjectionsRaised = []string{}
	}
	if !state.LikelyPhase.IsValid() {
		state.LikelyPhase = models.PhaseUnknown
	}
	m.mu.Lock()
	m.state = state.Clone()
	m.mu.Unlock()
}

// UpdateState recomputes the state from the full transcript. It never
// fails: LLM problems fall back to heuristics, and an empty transcript
// leaves the state untouched.
func (m *Manager) UpdateState(ctx context.Context, history []models.Turn, businessContext string) {
	if len(history) == 0 {
		slog.Debug("conversation.UpdateState: empty history, state unchanged")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.state.LikelyPhase
	if m.completer != nil {
		if m.analyzeWithLLM(ctx, history, businessContext) {
			slog.Debug("conversation.UpdateState: LLM analysis applied", "phase", m.state.LikelyPhase, "messages", len(history))
			return
		}
		slog.Warn("conversation.UpdateState: LLM analysis failed, using heuristics", "messages", len(history))
	}

	m.applyHeuristics(history)
	if before != m.state.LikelyPhase {
		slog.Debug("conversation.UpdateState: phase changed", "from", before, "to", m.state.LikelyPhase, "messages", len(history))
	}
}

// UpdatePhase applies the reduced rule set to a single salesperson message
// and reports whether the phase changed.
func (m *Manager) UpdatePhase(userMessage string) bool {
	scores := m.scorer.Score(userMessage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.MessageCount++
	prev := m.state.LikelyPhase
	next := phase.ClassifySingle(scores, prev, m.state.MessageCount)
	m.state.LikelyPhase = next
	if next != prev {
		slog.Debug("conversation.UpdatePhase: phase changed", "from", prev, "to", next)
		return true
	}
	return false
}

// applyHeuristics runs the deterministic scoring pipeline. Callers hold m.mu.
func (m *Manager) applyHeuristics(history []models.Turn) {
	ex := latestExchange(history)

	userScores := m.scorer.Score(ex.user)
	aiScores := m.scorer.Score(ex.assistant)
	priorAIScores := m.scorer.Score(ex.priorAssistant)

	m.state.MessageCount = len(history)
	m.state.LikelyPhase = phase.Classify(userScores, aiScores, m.state.LikelyPhase, m.state.MessageCount)
	m.state.RapportLevel = phase.RapportLevel(userScores, aiScores)
	m.state.SalespersonFocus = phase.Focus(userScores, priorAIScores)
	m.state.Sentiment = phase.Sentiment(m.lex, ex.user, ex.assistant)

	var needs []string
	needs = append(needs, m.lex.ExtractNeeds(ex.user)...)
	needs = append(needs, m.lex.ExtractPains(ex.assistant)...)
	m.state.NeedsIdentified = mergeUnique(m.state.NeedsIdentified, capitalizeAll(needs))
	m.state.ObjectionsRaised = mergeUnique(m.state.ObjectionsRaised, capitalizeAll(m.lex.ExtractObjections(ex.assistant)))
}

// exchange holds the messages the heuristics look at.
type exchange struct {
	user           string
	assistant      string
	priorAssistant string // buyer message preceding the latest user message
}

func latestExchange(history []models.Turn) exchange {
	var ex exchange
	userIdx := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleUser {
			ex.user = history[i].Content
			userIdx = i
			break
		}
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleAssistant {
			ex.assistant = history[i].Content
			break
		}
	}
	for i := userIdx - 1; i >= 0; i-- {
		if history[i].Role == models.RoleAssistant {
			ex.priorAssistant = history[i].Content
			break
		}
	}
	return ex
}

// mergeUnique appends additions not already present, ignoring case.
func mergeUnique(existing, additions []string) []string {
	out := append([]string{}, existing...)
	for _, a := range additions {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		dup := false
		for _, e := range out {
			if strings.EqualFold(e, a) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, a)
		}
	}
	return out
}

func capitalizeAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, util.Capitalize(s))
	}
	return out
}
