package models

import (
	"strings"
	"time"
)

// Turn roles. The user is the salesperson in training; the assistant is the
// simulated buyer.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single message in a conversation transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Validate checks role and content bounds.
func (t Turn) Validate() error {
	if t.Role != RoleUser && t.Role != RoleAssistant {
		return ErrInvalidTurnRole
	}
	if strings.TrimSpace(t.Content) == "" {
		return ErrEmptyTurnContent
	}
	if len(t.Content) > MaxTurnContentLength {
		return ErrTurnContentTooLong
	}
	return nil
}

// Score categories produced by the message scorer.
const (
	CategoryRapport   = "rapport"
	CategoryBusiness  = "business"
	CategoryNeeds     = "needs"
	CategoryObjection = "objection"
	CategoryInterest  = "interest"
	CategoryClosing   = "closing"
)

// Scores holds per-category signal strength in [0,1] for one message.
type Scores struct {
	Rapport   float64 `json:"rapport"`
	Business  float64 `json:"business"`
	Needs     float64 `json:"needs"`
	Objection float64 `json:"objection"`
	Interest  float64 `json:"interest"`
	Closing   float64 `json:"closing"`
}

// IsZero reports whether no category carries any signal.
func (s Scores) IsZero() bool {
	return s == Scores{}
}

// Get returns the score for a category name, or 0 for unknown names.
func (s Scores) Get(category string) float64 {
	switch category {
	case CategoryRapport:
		return s.Rapport
	case CategoryBusiness:
		return s.Business
	case CategoryNeeds:
		return s.Needs
	case CategoryObjection:
		return s.Objection
	case CategoryInterest:
		return s.Interest
	case CategoryClosing:
		return s.Closing
	}
	return 0
}

// Set assigns the score for a category name; unknown names are ignored.
func (s *Scores) Set(category string, v float64) {
	switch category {
	case CategoryRapport:
		s.Rapport = v
	case CategoryBusiness:
		s.Business = v
	case CategoryNeeds:
		s.Needs = v
	case CategoryObjection:
		s.Objection = v
	case CategoryInterest:
		s.Interest = v
	case CategoryClosing:
		s.Closing = v
	}
}

// Salesperson focus labels, derived from the latest user turn.
const (
	FocusBuildingRapport    = "building_rapport"
	FocusDiscoveringNeeds   = "discovering_needs"
	FocusPresentingSolution = "presenting_solution"
	FocusHandlingObjections = "handling_objections"
	FocusClosing            = "closing"
)

// ConversationState is the inferred state of one active conversation.
type ConversationState struct {
	LikelyPhase      Phase        `json:"likely_phase"`
	RapportLevel     RapportLevel `json:"rapport_level"`
	NeedsIdentified  []string     `json:"needs_identified"`
	ObjectionsRaised []string     `json:"objections_raised"`
	SalespersonFocus *string      `json:"salesperson_focus"`
	Sentiment        Sentiment    `json:"sentiment"`
	MessageCount     int          `json:"message_count"`
}

// NewConversationState returns the initial state of a fresh conversation.
func NewConversationState() ConversationState {
	return ConversationState{
		LikelyPhase:      PhaseUnknown,
		RapportLevel:     RapportMedium,
		NeedsIdentified:  []string{},
		ObjectionsRaised: []string{},
		Sentiment:        SentimentNeutral,
	}
}

// Clone returns a deep copy so callers cannot mutate the owner's slices.
func (s ConversationState) Clone() ConversationState {
	out := s
	out.NeedsIdentified = append([]string{}, s.NeedsIdentified...)
	out.ObjectionsRaised = append([]string{}, s.ObjectionsRaised...)
	if s.SalespersonFocus != nil {
		focus := *s.SalespersonFocus
		out.SalespersonFocus = &focus
	}
	return out
}

// ConversationRecord is the persisted form of a conversation session.
type ConversationRecord struct {
	ID              string            `json:"id"`
	BusinessContext string            `json:"business_context,omitempty"`
	UserName        string            `json:"user_name,omitempty"`
	Persona         *PersonaFramework `json:"persona,omitempty"`
	Turns           []Turn            `json:"turns"`
	State           ConversationState `json:"state"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
