package models

import "time"

// CommunicationStyle describes how a simulated buyer talks.
type CommunicationStyle struct {
	Chattiness          string `json:"chattiness"`
	Formality           string `json:"formality"`
	EmotionalExpression string `json:"emotional_expression"`
}

// PersonaFramework is an immutable snapshot describing one simulated buyer.
type PersonaFramework struct {
	Name               string             `json:"name"`
	CulturalKey        string             `json:"cultural_key"`
	CulturalBackground string             `json:"cultural_background"`
	Gender             string             `json:"gender"`
	Role               string             `json:"role"`
	RoleCategory       string             `json:"role_category"`
	RoleLevel          string             `json:"role_level"`
	AgeRange           string             `json:"age_range"`
	AgeCategory        string             `json:"age_category"`
	PersonalityTraits  []string           `json:"personality_traits"`
	Industry           string             `json:"industry"`
	IndustryCategory   string             `json:"industry_category"`
	CommunicationStyle CommunicationStyle `json:"communication_style"`
	DecisionAuthority  string             `json:"decision_authority"`
	BuyerType          string             `json:"buyer_type"`
	BusinessContext    string             `json:"business_context"`
	ComplexityLevel    string             `json:"complexity_level,omitempty"`
	ContextualFears    *ContextualFears   `json:"contextual_fears,omitempty"`
}

// FearContext carries the persona details the fear generator substitutes
// into its templates.
type FearContext struct {
	Role      string `json:"role,omitempty"`
	RoleLevel string `json:"role_level,omitempty"`
	Industry  string `json:"industry,omitempty"`
}

// FearManifestation is one product-specific buyer concern.
type FearManifestation struct {
	FearType        string  `json:"fear_type"`
	FearStatement   string  `json:"fear_statement"`
	CoreConcern     string  `json:"core_concern"`
	TriggerStrength float64 `json:"trigger_strength"`
}

// ContextualFears is the output of one fear-generation call.
type ContextualFears struct {
	Fears               []FearManifestation `json:"contextual_fears"`
	AuthenticObjections []string            `json:"authentic_objections"`
	PersonalSituation   string              `json:"personal_situation,omitempty"`
}

// GenerationRecord captures the tracked fields of one persona generation
// for bias analytics.
type GenerationRecord struct {
	ID        string            `json:"id"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
}

// FieldBias summarizes the value distribution of one tracked field.
type FieldBias struct {
	Field         string         `json:"field"`
	Counts        map[string]int `json:"counts"`
	DominantValue string         `json:"dominant_value"`
	DominantShare float64        `json:"dominant_share"`
	Threshold     float64        `json:"threshold"`
	IsBiased      bool           `json:"is_biased"`
}

// BiasReport flags tracked fields whose recent distribution is skewed.
type BiasReport struct {
	SampleSize int                  `json:"sample_size"`
	Fields     map[string]FieldBias `json:"fields"`
	IsBiased   bool                 `json:"is_biased"`
}
