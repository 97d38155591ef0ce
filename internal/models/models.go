// Package models defines the core data structures for PitchIQ.
//
// It includes the conversation phase and state types, the persona and fear
// frameworks, and the API envelopes shared across modules.
package models

import (
	"errors"
	"strings"
)

// Validation constants for input validation
const (
	// MaxTurnContentLength defines the maximum allowed length for a single conversation turn
	MaxTurnContentLength = 8192
	// MaxTurnsPerRequest defines the maximum number of turns accepted in one append request
	MaxTurnsPerRequest = 50
	// MaxSamMessages defines the maximum number of raw messages accepted for Sam analysis
	MaxSamMessages = 200
)

// Error variables for better error handling and testability
var (
	ErrEmptyTurnContent   = errors.New("turn content cannot be empty")
	ErrInvalidTurnRole    = errors.New("turn role must be 'user' or 'assistant'")
	ErrTurnContentTooLong = errors.New("turn content exceeds maximum length")
	ErrNoTurns            = errors.New("at least one turn is required")
	ErrTooManyTurns       = errors.New("too many turns in a single request")
	ErrEmptyProduct       = errors.New("product_service is required")
	ErrEmptyConversation  = errors.New("conversation cannot be empty")
	ErrTooManyMessages    = errors.New("conversation exceeds maximum message count")
)

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates a successful response.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an error response.
	APIStatusError APIStatus = "error"
)

// APIResponse represents the standard JSON envelope returned by the API.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build returns the constructed API response.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}

// StartConversationRequest is the body of POST /conversations.
type StartConversationRequest struct {
	BusinessContext string            `json:"business_context,omitempty"`
	UserName        string            `json:"user_name,omitempty"`
	Persona         *PersonaFramework `json:"persona,omitempty"`
}

// AppendTurnsRequest is the body of POST /conversations/{id}/turns.
type AppendTurnsRequest struct {
	Turns []Turn `json:"turns"`
}

// Validate checks every turn in the request.
func (r *AppendTurnsRequest) Validate() error {
	if len(r.Turns) == 0 {
		return ErrNoTurns
	}
	if len(r.Turns) > MaxTurnsPerRequest {
		return ErrTooManyTurns
	}
	for _, t := range r.Turns {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PersonaRequest is the body of POST /personas.
type PersonaRequest struct {
	IndustryContext string `json:"industry_context,omitempty"`
	TargetMarket    string `json:"target_market,omitempty"`
	ComplexityLevel string `json:"complexity_level,omitempty"`
	ProductService  string `json:"product_service,omitempty"`
}

// FearRequest is the body of POST /fears.
type FearRequest struct {
	ProductService    string      `json:"product_service"`
	PersonaContext    FearContext `json:"persona_context"`
	PersonalSituation string      `json:"personal_situation,omitempty"`
}

// Validate ensures a product description was supplied.
func (r *FearRequest) Validate() error {
	if strings.TrimSpace(r.ProductService) == "" {
		return ErrEmptyProduct
	}
	return nil
}

// SamAnalyzeRequest is the body of POST /sam/analyze.
type SamAnalyzeRequest struct {
	Conversation []string `json:"conversation"`
}

// Validate checks the raw transcript bounds.
func (r *SamAnalyzeRequest) Validate() error {
	if len(r.Conversation) == 0 {
		return ErrEmptyConversation
	}
	if len(r.Conversation) > MaxSamMessages {
		return ErrTooManyMessages
	}
	return nil
}
