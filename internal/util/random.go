package util

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// ID prefixes identify the kind of object an ID names.
const (
	ConversationIDPrefix = "c_"
	GenerationIDPrefix   = "g_"
)

// NewID returns prefix followed by the 32 hex digits of a random UUID.
func NewID(prefix string) string {
	u := uuid.New()
	return prefix + hex.EncodeToString(u[:])
}

// GenerateConversationID generates a unique conversation ID with "c_" prefix.
func GenerateConversationID() string {
	return NewID(ConversationIDPrefix)
}

// GenerateGenerationID generates a unique persona generation ID with "g_" prefix.
func GenerateGenerationID() string {
	return NewID(GenerationIDPrefix)
}
