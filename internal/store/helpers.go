package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/PitchIQ/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// conversationColumns is the JSON-encoded form of a conversation row.
type conversationColumns struct {
	persona string
	turns   string
	state   string
}

func encodeConversation(rec models.ConversationRecord) (conversationColumns, error) {
	var cols conversationColumns
	if rec.Persona != nil {
		b, err := json.Marshal(rec.Persona)
		if err != nil {
			return cols, fmt.Errorf("marshal persona: %w", err)
		}
		cols.persona = string(b)
	}
	turns := rec.Turns
	if turns == nil {
		turns = []models.Turn{}
	}
	b, err := json.Marshal(turns)
	if err != nil {
		return cols, fmt.Errorf("marshal turns: %w", err)
	}
	cols.turns = string(b)
	b, err = json.Marshal(rec.State)
	if err != nil {
		return cols, fmt.Errorf("marshal state: %w", err)
	}
	cols.state = string(b)
	return cols, nil
}

// scanConversationRow scans a conversation from a single sql.Row.
func scanConversationRow(row *sql.Row) (*models.ConversationRecord, error) {
	var rec models.ConversationRecord
	var businessContext, userName, personaJSON sql.NullString
	var turnsJSON, stateJSON string
	err := row.Scan(&rec.ID, &businessContext, &userName, &personaJSON, &turnsJSON, &stateJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation failed: %w", err)
	}
	rec.BusinessContext = businessContext.String
	rec.UserName = userName.String
	if personaJSON.Valid && personaJSON.String != "" {
		var p models.PersonaFramework
		if err := json.Unmarshal([]byte(personaJSON.String), &p); err != nil {
			// Keep the conversation usable without its persona.
			slog.Warn("store.scanConversationRow: persona JSON unreadable", "id", rec.ID, "error", err)
		} else {
			rec.Persona = &p
		}
	}
	if err := json.Unmarshal([]byte(turnsJSON), &rec.Turns); err != nil {
		return nil, fmt.Errorf("unmarshal turns for %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(stateJSON), &rec.State); err != nil {
		return nil, fmt.Errorf("unmarshal state for %s: %w", rec.ID, err)
	}
	return &rec, nil
}

// scanGenerations reads generation rows in the order the query returned them.
func scanGenerations(rows *sql.Rows) ([]models.GenerationRecord, error) {
	var out []models.GenerationRecord
	for rows.Next() {
		var rec models.GenerationRecord
		var fieldsJSON string
		if err := rows.Scan(&rec.ID, &fieldsJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation failed: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal generation %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generation rows: %w", err)
	}
	return out, nil
}
