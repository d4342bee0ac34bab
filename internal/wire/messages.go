// Package wire defines the WebSocket protocol between a browser tab and its
// admin session.
package wire

import (
	"encoding/json"

	"github.com/Lagunov2003/practice-registry/internal/types"
	"github.com/Lagunov2003/practice-registry/internal/workspace"
)

// ── Client → Server messages ────────────────────────────────────────────────

// Client message types.
const (
	TypeView       = "view"
	TypeReload     = "reload"
	TypeOpenAdd    = "open_add"
	TypeOpenEdit   = "open_edit"
	TypeOpenFilter = "open_filter"
	TypeInput      = "input"
	TypeSelect     = "select"
	TypeSubmit     = "submit"
	TypeApply      = "apply"
	TypeReset      = "reset"
	TypeClose      = "close"
	TypePing       = "ping"
)

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id"` // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// ViewData is the payload for "view" messages.
type ViewData struct {
	View string `json:"view"`
}

// OpenEditData is the payload for "open_edit" messages.
type OpenEditData struct {
	ID int64 `json:"id"`
}

// InputData is the payload for "input" messages.
type InputData struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SelectData is the payload for "select" messages.
type SelectData struct {
	Field string `json:"field"`
	Index int    `json:"index"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// Server message types.
const (
	TypeSession     = "session"
	TypeState       = "state"
	TypeSuggestions = "suggestions"
	TypeError       = "error"
	TypePong        = "pong"
)

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData carries session information.
type SessionData struct {
	SessionID string `json:"session_id"`
	Resumed   bool   `json:"resumed"`
}

// StateData is the full workspace snapshot.
type StateData = workspace.Snapshot

// SuggestionsData carries the accepted results of one field.
type SuggestionsData struct {
	Field    string             `json:"field"`
	Query    string             `json:"query"`
	Items    []types.Suggestion `json:"items"`
	Searched bool               `json:"searched"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
