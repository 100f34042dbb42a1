// Package domain holds the core conversation types shared across packages.
package domain

import "time"

// Session tracks one conversation between a client and the assistant.
// A session is bound to at most one building; BuildingID is empty for
// anonymous callers. History is owned by the session registry and must
// only be touched while holding the session lock.
type Session struct {
	ID         string    `json:"id"`
	BuildingID string    `json:"buildingId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	LastAccess time.Time `json:"lastAccess"`

	History []Message `json:"-"`
}

// Authenticated reports whether the session is bound to a building.
func (s *Session) Authenticated() bool {
	return s.BuildingID != ""
}

// SessionInfo is the observable summary of a session.
type SessionInfo struct {
	SessionID       string `json:"session_id"`
	BuildingID      string `json:"building_id,omitempty"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// Message is a single entry in a session's history. Exactly one of
// Content, FunctionCall or FunctionResponse is meaningful per entry,
// mirroring the reasoning model's part protocol.
type Message struct {
	Role             string            `json:"role"` // "user" | "model"
	Content          string            `json:"content,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

// FunctionCall is the model's request to invoke a catalog operation.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries an operation's result envelope back to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// Invocation records one dispatched operation within a turn, returned to
// the caller for observability. Not persisted beyond the response.
type Invocation struct {
	Function string         `json:"function"`
	Args     map[string]any `json:"args"`
}
