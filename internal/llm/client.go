// Package llm is the boundary to the external reasoning capability.
//
// The capability is opaque: given the conversation so far and, for
// authenticated sessions, the operation catalog, it returns either a
// final text answer or exactly one structured operation request.
package llm

import "context"

// Role constants for conversation turns.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one turn sent to the model. Exactly one of Text,
// FunctionCall or FunctionResponse is set.
type Message struct {
	Role             string
	Text             string
	FunctionCall     *FunctionCall
	FunctionResponse *FunctionResponse
}

// FunctionCall is the model's request to invoke a named operation.
type FunctionCall struct {
	Name string
	Args map[string]any
}

// FunctionResponse feeds an operation's result envelope back to the model.
type FunctionResponse struct {
	Name     string
	Response map[string]any
}

// Declaration advertises one catalog operation to the model.
type Declaration struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema object
}

// Request is the input to a Complete call. Tools is empty for anonymous
// sessions; the model then has no operations to request.
type Request struct {
	System   string
	Messages []Message
	Tools    []Declaration
}

// Reply is the model's answer: terminal text, or one function call
// (possibly accompanied by partial text).
type Reply struct {
	Text         string
	FunctionCall *FunctionCall
}

// Client is implemented by every reasoning-capability provider.
type Client interface {
	// Complete sends the conversation and returns the model's reply.
	Complete(ctx context.Context, req Request) (*Reply, error)

	// Name returns the provider name (e.g. "gemini").
	Name() string
}
