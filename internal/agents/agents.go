// Package agents is the agent-registry collaborator: the terminal
// fallback target for messages that carry no document intent.
package agents

import (
	"context"
	"fmt"

	"github.com/draftyhq/drafty/internal/llm"
)

// Request is one message handed to an agent.
type Request struct {
	Message        string
	ConversationID string
}

// Response is an agent's answer.
type Response struct {
	Text string
}

// Agent handles plain chat messages.
type Agent interface {
	Name() string
	Handle(ctx context.Context, req Request) (Response, error)
}

// Registry resolves the current agent for a conversation. This module
// runs a single persona at a time; the registry exists so the router
// depends on the lookup, not the concrete agent.
type Registry struct {
	current Agent
}

// NewRegistry creates a registry with its current agent.
func NewRegistry(current Agent) *Registry {
	return &Registry{current: current}
}

// Current returns the agent messages fall back to.
func (r *Registry) Current() Agent {
	return r.current
}

// --- Model-backed agent ---

// ModelAgent answers chat through the language model, with a canned
// reply when no model is configured or the call fails.
type ModelAgent struct {
	name  string
	model llm.Model // may be nil
}

// NewModelAgent creates a ModelAgent. model may be nil.
func NewModelAgent(name string, model llm.Model) *ModelAgent {
	return &ModelAgent{name: name, model: model}
}

func (a *ModelAgent) Name() string { return a.name }

// Handle answers one message. It never returns a model error: chat is
// the last fallback in the routing chain and must always produce text.
func (a *ModelAgent) Handle(ctx context.Context, req Request) (Response, error) {
	if a.model == nil {
		return Response{Text: fmt.Sprintf(
			"I'm %s. I can't chat freely right now (no model configured), but I can still manage your document drafts.",
			a.name,
		)}, nil
	}

	out, err := a.model.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf("You are %s, a concise assistant for document authoring.", a.name)},
		{Role: llm.RoleUser, Content: req.Message},
	})
	if err != nil {
		return Response{Text: "I couldn't reach the language model just now. Try again in a moment."}, nil
	}
	return Response{Text: out}, nil
}
