// Package llm defines the model-invocation collaborator used for
// intent classification, drafting, and refinement.
//
// Call sites must treat every invocation as fallible and degrade to a
// deterministic fallback: a model failure is never surfaced to the
// user as an error, and never loses session state.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Role tags one message in a conversation sent to the model.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of model input.
type Message struct {
	Role    Role
	Content string
}

// Model is the minimal completion contract the router depends on.
// Implementations must honor ctx cancellation.
type Model interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ─── Scripted fake ───────────────────────────────────────────────────────────

// Scripted replays canned responses in order. Tests use it to drive
// classification and drafting without a network. Once the script is
// exhausted it returns Err if set, otherwise the last response again.
type Scripted struct {
	Responses []string
	Err       error

	Calls [][]Message // every Complete invocation, for assertions
	next  int
}

func (s *Scripted) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.Calls = append(s.Calls, messages)

	if s.next >= len(s.Responses) {
		if s.Err != nil {
			return "", s.Err
		}
		if len(s.Responses) == 0 {
			return "", fmt.Errorf("llm: scripted model has no responses")
		}
		return s.Responses[len(s.Responses)-1], nil
	}

	resp := s.Responses[s.next]
	s.next++
	return resp, nil
}

// LastUserContent returns the user content of the most recent call,
// joined with newlines. Helper for test assertions.
func (s *Scripted) LastUserContent() string {
	if len(s.Calls) == 0 {
		return ""
	}
	var parts []string
	for _, m := range s.Calls[len(s.Calls)-1] {
		if m.Role == RoleUser {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}
