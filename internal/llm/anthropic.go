package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Anthropic adapts the Anthropic Messages API to the Model interface.
// Credentials come from the environment (ANTHROPIC_API_KEY), which is
// the SDK default.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropic creates a client for the named model.
func NewAnthropic(model string) *Anthropic {
	return &Anthropic{
		client:    anthropic.NewClient(),
		model:     anthropic.Model(model),
		maxTokens: 4096,
	}
}

// Complete sends the conversation and returns the concatenated text
// blocks of the response. System messages are lifted into the system
// prompt; tool-use blocks are ignored (this surface is text-only).
func (a *Anthropic) Complete(ctx context.Context, messages []Message) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
	}

	var system []string
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm: anthropic request: %w", err)
	}

	var parts []string
	for _, content := range resp.Content {
		if content.Type == "text" {
			parts = append(parts, content.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("llm: anthropic response contained no text blocks")
	}
	return strings.Join(parts, ""), nil
}
