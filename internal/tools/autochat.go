package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/draftyhq/drafty/internal/docsession"
	"github.com/draftyhq/drafty/internal/router"
)

// AutoChatEnableTool handles the draft_autochat_enable MCP tool.
// It pins the conversation to the current agent, optionally bound to
// one document, until the user disables it or the context expires
// from inactivity.
type AutoChatEnableTool struct {
	router *router.Router
}

// NewAutoChatEnableTool creates an AutoChatEnableTool backed by the
// given router.
func NewAutoChatEnableTool(r *router.Router) *AutoChatEnableTool {
	return &AutoChatEnableTool{router: r}
}

// Definition returns the MCP tool definition for registration.
func (t *AutoChatEnableTool) Definition() mcp.Tool {
	return mcp.NewTool("draft_autochat_enable",
		mcp.WithDescription(
			"Pin the conversation to the current agent so every message goes straight "+
				"to it, bypassing intent routing. Optionally bind to one document so "+
				"messages become revisions of that document. Expires after a period "+
				"of inactivity.",
		),
		mcp.WithString("document_path",
			mcp.Description("Absolute path of a document to bind to. If omitted, messages are plain agent chat."),
		),
		mcp.WithString("doc_type",
			mcp.Description("Document type, required when document_path is set."),
			mcp.Enum("product-brief", "requirements", "design", "specification", "exploratory-brainstorm"),
		),
		mcp.WithString("conversation_id",
			mcp.Description("Stable identifier for the surrounding conversation."),
		),
	)
}

// Handle processes the draft_autochat_enable tool call.
func (t *AutoChatEnableTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docPath := req.GetString("document_path", "")
	docType := docsession.DocType(req.GetString("doc_type", ""))

	if docPath != "" {
		if docType == "" {
			return mcp.NewToolResultError("'doc_type' is required when 'document_path' is set"), nil
		}
		if err := docsession.ValidateDocType(docType); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	t.router.EnableAutoChat(docPath, docType, req.GetString("conversation_id", ""))

	if docPath != "" {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Auto-chat enabled and bound to `%s`. Messages now revise that document directly. "+
				"Use draft_autochat_disable to release it.", docPath,
		)), nil
	}
	return mcp.NewToolResultText(
		"Auto-chat enabled. Messages now go straight to the current agent. " +
			"Use draft_autochat_disable to return to intent routing.",
	), nil
}

// AutoChatDisableTool handles the draft_autochat_disable MCP tool.
type AutoChatDisableTool struct {
	router *router.Router
}

// NewAutoChatDisableTool creates an AutoChatDisableTool backed by the
// given router.
func NewAutoChatDisableTool(r *router.Router) *AutoChatDisableTool {
	return &AutoChatDisableTool{router: r}
}

// Definition returns the MCP tool definition for registration.
func (t *AutoChatDisableTool) Definition() mcp.Tool {
	return mcp.NewTool("draft_autochat_disable",
		mcp.WithDescription("Release the auto-chat binding and return to intent routing."),
	)
}

// Handle processes the draft_autochat_disable tool call.
func (t *AutoChatDisableTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.router.DisableAutoChat()
	return mcp.NewToolResultText("Auto-chat disabled. Messages are routed by intent again."), nil
}
