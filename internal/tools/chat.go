package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/draftyhq/drafty/internal/router"
)

// ChatTool handles the draft_chat MCP tool: the single entry point
// for every user message. The router decides whether the message
// continues a document session, resumes a past document, starts a new
// one, or falls through to plain agent chat.
type ChatTool struct {
	router *router.Router
}

// NewChatTool creates a ChatTool backed by the given router.
func NewChatTool(r *router.Router) *ChatTool {
	return &ChatTool{router: r}
}

// Definition returns the MCP tool definition for registration.
func (t *ChatTool) Definition() mcp.Tool {
	return mcp.NewTool("draft_chat",
		mcp.WithDescription(
			"Send a user message through the drafting router. The router decides "+
				"whether the message continues an open document session, resumes the "+
				"last document, starts a new draft, or goes to the conversational agent. "+
				"Always send raw user text — the routing is automatic.",
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user's message, verbatim."),
		),
		mcp.WithString("conversation_id",
			mcp.Description("Stable identifier for the surrounding conversation. Lets follow-ups stick to the same agent."),
		),
		mcp.WithString("workspace_root",
			mcp.Description("Workspace root for document paths. If omitted, resolved by walking up from the working directory."),
		),
	)
}

// Handle processes the draft_chat tool call.
func (t *ChatTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := req.GetString("message", "")
	if message == "" {
		return mcp.NewToolResultError("'message' is required"), nil
	}

	root := req.GetString("workspace_root", "")
	if root == "" {
		var err error
		root, err = findWorkspaceRoot()
		if err != nil {
			return nil, fmt.Errorf("finding workspace root: %w", err)
		}
	}

	res := t.router.Route(ctx, router.Request{
		Message:        message,
		ConversationID: req.GetString("conversation_id", ""),
		WorkspaceRoot:  root,
	})

	if res.RoutedTo == router.RoutedToError {
		return mcp.NewToolResultError(res.Response), nil
	}
	return mcp.NewToolResultText(res.Response), nil
}
