package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/draftyhq/drafty/internal/router"
)

// StatusTool handles the draft_session_status MCP tool.
// It reports the router's current state: the active document session,
// the auto-chat binding, any pending confirmation, and the last
// document touched.
type StatusTool struct {
	router *router.Router
}

// NewStatusTool creates a StatusTool backed by the given router.
func NewStatusTool(r *router.Router) *StatusTool {
	return &StatusTool{router: r}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("draft_session_status",
		mcp.WithDescription(
			"Show the current drafting state: the active document session (if any), "+
				"the auto-chat agent binding, any decision waiting for confirmation, "+
				"and the most recently touched document.",
		),
	)
}

// Handle processes the draft_session_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := t.router.Snapshot()

	var b strings.Builder
	b.WriteString("# Drafting Status\n\n")

	b.WriteString("## Active Session\n\n")
	if snap.ActiveSession != nil {
		s := snap.ActiveSession
		fmt.Fprintf(&b,
			"**Title:** %s\n**Type:** %s\n**Document:** `%s`\n**Turns:** %d\n**Started:** %s\n\n",
			s.Title, s.DocType, s.DocumentPath, s.Turns, s.CreatedAt.Format("2006-01-02 15:04"),
		)
	} else {
		b.WriteString("None — the next message is routed by intent.\n\n")
	}

	b.WriteString("## Auto-Chat\n\n")
	if ac := snap.AutoChat; ac != nil {
		fmt.Fprintf(&b, "**Agent:** %s\n", ac.Agent)
		if ac.DocumentBound() {
			fmt.Fprintf(&b, "**Bound document:** `%s` (%s)\n", ac.DocumentPath, ac.DocType)
		} else {
			b.WriteString("**Bound document:** none (plain agent chat)\n")
		}
		fmt.Fprintf(&b, "**Messages:** %d\n**Last activity:** %s\n\n",
			ac.MessageCount, ac.LastActivity.Format("2006-01-02 15:04"))
	} else {
		b.WriteString("Off.\n\n")
	}

	if p := snap.PendingDecision; p != nil {
		b.WriteString("## Pending Confirmation\n\n")
		fmt.Fprintf(&b, "**Proposed:** %s\n**Reason:** %s\n**Expires:** %s\n\n",
			p.Decision.Action, p.Decision.Reason, p.ExpiresAt.Format("15:04:05"))
	}

	b.WriteString("## Last Document\n\n")
	if last := snap.LastDocument; last != nil {
		fmt.Fprintf(&b, "`%s` (%s), last touched %s\n",
			last.Path, last.DocType, last.LastActivity.Format("2006-01-02 15:04"))
	} else {
		b.WriteString("None yet.\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}
