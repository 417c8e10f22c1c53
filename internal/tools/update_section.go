package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/draftyhq/drafty/internal/docsession"
	"github.com/draftyhq/drafty/internal/sections"
)

// UpdateSectionTool handles the draft_update_section MCP tool.
// It applies a targeted edit to one markdown document on disk,
// scoped to a named section, without going through a model turn.
type UpdateSectionTool struct {
	sessions *docsession.Store
}

// NewUpdateSectionTool creates an UpdateSectionTool backed by the
// given session store.
func NewUpdateSectionTool(sessions *docsession.Store) *UpdateSectionTool {
	return &UpdateSectionTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateSectionTool) Definition() mcp.Tool {
	return mcp.NewTool("draft_update_section",
		mcp.WithDescription(
			"Apply a targeted edit to one section of a markdown document. "+
				"The section spans from its header to the next header of equal or "+
				"shallower depth. A section that doesn't exist yet is appended at "+
				"the end of the document.",
		),
		mcp.WithString("document_path",
			mcp.Required(),
			mcp.Description("Absolute path of the document to edit."),
		),
		mcp.WithString("section",
			mcp.Required(),
			mcp.Description("Section name to target, matched case-insensitively against headers."),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The content to write into the section."),
		),
		mcp.WithString("mode",
			mcp.Description("How to apply the content. Defaults to 'replace'."),
			mcp.DefaultString("replace"),
			mcp.Enum("replace", "append", "prepend", "insert-at-offset"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Character offset into the document. Required for 'insert-at-offset', ignored otherwise."),
		),
	)
}

// Handle processes the draft_update_section tool call.
func (t *UpdateSectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("document_path", "")
	section := req.GetString("section", "")
	content := req.GetString("content", "")
	mode := sections.Mode(req.GetString("mode", string(sections.ModeReplace)))

	if path == "" {
		return mcp.NewToolResultError("'document_path' is required"), nil
	}
	if section == "" && mode != sections.ModeInsertAtOffset {
		return mcp.NewToolResultError("'section' is required"), nil
	}
	if err := sections.ValidateMode(mode); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	update := sections.UpdateRequest{
		Section: section,
		Content: content,
		Mode:    mode,
	}
	if mode == sections.ModeInsertAtOffset {
		offset := int(req.GetFloat("offset", -1))
		if offset < 0 {
			return mcp.NewToolResultError("'offset' is required for insert-at-offset"), nil
		}
		update.Offset = &offset
	}

	if err := t.sessions.ApplyUpdate(path, update); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Updating `%s` failed: %v", path, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Updated `%s` (%s on %q).", path, mode, section,
	)), nil
}
