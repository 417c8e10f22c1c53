package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/draftyhq/drafty/internal/agents"
	"github.com/draftyhq/drafty/internal/autochat"
	"github.com/draftyhq/drafty/internal/config"
	"github.com/draftyhq/drafty/internal/convo"
	"github.com/draftyhq/drafty/internal/docsession"
	"github.com/draftyhq/drafty/internal/router"
	"github.com/draftyhq/drafty/internal/routing"
	"github.com/draftyhq/drafty/internal/statestore"
)

// --- Test helpers ---

// setupTestWorkspace creates a temp workspace with a .drafty/ marker
// and changes cwd to it so findWorkspaceRoot resolves there.
func setupTestWorkspace(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, config.Dir), 0o755); err != nil {
		t.Fatalf("setup: create workspace marker: %v", err)
	}

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("setup: getwd: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("setup: chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	return tmpDir
}

// newTestRouter builds a router over in-memory state with no model.
func newTestRouter(t *testing.T) (*router.Router, *docsession.Store) {
	t.Helper()

	state := statestore.NewMemory()
	settings := config.Defaults()
	logger := zap.NewNop()
	sessions := docsession.NewStore(nil, settings, logger)

	r := router.New(router.Deps{
		Sessions: sessions,
		Policy:   routing.NewPolicy(nil, logger),
		AutoChat: autochat.NewManager(state, settings, logger),
		Convos:   convo.NewTracker(time.Hour),
		Registry: agents.NewRegistry(agents.NewModelAgent("writer", nil)),
		Memory:   routing.NewMemory(state, logger),
		State:    state,
		Settings: settings,
		Logger:   logger,
	})
	return r, sessions
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- ChatTool ---

func TestChatTool_Handle_KickoffStartsDraft(t *testing.T) {
	tmpDir := setupTestWorkspace(t)
	r, _ := newTestRouter(t)
	tool := NewChatTool(r)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"message": "We are building a recipe planner for busy families",
	}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	text := getResultText(result)
	if !strings.Contains(text, "Started a product-brief draft") {
		t.Errorf("result should announce the new draft, got: %s", text)
	}

	// The document lands under the workspace's docs tree.
	entries, err := os.ReadDir(filepath.Join(tmpDir, "docs", "prd"))
	if err != nil || len(entries) == 0 {
		t.Fatalf("expected a document under docs/prd, err=%v", err)
	}
}

func TestChatTool_Handle_MissingMessage(t *testing.T) {
	setupTestWorkspace(t)
	r, _ := newTestRouter(t)
	tool := NewChatTool(r)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result for a missing message")
	}
}

// --- UpdateSectionTool ---

func TestUpdateSectionTool_Handle_ReplacesSection(t *testing.T) {
	tmpDir := setupTestWorkspace(t)
	_, sessions := newTestRouter(t)
	tool := NewUpdateSectionTool(sessions)

	docPath := filepath.Join(tmpDir, "docs", "design", "cache.md")
	doc := "# Cache Design\n\n## Overview\n\nOld overview.\n\n## Risks\n\nNone known.\n"
	if err := os.MkdirAll(filepath.Dir(docPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(docPath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"document_path": docPath,
		"section":       "Overview",
		"content":       "A write-through cache in front of the store.",
	}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	data, err := os.ReadFile(docPath)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.Contains(got, "A write-through cache in front of the store.") {
		t.Error("new content should be in the document")
	}
	if strings.Contains(got, "Old overview.") {
		t.Error("replaced content should be gone")
	}
	if !strings.Contains(got, "None known.") {
		t.Error("untargeted sections must be untouched")
	}
}

func TestUpdateSectionTool_Handle_RejectsBadMode(t *testing.T) {
	setupTestWorkspace(t)
	_, sessions := newTestRouter(t)
	tool := NewUpdateSectionTool(sessions)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"document_path": "/tmp/x.md",
		"section":       "Overview",
		"content":       "x",
		"mode":          "overwrite",
	}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result for an unknown mode")
	}
}

func TestUpdateSectionTool_Handle_OffsetRequiresOffset(t *testing.T) {
	setupTestWorkspace(t)
	_, sessions := newTestRouter(t)
	tool := NewUpdateSectionTool(sessions)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"document_path": "/tmp/x.md",
		"content":       "x",
		"mode":          "insert-at-offset",
	}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result when offset is missing")
	}
}

// --- Auto-chat tools ---

func TestAutoChatTools_EnableAndDisable(t *testing.T) {
	setupTestWorkspace(t)
	r, _ := newTestRouter(t)

	enable := NewAutoChatEnableTool(r)
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"conversation_id": "c1",
	}

	result, err := enable.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if r.Snapshot().AutoChat == nil {
		t.Fatal("auto-chat context should be set after enable")
	}

	disable := NewAutoChatDisableTool(r)
	result, err = disable.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if r.Snapshot().AutoChat != nil {
		t.Fatal("auto-chat context should be cleared after disable")
	}
}

func TestAutoChatEnableTool_BoundPathNeedsType(t *testing.T) {
	setupTestWorkspace(t)
	r, _ := newTestRouter(t)
	tool := NewAutoChatEnableTool(r)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"document_path": "/tmp/docs/design/cache.md",
	}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result when doc_type is missing")
	}
}

// --- StatusTool ---

func TestStatusTool_Handle_ReportsIdleState(t *testing.T) {
	setupTestWorkspace(t)
	r, _ := newTestRouter(t)
	tool := NewStatusTool(r)

	result, err := tool.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	text := getResultText(result)
	if !strings.Contains(text, "Drafting Status") {
		t.Errorf("unexpected status output: %s", text)
	}
	if !strings.Contains(text, "None — the next message is routed by intent.") {
		t.Error("idle state should report no active session")
	}
}
