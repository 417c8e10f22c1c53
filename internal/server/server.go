// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the router and tools that depend on abstractions.
// No business logic lives here — only wiring.
package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/draftyhq/drafty/internal/agents"
	"github.com/draftyhq/drafty/internal/autochat"
	"github.com/draftyhq/drafty/internal/config"
	"github.com/draftyhq/drafty/internal/convo"
	"github.com/draftyhq/drafty/internal/docsession"
	"github.com/draftyhq/drafty/internal/llm"
	"github.com/draftyhq/drafty/internal/router"
	"github.com/draftyhq/drafty/internal/routing"
	"github.com/draftyhq/drafty/internal/statestore"
	"github.com/draftyhq/drafty/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// defaultAgentName identifies the built-in conversational agent.
const defaultAgentName = "assistant"

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the state store's database
// connection and flushes the logger; it must be called on shutdown
// (typically via defer). It is always non-nil and safe to call.
func New() (*server.MCPServer, func(), error) {
	root, err := findWorkspaceRoot()
	if err != nil {
		return nil, noop, fmt.Errorf("resolving workspace root: %w", err)
	}

	// MCP speaks on stdout, so all logging goes to stderr.
	logger, err := newLogger()
	if err != nil {
		return nil, noop, fmt.Errorf("creating logger: %w", err)
	}

	settings, err := config.NewFileStore().Load(root)
	if err != nil {
		return nil, noop, fmt.Errorf("loading settings: %w", err)
	}

	state, err := statestore.Open(config.DraftyPath(root))
	if err != nil {
		return nil, noop, fmt.Errorf("opening state store: %w", err)
	}

	cleanup := func() {
		if err := state.Close(); err != nil {
			logger.Warn("closing state store", zap.Error(err))
		}
		_ = logger.Sync()
	}

	// Without credentials the server still runs: routing falls back to
	// heuristics and sessions to deterministic skeletons.
	var model llm.Model
	if os.Getenv("ANTHROPIC_API_KEY") != "" && settings.Model != "" {
		model = llm.NewAnthropic(settings.Model)
	} else {
		logger.Warn("no model configured, running with heuristics only")
	}

	sessions := docsession.NewStore(model, settings, logger)
	registry := agents.NewRegistry(agents.NewModelAgent(defaultAgentName, model))

	rt := router.New(router.Deps{
		Sessions: sessions,
		Policy:   routing.NewPolicy(model, logger),
		AutoChat: autochat.NewManager(state, settings, logger),
		Convos:   convo.NewTracker(time.Duration(settings.AutoChatTimeoutMinutes) * time.Minute),
		Registry: registry,
		Memory:   routing.NewMemory(state, logger),
		State:    state,
		Settings: settings,
		Model:    model,
		Logger:   logger,
	})

	s := server.NewMCPServer(
		"drafty",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	chatTool := tools.NewChatTool(rt)
	s.AddTool(chatTool.Definition(), chatTool.Handle)

	statusTool := tools.NewStatusTool(rt)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	updateTool := tools.NewUpdateSectionTool(sessions)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	enableTool := tools.NewAutoChatEnableTool(rt)
	s.AddTool(enableTool.Definition(), enableTool.Handle)

	disableTool := tools.NewAutoChatDisableTool(rt)
	s.AddTool(disableTool.Definition(), disableTool.Handle)

	logger.Info("server wired",
		zap.String("workspace", root),
		zap.Bool("model", model != nil))

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default before the
// state store has been opened.
func noop() {}

// newLogger builds a production logger that writes to stderr only.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// findWorkspaceRoot walks up from the current working directory
// looking for an existing .drafty/ directory; cwd when none is found.
func findWorkspaceRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	current := dir
	for {
		if info, err := os.Stat(filepath.Join(current, config.Dir)); err == nil && info.IsDir() {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir, nil
		}
		current = parent
	}
}

// serverInstructions returns the system instructions that tell the AI
// how to use drafty effectively.
func serverInstructions() string {
	return `You have access to drafty, a document-session routing server for
structured authoring (product briefs, requirements, designs, specifications,
and exploratory brainstorms).

## How to use drafty

Send EVERY user message through draft_chat, verbatim. Routing is automatic:

- A message that reads like a project kickoff starts a new draft. The server
  classifies the document type, writes an initial skeleton to disk, and asks
  the first refinement question.
- While a session is open, each message refines the document on disk and the
  response is the next question to ask the user.
- Completion phrases ("done", "that's it", "looks good") close the session
  and report where the document was saved.
- A revision request ("fix the intro in the doc") after a session has closed
  reopens the most recent document instead of creating a new one.
- When the server is unsure whether to abandon current work for a new
  document, it asks a yes/no question. Relay it to the user and send their
  answer through draft_chat as usual.
- Anything without document intent is answered as plain conversation.

## Other tools

- draft_session_status: inspect the active session, auto-chat binding,
  pending confirmation, and last document. Use it when the user asks "what
  are we working on?" or when you need to recover context.
- draft_update_section: apply a targeted edit to one named section of a
  document on disk without a model turn. Modes: replace, append, prepend,
  insert-at-offset. Use it for precise, user-dictated edits.
- draft_autochat_enable / draft_autochat_disable: pin the conversation to
  the current agent, optionally bound to one document so every message
  becomes a revision of it. The binding expires after inactivity.

## Important

- Do not paraphrase user messages before sending them — the routing
  heuristics work on the user's own words.
- Pass a stable conversation_id when you have one, so follow-up chat
  messages stick to the same agent.
- Documents live under docs/ in the workspace (docs/prd/, docs/requirements/,
  docs/design/, docs/spec/, docs/ideas/). They are plain markdown — the user
  can edit them by hand between turns.`
}
