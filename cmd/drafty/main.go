// Drafty: document-session routing MCP server
//
// An MCP server that turns multi-turn conversations into structured
// markdown documents: product briefs, requirements, designs,
// specifications, and exploratory brainstorms. Messages are routed by
// intent — kickoffs open drafting sessions, revisions reopen past
// documents, everything else is plain conversation.
//
// Usage:
//
//	drafty serve    # Start MCP server (stdio transport)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	draftyserver "github.com/draftyhq/drafty/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("drafty v%s\n", draftyserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := draftyserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Drafty v%s — document-session routing MCP server

Usage:
  drafty serve    Start the MCP server (stdio transport)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "drafty": {
        "command": "drafty",
        "args": ["serve"]
      }
    }
  }

Settings live in .drafty/config.json under the workspace root; a
missing file means defaults. Set ANTHROPIC_API_KEY to enable
model-assisted routing, drafting, and refinement — without it the
server still runs on deterministic heuristics.
`, draftyserver.Version)
}
