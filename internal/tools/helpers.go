// Package tools implements the MCP tool handlers exposed by the
// drafty server.
//
// Each tool is a struct that receives its dependencies via the
// constructor (DIP) and exposes a Definition for registration plus a
// Handle compatible with mcp-go's CallToolRequest signature.
//
// Design principles:
// - SRP: each file = one tool (or one tightly coupled pair)
// - DIP: tools depend on the router and session store, not on each other
// - OCP: new tools are added without modifying existing ones
package tools

import (
	"fmt"
	"os"
	"path/filepath"
)

// findWorkspaceRoot walks up from the current working directory
// looking for an existing .drafty/ directory. If none is found,
// returns cwd. This allows tools to work from any subdirectory of the
// workspace.
func findWorkspaceRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	current := dir
	for {
		candidate := filepath.Join(current, ".drafty")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root, no workspace marker found.
			// Return original cwd — the caller decides what to do.
			return dir, nil
		}
		current = parent
	}
}
