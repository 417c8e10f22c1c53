// Package routing decides what to do with a free-text message that
// arrives without an open document session: start a new document,
// resume the last one, or fall through to plain agent chat.
//
// The decision path is an ordered cascade of pure heuristic rules with
// a model-assisted classifier as one strategy among them; any model
// parse failure drops back to the heuristics at lower confidence.
// Disruptive low-confidence decisions are queued behind a yes/no
// confirmation gate rather than executed directly.
//
// Known limitation: the phrase vocabularies below are fixed English
// word lists. They are declared package-level so the whole matching
// surface is visible in one place.
package routing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/draftyhq/drafty/internal/docsession"
	"github.com/draftyhq/drafty/internal/statestore"
)

// --- Actions ---

// Action is the classified destination for an ambiguous message.
type Action string

const (
	ActionStartNewDoc   Action = "start_new_doc"
	ActionResumeLastDoc Action = "resume_last_doc"
	ActionRouteToAgent  Action = "route_to_agent"
)

// validActions is the set of allowed actions.
var validActions = map[Action]bool{
	ActionStartNewDoc:   true,
	ActionResumeLastDoc: true,
	ActionRouteToAgent:  true,
}

// ValidateAction returns an error if the action is not recognized.
func ValidateAction(a Action) error {
	if !validActions[a] {
		return fmt.Errorf("invalid routing action %q: must be one of: start_new_doc, resume_last_doc, route_to_agent", a)
	}
	return nil
}

// --- Decisions ---

// Decision is one classified routing intent.
type Decision struct {
	Action               Action              `json:"action"`
	Confidence           float64             `json:"confidence"`
	Reason               string              `json:"reason"`
	RequiresConfirmation bool                `json:"requiresConfirmation"`
	TargetDocType        docsession.DocType  `json:"targetDocType,omitempty"`
	TargetAgent          string              `json:"targetAgent,omitempty"`
}

// --- Last-document memory ---

// LastDocument is the sticky memory of the most recently touched
// document, independent of session liveness. It lets "fix the intro"
// resume a document whose session already completed.
type LastDocument struct {
	Path         string             `json:"path"`
	Agent        string             `json:"agent"`
	DocType      docsession.DocType `json:"doc_type"`
	LastActivity time.Time          `json:"last_activity"`
}

// LastDocumentKey is the key-value slot for the persisted memory.
const LastDocumentKey = "router/last_document"

// Memory persists the last-document record through the key-value
// store. Write failures are logged and swallowed: losing the memory
// must never fail the routing outcome that produced it.
type Memory struct {
	store  statestore.Store
	logger *zap.Logger

	last *LastDocument
}

// NewMemory restores any persisted last-document record.
func NewMemory(store statestore.Store, logger *zap.Logger) *Memory {
	m := &Memory{store: store, logger: logger}

	raw, found, err := store.Get(LastDocumentKey)
	if err != nil {
		logger.Warn("routing: reading last-document memory", zap.Error(err))
		return m
	}
	if !found {
		return m
	}

	var last LastDocument
	if err := json.Unmarshal([]byte(raw), &last); err != nil {
		logger.Warn("routing: discarding corrupt last-document memory", zap.Error(err))
		return m
	}
	m.last = &last
	return m
}

// Last returns the remembered document, or nil.
func (m *Memory) Last() *LastDocument {
	return m.last
}

// Touch overwrites the memory with the document a session just
// produced or edited.
func (m *Memory) Touch(path, agent string, docType docsession.DocType, now time.Time) {
	m.last = &LastDocument{Path: path, Agent: agent, DocType: docType, LastActivity: now}

	data, err := json.Marshal(m.last)
	if err != nil {
		m.logger.Warn("routing: encoding last-document memory", zap.Error(err))
		return
	}
	if err := m.store.Set(LastDocumentKey, string(data)); err != nil {
		m.logger.Warn("routing: persisting last-document memory", zap.Error(err))
	}
}

// Clear drops the memory.
func (m *Memory) Clear() {
	m.last = nil
	if err := m.store.Delete(LastDocumentKey); err != nil {
		m.logger.Warn("routing: clearing last-document memory", zap.Error(err))
	}
}

// --- Utility shared by heuristics and policy ---

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if containsTerm(s, t) {
			return true
		}
	}
	return false
}

// containsTerm reports whether term occurs in s on word boundaries, so
// "use" does not fire inside "because" and "new" inside "renew".
// Multi-word terms match as long as their outer edges land on
// boundaries.
func containsTerm(s, term string) bool {
	for start := 0; start+len(term) <= len(s); {
		idx := strings.Index(s[start:], term)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(term)
		if (idx == 0 || !isWordChar(s[idx-1])) && (end == len(s) || !isWordChar(s[end])) {
			return true
		}
		start = idx + 1
	}
	return false
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
