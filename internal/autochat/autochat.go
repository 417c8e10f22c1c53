// Package autochat manages the sticky-agent context: a persisted
// binding of a conversation to one agent (and optionally one document)
// that holds until it is disabled or times out from inactivity.
//
// Expiry is lazy: IsActive compares the last activity against the
// configured timeout at read time and clears the context as a side
// effect when it has gone stale. All state changes are written through
// the key-value store so the binding survives restarts; persistence
// failures are logged and swallowed, never surfaced to the caller.
package autochat

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/draftyhq/drafty/internal/config"
	"github.com/draftyhq/drafty/internal/statestore"
)

// StateKey is the key-value slot holding the serialized context.
const StateKey = "autochat/context"

// Context is the persisted sticky-agent record.
type Context struct {
	Agent          string    `json:"agent"`
	DocumentPath   string    `json:"document_path,omitempty"`
	DocType        string    `json:"doc_type,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	EnabledAt      time.Time `json:"enabled_at"`
	LastActivity   time.Time `json:"last_activity"`
	MessageCount   int       `json:"message_count"`
}

// DocumentBound reports whether the context is tied to one document.
func (c *Context) DocumentBound() bool {
	return c != nil && c.DocumentPath != ""
}

// Manager owns the single auto-chat context for a process.
type Manager struct {
	store    statestore.Store
	settings *config.Settings
	logger   *zap.Logger

	now func() time.Time // injectable clock for expiry tests

	current *Context
}

// NewManager creates a Manager and restores any persisted context.
// A corrupt or unreadable persisted record is discarded with a log
// line rather than failing construction.
func NewManager(store statestore.Store, settings *config.Settings, logger *zap.Logger) *Manager {
	m := &Manager{
		store:    store,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}

	raw, found, err := store.Get(StateKey)
	if err != nil {
		logger.Warn("autochat: reading persisted context", zap.Error(err))
		return m
	}
	if !found {
		return m
	}

	var ctx Context
	if err := json.Unmarshal([]byte(raw), &ctx); err != nil {
		logger.Warn("autochat: discarding corrupt persisted context", zap.Error(err))
		return m
	}
	m.current = &ctx
	return m
}

// Enable binds the conversation to an agent. When the auto-chat
// feature flag is off this is a logged no-op.
func (m *Manager) Enable(agent, documentPath, docType, conversationID string) {
	if !m.settings.AutoChatEnabled {
		m.logger.Info("autochat: enable requested but feature is disabled", zap.String("agent", agent))
		return
	}

	now := m.now()
	m.current = &Context{
		Agent:          agent,
		DocumentPath:   documentPath,
		DocType:        docType,
		ConversationID: conversationID,
		EnabledAt:      now,
		LastActivity:   now,
		MessageCount:   0,
	}
	m.persist()
}

// Disable clears the context.
func (m *Manager) Disable() {
	m.current = nil
	if err := m.store.Delete(StateKey); err != nil {
		m.logger.Warn("autochat: clearing persisted context", zap.Error(err))
	}
}

// IsActive reports whether a non-expired context exists. An expired
// context is cleared as a side effect.
func (m *Manager) IsActive() bool {
	if m.current == nil {
		return false
	}

	timeout := time.Duration(m.settings.AutoChatTimeoutMinutes) * time.Minute
	if m.now().Sub(m.current.LastActivity) > timeout {
		m.logger.Debug("autochat: context expired",
			zap.String("agent", m.current.Agent),
			zap.Time("last_activity", m.current.LastActivity))
		m.Disable()
		return false
	}
	return true
}

// Current returns the active context, or nil if none (or expired).
func (m *Manager) Current() *Context {
	if !m.IsActive() {
		return nil
	}
	return m.current
}

// UpdateActivity bumps the activity timestamp and message count on the
// active context and persists the new state.
func (m *Manager) UpdateActivity() {
	if !m.IsActive() {
		return
	}
	m.current.LastActivity = m.now()
	m.current.MessageCount++
	m.persist()
}

func (m *Manager) persist() {
	data, err := json.Marshal(m.current)
	if err != nil {
		m.logger.Warn("autochat: encoding context", zap.Error(err))
		return
	}
	if err := m.store.Set(StateKey, string(data)); err != nil {
		m.logger.Warn("autochat: persisting context", zap.Error(err))
	}
}
