// Package router is the single entry point for user messages. Each
// message walks an ordered, short-circuiting chain: pending
// confirmation → active document session → auto-chat context → legacy
// conversation session → routing-intent policy → plain agent chat.
//
// The router owns the shared mutable state (active session reference,
// pending-decision slot, last-document memory) and mutates it only on
// this single processing path; no locking is needed because one
// conversation's messages are processed to completion one at a time.
// Anything unexpected is caught at this boundary and returned as a
// structured error result, never thrown past the entry point.
package router

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/draftyhq/drafty/internal/agents"
	"github.com/draftyhq/drafty/internal/autochat"
	"github.com/draftyhq/drafty/internal/config"
	"github.com/draftyhq/drafty/internal/convo"
	"github.com/draftyhq/drafty/internal/docsession"
	"github.com/draftyhq/drafty/internal/llm"
	"github.com/draftyhq/drafty/internal/routing"
	"github.com/draftyhq/drafty/internal/statestore"
)

// ActiveSessionKey is the key-value slot remembering the active
// document session across restarts.
const ActiveSessionKey = "router/active_session"

// RoutedTo tells the caller which surface produced the response.
type RoutedTo string

const (
	RoutedToConversation RoutedTo = "conversation"
	RoutedToAgent        RoutedTo = "agent"
	RoutedToError        RoutedTo = "error"
)

// Request is one incoming user message with its context bundle.
type Request struct {
	Message        string
	ConversationID string
	WorkspaceRoot  string
}

// Result is the routing outcome returned to the caller.
type Result struct {
	RoutedTo       RoutedTo
	SessionID      string
	AgentName      string
	Response       string
	Error          string
	ShouldContinue bool
}

// Router sequences the per-message decision chain.
type Router struct {
	sessions *docsession.Store
	policy   *routing.Policy
	autoChat *autochat.Manager
	convos   *convo.Tracker
	registry *agents.Registry
	memory   *routing.Memory
	state    statestore.Store
	settings *config.Settings
	model    llm.Model // nil disables switch overrides and model chat
	logger   *zap.Logger

	activeSessionID string
	pending         *routing.PendingDecision

	now func() time.Time // injectable clock
}

// Deps bundles the collaborators a Router needs. All fields are
// required except Model.
type Deps struct {
	Sessions *docsession.Store
	Policy   *routing.Policy
	AutoChat *autochat.Manager
	Convos   *convo.Tracker
	Registry *agents.Registry
	Memory   *routing.Memory
	State    statestore.Store
	Settings *config.Settings
	Model    llm.Model
	Logger   *zap.Logger
}

// New creates a Router and restores the persisted active-session
// reference. A dangling reference (the session store is empty after a
// restart) is cleared lazily on the first message that consults it.
func New(d Deps) *Router {
	r := &Router{
		sessions: d.Sessions,
		policy:   d.Policy,
		autoChat: d.AutoChat,
		convos:   d.Convos,
		registry: d.Registry,
		memory:   d.Memory,
		state:    d.State,
		settings: d.Settings,
		model:    d.Model,
		logger:   d.Logger,
		now:      time.Now,
	}

	if id, found, err := d.State.Get(ActiveSessionKey); err == nil && found {
		r.activeSessionID = id
	} else if err != nil {
		d.Logger.Warn("router: reading active-session reference", zap.Error(err))
	}
	return r
}

// Route processes one message to completion. It never panics outward:
// unexpected failures become a structured error result.
func (r *Router) Route(ctx context.Context, req Request) (res *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("router: recovered from panic", zap.Any("panic", rec))
			res = &Result{
				RoutedTo: RoutedToError,
				Error:    fmt.Sprintf("internal error while routing the message: %v", rec),
				Response: "Something went wrong handling that message. Your documents are untouched — please try again.",
			}
		}
	}()

	// 1. A live pending decision consumes this message as its answer.
	if r.pending != nil {
		if r.pending.Expired(r.now()) {
			r.logger.Debug("router: pending decision expired")
			r.pending = nil
		} else {
			return r.handleConfirmation(ctx, req)
		}
	}

	// 2. An active document session continues, unless the message is a
	// switch candidate worth a second opinion.
	if r.activeSessionID != "" {
		if !r.sessions.HasSession(r.activeSessionID) {
			// Stale reference (e.g. restart): a routing miss, not an error.
			r.setActiveSession("")
		} else {
			if r.model != nil && routing.IsSwitchCandidate(req.Message, r.memory.Last() != nil) {
				if res := r.trySwitchOverride(ctx, req); res != nil {
					return res
				}
			}
			return r.continueSession(ctx, req, r.activeSessionID)
		}
	}

	// 3. A kickoff beats a document-unbound sticky agent.
	if r.autoChat.IsActive() && !r.autoChat.Current().DocumentBound() && routing.IsKickoff(req.Message) {
		r.logger.Info("router: kickoff supersedes auto-chat")
		r.autoChat.Disable()
		return r.startSession(ctx, req)
	}

	// 4. A sticky agent handles the message: through its bound
	// document, or as plain chat.
	if r.autoChat.IsActive() {
		ac := r.autoChat.Current()
		r.autoChat.UpdateActivity()
		if ac.DocumentBound() {
			sess := r.sessions.Resume(ac.DocumentPath, docsession.DocType(ac.DocType), ac.Agent)
			r.setActiveSession(sess.ID)
			return r.continueSession(ctx, req, sess.ID)
		}
		return r.agentChat(ctx, req)
	}

	// 5. A live conversation session keeps its agent; an invalidated
	// one is cleared and falls through.
	if s, ok := r.convos.Get(req.ConversationID); ok {
		if s.Agent != r.registry.Current().Name() {
			r.convos.Delete(req.ConversationID)
		} else {
			s.Messages++
			r.convos.Save(s)
			return r.agentChat(ctx, req)
		}
	}

	// 6. No session anywhere: classify the intent.
	if req.Message != "" {
		dec := r.policy.Evaluate(ctx, req.Message, r.registry.Current().Name(), r.memory.Last())
		r.logger.Debug("router: intent evaluated",
			zap.String("action", string(dec.Action)),
			zap.Float64("confidence", dec.Confidence),
			zap.String("reason", dec.Reason))
		return r.execute(ctx, req, dec, req.Message, false)
	}

	// 7. Terminal fallback.
	return r.agentChat(ctx, req)
}

// --- Confirmation gate ---

func (r *Router) handleConfirmation(ctx context.Context, req Request) *Result {
	switch routing.InterpretAnswer(req.Message) {
	case routing.AnswerYes:
		p := r.pending
		r.pending = nil
		if p.SupersededSessionID != "" {
			r.sessions.Close(p.SupersededSessionID)
			if r.activeSessionID == p.SupersededSessionID {
				r.setActiveSession("")
			}
		}
		return r.execute(ctx, req, p.Decision, p.Input, true)

	case routing.AnswerNo:
		r.pending = nil
		return &Result{
			RoutedTo:       RoutedToConversation,
			Response:       "Okay, staying where we are. Nothing was changed.",
			ShouldContinue: true,
		}

	default:
		// Unclear: re-prompt without consuming the pending decision.
		return &Result{
			RoutedTo:       RoutedToConversation,
			Response:       confirmationPrompt(r.pending.Decision),
			ShouldContinue: true,
		}
	}
}

func (r *Router) queueConfirmation(dec routing.Decision, input, supersededSessionID string) *Result {
	now := r.now()
	r.pending = &routing.PendingDecision{
		Decision:            dec,
		Input:               input,
		SupersededSessionID: supersededSessionID,
		CreatedAt:           now,
		ExpiresAt:           now.Add(time.Duration(r.settings.ConfirmationWindowMinutes) * time.Minute),
	}
	return &Result{
		RoutedTo:       RoutedToConversation,
		Response:       confirmationPrompt(dec),
		ShouldContinue: true,
	}
}

func confirmationPrompt(dec routing.Decision) string {
	what := "start a new document"
	if dec.TargetDocType != "" {
		what = fmt.Sprintf("start a new %s", dec.TargetDocType)
	}
	return fmt.Sprintf(
		"It sounds like you want to %s — that would set aside what we're working on now. Yes or no?",
		what,
	)
}

// --- Branch handlers ---

// trySwitchOverride asks the policy whether an active session should
// be displaced. A non-nil result means the override took (possibly as
// a queued confirmation); nil means continue the session normally.
func (r *Router) trySwitchOverride(ctx context.Context, req Request) *Result {
	dec := r.policy.Evaluate(ctx, req.Message, r.registry.Current().Name(), r.memory.Last())
	if dec.Action != routing.ActionStartNewDoc {
		return nil
	}

	// Displacing an open session is always disruptive enough to gate
	// unless the decision is both confident and explicit.
	if routing.NeedsConfirmation(dec, req.Message, r.memory.Last()) || dec.Confidence < 0.9 {
		return r.queueConfirmation(dec, req.Message, r.activeSessionID)
	}

	r.sessions.Close(r.activeSessionID)
	r.setActiveSession("")
	return r.startSession(ctx, req)
}

func (r *Router) continueSession(ctx context.Context, req Request, sessionID string) *Result {
	cont, err := r.sessions.Continue(ctx, sessionID, req.Message)
	if err == docsession.ErrSessionNotFound {
		r.setActiveSession("")
		return r.Route(ctx, req) // routing miss: re-enter past the session branch
	}
	if err != nil {
		return r.errorResult(err, "I couldn't update the document. The draft on disk is intact — please try again.")
	}

	r.memory.Touch(cont.DocumentPath, r.registry.Current().Name(), cont.DocType, r.now())
	if !cont.ShouldContinue {
		r.setActiveSession("")
		// Completing a session also releases an auto-chat binding to
		// its document, or step 4 would reopen it on the next message.
		if ac := r.autoChat.Current(); ac != nil && ac.DocumentPath == cont.DocumentPath {
			r.autoChat.Disable()
		}
	}

	return &Result{
		RoutedTo:       RoutedToConversation,
		SessionID:      sessionID,
		Response:       cont.Message,
		ShouldContinue: cont.ShouldContinue,
	}
}

func (r *Router) startSession(ctx context.Context, req Request) *Result {
	start, err := r.sessions.Start(ctx, req.Message, req.WorkspaceRoot, r.registry.Current().Name())
	if err != nil {
		return r.errorResult(err, "I couldn't create the document. Check that the workspace is writable and try again.")
	}

	r.setActiveSession(start.SessionID)
	r.memory.Touch(start.DocumentPath, r.registry.Current().Name(), start.DocType, r.now())

	return &Result{
		RoutedTo:       RoutedToConversation,
		SessionID:      start.SessionID,
		Response:       start.Message,
		ShouldContinue: true,
	}
}

func (r *Router) resumeLastDocument(ctx context.Context, req Request) *Result {
	last := r.memory.Last()
	if last == nil {
		// The memory vanished between classification and execution.
		return r.agentChat(ctx, req)
	}

	sess := r.sessions.Resume(last.Path, last.DocType, last.Agent)
	r.setActiveSession(sess.ID)
	return r.continueSession(ctx, req, sess.ID)
}

func (r *Router) execute(ctx context.Context, req Request, dec routing.Decision, input string, confirmed bool) *Result {
	// The original input, not the confirmation reply, drives execution.
	execReq := req
	execReq.Message = input

	switch dec.Action {
	case routing.ActionStartNewDoc:
		if !confirmed && routing.NeedsConfirmation(dec, input, r.memory.Last()) {
			return r.queueConfirmation(dec, input, "")
		}
		return r.startSession(ctx, execReq)

	case routing.ActionResumeLastDoc:
		return r.resumeLastDocument(ctx, execReq)

	default:
		// Plain chat opens a conversation session so follow-ups stay
		// with the same agent.
		if req.ConversationID != "" {
			if _, ok := r.convos.Get(req.ConversationID); !ok {
				r.convos.Save(&convo.Session{
					ID:        req.ConversationID,
					Agent:     r.registry.Current().Name(),
					StartedAt: r.now(),
					Messages:  1,
				})
			}
		}
		return r.agentChat(ctx, execReq)
	}
}

func (r *Router) agentChat(ctx context.Context, req Request) *Result {
	agent := r.registry.Current()
	resp, err := agent.Handle(ctx, agents.Request{Message: req.Message, ConversationID: req.ConversationID})
	if err != nil {
		return r.errorResult(err, "The agent couldn't answer that. Please try again.")
	}
	return &Result{
		RoutedTo:       RoutedToAgent,
		AgentName:      agent.Name(),
		Response:       resp.Text,
		ShouldContinue: true,
	}
}

// --- State helpers ---

func (r *Router) setActiveSession(id string) {
	r.activeSessionID = id

	var err error
	if id == "" {
		err = r.state.Delete(ActiveSessionKey)
	} else {
		err = r.state.Set(ActiveSessionKey, id)
	}
	if err != nil {
		r.logger.Warn("router: persisting active-session reference", zap.Error(err))
	}
}

func (r *Router) errorResult(err error, userMessage string) *Result {
	r.logger.Error("router: branch failed", zap.Error(err))
	return &Result{
		RoutedTo: RoutedToError,
		Error:    err.Error(),
		Response: userMessage,
	}
}

// --- Inspection (used by the status tool) ---

// Status is a snapshot of the router's routing state.
type Status struct {
	ActiveSession   *docsession.Session
	AutoChat        *autochat.Context
	PendingDecision *routing.PendingDecision
	LastDocument    *routing.LastDocument
}

// Snapshot returns the current routing state for inspection.
func (r *Router) Snapshot() Status {
	var sess *docsession.Session
	if r.activeSessionID != "" {
		if s, ok := r.sessions.Get(r.activeSessionID); ok {
			sess = s
		}
	}

	var pending *routing.PendingDecision
	if r.pending != nil && !r.pending.Expired(r.now()) {
		pending = r.pending
	}

	return Status{
		ActiveSession:   sess,
		AutoChat:        r.autoChat.Current(),
		PendingDecision: pending,
		LastDocument:    r.memory.Last(),
	}
}

// EnableAutoChat binds the conversation to the current agent,
// optionally against one document.
func (r *Router) EnableAutoChat(documentPath string, docType docsession.DocType, conversationID string) {
	r.autoChat.Enable(r.registry.Current().Name(), documentPath, string(docType), conversationID)
}

// DisableAutoChat clears the sticky-agent binding.
func (r *Router) DisableAutoChat() {
	r.autoChat.Disable()
}
