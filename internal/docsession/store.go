package docsession

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftyhq/drafty/internal/config"
	"github.com/draftyhq/drafty/internal/llm"
	"github.com/draftyhq/drafty/internal/sections"
)

// ErrSessionNotFound marks a continuation against an unknown or
// already-completed session. The router treats it as a routing miss,
// not a failure.
var ErrSessionNotFound = errors.New("docsession: session not found")

// TruncationMarker is appended when a document is cut to the model
// context budget.
const TruncationMarker = "\n\n[... truncated for length ...]"

// Store is the session registry and lifecycle manager. It is owned by
// the router and mutated only on the single message-processing path,
// so it carries no locking.
type Store struct {
	sessions map[string]*Session
	model    llm.Model // nil means heuristic-only operation
	logger   *zap.Logger

	charBudget int

	now   func() time.Time // injectable clock
	newID func() string    // injectable id source
}

// NewStore creates an empty session store. model may be nil; every
// model-dependent step then degrades to its deterministic fallback.
func NewStore(model llm.Model, settings *config.Settings, logger *zap.Logger) *Store {
	return &Store{
		sessions:   make(map[string]*Session),
		model:      model,
		logger:     logger,
		charBudget: settings.DocumentCharBudget,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// --- Results ---

// StartResult is returned by Start.
type StartResult struct {
	SessionID    string
	DocumentPath string
	DocType      DocType
	Title        string
	Message      string
}

// ContinueResult is returned by Continue.
type ContinueResult struct {
	Message        string
	ShouldContinue bool
	DocumentPath   string
	DocType        DocType
}

// --- Lifecycle ---

// Start classifies the kickoff input, drafts the initial document,
// persists it under root, and opens a session. Model failures at any
// step degrade deterministically; Start only errors when the document
// cannot be written.
func (s *Store) Start(ctx context.Context, input, root, agent string) (*StartResult, error) {
	docType, title := s.classify(ctx, input)

	path, err := s.allocatePath(root, docType, title)
	if err != nil {
		return nil, err
	}

	draft := s.draft(ctx, docType, title, input)
	if err := writeDocument(path, draft); err != nil {
		return nil, fmt.Errorf("writing initial draft: %w", err)
	}

	question := s.firstQuestion(ctx, docType, draft)

	now := s.now()
	sess := &Session{
		ID:           s.newID(),
		DocType:      docType,
		Agent:        agent,
		DocumentPath: path,
		Title:        title,
		Turns:        0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.sessions[sess.ID] = sess

	s.logger.Info("docsession: started",
		zap.String("session_id", sess.ID),
		zap.String("doc_type", string(docType)),
		zap.String("path", path))

	rel := displayPath(root, path)
	msg := fmt.Sprintf(
		"Started a %s draft: **%s**\n\nSaved to `%s`.\n\n%s",
		docType, title, rel, question,
	)

	return &StartResult{
		SessionID:    sess.ID,
		DocumentPath: path,
		DocType:      docType,
		Title:        title,
		Message:      msg,
	}, nil
}

// Continue feeds one user message into an open session. The turn
// counter and activity timestamp advance on every call regardless of
// outcome. Model failures keep the document unchanged and the session
// retrievable.
func (s *Store) Continue(ctx context.Context, sessionID, input string) (*ContinueResult, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.Turns++
	sess.UpdatedAt = s.now()

	if IsCompletionPhrase(input) {
		delete(s.sessions, sessionID)
		s.logger.Info("docsession: completed",
			zap.String("session_id", sessionID),
			zap.String("path", sess.DocumentPath),
			zap.Int("turns", sess.Turns))
		return &ContinueResult{
			Message:        fmt.Sprintf("Wrapped up. Your %s is saved at `%s`.", sess.DocType, sess.DocumentPath),
			ShouldContinue: false,
			DocumentPath:   sess.DocumentPath,
			DocType:        sess.DocType,
		}, nil
	}

	if s.model == nil {
		return &ContinueResult{
			Message:        "Noted. I can't revise the draft right now (no model configured) — your feedback is acknowledged and the session stays open.",
			ShouldContinue: true,
			DocumentPath:   sess.DocumentPath,
			DocType:        sess.DocType,
		}, nil
	}

	current, err := readDocument(sess.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("reading document for session %s: %w", sessionID, err)
	}
	current = s.truncate(current)

	output, err := s.model.Complete(ctx, refineMessages(sess, current, input))
	if err != nil {
		s.logger.Warn("docsession: refinement call failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return &ContinueResult{
			Message:        "I couldn't reach the language model to fold that in. The draft is unchanged — try sending that again in a moment.",
			ShouldContinue: true,
			DocumentPath:   sess.DocumentPath,
			DocType:        sess.DocType,
		}, nil
	}

	question := strings.TrimSpace(output)
	if doc, q, ok := ParseRefinement(output); ok {
		if err := writeDocument(sess.DocumentPath, doc); err != nil {
			return nil, fmt.Errorf("writing updated document: %w", err)
		}
		question = q
	} else {
		s.logger.Warn("docsession: refinement output missed the delimiter contract, document left unchanged",
			zap.String("session_id", sessionID))
	}

	return &ContinueResult{
		Message:        question,
		ShouldContinue: true,
		DocumentPath:   sess.DocumentPath,
		DocType:        sess.DocType,
	}, nil
}

// Resume opens a session against an existing document path without
// re-classifying or re-drafting. The next Continue folds the user's
// feedback into the document already on disk.
func (s *Store) Resume(path string, docType DocType, agent string) *Session {
	now := s.now()
	title := strings.TrimSuffix(filepath.Base(path), ".md")
	sess := &Session{
		ID:           s.newID(),
		DocType:      docType,
		Agent:        agent,
		DocumentPath: path,
		Title:        title,
		Turns:        0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.sessions[sess.ID] = sess

	s.logger.Info("docsession: resumed",
		zap.String("session_id", sess.ID),
		zap.String("path", path))
	return sess
}

// Close removes a session without a completion message. The router
// uses it when a confirmed switch supersedes an open session.
func (s *Store) Close(sessionID string) {
	if sess, ok := s.sessions[sessionID]; ok {
		s.logger.Info("docsession: closed", zap.String("session_id", sessionID), zap.String("path", sess.DocumentPath))
		delete(s.sessions, sessionID)
	}
}

// HasSession reports whether a session id is known to the store.
func (s *Store) HasSession(sessionID string) bool {
	_, ok := s.sessions[sessionID]
	return ok
}

// Get returns a session by id.
func (s *Store) Get(sessionID string) (*Session, bool) {
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// List returns all sessions ordered by creation time.
func (s *Store) List() []*Session {
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// --- Section updates ---

// ApplyUpdate performs one section merge against the document at path.
// A missing document is treated as empty, which routes every mode
// except insert-at-offset into the new-section branch.
func (s *Store) ApplyUpdate(path string, req sections.UpdateRequest) error {
	doc, err := readDocument(path)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	updated, err := sections.Apply(doc, req)
	if err != nil {
		return err
	}

	if err := writeDocument(path, updated); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}

	s.logger.Debug("docsession: section update applied",
		zap.String("path", path),
		zap.String("section", req.Section),
		zap.String("mode", string(req.Mode)))
	return nil
}

// --- Model steps with deterministic fallbacks ---

func (s *Store) classify(ctx context.Context, input string) (DocType, string) {
	if s.model == nil {
		return TypeProductBrief, FallbackTitle(input)
	}
	output, err := s.model.Complete(ctx, classifyMessages(input))
	if err != nil {
		s.logger.Warn("docsession: classification call failed", zap.Error(err))
		return TypeProductBrief, FallbackTitle(input)
	}
	return ParseClassification(output, input)
}

func (s *Store) draft(ctx context.Context, docType DocType, title, input string) string {
	if s.model == nil {
		return DraftSkeleton(docType, title, input)
	}
	output, err := s.model.Complete(ctx, draftMessages(docType, title, input))
	if err != nil || strings.TrimSpace(output) == "" {
		s.logger.Warn("docsession: drafting call failed, using skeleton", zap.Error(err))
		return DraftSkeleton(docType, title, input)
	}
	return strings.TrimSpace(output) + "\n"
}

func (s *Store) firstQuestion(ctx context.Context, docType DocType, draft string) string {
	if s.model == nil {
		return FallbackQuestion(docType)
	}
	output, err := s.model.Complete(ctx, questionMessages(docType, s.truncate(draft)))
	if err != nil || strings.TrimSpace(output) == "" {
		s.logger.Warn("docsession: question call failed, using fallback", zap.Error(err))
		return FallbackQuestion(docType)
	}
	return strings.TrimSpace(output)
}

func (s *Store) truncate(doc string) string {
	if len(doc) <= s.charBudget {
		return doc
	}
	return doc[:s.charBudget] + TruncationMarker
}

// --- Paths and files ---

// allocatePath derives the deterministic document path and resolves
// slug collisions with a numeric suffix.
func (s *Store) allocatePath(root string, docType DocType, title string) (string, error) {
	dir := filepath.Join(root, "docs", TypeFolder(docType))
	slug := Slugify(title)

	path := filepath.Join(dir, slug+".md")
	suffix := 2
	for {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("checking document path: %w", err)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%d.md", slug, suffix))
		suffix++
	}
}

// readDocument reads a document, treating a missing file as empty.
func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// writeDocument writes a document, creating parent directories.
func writeDocument(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// displayPath renders a path relative to root when possible.
func displayPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
