// Package assistant runs trade-review conversations: it owns the in-memory
// sessions, drives the conversation stepper and calls the trade validator.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kjannette/maichez-backend/internal/conversation"
	"github.com/kjannette/maichez-backend/internal/logger"
	"github.com/kjannette/maichez-backend/internal/models"
	"github.com/kjannette/maichez-backend/internal/rules"
	"github.com/kjannette/maichez-backend/internal/transcript"
	"github.com/kjannette/maichez-backend/internal/validator"
)

// AnalysisFailedMessage is shown when the validator call fails.
const AnalysisFailedMessage = "Sorry, I couldn't analyze that trade right now. Please try again."

var (
	ErrBusy            = errors.New("an analysis is already in progress")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoDraft         = errors.New("no draft trade entry to log")
)

type RuleSource interface {
	Texts(ctx context.Context, userID string) []string
	Status(userID string) rules.Status
	// Forget drops the user's cached rules once their last session is gone.
	Forget(userID string)
}

// TradeLog receives drafts the student chooses to keep.
type TradeLog interface {
	RecordDraft(ctx context.Context, userID, pair string, d conversation.DraftEntry) (*models.JournalEntry, error)
}

type Notifier interface {
	TradeLogged(ctx context.Context, pair string, d conversation.DraftEntry)
}

type Config struct {
	Prompts         conversation.Prompts
	ValidateTimeout time.Duration
	IdleTTL         time.Duration
}

type Service struct {
	validator validator.Validator
	rules     RuleSource
	log       TradeLog
	notifier  Notifier
	archive   transcript.Archive
	cfg       Config
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu        sync.Mutex
	id        string
	userID    string
	conv      conversation.Session
	analyzing bool
	lastSeen  time.Time
}

// New builds a Service. notifier and archive may be nil.
func New(v validator.Validator, rs RuleSource, tl TradeLog, notifier Notifier, archive transcript.Archive, cfg Config) *Service {
	if cfg.ValidateTimeout <= 0 {
		cfg.ValidateTimeout = 60 * time.Second
	}
	if cfg.Prompts == (conversation.Prompts{}) {
		cfg.Prompts = conversation.DefaultPrompts()
	}
	if archive == nil {
		archive = transcript.Nop{}
	}
	return &Service{
		validator: v,
		rules:     rs,
		log:       tl,
		notifier:  notifier,
		archive:   archive,
		cfg:       cfg,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// Start opens a new conversation for userID and begins loading their rules.
func (s *Service) Start(ctx context.Context, userID string) Snapshot {
	sess := &session{
		id:       uuid.NewString(),
		userID:   userID,
		conv:     conversation.NewSession(),
		lastSeen: s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	// warm the rule cache so the snapshot can report the count
	go s.rules.Texts(context.WithoutCancel(ctx), userID)

	logger.Info(ctx, "Assistant session started", "session_id", sess.id, "user_id", userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.snapshot(sess)
}

func (s *Service) lookup(userID, sessionID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.userID != userID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// AttachImage selects a chart screenshot for the next send. An empty
// dataURL clears the selection.
func (s *Service) AttachImage(ctx context.Context, userID, sessionID, dataURL string) (Snapshot, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.analyzing {
		return Snapshot{}, ErrBusy
	}
	sess.conv.Image = dataURL
	sess.lastSeen = s.now()
	return s.snapshot(sess), nil
}

// Send applies one student message. When the message completes the trade
// description the validator is called and Send returns once it answered.
// The call is not tied to ctx cancellation; it is bounded by the configured
// timeout instead.
func (s *Service) Send(ctx context.Context, userID, sessionID, text string) (Snapshot, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	if sess.analyzing {
		sess.mu.Unlock()
		return Snapshot{}, ErrBusy
	}
	before := len(sess.conv.Messages)
	next, eff := conversation.Step(sess.conv, text, s.now(), s.cfg.Prompts)
	if eff.Noop {
		snap := s.snapshot(sess)
		sess.mu.Unlock()
		return snap, nil
	}
	sess.conv = next
	sess.lastSeen = s.now()
	s.archiveFrom(ctx, sess, before)

	if !eff.Analyze {
		snap := s.snapshot(sess)
		sess.mu.Unlock()
		return snap, nil
	}
	sess.analyzing = true
	sess.mu.Unlock()

	resp, verr := s.analyze(ctx, sess, eff.Request)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.analyzing = false
	sess.lastSeen = s.now()
	if verr != nil {
		logger.ErrorWithErr(ctx, "Trade validation failed", verr,
			"session_id", sess.id, "user_id", userID, "validator", s.validator.Name())
		sess.conv = conversation.Fail(sess.conv, AnalysisFailedMessage)
		return s.snapshot(sess), nil
	}

	before = len(sess.conv.Messages)
	sess.conv = conversation.Complete(sess.conv, eff.Request, resp, s.now())
	s.archiveFrom(ctx, sess, before)
	if d := sess.conv.Draft; d != nil {
		logger.Verdict(ctx, sess.id, sess.conv.Context.Pair, string(d.ValidationResult),
			"user_id", userID, "validator", s.validator.Name())
	}
	return s.snapshot(sess), nil
}

func (s *Service) analyze(ctx context.Context, sess *session, req conversation.AnalysisRequest) (conversation.Response, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ValidateTimeout)
	defer cancel()
	ctx, span := logger.StartSpan(ctx, "assistant.analyze",
		attribute.String("session_id", sess.id),
		attribute.Bool("image", req.Image != ""))
	defer span.End()

	texts := s.rules.Texts(ctx, sess.userID)
	return s.validator.Validate(ctx, validator.Request{
		TradeDetails: req.TradeDetails,
		Rules:        texts,
		ImageDataURL: req.Image,
	})
}

// LogDraft stores the current draft in the trade log. The draft is handed
// over: it is cleared from the session once stored.
func (s *Service) LogDraft(ctx context.Context, userID, sessionID string) (*models.JournalEntry, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.conv.Draft == nil {
		return nil, ErrNoDraft
	}
	draft := *sess.conv.Draft
	pair := sess.conv.Context.Pair

	entry, err := s.log.RecordDraft(ctx, userID, pair, draft)
	if err != nil {
		return nil, fmt.Errorf("log draft: %w", err)
	}
	sess.conv.Draft = nil
	sess.lastSeen = s.now()

	if s.notifier != nil {
		go s.notifier.TradeLogged(context.WithoutCancel(ctx), pair, draft)
	}
	return entry, nil
}

func (s *Service) Snapshot(userID, sessionID string) (Snapshot, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.snapshot(sess), nil
}

func (s *Service) End(ctx context.Context, userID, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.userID != userID {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	last := !s.hasSessionLocked(userID)
	s.mu.Unlock()

	if last {
		s.rules.Forget(userID)
	}
	logger.Info(ctx, "Assistant session ended", "session_id", sessionID, "user_id", userID)
	return nil
}

// Sweep ends sessions idle for longer than the configured TTL. Sessions with
// an analysis in flight are kept.
func (s *Service) Sweep(ctx context.Context) int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	removed := 0
	swept := make(map[string]struct{})
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := !sess.analyzing && sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			swept[sess.userID] = struct{}{}
			removed++
		}
	}
	var gone []string
	for userID := range swept {
		if !s.hasSessionLocked(userID) {
			gone = append(gone, userID)
		}
	}
	s.mu.Unlock()

	for _, userID := range gone {
		s.rules.Forget(userID)
	}
	if removed > 0 {
		logger.Info(ctx, "Idle assistant sessions removed", "count", removed)
	}
	return removed
}

// hasSessionLocked reports whether userID still owns a session. s.mu must be held.
func (s *Service) hasSessionLocked(userID string) bool {
	for _, sess := range s.sessions {
		if sess.userID == userID {
			return true
		}
	}
	return false
}

// Run sweeps idle sessions every minute until ctx is done.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// archiveFrom copies messages appended since index from to the transcript
// in the background. Must be called with sess.mu held.
func (s *Service) archiveFrom(ctx context.Context, sess *session, from int) {
	var entries []transcript.Entry
	for i := from; i < len(sess.conv.Messages); i++ {
		m := sess.conv.Messages[i]
		entries = append(entries, transcript.Entry{
			UserID:    sess.userID,
			SessionID: sess.id,
			Seq:       i,
			Role:      m.Role,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}
	if len(entries) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		for _, e := range entries {
			if err := s.archive.Save(ctx, e); err != nil {
				logger.Warn(ctx, "Transcript archive failed", "session_id", e.SessionID, "error", err)
			}
		}
	}()
}
