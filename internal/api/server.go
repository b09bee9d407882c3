package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kjannette/maichez-backend/internal/assistant"
	"github.com/kjannette/maichez-backend/internal/auth"
	"github.com/kjannette/maichez-backend/internal/logger"
	"github.com/kjannette/maichez-backend/internal/models"
	"github.com/kjannette/maichez-backend/internal/repository"
	"github.com/kjannette/maichez-backend/internal/rules"
	"github.com/kjannette/maichez-backend/internal/transcript"
)

const maxQueryLimit = 1000

type Assistant interface {
	Start(ctx context.Context, userID string) assistant.Snapshot
	Snapshot(userID, sessionID string) (assistant.Snapshot, error)
	Send(ctx context.Context, userID, sessionID, text string) (assistant.Snapshot, error)
	AttachImage(ctx context.Context, userID, sessionID, dataURL string) (assistant.Snapshot, error)
	LogDraft(ctx context.Context, userID, sessionID string) (*models.JournalEntry, error)
	End(ctx context.Context, userID, sessionID string) error
	SessionCount() int
}

type RuleStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.TradeRule, error)
	Create(ctx context.Context, rule *models.TradeRule) (*models.TradeRule, error)
	Update(ctx context.Context, userID, id string, u repository.RuleUpdate) (*models.TradeRule, error)
	Delete(ctx context.Context, userID, id string) error
}

// RuleCache is told about rule writes made through the API so the assistant
// sees them even when no change source is running. Leave it nil when a
// LISTEN/NOTIFY stream already reports every write.
type RuleCache interface {
	Apply(ctx context.Context, ch rules.Change)
}

type JournalStore interface {
	Create(ctx context.Context, e *models.JournalEntry) (*models.JournalEntry, error)
	GetByUser(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error)
	GetAll(ctx context.Context, limit int) ([]models.JournalEntry, error)
	GetStats(ctx context.Context, userID string) (*models.JournalStats, error)
}

type TodoStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Todo, error)
	Create(ctx context.Context, userID, title string, completed bool) (*models.Todo, error)
	Update(ctx context.Context, userID, id string, u repository.TodoUpdate) (*models.Todo, error)
	Delete(ctx context.Context, userID, id string) error
	ToggleAll(ctx context.Context, userID string, completed bool) (int64, error)
	ClearCompleted(ctx context.Context, userID string) (int64, error)
}

type AnalyticsStore interface {
	BusinessMetrics(ctx context.Context) (*models.BusinessMetrics, error)
	StudentPenalties(ctx context.Context) ([]models.StudentPenalty, error)
	PenaltyTrends(ctx context.Context) ([]models.PenaltyTrend, error)
	RevenueGrowth(ctx context.Context) ([]models.RevenuePoint, error)
	CourseCompletion(ctx context.Context) ([]models.CourseCompletion, error)
	CourseEnrollments(ctx context.Context) ([]models.CourseEnrollment, error)
	RuleViolations(ctx context.Context) ([]models.RuleViolation, error)
}

type StudentStore interface {
	List(ctx context.Context) ([]models.Student, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	Update(ctx context.Context, id string, u repository.StudentUpdate) (*models.Student, error)
	Delete(ctx context.Context, id string) error
}

// TranscriptStore reads back archived assistant messages.
type TranscriptStore interface {
	Recent(ctx context.Context, userID string, limit int) ([]transcript.Entry, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the stores and services behind the routes.
type Deps struct {
	Assistant   Assistant
	Rules       RuleStore
	RuleCache   RuleCache
	Journal     JournalStore
	Todos       TodoStore
	Analytics   AnalyticsStore
	Students    StudentStore
	Transcripts TranscriptStore
	DB          Pinger
	Validator   string
}

type Options struct {
	Port          int
	APIKey        string
	JWTSecret     string
	CORSOrigin    string
	MaxImageBytes int
	// WriteTimeout must outlast a validator call.
	WriteTimeout time.Duration
}

type Server struct {
	deps          Deps
	verifier      *auth.Verifier
	apiKey        string
	maxImageBytes int
	handler       http.Handler
	httpServer    *http.Server
}

func NewServer(deps Deps, opts Options) *Server {
	s := &Server{
		deps:          deps,
		apiKey:        opts.APIKey,
		maxImageBytes: opts.MaxImageBytes,
	}
	if opts.JWTSecret != "" {
		s.verifier = auth.NewVerifier(opts.JWTSecret)
	}

	mux := http.NewServeMux()

	// Assistant routes
	mux.Handle("POST /v1/assistant/sessions", s.requireUser(s.handleStartSession))
	mux.Handle("GET /v1/assistant/sessions/{id}", s.requireUser(s.handleGetSession))
	mux.Handle("POST /v1/assistant/sessions/{id}/messages", s.requireUser(s.handleSendMessage))
	mux.Handle("POST /v1/assistant/sessions/{id}/image", s.requireUser(s.handleAttachImage))
	mux.Handle("DELETE /v1/assistant/sessions/{id}/image", s.requireUser(s.handleClearImage))
	mux.Handle("POST /v1/assistant/sessions/{id}/log", s.requireUser(s.handleLogDraft))
	mux.Handle("DELETE /v1/assistant/sessions/{id}", s.requireUser(s.handleEndSession))
	mux.Handle("GET /v1/assistant/history", s.requireUser(s.handleHistory))

	// Rule routes
	mux.Handle("GET /v1/rules", s.requireUser(s.handleListRules))
	mux.Handle("POST /v1/rules", s.requireUser(s.handleCreateRule))
	mux.Handle("PUT /v1/rules/{id}", s.requireUser(s.handleUpdateRule))
	mux.Handle("DELETE /v1/rules/{id}", s.requireUser(s.handleDeleteRule))

	// Journal routes
	mux.Handle("GET /v1/journal", s.requireUser(s.handleListJournal))
	mux.Handle("POST /v1/journal", s.requireUser(s.handleCreateJournal))
	mux.Handle("GET /v1/journal/stats", s.requireUser(s.handleJournalStats))

	// Todo routes
	mux.Handle("GET /v1/todos", s.requireUser(s.handleListTodos))
	mux.Handle("POST /v1/todos", s.requireUser(s.handleCreateTodo))
	mux.Handle("PUT /v1/todos/{id}", s.requireUser(s.handleUpdateTodo))
	mux.Handle("DELETE /v1/todos/{id}", s.requireUser(s.handleDeleteTodo))
	mux.Handle("POST /v1/todos/toggle-all", s.requireUser(s.handleToggleTodos))
	mux.Handle("DELETE /v1/todos/completed", s.requireUser(s.handleClearCompletedTodos))

	// Admin routes
	mux.Handle("GET /v1/admin/metrics", s.authMiddleware(http.HandlerFunc(s.handleAdminMetrics)))
	mux.Handle("GET /v1/admin/penalties", s.authMiddleware(http.HandlerFunc(s.handleAdminPenalties)))
	mux.Handle("GET /v1/admin/penalty-trends", s.authMiddleware(http.HandlerFunc(s.handleAdminPenaltyTrends)))
	mux.Handle("GET /v1/admin/revenue", s.authMiddleware(http.HandlerFunc(s.handleAdminRevenue)))
	mux.Handle("GET /v1/admin/trades", s.authMiddleware(http.HandlerFunc(s.handleAdminTrades)))
	mux.Handle("GET /v1/admin/course-completion", s.authMiddleware(http.HandlerFunc(s.handleAdminCourseCompletion)))
	mux.Handle("GET /v1/admin/course-enrollments", s.authMiddleware(http.HandlerFunc(s.handleAdminCourseEnrollments)))
	mux.Handle("GET /v1/admin/rule-violations", s.authMiddleware(http.HandlerFunc(s.handleAdminRuleViolations)))
	mux.Handle("GET /v1/admin/students", s.authMiddleware(http.HandlerFunc(s.handleAdminListStudents)))
	mux.Handle("GET /v1/admin/students/{id}", s.authMiddleware(http.HandlerFunc(s.handleAdminGetStudent)))
	mux.Handle("PUT /v1/admin/students/{id}", s.authMiddleware(http.HandlerFunc(s.handleAdminUpdateStudent)))
	mux.Handle("DELETE /v1/admin/students/{id}", s.authMiddleware(http.HandlerFunc(s.handleAdminDeleteStudent)))

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = corsMiddleware(traceMiddleware(mux), opts.CORSOrigin)

	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 90 * time.Second
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
	}

	return s
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) Start() error {
	ctx := context.Background()
	logger.Info(ctx, "REST API server started", "addr", "http://localhost"+s.httpServer.Addr)
	if s.apiKey != "" {
		logger.Info(ctx, "Admin authentication enabled (Bearer API key)")
	} else {
		logger.Warn(ctx, "Admin authentication disabled (no API_KEY configured)")
	}
	if s.verifier != nil {
		logger.Info(ctx, "Student authentication enabled (Supabase JWT)")
	} else {
		logger.Warn(ctx, "Student authentication uses the X-User-ID header (no SUPABASE_JWT_SECRET configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- validation helpers ---

// pathID returns the {id} path value. Ids that are not UUIDs cannot match a
// row, so they get a 404 before reaching the store.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return "", false
	}
	return id, true
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
