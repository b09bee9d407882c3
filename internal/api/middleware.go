package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kjannette/maichez-backend/internal/auth"
	"github.com/kjannette/maichez-backend/internal/logger"
)

// userIDHeader identifies the student when no JWT secret is configured.
const userIDHeader = "X-User-ID"

type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// authMiddleware guards the admin routes with the static API key.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireUser resolves the calling student and passes their id on.
func (s *Server) requireUser(next userHandler) http.Handler {
	return s.identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		next(w, r, userID)
	}))
}

// identify authenticates the request and stores the student id in its context.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.verifier == nil {
		id := strings.TrimSpace(r.Header.Get(userIDHeader))
		if id == "" {
			writeError(w, http.StatusUnauthorized, "missing "+userIDHeader+" header")
			return "", false
		}
		if _, err := uuid.Parse(id); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid "+userIDHeader+" header")
			return "", false
		}
		return id, true
	}

	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return "", false
	}
	claims, err := s.verifier.Verify(token)
	if err != nil {
		logger.Debug(r.Context(), "Rejected student token", "error", err)
		writeError(w, http.StatusUnauthorized, "invalid token")
		return "", false
	}
	return claims.Subject, true
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+userIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// traceMiddleware runs each request in a span and logs it at debug level.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := logger.StartSpan(r.Context(), "http "+r.Method,
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		logger.Debug(ctx, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
