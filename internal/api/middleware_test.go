package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kjannette/maichez-backend/internal/auth"
)

const testUserID = "6f1c1f0e-2b6a-4c55-9a53-0d5d0a3a9b11"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_NoKeyConfigured(t *testing.T) {
	s := &Server{apiKey: ""}
	handler := s.authMiddleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 when no API key configured, got %d", rr.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	s := &Server{apiKey: "secret123"}
	handler := s.authMiddleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuthMiddleware_WrongKey(t *testing.T) {
	s := &Server{apiKey: "secret123"}
	handler := s.authMiddleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/metrics", nil)
	req.Header.Set("Authorization", "Bearer wrong_key")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuthMiddleware_CorrectKey(t *testing.T) {
	s := &Server{apiKey: "secret123"}
	handler := s.authMiddleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/metrics", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestAuthMiddleware_MalformedBearer(t *testing.T) {
	s := &Server{apiKey: "secret123"}
	handler := s.authMiddleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/metrics", nil)
	req.Header.Set("Authorization", "Basic secret123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-Bearer auth, got %d", rr.Code)
	}
}

func userEcho(got *string) userHandler {
	return func(w http.ResponseWriter, r *http.Request, userID string) {
		*got = userID
		if ctxID, _ := auth.UserID(r.Context()); ctxID != userID {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func TestRequireUser_HeaderMode(t *testing.T) {
	s := &Server{}
	var got string
	handler := s.requireUser(userEcho(&got))

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"not-a-uuid", http.StatusUnauthorized},
		{testUserID, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/rules", nil)
		if tc.header != "" {
			req.Header.Set(userIDHeader, tc.header)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("header %q: expected %d, got %d", tc.header, tc.want, rr.Code)
		}
	}
	if got != testUserID {
		t.Fatalf("expected user %s, got %q", testUserID, got)
	}
}

func TestRequireUser_JWT(t *testing.T) {
	s := &Server{verifier: auth.NewVerifier("jwt-secret")}
	var got string
	handler := s.requireUser(userEcho(&got))

	token, err := s.verifier.Sign(testUserID, time.Now().Add(time.Hour).Unix())
	if err != nil {
		t.Fatal(err)
	}
	other, _ := auth.NewVerifier("other-secret").Sign(testUserID, time.Now().Add(time.Hour).Unix())

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"header user id ignored", "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + other, http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/rules", nil)
		req.Header.Set(userIDHeader, testUserID)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rr.Code)
		}
	}
	if got != testUserID {
		t.Fatalf("expected user %s, got %q", testUserID, got)
	}
}

func TestIdentify_StoresUserInContext(t *testing.T) {
	s := &Server{}
	var got string
	handler := s.identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/rules", nil)
	req.Header.Set(userIDHeader, testUserID)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got != testUserID {
		t.Fatalf("expected user %s in context, got %q", testUserID, got)
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		query    string
		deflt    int
		expected int
	}{
		{"", 100, 100},
		{"?limit=50", 100, 50},
		{"?limit=0", 100, 100},
		{"?limit=-5", 100, 100},
		{"?limit=abc", 100, 100},
		{"?limit=2000", 100, maxQueryLimit},
		{"?limit=1000", 100, 1000},
		{"?limit=1", 50, 1},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/test"+tc.query, nil)
		got := parseLimit(req, tc.deflt)
		if got != tc.expected {
			t.Fatalf("parseLimit(%q, %d) = %d, want %d", tc.query, tc.deflt, got, tc.expected)
		}
	}
}

func TestCorsMiddleware_Headers(t *testing.T) {
	handler := corsMiddleware(okHandler(), "https://myapp.example.com")

	req := httptest.NewRequest(http.MethodGet, "/v1/rules", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	origin := rr.Header().Get("Access-Control-Allow-Origin")
	if origin != "https://myapp.example.com" {
		t.Fatalf("expected custom origin, got %q", origin)
	}

	allow := rr.Header().Get("Access-Control-Allow-Headers")
	if allow != "Content-Type, Authorization, X-User-ID" {
		t.Fatalf("unexpected Allow-Headers %q", allow)
	}
}

func TestCorsMiddleware_Preflight(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called for OPTIONS")
	})
	handler := corsMiddleware(inner, "*")

	req := httptest.NewRequest(http.MethodOptions, "/v1/rules", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rr.Code)
	}
}

func TestTraceMiddleware_RecordsStatus(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rr := httptest.NewRecorder()
	traceMiddleware(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rr.Code)
	}
}
