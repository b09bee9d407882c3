package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

var fastRetry = RetryConfig{MaxAttempts: 3, BaseDelay: 20 * time.Millisecond, MaxDelay: 50 * time.Millisecond}

// statusServer answers with statuses in order, repeating the last one.
func statusServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(attempts.Add(1))
		if n > len(statuses) {
			n = len(statuses)
		}
		w.WriteHeader(statuses[n-1])
	}))
	t.Cleanup(srv.Close)
	return srv, &attempts
}

func TestDo(t *testing.T) {
	cases := []struct {
		name     string
		statuses []int
		wantErr  bool
		wantCode int
		attempts int32
	}{
		{"ok first try", []int{200}, false, 200, 1},
		{"recovers from 503", []int{503, 503, 200}, false, 200, 3},
		{"retries rate limit", []int{429, 204}, false, 204, 2},
		{"gives up on 502", []int{502}, true, 0, 3},
		{"no retry on 400", []int{400}, false, 400, 1},
		{"no retry on 404", []int{404, 200}, false, 404, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, attempts := statusServer(t, tc.statuses...)
			client := &http.Client{Timeout: 5 * time.Second}

			resp, err := Do(context.Background(), client, fastRetry, func() (*http.Request, error) {
				return http.NewRequest(http.MethodPost, srv.URL, nil)
			})
			if tc.wantErr {
				if err == nil {
					resp.Body.Close()
					t.Fatal("expected error")
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				resp.Body.Close()
				if resp.StatusCode != tc.wantCode {
					t.Fatalf("status: got %d, want %d", resp.StatusCode, tc.wantCode)
				}
			}
			if got := attempts.Load(); got != tc.attempts {
				t.Fatalf("attempts: got %d, want %d", got, tc.attempts)
			}
		})
	}
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	srv, _ := statusServer(t, 503)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cfg := RetryConfig{MaxAttempts: 10, BaseDelay: 500 * time.Millisecond, MaxDelay: 2 * time.Second}
	start := time.Now()
	_, err := Do(ctx, &http.Client{}, cfg, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	})
	if err == nil {
		t.Fatal("expected error from context cancellation")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("retry loop ignored cancellation")
	}
}

func TestRetryable(t *testing.T) {
	for status, want := range map[int]bool{200: false, 400: false, 429: true, 500: true, 503: true} {
		if Retryable(status) != want {
			t.Errorf("Retryable(%d) = %v", status, !want)
		}
	}
}
