// Package transcript keeps a copy of assistant conversations outside the
// process.
package transcript

import (
	"context"
	"time"

	"github.com/kjannette/maichez-backend/internal/conversation"
)

type Entry struct {
	UserID    string            `json:"userId"`
	SessionID string            `json:"sessionId"`
	Seq       int               `json:"seq"`
	Role      conversation.Role `json:"role"`
	Text      string            `json:"text"`
	Timestamp time.Time         `json:"timestamp"`
}

type Archive interface {
	Save(ctx context.Context, e Entry) error
	// Recent returns up to limit entries for the user, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]Entry, error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Save(context.Context, Entry) error { return nil }

func (Nop) Recent(context.Context, string, int) ([]Entry, error) { return nil, nil }
