package assistant

import (
	"time"

	"github.com/kjannette/maichez-backend/internal/conversation"
	"github.com/kjannette/maichez-backend/internal/rules"
)

// MessageView is a chat message as shown to the student. Verdict is set when
// the text is a stored structured verdict.
type MessageView struct {
	Role      conversation.Role     `json:"role"`
	Text      string                `json:"text"`
	Timestamp time.Time             `json:"timestamp"`
	Verdict   *conversation.Verdict `json:"verdict,omitempty"`
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID          string                    `json:"id"`
	Greeting    string                    `json:"greeting"`
	State       conversation.State        `json:"state"`
	Placeholder string                    `json:"placeholder"`
	Context     conversation.TradeContext `json:"context"`
	Messages    []MessageView             `json:"messages"`
	HasImage    bool                      `json:"hasImage"`
	Analyzing   bool                      `json:"analyzing"`
	Error       string                    `json:"error,omitempty"`
	Draft       *conversation.DraftEntry  `json:"draft,omitempty"`
	Rules       rules.Status              `json:"rules"`
}

// snapshot must be called with sess.mu held.
func (s *Service) snapshot(sess *session) Snapshot {
	msgs := make([]MessageView, 0, len(sess.conv.Messages))
	for _, m := range sess.conv.Messages {
		v := MessageView{Role: m.Role, Text: m.Text, Timestamp: m.Timestamp}
		if m.Role == conversation.RoleModel {
			if verdict, ok := conversation.DecodeDisplay(m.Text); ok {
				v.Verdict = &verdict
			}
		}
		msgs = append(msgs, v)
	}

	var draft *conversation.DraftEntry
	if sess.conv.Draft != nil {
		d := *sess.conv.Draft
		draft = &d
	}

	return Snapshot{
		ID:          sess.id,
		Greeting:    s.cfg.Prompts.Greeting,
		State:       sess.conv.State,
		Placeholder: conversation.Placeholder(sess.conv.State),
		Context:     sess.conv.Context,
		Messages:    msgs,
		HasImage:    sess.conv.Image != "",
		Analyzing:   sess.analyzing,
		Error:       sess.conv.Error,
		Draft:       draft,
		Rules:       s.rules.Status(sess.userID),
	}
}
