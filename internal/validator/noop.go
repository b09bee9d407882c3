package validator

import (
	"context"

	"github.com/kjannette/maichez-backend/internal/conversation"
)

// Noop answers every request with a warning. It stands in when no provider
// key is configured.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Validate(_ context.Context, _ Request) (conversation.Response, error) {
	return conversation.StructuredResponse("WARNING",
		"Automatic trade review is not configured. Check your rules manually before entering."), nil
}
