// Package validator asks a language model whether a described trade follows
// the student's rules.
package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kjannette/maichez-backend/internal/conversation"
)

var ErrEmptyReply = errors.New("validator returned an empty reply")

type Request struct {
	TradeDetails string
	Rules        []string
	ImageDataURL string
}

type Validator interface {
	Validate(ctx context.Context, req Request) (conversation.Response, error)
	Name() string
}

type Options struct {
	Provider     string // openai, gemini or noop
	APIKey       string
	Model        string
	BaseURL      string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	SystemPrompt string
}

// New picks the validator for opts. A missing API key yields Noop.
func New(opts Options) (Validator, error) {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	switch strings.ToLower(opts.Provider) {
	case "openai":
		if opts.APIKey == "" {
			return Noop{}, nil
		}
		return NewOpenAI(opts), nil
	case "gemini":
		if opts.APIKey == "" {
			return Noop{}, nil
		}
		return NewGemini(opts), nil
	case "noop", "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown validator provider %q", opts.Provider)
	}
}

// parseReply returns a structured verdict when text is a JSON object carrying
// both verdict and explanation, the decoded object for any other JSON object,
// and the trimmed text otherwise.
func parseReply(text string) (conversation.Response, error) {
	body := stripFence(strings.TrimSpace(text))
	if body == "" {
		return conversation.Response{}, ErrEmptyReply
	}
	if !strings.HasPrefix(body, "{") {
		return conversation.TextResponse(body), nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return conversation.TextResponse(body), nil
	}
	verdict, vok := obj["verdict"].(string)
	explanation, eok := obj["explanation"].(string)
	if vok && eok && verdict != "" && explanation != "" {
		return conversation.StructuredResponse(verdict, explanation), nil
	}
	return conversation.Response{Raw: obj}, nil
}

// stripFence removes a surrounding ```json ... ``` block.
func stripFence(s string) string {
	rest, ok := strings.CutPrefix(s, "```")
	if !ok {
		return s
	}
	rest = strings.TrimPrefix(rest, "json")
	rest, ok = strings.CutSuffix(strings.TrimSpace(rest), "```")
	if !ok {
		return s
	}
	return strings.TrimSpace(rest)
}
