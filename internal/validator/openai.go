package validator

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kjannette/maichez-backend/internal/conversation"
	"github.com/kjannette/maichez-backend/internal/logger"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
	opts   Options
}

func NewOpenAI(opts Options) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultOpenAIModel
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), opts: opts}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Validate(ctx context.Context, req Request) (conversation.Response, error) {
	ctx, span := logger.StartSpan(ctx, "validator.openai",
		attribute.String("model", o.opts.Model),
		attribute.Int("rules", len(req.Rules)),
		attribute.Bool("image", req.ImageDataURL != ""))
	defer span.End()

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.ImageDataURL != "" {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: userPrompt(req)},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    req.ImageDataURL,
				Detail: openai.ImageURLDetailAuto,
			}},
		}
	} else {
		user.Content = userPrompt(req)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.opts.SystemPrompt},
			user,
		},
		MaxTokens:   o.opts.MaxTokens,
		Temperature: float32(o.opts.Temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return conversation.Response{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return conversation.Response{}, ErrEmptyReply
	}
	return parseReply(resp.Choices[0].Message.Content)
}
