package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kjannette/maichez-backend/internal/conversation"
	"github.com/kjannette/maichez-backend/internal/dataurl"
	"github.com/kjannette/maichez-backend/internal/logger"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash"
)

// Gemini calls the generateContent REST endpoint directly.
type Gemini struct {
	client *resty.Client
	opts   Options
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	SystemInstruction geminiContent          `json:"systemInstruction"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewGemini(opts Options) *Gemini {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultGeminiBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultGeminiModel
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", opts.APIKey)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &Gemini{client: client, opts: opts}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Validate(ctx context.Context, req Request) (conversation.Response, error) {
	ctx, span := logger.StartSpan(ctx, "validator.gemini",
		attribute.String("model", g.opts.Model),
		attribute.Int("rules", len(req.Rules)),
		attribute.Bool("image", req.ImageDataURL != ""))
	defer span.End()

	parts := []geminiPart{{Text: userPrompt(req)}}
	if req.ImageDataURL != "" {
		img, err := dataurl.Parse(req.ImageDataURL)
		if err != nil {
			return conversation.Response{}, fmt.Errorf("gemini image: %w", err)
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{MimeType: img.MimeType, Data: img.Base64}})
	}

	body := geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: g.opts.SystemPrompt}}},
		Contents:          []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			Temperature:      g.opts.Temperature,
			MaxOutputTokens:  g.opts.MaxTokens,
		},
	}

	var out geminiResponse
	var apiErr geminiError
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("model", g.opts.Model).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/models/{model}:generateContent")
	if err != nil {
		return conversation.Response{}, fmt.Errorf("gemini request: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return conversation.Response{}, fmt.Errorf("gemini %d: %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return conversation.Response{}, fmt.Errorf("gemini %d: %s", resp.StatusCode(), resp.String())
	}

	if len(out.Candidates) == 0 {
		return conversation.Response{}, ErrEmptyReply
	}
	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return parseReply(text.String())
}
