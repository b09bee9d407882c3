package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kjannette/maichez-backend/internal/conversation"
	"github.com/kjannette/maichez-backend/internal/httputil"
	"github.com/kjannette/maichez-backend/internal/logger"
)

const defaultBotName = "MaichezAssistant"

type Sender struct {
	webhookURL string
	botName    string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewSender(webhookURL, botName string) *Sender {
	if botName == "" {
		botName = defaultBotName
	}
	return &Sender{
		webhookURL: webhookURL,
		botName:    botName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
		},
	}
}

// Send posts msg to the webhook. Failures are logged, never returned.
func (s *Sender) Send(ctx context.Context, msg string) {
	formatted := fmt.Sprintf("[%s] %s", s.botName, msg)
	logger.Info(ctx, "Notification", "message", formatted)

	if s.webhookURL == "" {
		return
	}

	body, err := json.Marshal(s.formatPayload(formatted))
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to encode notification", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to send notification after retries", err)
		return
	}
	resp.Body.Close()
}

// TradeLogged announces a journal entry created from an assistant draft.
func (s *Sender) TradeLogged(ctx context.Context, pair string, d conversation.DraftEntry) {
	s.Send(ctx, TradeLoggedMessage(pair, d))
}

// TradeLoggedMessage renders e.g. "Trade logged: BUY EURUSD (approved)".
func TradeLoggedMessage(pair string, d conversation.DraftEntry) string {
	if pair == "" {
		pair = "unknown pair"
	}
	return fmt.Sprintf("Trade logged: %s %s (%s)", strings.ToUpper(string(d.Type)), pair, d.ValidationResult)
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.botName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.botName,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}
