package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type JournalEntry struct {
	ID               string              `json:"id"`
	UserID           string              `json:"userId"`
	Pair             string              `json:"pair"`
	Type             string              `json:"type"` // "buy" or "sell"
	EntryPrice       decimal.NullDecimal `json:"entryPrice"`
	StopLoss         decimal.NullDecimal `json:"stopLoss"`
	TakeProfit       decimal.NullDecimal `json:"takeProfit"`
	ExitPrice        decimal.NullDecimal `json:"exitPrice"`
	PnL              decimal.NullDecimal `json:"pnl"`
	Status           string              `json:"status"` // "open" or "closed"
	ValidationResult *string             `json:"validationResult,omitempty"`
	Notes            string              `json:"notes"`
	ScreenshotURL    *string             `json:"screenshotUrl,omitempty"`
	Strategy         *string             `json:"strategy,omitempty"`
	TimeFrame        *string             `json:"timeFrame,omitempty"`
	ConfidenceLevel  *int                `json:"confidenceLevel,omitempty"`
	Date             time.Time           `json:"date"`
	CreatedAt        time.Time           `json:"createdAt"`
}

type JournalStats struct {
	TotalTrades int64           `json:"totalTrades"`
	OpenTrades  int64           `json:"openTrades"`
	Wins        int64           `json:"wins"`
	Losses      int64           `json:"losses"`
	Approved    int64           `json:"approved"`
	Rejected    int64           `json:"rejected"`
	Warnings    int64           `json:"warnings"`
	TotalPnL    decimal.Decimal `json:"totalPnl"`
	WinRate     decimal.Decimal `json:"winRate"` // percent of closed trades
}

// ComputeWinRate fills WinRate from Wins and Losses, rounded to two places.
func (s *JournalStats) ComputeWinRate() {
	closed := s.Wins + s.Losses
	if closed == 0 {
		s.WinRate = decimal.Zero
		return
	}
	s.WinRate = decimal.NewFromInt(s.Wins * 100).Div(decimal.NewFromInt(closed)).Round(2)
}
