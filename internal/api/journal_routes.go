package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjannette/maichez-backend/internal/models"
)

type createJournalRequest struct {
	Pair             string           `json:"pair" validate:"notblank,max=32"`
	Type             string           `json:"type" validate:"oneof=buy sell"`
	EntryPrice       *decimal.Decimal `json:"entryPrice"`
	StopLoss         *decimal.Decimal `json:"stopLoss"`
	TakeProfit       *decimal.Decimal `json:"takeProfit"`
	ExitPrice        *decimal.Decimal `json:"exitPrice"`
	PnL              *decimal.Decimal `json:"pnl"`
	Status           string           `json:"status" validate:"omitempty,oneof=open closed"`
	ValidationResult *string          `json:"validationResult" validate:"omitempty,oneof=approved rejected warning"`
	Notes            string           `json:"notes" validate:"max=10000"`
	ScreenshotURL    *string          `json:"screenshotUrl"`
	Strategy         *string          `json:"strategy" validate:"omitempty,max=200"`
	TimeFrame        *string          `json:"timeFrame" validate:"omitempty,max=32"`
	ConfidenceLevel  *int             `json:"confidenceLevel" validate:"omitempty,min=1,max=10"`
	Date             *time.Time       `json:"date"`
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request, userID string) {
	entries, err := s.deps.Journal.GetByUser(r.Context(), userID, parseLimit(r, 100))
	if err != nil {
		writeFailure(w, r, err, "fetch journal")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreateJournal(w http.ResponseWriter, r *http.Request, userID string) {
	var req createJournalRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	e := &models.JournalEntry{
		UserID:           userID,
		Pair:             req.Pair,
		Type:             req.Type,
		EntryPrice:       nullDecimal(req.EntryPrice),
		StopLoss:         nullDecimal(req.StopLoss),
		TakeProfit:       nullDecimal(req.TakeProfit),
		ExitPrice:        nullDecimal(req.ExitPrice),
		PnL:              nullDecimal(req.PnL),
		Status:           req.Status,
		ValidationResult: req.ValidationResult,
		Notes:            req.Notes,
		ScreenshotURL:    req.ScreenshotURL,
		Strategy:         req.Strategy,
		TimeFrame:        req.TimeFrame,
		ConfidenceLevel:  req.ConfidenceLevel,
	}
	if req.Date != nil {
		e.Date = *req.Date
	}
	created, err := s.deps.Journal.Create(r.Context(), e)
	if err != nil {
		writeFailure(w, r, err, "create journal entry")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleJournalStats(w http.ResponseWriter, r *http.Request, userID string) {
	stats, err := s.deps.Journal.GetStats(r.Context(), userID)
	if err != nil {
		writeFailure(w, r, err, "fetch journal stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
