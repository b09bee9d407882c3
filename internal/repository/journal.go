package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/maichez-backend/internal/conversation"
	"github.com/kjannette/maichez-backend/internal/models"
)

const journalColumns = `id, user_id, pair, type, entry_price, stop_loss, take_profit, exit_price,
	pnl, status, validation_result, notes, screenshot_url, strategy, time_frame,
	confidence_level, date, created_at`

type JournalRepo struct {
	pool *pgxpool.Pool
}

func NewJournalRepo(pool *pgxpool.Pool) *JournalRepo {
	return &JournalRepo{pool: pool}
}

// RecordDraft stores an assistant draft as an open journal entry.
func (r *JournalRepo) RecordDraft(ctx context.Context, userID, pair string, d conversation.DraftEntry) (*models.JournalEntry, error) {
	result := string(d.ValidationResult)
	e := &models.JournalEntry{
		UserID:           userID,
		Pair:             pair,
		Type:             string(d.Type),
		Status:           "open",
		ValidationResult: &result,
		Notes:            d.Notes,
		Date:             d.Date,
	}
	if d.ScreenshotURL != "" {
		e.ScreenshotURL = &d.ScreenshotURL
	}
	return r.Create(ctx, e)
}

func (r *JournalRepo) Create(ctx context.Context, e *models.JournalEntry) (*models.JournalEntry, error) {
	date := e.Date
	if date.IsZero() {
		date = time.Now()
	}
	status := e.Status
	if status == "" {
		status = "open"
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO journal_entries
		 (user_id, pair, type, entry_price, stop_loss, take_profit, exit_price, pnl,
		  status, validation_result, notes, screenshot_url, strategy, time_frame,
		  confidence_level, date)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		 RETURNING `+journalColumns,
		e.UserID, e.Pair, e.Type, e.EntryPrice, e.StopLoss, e.TakeProfit, e.ExitPrice, e.PnL,
		status, e.ValidationResult, e.Notes, e.ScreenshotURL, e.Strategy, e.TimeFrame,
		e.ConfidenceLevel, date,
	)
	created, err := scanJournal(row)
	if err != nil {
		return nil, fmt.Errorf("create journal entry: %w", err)
	}
	return created, nil
}

// GetByUser returns a user's entries, newest first.
func (r *JournalRepo) GetByUser(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+journalColumns+` FROM journal_entries
		 WHERE user_id = $1
		 ORDER BY date DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()
	return collectJournal(rows)
}

// GetAll returns the most recent entries across all users.
func (r *JournalRepo) GetAll(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+journalColumns+` FROM journal_entries
		 ORDER BY date DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list all journal entries: %w", err)
	}
	defer rows.Close()
	return collectJournal(rows)
}

// GetStats aggregates a user's journal. A closed trade with positive P&L is
// a win, zero or negative a loss.
func (r *JournalRepo) GetStats(ctx context.Context, userID string) (*models.JournalStats, error) {
	var s models.JournalStats
	err := r.pool.QueryRow(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'closed' AND pnl > 0),
			COUNT(*) FILTER (WHERE status = 'closed' AND pnl <= 0),
			COUNT(*) FILTER (WHERE validation_result = 'approved'),
			COUNT(*) FILTER (WHERE validation_result = 'rejected'),
			COUNT(*) FILTER (WHERE validation_result = 'warning'),
			COALESCE(SUM(pnl), 0)
		 FROM journal_entries WHERE user_id = $1`,
		userID,
	).Scan(
		&s.TotalTrades, &s.OpenTrades, &s.Wins, &s.Losses,
		&s.Approved, &s.Rejected, &s.Warnings, &s.TotalPnL,
	)
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	s.ComputeWinRate()
	return &s, nil
}

// --- scan helpers ---

func scanJournal(row scannable) (*models.JournalEntry, error) {
	var e models.JournalEntry
	err := row.Scan(
		&e.ID, &e.UserID, &e.Pair, &e.Type,
		&e.EntryPrice, &e.StopLoss, &e.TakeProfit, &e.ExitPrice, &e.PnL,
		&e.Status, &e.ValidationResult, &e.Notes, &e.ScreenshotURL,
		&e.Strategy, &e.TimeFrame, &e.ConfidenceLevel, &e.Date, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectJournal(rows rowsIter) ([]models.JournalEntry, error) {
	out := []models.JournalEntry{}
	for rows.Next() {
		e, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
