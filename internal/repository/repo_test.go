package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kjannette/maichez-backend/internal/conversation"
	"github.com/kjannette/maichez-backend/internal/models"
	"github.com/kjannette/maichez-backend/internal/repository"
	"github.com/kjannette/maichez-backend/internal/testutil"
)

// ---------- RuleRepo ----------

func TestRuleRepo(t *testing.T) {
	pool := testutil.SetupPool(t)
	repo := repository.NewRuleRepo(pool)
	ctx := context.Background()
	user := testutil.NewUserID()

	fp0, err := repo.Fingerprint(ctx, user)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fp0.Count != 0 || fp0.LastUpdate != nil {
		t.Fatalf("expected empty fingerprint, got %+v", fp0)
	}

	first, err := repo.Create(ctx, &models.TradeRule{UserID: user, Text: "Always set a stop loss", Required: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == "" || first.Type != models.RuleGeneral || first.OrderNumber != 1 {
		t.Fatalf("unexpected rule: %+v", first)
	}
	second, err := repo.Create(ctx, &models.TradeRule{UserID: user, Text: "Only buy above the 200 EMA", Type: models.RuleBuy})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.OrderNumber != 2 {
		t.Fatalf("expected appended order 2, got %d", second.OrderNumber)
	}

	rules, err := repo.ListByUser(ctx, user)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rules) != 2 || rules[0].ID != first.ID {
		t.Fatalf("unexpected list: %+v", rules)
	}

	fp1, _ := repo.Fingerprint(ctx, user)
	if fp1.Equal(fp0) {
		t.Fatal("fingerprint should change after inserts")
	}

	text := "Risk at most 1% per trade"
	updated, err := repo.Update(ctx, user, first.ID, repository.RuleUpdate{Text: &text})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Text != text || !updated.Required {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	other := testutil.NewUserID()
	if _, err := repo.Update(ctx, other, first.ID, repository.RuleUpdate{Text: &text}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("foreign update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, other, first.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("foreign delete: expected ErrNotFound, got %v", err)
	}

	if err := repo.Delete(ctx, user, second.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	fp2, _ := repo.Fingerprint(ctx, user)
	if fp2.Count != 1 {
		t.Fatalf("expected count 1 after delete, got %d", fp2.Count)
	}

	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM trade_rules WHERE user_id = $1`, user) })
}

// ---------- JournalRepo ----------

func TestJournalRepo(t *testing.T) {
	pool := testutil.SetupPool(t)
	repo := repository.NewJournalRepo(pool)
	ctx := context.Background()
	user := testutil.NewUserID()
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM journal_entries WHERE user_id = $1`, user) })

	draft := conversation.DraftEntry{
		Notes:            "AI Analysis Request: Trade Direction: buy\nAsset/Pair: EURUSD\nUser Details: entry 1.1000",
		ValidationResult: conversation.Approved,
		Type:             conversation.Buy,
		ScreenshotURL:    "data:image/png;base64,AAAA",
		Date:             time.Now().UTC().Truncate(time.Second),
	}
	e, err := repo.RecordDraft(ctx, user, "EURUSD", draft)
	if err != nil {
		t.Fatalf("RecordDraft: %v", err)
	}
	if e.Status != "open" || e.Pair != "EURUSD" || e.Type != "buy" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.ValidationResult == nil || *e.ValidationResult != "approved" {
		t.Fatalf("validation result not stored: %+v", e.ValidationResult)
	}
	if e.ScreenshotURL == nil || e.PnL.Valid {
		t.Fatalf("unexpected optional fields: %+v", e)
	}

	win := decimal.RequireFromString("125.50")
	loss := decimal.RequireFromString("-40.25")
	for _, pnl := range []decimal.Decimal{win, loss} {
		if _, err := repo.Create(ctx, &models.JournalEntry{
			UserID: user, Pair: "XAUUSD", Type: "sell", Status: "closed",
			PnL: decimal.NewNullDecimal(pnl),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	entries, err := repo.GetByUser(ctx, user, 10)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	stats, err := repo.GetStats(ctx, user)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalTrades != 3 || stats.OpenTrades != 1 || stats.Wins != 1 || stats.Losses != 1 || stats.Approved != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.TotalPnL.Equal(win.Add(loss)) {
		t.Fatalf("total pnl: got %s", stats.TotalPnL)
	}
	if !stats.WinRate.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("win rate: got %s", stats.WinRate)
	}

	all, err := repo.GetAll(ctx, 1)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(all))
	}
}

// ---------- TodoRepo ----------

func TestTodoRepo(t *testing.T) {
	pool := testutil.SetupPool(t)
	repo := repository.NewTodoRepo(pool)
	ctx := context.Background()
	user := testutil.NewUserID()
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM todos WHERE user_id = $1`, user) })

	a, err := repo.Create(ctx, user, "Review last week's trades", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(ctx, user, "Update trading plan", false); err != nil {
		t.Fatalf("Create: %v", err)
	}

	done := true
	updated, err := repo.Update(ctx, user, a.ID, repository.TodoUpdate{Completed: &done})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Completed || updated.Title != a.Title {
		t.Fatalf("unexpected update: %+v", updated)
	}

	if _, err := repo.Update(ctx, user, uuid.NewString(), repository.TodoUpdate{Completed: &done}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	n, err := repo.ClearCompleted(ctx, user)
	if err != nil || n != 1 {
		t.Fatalf("ClearCompleted: n=%d err=%v", n, err)
	}

	n, err = repo.ToggleAll(ctx, user, true)
	if err != nil || n != 1 {
		t.Fatalf("ToggleAll: n=%d err=%v", n, err)
	}

	todos, err := repo.ListByUser(ctx, user)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(todos) != 1 || !todos[0].Completed {
		t.Fatalf("unexpected todos: %+v", todos)
	}

	if err := repo.Delete(ctx, user, todos[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

// ---------- AnalyticsRepo ----------

func TestAnalyticsRepo(t *testing.T) {
	pool := testutil.SetupPool(t)
	repo := repository.NewAnalyticsRepo(pool)
	ctx := context.Background()

	if _, err := repo.BusinessMetrics(ctx); err != nil && !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("BusinessMetrics: %v", err)
	}
	if _, err := repo.StudentPenalties(ctx); err != nil {
		t.Fatalf("StudentPenalties: %v", err)
	}
	if _, err := repo.PenaltyTrends(ctx); err != nil {
		t.Fatalf("PenaltyTrends: %v", err)
	}
	if _, err := repo.RevenueGrowth(ctx); err != nil {
		t.Fatalf("RevenueGrowth: %v", err)
	}
}

func TestAnalyticsRepo_CourseCompletion(t *testing.T) {
	pool := testutil.SetupPool(t)
	repo := repository.NewAnalyticsRepo(pool)
	ctx := context.Background()

	var courseID string
	title := "Risk management " + uuid.NewString()
	if err := pool.QueryRow(ctx, `INSERT INTO courses (title) VALUES ($1) RETURNING id::text`, title).Scan(&courseID); err != nil {
		t.Fatalf("insert course: %v", err)
	}
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, courseID) })

	if _, err := pool.Exec(ctx,
		`INSERT INTO course_enrollments (user_id, course_id, progress, completed_at)
		 VALUES ($1, $3, 100, NOW()), ($2, $3, 50, NULL)`,
		testutil.NewUserID(), testutil.NewUserID(), courseID,
	); err != nil {
		t.Fatalf("insert enrollments: %v", err)
	}

	completion, err := repo.CourseCompletion(ctx)
	if err != nil {
		t.Fatalf("CourseCompletion: %v", err)
	}
	var found *models.CourseCompletion
	for i := range completion {
		if completion[i].CourseID == courseID {
			found = &completion[i]
		}
	}
	if found == nil {
		t.Fatalf("course %s missing from %+v", courseID, completion)
	}
	if found.Name != title || found.Enrolled != 2 || found.Completed != 1 || !found.Completion.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("unexpected completion row: %+v", found)
	}

	enrollments, err := repo.CourseEnrollments(ctx)
	if err != nil {
		t.Fatalf("CourseEnrollments: %v", err)
	}
	counted := false
	for _, e := range enrollments {
		if e.CourseID == courseID {
			counted = e.Enrollments == 2
		}
	}
	if !counted {
		t.Fatalf("expected 2 enrollments for %s in %+v", courseID, enrollments)
	}
}

func TestAnalyticsRepo_RuleViolations(t *testing.T) {
	pool := testutil.SetupPool(t)
	repo := repository.NewAnalyticsRepo(pool)
	rulesRepo := repository.NewRuleRepo(pool)
	journal := repository.NewJournalRepo(pool)
	ctx := context.Background()
	user := testutil.NewUserID()
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM trade_rules WHERE user_id = $1`, user)
		_, _ = pool.Exec(ctx, `DELETE FROM journal_entries WHERE user_id = $1`, user)
	})

	text := "Never trade the news " + uuid.NewString()
	if _, err := rulesRepo.Create(ctx, &models.TradeRule{UserID: user, Text: text, Type: models.RuleSell, Required: true}); err != nil {
		t.Fatalf("Create rule: %v", err)
	}
	rejected, approved := "rejected", "approved"
	for _, e := range []models.JournalEntry{
		{UserID: user, Pair: "EURUSD", Type: "sell", ValidationResult: &rejected},
		{UserID: user, Pair: "EURUSD", Type: "buy", ValidationResult: &rejected},
		{UserID: user, Pair: "EURUSD", Type: "sell", ValidationResult: &approved},
	} {
		if _, err := journal.Create(ctx, &e); err != nil {
			t.Fatalf("Create entry: %v", err)
		}
	}

	violations, err := repo.RuleViolations(ctx)
	if err != nil {
		t.Fatalf("RuleViolations: %v", err)
	}
	for _, v := range violations {
		if v.Rule == text {
			if v.Type != "sell" || v.Violations != 1 || v.Students != 1 {
				t.Fatalf("unexpected violation row: %+v", v)
			}
			return
		}
	}
	t.Fatalf("rule %q missing from %+v", text, violations)
}

// ---------- StudentRepo ----------

func TestStudentRepo(t *testing.T) {
	pool := testutil.SetupPool(t)
	repo := repository.NewStudentRepo(pool)
	ctx := context.Background()
	id := testutil.NewUserID()
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id) })

	if _, err := repo.Get(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := pool.Exec(ctx,
		`INSERT INTO profiles (id, name, email) VALUES ($1, 'Ada', 'ada@example.com')`, id,
	); err != nil {
		t.Fatalf("insert profile: %v", err)
	}

	s, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Name != "Ada" || s.Tier != models.TierFoundation || s.Status != "active" || s.TradeCount != 0 {
		t.Fatalf("unexpected student: %+v", s)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	listed := false
	for _, st := range list {
		listed = listed || st.ID == id
	}
	if !listed {
		t.Fatal("student missing from List")
	}

	elite := models.TierElite
	name := "Ada Lovelace"
	updated, err := repo.Update(ctx, id, repository.StudentUpdate{Name: &name, Tier: &elite})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != name || updated.Tier != models.TierElite || updated.Email != "ada@example.com" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second Delete: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Update(ctx, id, repository.StudentUpdate{Name: &name}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Update after delete: expected ErrNotFound, got %v", err)
	}
}
