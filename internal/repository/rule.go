package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/maichez-backend/internal/models"
)

const ruleColumns = `id, user_id, text, type, required, order_number, created_at, updated_at`

type RuleRepo struct {
	pool *pgxpool.Pool
}

func NewRuleRepo(pool *pgxpool.Pool) *RuleRepo {
	return &RuleRepo{pool: pool}
}

// RuleUpdate carries the fields to change. Nil fields are left as they are.
type RuleUpdate struct {
	Text        *string
	Type        *models.RuleType
	Required    *bool
	OrderNumber *int
}

// ListByUser returns a user's rules in display order.
func (r *RuleRepo) ListByUser(ctx context.Context, userID string) ([]models.TradeRule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ruleColumns+` FROM trade_rules
		 WHERE user_id = $1
		 ORDER BY order_number ASC, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()
	return collectRules(rows)
}

// Create inserts a rule. A zero OrderNumber appends it after the user's last rule.
func (r *RuleRepo) Create(ctx context.Context, rule *models.TradeRule) (*models.TradeRule, error) {
	typ := rule.Type
	if typ == "" {
		typ = models.RuleGeneral
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO trade_rules (user_id, text, type, required, order_number)
		 VALUES ($1, $2, $3, $4,
		   CASE WHEN $5::int > 0 THEN $5::int
		        ELSE (SELECT COALESCE(MAX(order_number), 0) + 1 FROM trade_rules WHERE user_id = $1)
		   END)
		 RETURNING `+ruleColumns,
		rule.UserID, rule.Text, typ, rule.Required, rule.OrderNumber,
	)
	created, err := scanRule(row)
	if err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}
	return created, nil
}

func (r *RuleRepo) Update(ctx context.Context, userID, id string, u RuleUpdate) (*models.TradeRule, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE trade_rules SET
		   text         = COALESCE($3, text),
		   type         = COALESCE($4, type),
		   required     = COALESCE($5, required),
		   order_number = COALESCE($6, order_number),
		   updated_at   = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+ruleColumns,
		id, userID, u.Text, u.Type, u.Required, u.OrderNumber,
	)
	updated, err := scanRule(row)
	if err != nil {
		return nil, fmt.Errorf("update rule %s: %w", id, notFound(err))
	}
	return updated, nil
}

func (r *RuleRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM trade_rules WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete rule %s: %w", id, ErrNotFound)
	}
	return nil
}

// Fingerprint summarises a user's rule list for change polling.
func (r *RuleRepo) Fingerprint(ctx context.Context, userID string) (models.RuleFingerprint, error) {
	var f models.RuleFingerprint
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), MAX(updated_at) FROM trade_rules WHERE user_id = $1`,
		userID,
	).Scan(&f.Count, &f.LastUpdate)
	if err != nil {
		return models.RuleFingerprint{}, fmt.Errorf("rule fingerprint: %w", err)
	}
	return f, nil
}

// --- scan helpers ---

func scanRule(row scannable) (*models.TradeRule, error) {
	var t models.TradeRule
	err := row.Scan(
		&t.ID, &t.UserID, &t.Text, &t.Type, &t.Required, &t.OrderNumber,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectRules(rows rowsIter) ([]models.TradeRule, error) {
	out := []models.TradeRule{}
	for rows.Next() {
		t, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
