package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/maichez-backend/internal/models"
)

const studentColumns = `p.id, p.name, p.email, p.tier, p.status,
	(SELECT COUNT(*) FROM journal_entries j WHERE j.user_id = p.id),
	p.created_at, p.updated_at`

// StudentRepo manages student profiles for the admin portal.
type StudentRepo struct {
	pool *pgxpool.Pool
}

func NewStudentRepo(pool *pgxpool.Pool) *StudentRepo {
	return &StudentRepo{pool: pool}
}

type StudentUpdate struct {
	Name  *string
	Email *string
	Tier  *models.StudentTier
}

// List returns every student, newest first.
func (r *StudentRepo) List(ctx context.Context) ([]models.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+studentColumns+` FROM profiles p ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()
	return collectStudents(rows)
}

func (r *StudentRepo) Get(ctx context.Context, id string) (*models.Student, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM profiles p WHERE p.id = $1`, id,
	)
	s, err := scanStudent(row)
	if err != nil {
		return nil, fmt.Errorf("get student %s: %w", id, notFound(err))
	}
	return s, nil
}

func (r *StudentRepo) Update(ctx context.Context, id string, u StudentUpdate) (*models.Student, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET
		   name       = COALESCE($2, name),
		   email      = COALESCE($3, email),
		   tier       = COALESCE($4, tier),
		   updated_at = NOW()
		 WHERE id = $1`,
		id, u.Name, u.Email, u.Tier,
	)
	if err != nil {
		return nil, fmt.Errorf("update student %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("update student %s: %w", id, ErrNotFound)
	}
	return r.Get(ctx, id)
}

// Delete removes the profile. Journal entries, rules and todos are kept.
func (r *StudentRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete student %s: %w", id, ErrNotFound)
	}
	return nil
}

func collectStudents(rows rowsIter) ([]models.Student, error) {
	out := []models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func scanStudent(row scannable) (*models.Student, error) {
	var s models.Student
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Tier, &s.Status, &s.TradeCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
