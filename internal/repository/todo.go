package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/maichez-backend/internal/models"
)

const todoColumns = `id, user_id, title, completed, created_at, updated_at`

type TodoRepo struct {
	pool *pgxpool.Pool
}

func NewTodoRepo(pool *pgxpool.Pool) *TodoRepo {
	return &TodoRepo{pool: pool}
}

type TodoUpdate struct {
	Title     *string
	Completed *bool
}

// ListByUser returns a user's todos, newest first.
func (r *TodoRepo) ListByUser(ctx context.Context, userID string) ([]models.Todo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	out := []models.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TodoRepo) Create(ctx context.Context, userID, title string, completed bool) (*models.Todo, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO todos (user_id, title, completed) VALUES ($1, $2, $3)
		 RETURNING `+todoColumns,
		userID, title, completed,
	)
	t, err := scanTodo(row)
	if err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return t, nil
}

func (r *TodoRepo) Update(ctx context.Context, userID, id string, u TodoUpdate) (*models.Todo, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE todos SET
		   title      = COALESCE($3, title),
		   completed  = COALESCE($4, completed),
		   updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+todoColumns,
		id, userID, u.Title, u.Completed,
	)
	t, err := scanTodo(row)
	if err != nil {
		return nil, fmt.Errorf("update todo %s: %w", id, notFound(err))
	}
	return t, nil
}

func (r *TodoRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete todo %s: %w", id, ErrNotFound)
	}
	return nil
}

// ToggleAll sets every todo of the user to completed and returns how many rows changed.
func (r *TodoRepo) ToggleAll(ctx context.Context, userID string, completed bool) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE todos SET completed = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, completed,
	)
	if err != nil {
		return 0, fmt.Errorf("toggle todos: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TodoRepo) ClearCompleted(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE user_id = $1 AND completed`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear completed todos: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanTodo(row scannable) (*models.Todo, error) {
	var t models.Todo
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
