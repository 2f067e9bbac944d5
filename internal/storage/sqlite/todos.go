package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"todoapi/internal/models"
)

const todoColumns = `id, title, description, completed, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(row scanner) (models.Todo, error) {
	var (
		t           models.Todo
		description sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Title, &description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Todo{}, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	return t, nil
}

// CreateTodo inserts a todo; the store assigns the id and both timestamps.
func (s *Store) CreateTodo(ctx context.Context, title string, description *string) (models.Todo, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO todos (title, description) VALUES (?, ?) RETURNING `+todoColumns,
		title, nullString(description))
	t, err := scanTodo(row)
	if err != nil {
		return models.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return t, nil
}

// ListTodos returns every todo ordered by ascending id.
func (s *Store) ListTodos(ctx context.Context) ([]models.Todo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+todoColumns+` FROM todos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// GetTodo fetches a todo by id. The boolean is false when no such todo exists.
func (s *Store) GetTodo(ctx context.Context, id int64) (models.Todo, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Todo{}, false, nil
	}
	if err != nil {
		return models.Todo{}, false, fmt.Errorf("get todo: %w", err)
	}
	return t, true, nil
}

// UpdateTodo replaces title, description and completed and refreshes updated_at.
// The boolean is false when no such todo exists; nothing is created in that case.
func (s *Store) UpdateTodo(ctx context.Context, id int64, title string, description *string, completed bool) (models.Todo, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE todos
            SET title = ?, description = ?, completed = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%S', 'now')
            WHERE id = ?
            RETURNING `+todoColumns,
		title, nullString(description), completed, id)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Todo{}, false, nil
	}
	if err != nil {
		return models.Todo{}, false, fmt.Errorf("update todo: %w", err)
	}
	return t, true, nil
}

// DeleteTodo removes a todo by id and reports whether a row was removed.
func (s *Store) DeleteTodo(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete todo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete todo: %w", err)
	}
	return affected > 0, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
