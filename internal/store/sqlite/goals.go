package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

const goalColumns = `id, reader_id, year, target_books, current_books, created_at, updated_at`

func scanGoal(scanner interface{ Scan(dest ...any) error }) (*domain.ReadingGoal, error) {
	var (
		g         domain.ReadingGoal
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(&g.ID, &g.ReaderID, &g.Year, &g.TargetBooks, &g.CurrentBooks, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if g.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGoal returns store.ErrNotFound if the reader has no goal for year.
func (s *Store) GetGoal(ctx context.Context, readerID string, year int) (*domain.ReadingGoal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM reading_goals WHERE reader_id = ? AND year = ?`, readerID, year)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return g, err
}

// UpsertGoal creates the goal or updates its target and counter.
func (s *Store) UpsertGoal(ctx context.Context, g *domain.ReadingGoal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reading_goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(reader_id, year) DO UPDATE SET
			target_books = excluded.target_books,
			current_books = excluded.current_books,
			updated_at = excluded.updated_at`,
		g.ID, g.ReaderID, g.Year, g.TargetBooks, g.CurrentBooks, formatTime(g.CreatedAt), formatTime(g.UpdatedAt))
	return err
}

// SetGoalProgress overwrites current_books. Reports false when no goal row exists.
func (s *Store) SetGoalProgress(ctx context.Context, readerID string, year, current int) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reading_goals SET current_books = ? WHERE reader_id = ? AND year = ?`,
		current, readerID, year)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListGoals returns a reader's goals, newest year first.
func (s *Store) ListGoals(ctx context.Context, readerID string) ([]*domain.ReadingGoal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM reading_goals WHERE reader_id = ? ORDER BY year DESC`, readerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ReadingGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
