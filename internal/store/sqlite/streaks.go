package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

const streakColumns = `reader_id, current_streak, longest_streak, last_read_date, updated_at`

func scanStreak(scanner interface{ Scan(dest ...any) error }) (*domain.ReadingStreak, error) {
	var (
		st        domain.ReadingStreak
		lastRead  sql.NullString
		updatedAt string
	)
	if err := scanner.Scan(&st.ReaderID, &st.CurrentStreak, &st.LongestStreak, &lastRead, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if st.LastReadDate, err = parseNullableDate(lastRead); err != nil {
		return nil, err
	}
	if st.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStreak returns nil, nil if the reader has no streak row yet.
func (s *Store) GetStreak(ctx context.Context, readerID string) (*domain.ReadingStreak, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+streakColumns+` FROM reading_streaks WHERE reader_id = ?`, readerID)
	st, err := scanStreak(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return st, err
}

// CreateStreak inserts the first streak row for a reader.
// Returns store.ErrAlreadyExists if a row was created concurrently.
func (s *Store) CreateStreak(ctx context.Context, st *domain.ReadingStreak) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reading_streaks (`+streakColumns+`) VALUES (?, ?, ?, ?, ?)`,
		st.ReaderID, st.CurrentStreak, st.LongestStreak, nullDateString(st.LastReadDate), formatTime(st.UpdatedAt))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// SwapStreak updates the row only if last_read_date still holds expectedLast.
// Returns store.ErrConflict when another writer got there first.
func (s *Store) SwapStreak(ctx context.Context, next *domain.ReadingStreak, expectedLast *time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reading_streaks SET
			current_streak = ?,
			longest_streak = ?,
			last_read_date = ?,
			updated_at = ?
		WHERE reader_id = ? AND last_read_date IS ?`,
		next.CurrentStreak,
		next.LongestStreak,
		nullDateString(next.LastReadDate),
		formatTime(next.UpdatedAt),
		next.ReaderID,
		nullDateString(expectedLast),
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

// ListStreaks returns every streak row.
func (s *Store) ListStreaks(ctx context.Context) ([]*domain.ReadingStreak, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+streakColumns+` FROM reading_streaks ORDER BY reader_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ReadingStreak
	for rows.Next() {
		st, err := scanStreak(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
