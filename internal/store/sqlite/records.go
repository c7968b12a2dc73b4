package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// recordColumns must match the scan order in scanRecord.
const recordColumns = `id, reader_id, book_id, status, rating, review_text, notes,
	start_date, finish_date, is_favorite, is_private, current_page, created_at, updated_at`

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*domain.ReadingRecord, error) {
	var (
		r           domain.ReadingRecord
		status      string
		rating      sql.NullFloat64
		review      sql.NullString
		notes       sql.NullString
		startDate   sql.NullString
		finishDate  sql.NullString
		isFavorite  int
		isPrivate   int
		currentPage sql.NullInt64
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&r.ID, &r.ReaderID, &r.BookID, &status, &rating, &review, &notes,
		&startDate, &finishDate, &isFavorite, &isPrivate, &currentPage, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = domain.ReadingStatus(status)
	r.Rating = floatPtr(rating)
	r.ReviewText = stringPtr(review)
	r.Notes = stringPtr(notes)
	r.CurrentPage = intPtr(currentPage)
	r.IsFavorite = isFavorite != 0
	r.IsPrivate = isPrivate != 0

	if r.StartDate, err = parseNullableDate(startDate); err != nil {
		return nil, err
	}
	if r.FinishDate, err = parseNullableDate(finishDate); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRecord inserts a reading record.
// Returns store.ErrAlreadyExists if the reader already has a record for the book.
func (s *Store) CreateRecord(ctx context.Context, r *domain.ReadingRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reading_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ReaderID, r.BookID, string(r.Status),
		nullFloat(r.Rating), nullableString(r.ReviewText), nullableString(r.Notes),
		nullDateString(r.StartDate), nullDateString(r.FinishDate),
		boolToInt(r.IsFavorite), boolToInt(r.IsPrivate), nullInt(r.CurrentPage),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetRecord returns store.ErrNotFound if the record does not exist.
func (s *Store) GetRecord(ctx context.Context, id string) (*domain.ReadingRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM reading_records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return r, err
}

// UpdateRecord performs a full row update of the mutable fields.
// Returns store.ErrNotFound if the record does not exist.
func (s *Store) UpdateRecord(ctx context.Context, r *domain.ReadingRecord) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reading_records SET
			status = ?,
			rating = ?,
			review_text = ?,
			notes = ?,
			start_date = ?,
			finish_date = ?,
			is_favorite = ?,
			is_private = ?,
			current_page = ?,
			updated_at = ?
		WHERE id = ?`,
		string(r.Status),
		nullFloat(r.Rating),
		nullableString(r.ReviewText),
		nullableString(r.Notes),
		nullDateString(r.StartDate),
		nullDateString(r.FinishDate),
		boolToInt(r.IsFavorite),
		boolToInt(r.IsPrivate),
		nullInt(r.CurrentPage),
		formatTime(r.UpdatedAt),
		r.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// DeleteRecord returns store.ErrNotFound if the record does not exist.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reading_records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ListRecords returns a reader's records, most recently updated first.
func (s *Store) ListRecords(ctx context.Context, readerID string, status domain.ReadingStatus) ([]*domain.ReadingRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM reading_records WHERE reader_id = ?`
	args := []any{readerID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*domain.ReadingRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListReaderIDs returns every reader that owns derived state or records.
func (s *Store) ListReaderIDs(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `
		SELECT reader_id FROM reading_records
		UNION SELECT reader_id FROM reading_streaks
		UNION SELECT reader_id FROM reading_goals
		UNION SELECT reader_id FROM user_challenges
		ORDER BY reader_id`)
}

// PublicRatings returns the ratings of finished, non-private, rated records for a book.
func (s *Store) PublicRatings(ctx context.Context, bookID string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rating FROM reading_records
		WHERE book_id = ? AND status = 'FINISHED' AND is_private = 0 AND rating IS NOT NULL`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []float64
	for rows.Next() {
		var r float64
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// CountFinished counts a reader's finished records.
func (s *Store) CountFinished(ctx context.Context, readerID string) (int, error) {
	return s.count(ctx, `
		SELECT COUNT(*) FROM reading_records WHERE reader_id = ? AND status = 'FINISHED'`, readerID)
}

// CountReviewed counts finished records carrying non-empty review text.
func (s *Store) CountReviewed(ctx context.Context, readerID string) (int, error) {
	return s.count(ctx, `
		SELECT COUNT(*) FROM reading_records
		WHERE reader_id = ? AND status = 'FINISHED' AND review_text IS NOT NULL AND review_text <> ''`, readerID)
}

// CountFinishedByGenre groups a reader's finished records by book genre.
func (s *Store) CountFinishedByGenre(ctx context.Context, readerID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.genre, COUNT(*)
		FROM reading_records r
		JOIN book_genres g ON g.book_id = r.book_id
		WHERE r.reader_id = ? AND r.status = 'FINISHED'
		GROUP BY g.genre`, readerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			g string
			n int
		)
		if err := rows.Scan(&g, &n); err != nil {
			return nil, err
		}
		counts[g] = n
	}
	return counts, rows.Err()
}

// CountFinishedBetween counts finished records with finish_date in [from, to).
func (s *Store) CountFinishedBetween(ctx context.Context, readerID string, from, to time.Time) (int, error) {
	return s.count(ctx, `
		SELECT COUNT(*) FROM reading_records
		WHERE reader_id = ? AND status = 'FINISHED'
		  AND finish_date >= ? AND finish_date < ?`,
		readerID, formatDate(from), formatDate(to))
}

// SumPagesFinishedBetween sums page counts of books finished in [from, to).
func (s *Store) SumPagesFinishedBetween(ctx context.Context, readerID string, from, to time.Time) (int, error) {
	return s.count(ctx, `
		SELECT COALESCE(SUM(b.page_count), 0)
		FROM reading_records r
		JOIN books b ON b.id = r.book_id
		WHERE r.reader_id = ? AND r.status = 'FINISHED'
		  AND r.finish_date >= ? AND r.finish_date < ?`,
		readerID, formatDate(from), formatDate(to))
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
