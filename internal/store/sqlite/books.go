package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/genre"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// CreateBook inserts a book and its canonical genre slugs.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (id, title, author, isbn, page_count, average_rating, total_ratings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		book.Title,
		book.Author,
		nullString(book.ISBN),
		book.PageCount,
		nullFloat(book.AverageRating),
		book.TotalRatings,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}

	book.Genres = genre.Normalize(book.Genres)
	for i, g := range book.Genres {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO book_genres (book_id, genre, position) VALUES (?, ?, ?)`,
			book.ID, g, i); err != nil {
			return fmt.Errorf("insert genre %q: %w", g, err)
		}
	}

	return tx.Commit()
}

// GetBook returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	var (
		b         domain.Book
		isbn      sql.NullString
		avg       sql.NullFloat64
		createdAt string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, author, isbn, page_count, average_rating, total_ratings, created_at, updated_at
		FROM books WHERE id = ?`, id).Scan(
		&b.ID, &b.Title, &b.Author, &isbn, &b.PageCount, &avg, &b.TotalRatings, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b.ISBN = isbn.String
	b.AverageRating = floatPtr(avg)
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	b.Genres, err = s.bookGenres(ctx, id)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) bookGenres(ctx context.Context, bookID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT genre FROM book_genres WHERE book_id = ? ORDER BY position`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	genres := []string{}
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// ListBookIDs returns every book id.
func (s *Store) ListBookIDs(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT id FROM books ORDER BY id`)
}

// UpdateBookRating overwrites average_rating and total_ratings.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) UpdateBookRating(ctx context.Context, bookID string, summary domain.RatingSummary) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE books SET average_rating = ?, total_ratings = ? WHERE id = ?`,
		nullFloat(summary.Average), summary.Count, bookID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
