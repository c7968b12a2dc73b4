package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

const badgeColumns = `id, name, description, type, criteria, points, created_at`

func scanBadge(scanner interface{ Scan(dest ...any) error }) (*domain.Badge, error) {
	var (
		b         domain.Badge
		typ       string
		criteria  string
		createdAt string
	)
	if err := scanner.Scan(&b.ID, &b.Name, &b.Description, &typ, &criteria, &b.Points, &createdAt); err != nil {
		return nil, err
	}
	b.Type = domain.BadgeType(typ)
	b.Criteria = []byte(criteria)

	var err error
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBadgeByName returns store.ErrNotFound if no badge has (name, type).
func (s *Store) GetBadgeByName(ctx context.Context, name string, typ domain.BadgeType) (*domain.Badge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+badgeColumns+` FROM badges WHERE name = ? AND type = ?`, name, string(typ))
	b, err := scanBadge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return b, err
}

// CreateBadge inserts a catalog row.
// Returns store.ErrAlreadyExists if (name, type) was created by someone else.
func (s *Store) CreateBadge(ctx context.Context, b *domain.Badge) error {
	criteria := string(b.Criteria)
	if criteria == "" {
		criteria = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO badges (`+badgeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Description, string(b.Type), criteria, b.Points, formatTime(b.CreatedAt))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ListBadges returns the whole catalog ordered by type then name.
func (s *Store) ListBadges(ctx context.Context) ([]*domain.Badge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+badgeColumns+` FROM badges ORDER BY type, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetUserBadge returns store.ErrNotFound if the reader does not hold the badge.
func (s *Store) GetUserBadge(ctx context.Context, readerID, badgeID string) (*domain.UserBadge, error) {
	var (
		ub        domain.UserBadge
		awardedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT reader_id, badge_id, awarded_at FROM user_badges
		WHERE reader_id = ? AND badge_id = ?`, readerID, badgeID).Scan(&ub.ReaderID, &ub.BadgeID, &awardedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if ub.AwardedAt, err = parseTime(awardedAt); err != nil {
		return nil, err
	}
	return &ub, nil
}

// CreateUserBadge records an award.
// Returns store.ErrAlreadyExists if the reader already holds the badge.
func (s *Store) CreateUserBadge(ctx context.Context, ub *domain.UserBadge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_badges (reader_id, badge_id, awarded_at) VALUES (?, ?, ?)`,
		ub.ReaderID, ub.BadgeID, formatTime(ub.AwardedAt))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ListUserBadges returns a reader's badges, most recent award first.
func (s *Store) ListUserBadges(ctx context.Context, readerID string) ([]*domain.AwardedBadge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.name, b.description, b.type, b.criteria, b.points, b.created_at, ub.awarded_at
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.reader_id = ?
		ORDER BY ub.awarded_at DESC, b.name`, readerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.AwardedBadge{}
	for rows.Next() {
		var (
			ab        domain.AwardedBadge
			typ       string
			criteria  string
			createdAt string
			awardedAt string
		)
		if err := rows.Scan(&ab.ID, &ab.Name, &ab.Description, &typ, &criteria, &ab.Points, &createdAt, &awardedAt); err != nil {
			return nil, err
		}
		ab.Type = domain.BadgeType(typ)
		ab.Criteria = []byte(criteria)
		if ab.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if ab.AwardedAt, err = parseTime(awardedAt); err != nil {
			return nil, err
		}
		out = append(out, &ab)
	}
	return out, rows.Err()
}
