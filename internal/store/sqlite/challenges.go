package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

const challengeColumns = `c.id, c.name, c.description, c.kind, c.target_value,
	c.start_date, c.end_date, c.is_active, c.created_by, c.created_at`

func scanChallenge(dest *domain.Challenge, scan func(extra ...any) error, extra ...any) error {
	var (
		kind      string
		startDate string
		endDate   string
		isActive  int
		createdAt string
	)
	fields := []any{
		&dest.ID, &dest.Name, &dest.Description, &kind, &dest.TargetValue,
		&startDate, &endDate, &isActive, &dest.CreatedBy, &createdAt,
	}
	if err := scan(append(fields, extra...)...); err != nil {
		return err
	}

	dest.Kind = domain.ChallengeKind(kind)
	dest.IsActive = isActive != 0

	var err error
	if dest.StartDate, err = domain.ParseDate(startDate); err != nil {
		return err
	}
	if dest.EndDate, err = domain.ParseDate(endDate); err != nil {
		return err
	}
	dest.CreatedAt, err = parseTime(createdAt)
	return err
}

// CreateChallenge inserts a challenge definition.
func (s *Store) CreateChallenge(ctx context.Context, c *domain.Challenge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO challenges (id, name, description, kind, target_value, start_date, end_date, is_active, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, string(c.Kind), c.TargetValue,
		formatDate(c.StartDate), formatDate(c.EndDate), boolToInt(c.IsActive), c.CreatedBy, formatTime(c.CreatedAt))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetChallenge returns store.ErrNotFound if the challenge does not exist.
func (s *Store) GetChallenge(ctx context.Context, id string) (*domain.Challenge, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+challengeColumns+` FROM challenges c WHERE c.id = ?`, id)
	var c domain.Challenge
	err := scanChallenge(&c, row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChallenges returns every challenge definition, oldest first.
func (s *Store) ListChallenges(ctx context.Context) ([]*domain.Challenge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+challengeColumns+` FROM challenges c ORDER BY c.created_at, c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Challenge{}
	for rows.Next() {
		var c domain.Challenge
		if err := scanChallenge(&c, rows.Scan); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// CreateMembership joins a reader to a challenge.
// Returns store.ErrAlreadyExists if the reader already joined.
func (s *Store) CreateMembership(ctx context.Context, uc *domain.UserChallenge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_challenges (id, reader_id, challenge_id, current_value, is_completed, completed_at, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uc.ID, uc.ReaderID, uc.ChallengeID, uc.CurrentValue, boolToInt(uc.IsCompleted),
		nullTimeString(uc.CompletedAt), formatTime(uc.JoinedAt))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ListMemberships returns a reader's challenge memberships with their definitions.
func (s *Store) ListMemberships(ctx context.Context, readerID string, activeOnly bool) ([]store.Membership, error) {
	query := `
		SELECT ` + challengeColumns + `,
			uc.id, uc.reader_id, uc.challenge_id, uc.current_value, uc.is_completed, uc.completed_at, uc.joined_at
		FROM user_challenges uc
		JOIN challenges c ON c.id = uc.challenge_id
		WHERE uc.reader_id = ?`
	if activeOnly {
		query += ` AND c.is_active = 1`
	}
	query += ` ORDER BY c.end_date, c.id`

	rows, err := s.db.QueryContext(ctx, query, readerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.Membership{}
	for rows.Next() {
		var (
			c           domain.Challenge
			uc          domain.UserChallenge
			isCompleted int
			completedAt sql.NullString
			joinedAt    string
		)
		err := scanChallenge(&c, rows.Scan,
			&uc.ID, &uc.ReaderID, &uc.ChallengeID, &uc.CurrentValue, &isCompleted, &completedAt, &joinedAt)
		if err != nil {
			return nil, err
		}
		uc.IsCompleted = isCompleted != 0
		if uc.CompletedAt, err = parseNullableTime(completedAt); err != nil {
			return nil, err
		}
		if uc.JoinedAt, err = parseTime(joinedAt); err != nil {
			return nil, err
		}
		out = append(out, store.Membership{Challenge: &c, Progress: &uc})
	}
	return out, rows.Err()
}

// UpdateMembershipProgress writes the recomputed value and completion state.
// A completed membership is never reverted by this write.
func (s *Store) UpdateMembershipProgress(ctx context.Context, uc *domain.UserChallenge) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_challenges SET
			current_value = ?,
			is_completed = MAX(is_completed, ?),
			completed_at = COALESCE(completed_at, ?)
		WHERE id = ?`,
		uc.CurrentValue, boolToInt(uc.IsCompleted), nullTimeString(uc.CompletedAt), uc.ID)
	if err != nil {
		return err
	}
	return requireRow(result)
}
