package backup

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/listenupapp/pagebound-server/internal/backup/stream"
	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// RestoreService loads an archive into an empty store.
type RestoreService struct {
	store  store.Store
	logger *slog.Logger
}

// NewRestoreService creates a RestoreService.
func NewRestoreService(s store.Store, logger *slog.Logger) *RestoreService {
	return &RestoreService{store: s, logger: logger}
}

// Validate checks a backup file without restoring it.
func (s *RestoreService) Validate(_ context.Context, path string) (*ValidationResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return &ValidationResult{Valid: false, Errors: []string{err.Error()}}, nil
	}
	defer zr.Close()

	result := &ValidationResult{Valid: true}

	manifest, err := readManifest(&zr.Reader)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}
	result.Manifest = manifest

	if !versionSupported(manifest.Version) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", ErrVersionMismatch, manifest.Version))
	}

	required := []string{booksFile, challengesFile, recordsFile, goalsFile, membershipsFile, streaksFile, badgesFile, userBadgesFile}
	for _, name := range required {
		if !hasFile(&zr.Reader, name) {
			result.Valid = false
			result.Errors = append(result.Errors, "missing "+name)
		}
	}
	if manifest.IncludesActivities && !hasFile(&zr.Reader, activitiesFile) {
		result.Warnings = append(result.Warnings, "manifest lists activities but the archive has none")
	}
	return result, nil
}

// Restore imports every entity in dependency order. The target must hold no
// books and no readers.
func (s *RestoreService) Restore(ctx context.Context, path string, opts RestoreOptions) (*RestoreResult, error) {
	start := time.Now()

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer zr.Close()

	manifest, err := readManifest(&zr.Reader)
	if err != nil {
		return nil, err
	}
	if !versionSupported(manifest.Version) {
		return nil, fmt.Errorf("%w: %s", ErrVersionMismatch, manifest.Version)
	}

	if !opts.DryRun {
		if err := s.requireEmpty(ctx); err != nil {
			return nil, err
		}
	}

	s.logger.Info("starting restore",
		"path", path,
		"backup_version", manifest.Version,
		"backup_date", manifest.CreatedAt,
		"dry_run", opts.DryRun)

	result := &RestoreResult{
		Imported: make(map[string]int),
		Skipped:  make(map[string]int),
	}
	r := &restorer{zr: &zr.Reader, result: result, dryRun: opts.DryRun}
	st := s.store

	steps := []func() error{
		func() error {
			return restoreEntities(ctx, r, "books", booksFile, func(b *domain.Book) string { return b.ID }, st.CreateBook)
		},
		func() error {
			return restoreEntities(ctx, r, "challenges", challengesFile, func(c *domain.Challenge) string { return c.ID }, st.CreateChallenge)
		},
		func() error {
			return restoreEntities(ctx, r, "records", recordsFile, func(rec *domain.ReadingRecord) string { return rec.ID }, st.CreateRecord)
		},
		func() error {
			return restoreEntities(ctx, r, "goals", goalsFile, func(g *domain.ReadingGoal) string { return g.ID }, st.UpsertGoal)
		},
		func() error {
			return restoreEntities(ctx, r, "memberships", membershipsFile, func(uc *domain.UserChallenge) string { return uc.ID }, st.CreateMembership)
		},
		func() error {
			return restoreEntities(ctx, r, "streaks", streaksFile, func(rs *domain.ReadingStreak) string { return rs.ReaderID }, st.CreateStreak)
		},
		func() error {
			return restoreEntities(ctx, r, "badges", badgesFile, func(b *domain.Badge) string { return b.ID }, st.CreateBadge)
		},
		func() error {
			return restoreEntities(ctx, r, "user_badges", userBadgesFile, func(ub *domain.UserBadge) string { return ub.ReaderID + "/" + ub.BadgeID }, st.CreateUserBadge)
		},
	}
	if manifest.IncludesActivities {
		steps = append(steps, func() error {
			return restoreEntities(ctx, r, "activities", activitiesFile, func(a *domain.Activity) string { return a.ID }, st.CreateActivity)
		})
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	s.logger.Info("restore complete",
		"duration", result.Duration,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"errors", len(result.Errors))
	return result, nil
}

func (s *RestoreService) requireEmpty(ctx context.Context) error {
	books, err := s.store.ListBookIDs(ctx)
	if err != nil {
		return fmt.Errorf("check books: %w", err)
	}
	readers, err := s.store.ListReaderIDs(ctx)
	if err != nil {
		return fmt.Errorf("check readers: %w", err)
	}
	if len(books) > 0 || len(readers) > 0 {
		return ErrStoreNotEmpty
	}
	return nil
}

type restorer struct {
	zr     *zip.Reader
	result *RestoreResult
	dryRun bool
}

func (r *restorer) fail(entityType, id string, err error) {
	r.result.Errors = append(r.result.Errors, RestoreError{
		EntityType: entityType,
		EntityID:   id,
		Error:      err.Error(),
	})
}

// restoreEntities streams one entity file into the store. Duplicates count
// as skipped; other per-entity failures are collected and do not stop the
// restore.
func restoreEntities[T any](
	ctx context.Context,
	r *restorer,
	entityType, path string,
	idOf func(*T) string,
	create func(context.Context, *T) error,
) error {
	rc, err := stream.OpenFile(r.zr, path)
	if errors.Is(err, stream.ErrFileNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	for entity, err := range stream.NewReader[T](rc).All() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			r.fail(entityType, "", err)
			continue
		}
		if r.dryRun {
			r.result.Imported[entityType]++
			continue
		}
		if err := create(ctx, &entity); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				r.result.Skipped[entityType]++
				continue
			}
			r.fail(entityType, idOf(&entity), err)
			continue
		}
		r.result.Imported[entityType]++
	}
	return nil
}

func readManifest(zr *zip.Reader) (*Manifest, error) {
	rc, err := stream.OpenFile(zr, manifestFile)
	if err != nil {
		return nil, ErrInvalidManifest
	}
	defer rc.Close()

	var m Manifest
	if err := json.NewDecoder(rc).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return &m, nil
}

func hasFile(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

// versionSupported accepts any archive with the same major version.
func versionSupported(v string) bool {
	major, _, _ := strings.Cut(v, ".")
	current, _, _ := strings.Cut(FormatVersion, ".")
	return major == current
}
