package backup

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/listenupapp/pagebound-server/internal/backup/stream"
	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

const archiveSuffix = ".pagebound.zip"

// BackupService manages backup creation and listing.
type BackupService struct {
	store     store.Store
	backupDir string
	logger    *slog.Logger
}

// NewBackupService creates a BackupService.
func NewBackupService(s store.Store, backupDir string, logger *slog.Logger) *BackupService {
	return &BackupService{store: s, backupDir: backupDir, logger: logger}
}

// Create writes a new backup archive.
func (s *BackupService) Create(ctx context.Context, opts BackupOptions) (*BackupResult, error) {
	start := time.Now()

	if err := os.MkdirAll(s.backupDir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		timestamp := time.Now().UTC().Format("2006-01-02-150405")
		outputPath = filepath.Join(s.backupDir, "backup-"+timestamp+archiveSuffix)
	}

	s.logger.Info("creating backup",
		"output", outputPath,
		"include_activities", opts.IncludeActivities)

	// Write to a temp file and rename on success.
	tmpPath := outputPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmpPath)
	defer f.Close()

	hash := sha256.New()
	zw := zip.NewWriter(io.MultiWriter(f, hash))

	manifest := &Manifest{
		Version:            FormatVersion,
		CreatedAt:          time.Now().UTC(),
		IncludesActivities: opts.IncludeActivities,
	}
	if err := s.export(ctx, zw, manifest); err != nil {
		return nil, err
	}

	// Manifest goes last so it carries the final counts.
	w, err := zw.Create(manifestFile)
	if err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	if err := json.NewEncoder(w).Encode(manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return nil, fmt.Errorf("rename backup: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, err
	}

	result := &BackupResult{
		Path:     outputPath,
		Size:     info.Size(),
		Counts:   manifest.Counts,
		Duration: time.Since(start),
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}
	s.logger.Info("backup complete",
		"path", result.Path,
		"size", result.Size,
		"duration", result.Duration,
		"checksum", result.Checksum)
	return result, nil
}

// readerData is everything exported per reader.
type readerData struct {
	records     []*domain.ReadingRecord
	goals       []*domain.ReadingGoal
	memberships []*domain.UserChallenge
	userBadges  []*domain.UserBadge
	activities  []*domain.Activity
}

// export writes every entity file in dependency order.
func (s *BackupService) export(ctx context.Context, zw *zip.Writer, m *Manifest) error {
	counts := &m.Counts

	books, err := s.exportBooks(ctx)
	if err != nil {
		return fmt.Errorf("export books: %w", err)
	}
	challenges, err := s.store.ListChallenges(ctx)
	if err != nil {
		return fmt.Errorf("export challenges: %w", err)
	}
	streaks, err := s.store.ListStreaks(ctx)
	if err != nil {
		return fmt.Errorf("export streaks: %w", err)
	}
	badges, err := s.store.ListBadges(ctx)
	if err != nil {
		return fmt.Errorf("export badges: %w", err)
	}

	readerIDs, err := s.store.ListReaderIDs(ctx)
	if err != nil {
		return fmt.Errorf("list readers: %w", err)
	}
	var all readerData
	for _, readerID := range readerIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.collectReader(ctx, readerID, m.IncludesActivities, &all); err != nil {
			return fmt.Errorf("export reader %s: %w", readerID, err)
		}
	}

	steps := []struct {
		path  string
		write func() (int, error)
		dest  *int
	}{
		{booksFile, func() (int, error) { return stream.WriteAll(zw, booksFile, books) }, &counts.Books},
		{challengesFile, func() (int, error) { return stream.WriteAll(zw, challengesFile, challenges) }, &counts.Challenges},
		{recordsFile, func() (int, error) { return stream.WriteAll(zw, recordsFile, all.records) }, &counts.Records},
		{goalsFile, func() (int, error) { return stream.WriteAll(zw, goalsFile, all.goals) }, &counts.Goals},
		{membershipsFile, func() (int, error) { return stream.WriteAll(zw, membershipsFile, all.memberships) }, &counts.Memberships},
		{streaksFile, func() (int, error) { return stream.WriteAll(zw, streaksFile, streaks) }, &counts.Streaks},
		{badgesFile, func() (int, error) { return stream.WriteAll(zw, badgesFile, badges) }, &counts.Badges},
		{userBadgesFile, func() (int, error) { return stream.WriteAll(zw, userBadgesFile, all.userBadges) }, &counts.UserBadges},
	}
	if m.IncludesActivities {
		steps = append(steps, struct {
			path  string
			write func() (int, error)
			dest  *int
		}{activitiesFile, func() (int, error) { return stream.WriteAll(zw, activitiesFile, all.activities) }, &counts.Activities})
	}

	for _, step := range steps {
		n, err := step.write()
		if err != nil {
			return fmt.Errorf("write %s: %w", step.path, err)
		}
		*step.dest = n
	}
	return nil
}

func (s *BackupService) exportBooks(ctx context.Context) ([]*domain.Book, error) {
	ids, err := s.store.ListBookIDs(ctx)
	if err != nil {
		return nil, err
	}
	books := make([]*domain.Book, 0, len(ids))
	for _, id := range ids {
		b, err := s.store.GetBook(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get book %s: %w", id, err)
		}
		books = append(books, b)
	}
	return books, nil
}

func (s *BackupService) collectReader(ctx context.Context, readerID string, activities bool, out *readerData) error {
	records, err := s.store.ListRecords(ctx, readerID, "")
	if err != nil {
		return err
	}
	out.records = append(out.records, records...)

	goals, err := s.store.ListGoals(ctx, readerID)
	if err != nil {
		return err
	}
	out.goals = append(out.goals, goals...)

	memberships, err := s.store.ListMemberships(ctx, readerID, false)
	if err != nil {
		return err
	}
	for _, m := range memberships {
		out.memberships = append(out.memberships, m.Progress)
	}

	awarded, err := s.store.ListUserBadges(ctx, readerID)
	if err != nil {
		return err
	}
	for _, ab := range awarded {
		out.userBadges = append(out.userBadges, &domain.UserBadge{
			ReaderID:  readerID,
			BadgeID:   ab.ID,
			AwardedAt: ab.AwardedAt,
		})
	}

	if activities {
		feed, err := s.store.ListActivities(ctx, readerID, math.MaxInt32)
		if err != nil {
			return err
		}
		out.activities = append(out.activities, feed...)
	}
	return nil
}

// List returns all available backups, newest first.
func (s *BackupService) List(_ context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), archiveSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			ID:        strings.TrimSuffix(entry.Name(), archiveSuffix),
			Path:      filepath.Join(s.backupDir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Get returns a backup by ID.
func (s *BackupService) Get(_ context.Context, id string) (*BackupInfo, error) {
	path := s.Path(id)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, err
	}
	return &BackupInfo{ID: id, Path: path, Size: info.Size(), CreatedAt: info.ModTime()}, nil
}

// Delete removes a backup.
func (s *BackupService) Delete(ctx context.Context, id string) error {
	info, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return os.Remove(info.Path)
}

// Path returns the file path for a backup ID.
func (s *BackupService) Path(id string) string {
	return filepath.Join(s.backupDir, filepath.Base(id)+archiveSuffix)
}
