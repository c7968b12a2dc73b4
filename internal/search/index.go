package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/listenupapp/pagebound-server/internal/domain"
)

// JournalIndex wraps a bleve index of reading journals.
//
// All public methods are safe for concurrent use.
type JournalIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the index.
type Options struct {
	// Path is the index directory. Empty keeps the index in memory.
	Path   string
	Logger *slog.Logger
}

// mappingVersion is bumped whenever the mapping changes; a mismatch on open
// triggers a rebuild.
const mappingVersion = "1"

// Open creates or opens the journal index. A corrupt or outdated index is
// removed and recreated empty; the caller repopulates it with Reindex.
func Open(opts Options) (*JournalIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	if opts.Path == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &JournalIndex{index: index, logger: logger}, nil
	}

	versionPath := opts.Path + ".version"

	var index bleve.Index
	if _, statErr := os.Stat(opts.Path); statErr == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil || string(existing) != mappingVersion:
			logger.Info("journal index mapping changed, rebuilding",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
		default:
			var err error
			index, err = bleve.Open(opts.Path)
			if err != nil {
				logger.Warn("failed to open journal index, will recreate", "path", opts.Path, "error", err)
				index = nil
			}
		}
		if index == nil {
			if err := os.RemoveAll(opts.Path); err != nil {
				return nil, fmt.Errorf("remove old index: %w", err)
			}
		}
	}

	if index == nil {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o750); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		var err error
		index, err = bleve.New(opts.Path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o600); err != nil {
			logger.Warn("failed to write journal index version file", "error", err)
		}
		logger.Info("created journal index", "path", opts.Path, "mapping_version", mappingVersion)
	}

	return &JournalIndex{index: index, path: opts.Path, logger: logger}, nil
}

// Close closes the index.
func (j *JournalIndex) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.index.Close()
}

// IndexRecord adds or replaces the record's document.
func (j *JournalIndex) IndexRecord(rec *domain.ReadingRecord, book *domain.Book) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	doc := NewJournalDocument(rec, book)
	return j.index.Index(doc.ID, doc.ToMap())
}

// RemoveRecord drops a record's document.
func (j *JournalIndex) RemoveRecord(recordID string) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.index.Delete(recordID)
}

// Reindex indexes docs in batches of 500.
func (j *JournalIndex) Reindex(docs []*JournalDocument) error {
	j.mu.RLock()
	defer j.mu.RUnlock()

	const batchSize = 500
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		batch := j.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := j.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DocumentCount returns the number of indexed records.
func (j *JournalIndex) DocumentCount() (uint64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.index.DocCount()
}
