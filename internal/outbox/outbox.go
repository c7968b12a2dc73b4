// Package outbox is a durable queue between the reading engine and the
// activity feed. Enqueue persists an entry in badger and returns; workers
// deliver entries in the background and delete them once delivered.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/listenupapp/pagebound-server/internal/domain"
)

const (
	keyPrefix = "activity:"
	// MaxAttempts is how many failed deliveries an entry survives before it
	// is dropped.
	MaxAttempts   = 10
	sweepInterval = 5 * time.Second
	batchSize     = 64
)

// Handler delivers one activity. Delivering the same activity twice must be
// harmless.
type Handler func(ctx context.Context, a *domain.Activity) error

type envelope struct {
	Activity *domain.Activity `json:"activity"`
	Attempts int              `json:"attempts"`
}

// Options configures an Outbox.
type Options struct {
	// Path is the badger directory. Empty keeps the queue in memory.
	Path    string
	Workers int
	Logger  *slog.Logger
}

// Outbox is a badger-backed activity queue.
type Outbox struct {
	db      *badger.DB
	handler Handler
	workers int
	logger  *slog.Logger

	wake   chan struct{}
	jobs   chan []byte
	mu     sync.Mutex
	claims map[string]bool

	wg       sync.WaitGroup
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// Open opens (or creates) the outbox. Call Start to begin delivery.
func Open(opts Options, handler Handler) (*Outbox, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" {
		bopts = bopts.WithInMemory(true)
	}
	bopts.Logger = nil
	bopts.SyncWrites = true

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open outbox: %w", err)
	}

	workers := max(opts.Workers, 1)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Outbox{
		db:      db,
		handler: handler,
		workers: workers,
		logger:  logger,
		wake:    make(chan struct{}, 1),
		jobs:    make(chan []byte),
		claims:  make(map[string]bool),
	}, nil
}

// Enqueue persists a and wakes the dispatcher. Keys are UUIDv7 so entries
// are delivered roughly in the order they were produced.
func (o *Outbox) Enqueue(ctx context.Context, a *domain.Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("outbox key: %w", err)
	}
	val, err := json.Marshal(envelope{Activity: a})
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}

	if err := o.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key.String()), val)
	}); err != nil {
		return fmt.Errorf("persist activity: %w", err)
	}

	select {
	case o.wake <- struct{}{}:
	default:
	}
	return nil
}

// Start launches the dispatcher and workers. Entries left over from a
// previous run are picked up on the first sweep.
func (o *Outbox) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	for range o.workers {
		o.wg.Add(1)
		go o.work(ctx)
	}

	o.wg.Add(1)
	go o.dispatch(ctx)

	o.logger.Info("activity outbox started", "workers", o.workers)
}

// Shutdown stops delivery and closes the database. Undelivered entries stay
// on disk for the next start.
func (o *Outbox) Shutdown(ctx context.Context) error {
	var err error
	o.stopOnce.Do(func() {
		if o.cancel != nil {
			o.cancel()
		}

		done := make(chan struct{})
		go func() {
			o.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			o.logger.Warn("outbox workers did not stop before deadline")
		}

		err = o.db.Close()
	})
	return err
}

// Pending returns the number of undelivered entries.
func (o *Outbox) Pending() (int, error) {
	keys, err := o.pendingKeys(0)
	return len(keys), err
}

// Flush delivers every pending entry on the calling goroutine.
func (o *Outbox) Flush(ctx context.Context) error {
	keys, err := o.pendingKeys(0)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if !o.claim(key) {
			continue
		}
		o.deliver(ctx, key)
		o.release(key)
	}
	return nil
}

func (o *Outbox) dispatch(ctx context.Context) {
	defer o.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		keys, err := o.pendingKeys(batchSize)
		if err != nil && !errors.Is(err, badger.ErrDBClosed) {
			o.logger.Error("outbox scan failed", "error", err)
		}
		for _, key := range keys {
			if !o.claim(key) {
				continue
			}
			select {
			case o.jobs <- key:
			case <-ctx.Done():
				o.release(key)
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-o.wake:
		case <-ticker.C:
		}
	}
}

func (o *Outbox) work(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case key := <-o.jobs:
			o.deliver(ctx, key)
			o.release(key)
		}
	}
}

// deliver runs the handler for one entry. Delivered entries are deleted;
// failed ones are kept with an incremented attempt count until MaxAttempts.
func (o *Outbox) deliver(ctx context.Context, key []byte) {
	var env envelope
	err := o.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &env)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return
	}
	if err != nil {
		o.logger.Error("outbox entry unreadable, dropping", "key", string(key), "error", err)
		o.remove(key)
		return
	}

	if err := o.handler(ctx, env.Activity); err != nil {
		env.Attempts++
		if env.Attempts >= MaxAttempts {
			o.logger.Error("activity dropped after repeated delivery failures",
				"activity_id", env.Activity.ID,
				"reader_id", env.Activity.ReaderID,
				"attempts", env.Attempts,
				"error", err,
			)
			o.remove(key)
			return
		}
		o.logger.Warn("activity delivery failed, will retry",
			"activity_id", env.Activity.ID,
			"attempts", env.Attempts,
			"error", err,
		)
		val, _ := json.Marshal(env)
		if uerr := o.db.Update(func(txn *badger.Txn) error { return txn.Set(key, val) }); uerr != nil {
			o.logger.Error("outbox attempt count not saved", "error", uerr)
		}
		return
	}

	o.remove(key)
}

func (o *Outbox) remove(key []byte) {
	if err := o.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) }); err != nil {
		o.logger.Error("outbox delete failed", "key", string(key), "error", err)
	}
}

// pendingKeys lists up to limit entry keys in key order. Zero means no limit.
func (o *Outbox) pendingKeys(limit int) ([][]byte, error) {
	var keys [][]byte
	prefix := []byte(keyPrefix)

	err := o.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
			if limit > 0 && len(keys) >= limit {
				break
			}
		}
		return nil
	})
	return keys, err
}

func (o *Outbox) claim(key []byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.claims[string(key)] {
		return false
	}
	o.claims[string(key)] = true
	return true
}

func (o *Outbox) release(key []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.claims, string(key))
}
