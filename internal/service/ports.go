package service

import (
	"context"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/sse"
)

// EventEmitter publishes reader notifications. *sse.Manager implements it.
type EventEmitter interface {
	Emit(event sse.Event)
}

// ActivitySink accepts feed entries for delivery. Enqueue must not block on
// delivery; the outbox persists the entry and returns.
type ActivitySink interface {
	Enqueue(ctx context.Context, a *domain.Activity) error
}

// JournalIndexer keeps the journal search index in step with records.
type JournalIndexer interface {
	IndexRecord(rec *domain.ReadingRecord, book *domain.Book) error
	RemoveRecord(recordID string) error
}

type nopEmitter struct{}

func (nopEmitter) Emit(sse.Event) {}

type nopIndexer struct{}

func (nopIndexer) IndexRecord(*domain.ReadingRecord, *domain.Book) error { return nil }
func (nopIndexer) RemoveRecord(string) error                             { return nil }

func emitterOrNop(e EventEmitter) EventEmitter {
	if e == nil {
		return nopEmitter{}
	}
	return e
}
