package outbox

import (
	"context"
	"errors"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/sse"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// Emitter is the notification side of delivery.
type Emitter interface {
	Emit(event sse.Event)
}

// StoreHandler writes each activity to the feed table and announces it.
// A replayed activity is already in the table and is not announced again.
func StoreHandler(activities store.Activities, events Emitter) Handler {
	return func(ctx context.Context, a *domain.Activity) error {
		err := activities.CreateActivity(ctx, a)
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		if err != nil {
			return err
		}
		if events != nil {
			events.Emit(sse.NewActivityCreatedEvent(a))
		}
		return nil
	}
}
