package sse

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/pagebound-server/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(func() {
		cancel()
		_ = m.Shutdown(context.Background())
	})
	return m
}

func receive(t *testing.T, c *Client) (Event, bool) {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e, true
	case <-time.After(200 * time.Millisecond):
		return Event{}, false
	}
}

func TestManager_DeliversOnlyToOwningReader(t *testing.T) {
	m := newTestManager(t)

	alice, err := m.Connect("reader-alice")
	require.NoError(t, err)
	bob, err := m.Connect("reader-bob")
	require.NoError(t, err)

	m.Emit(NewBadgeAwardedEvent("reader-alice", []*domain.AwardedBadge{
		{Badge: domain.Badge{Name: "Bookworm Beginner", Type: domain.BadgeReadingMilestone}},
	}))

	got, ok := receive(t, alice)
	require.True(t, ok)
	assert.Equal(t, EventBadgeAwarded, got.Type)
	data := got.Data.(BadgeAwardedData)
	assert.Equal(t, "Bookworm Beginner", data.Badges[0].Name)

	_, ok = receive(t, bob)
	assert.False(t, ok)
}

func TestManager_BroadcastWithoutReaderReachesEveryone(t *testing.T) {
	m := newTestManager(t)

	alice, _ := m.Connect("reader-alice")
	bob, _ := m.Connect("reader-bob")

	m.Emit(NewHeartbeatEvent())

	_, ok := receive(t, alice)
	assert.True(t, ok)
	_, ok = receive(t, bob)
	assert.True(t, ok)
}

func TestManager_Disconnect(t *testing.T) {
	m := newTestManager(t)

	c, err := m.Connect("reader-alice")
	require.NoError(t, err)
	require.Equal(t, 1, m.ClientCount())

	m.Disconnect(c.ID)
	m.Disconnect(c.ID)

	assert.Equal(t, 0, m.ClientCount())
	_, open := <-c.Done
	assert.False(t, open)
}

func TestManager_EmitAfterShutdownIsDropped(t *testing.T) {
	m := NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, m.Shutdown(context.Background()))

	assert.NotPanics(t, func() {
		m.Emit(NewRecordDeletedEvent(&domain.ReadingRecord{ID: "rec-1", ReaderID: "reader-alice"}))
	})
}
