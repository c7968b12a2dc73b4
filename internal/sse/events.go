// Package sse pushes reader notifications (badges, record changes, feed
// entries) to connected clients over Server-Sent Events.
package sse

import (
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventHeartbeat keeps idle connections open.
	EventHeartbeat EventType = "heartbeat"

	EventRecordUpdated   EventType = "record.updated"
	EventRecordDeleted   EventType = "record.deleted"
	EventBadgeAwarded    EventType = "badge.awarded"
	EventStreakUpdated   EventType = "streak.updated"
	EventGoalUpdated     EventType = "goal.updated"
	EventChallengeDone   EventType = "challenge.completed"
	EventActivityCreated EventType = "activity.created"
)

// Event is a single notification. ReaderID routes it; an empty ReaderID
// goes to every client.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
	ReaderID  string    `json:"-"`
}

// RecordDeletedData identifies a removed record.
type RecordDeletedData struct {
	RecordID string `json:"record_id"`
	BookID   string `json:"book_id"`
}

// BadgeAwardedData carries badges awarded by one operation.
type BadgeAwardedData struct {
	Badges []*domain.AwardedBadge `json:"badges"`
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{Type: EventHeartbeat, Timestamp: time.Now(), Data: map[string]any{}}
}

// NewRecordUpdatedEvent announces the persisted state of a record.
func NewRecordUpdatedEvent(rec *domain.ReadingRecord) Event {
	return Event{Type: EventRecordUpdated, ReaderID: rec.ReaderID, Timestamp: time.Now(), Data: rec}
}

// NewRecordDeletedEvent announces a removed record.
func NewRecordDeletedEvent(rec *domain.ReadingRecord) Event {
	return Event{
		Type:      EventRecordDeleted,
		ReaderID:  rec.ReaderID,
		Timestamp: time.Now(),
		Data:      RecordDeletedData{RecordID: rec.ID, BookID: rec.BookID},
	}
}

// NewBadgeAwardedEvent announces newly awarded badges to their reader.
func NewBadgeAwardedEvent(readerID string, badges []*domain.AwardedBadge) Event {
	return Event{Type: EventBadgeAwarded, ReaderID: readerID, Timestamp: time.Now(), Data: BadgeAwardedData{Badges: badges}}
}

// NewStreakUpdatedEvent announces a changed streak.
func NewStreakUpdatedEvent(streak *domain.ReadingStreak) Event {
	return Event{Type: EventStreakUpdated, ReaderID: streak.ReaderID, Timestamp: time.Now(), Data: streak}
}

// NewGoalUpdatedEvent announces a recounted goal.
func NewGoalUpdatedEvent(goal *domain.ReadingGoal) Event {
	return Event{Type: EventGoalUpdated, ReaderID: goal.ReaderID, Timestamp: time.Now(), Data: goal}
}

// NewChallengeCompletedEvent announces a first-time challenge completion.
func NewChallengeCompletedEvent(uc *domain.UserChallenge) Event {
	return Event{Type: EventChallengeDone, ReaderID: uc.ReaderID, Timestamp: time.Now(), Data: uc}
}

// NewActivityCreatedEvent announces a delivered feed entry.
func NewActivityCreatedEvent(a *domain.Activity) Event {
	return Event{Type: EventActivityCreated, ReaderID: a.ReaderID, Timestamp: time.Now(), Data: a}
}
