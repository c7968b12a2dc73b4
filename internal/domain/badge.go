package domain

import (
	"encoding/json"
	"time"

	"github.com/listenupapp/pagebound-server/internal/genre"
)

// BadgeType groups badges by the metric they reward.
type BadgeType string

// Badge types.
const (
	BadgeReadingMilestone BadgeType = "READING_MILESTONE"
	BadgeReviewMaster     BadgeType = "REVIEW_MASTER"
	BadgeGenreExplorer    BadgeType = "GENRE_EXPLORER"
	BadgeReadingStreak    BadgeType = "READING_STREAK"
)

// Badge is a catalog entry. Rows are created lazily by the first reader to
// cross the threshold; (Name, Type) is globally unique.
type Badge struct {
	CreatedAt   time.Time       `json:"created_at"`
	Criteria    json.RawMessage `json:"criteria"`
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        BadgeType       `json:"type"`
	Points      int             `json:"points"`
}

// UserBadge records that a reader holds a badge. Immutable once written.
type UserBadge struct {
	AwardedAt time.Time `json:"awarded_at"`
	ReaderID  string    `json:"reader_id"`
	BadgeID   string    `json:"badge_id"`
}

// AwardedBadge is a badge together with the moment a reader received it.
type AwardedBadge struct {
	Badge
	AwardedAt time.Time `json:"awarded_at"`
}

// BadgeCriteria is the descriptor stored with each badge.
type BadgeCriteria struct {
	Metric    string `json:"metric"`
	Genre     string `json:"genre,omitempty"`
	Threshold int    `json:"threshold"`
}

// Criteria metrics.
const (
	MetricFinishedBooks  = "finished_books"
	MetricReviewedBooks  = "reviewed_books"
	MetricGenreFinished  = "genre_finished_books"
	MetricCurrentStreak  = "current_streak_days"
	GenreExplorerMinimum = 5
	genreExplorerPoints  = 50
)

// BadgeSpec is a badge the evaluator may need to materialize.
type BadgeSpec struct {
	Name        string
	Description string
	Type        BadgeType
	Criteria    BadgeCriteria
	Points      int
}

// CriteriaJSON encodes the badge's criteria descriptor.
func (s BadgeSpec) CriteriaJSON() json.RawMessage {
	b, _ := json.Marshal(s.Criteria)
	return b
}

// Milestone is one rung of a threshold ladder.
type Milestone struct {
	Name        string
	Description string
	Threshold   int
	Points      int
}

// ReadingMilestones reward the number of finished books.
var ReadingMilestones = []Milestone{
	{Threshold: 5, Name: "Bookworm Beginner", Description: "Finished 5 books", Points: 10},
	{Threshold: 10, Name: "Avid Reader", Description: "Finished 10 books", Points: 25},
	{Threshold: 25, Name: "Bibliophile", Description: "Finished 25 books", Points: 50},
	{Threshold: 50, Name: "Book Devourer", Description: "Finished 50 books", Points: 100},
	{Threshold: 100, Name: "Century Reader", Description: "Finished 100 books", Points: 250},
}

// ReviewMilestones reward finished books carrying a written review.
var ReviewMilestones = []Milestone{
	{Threshold: 5, Name: "Critic in Training", Description: "Reviewed 5 finished books", Points: 10},
	{Threshold: 25, Name: "Seasoned Critic", Description: "Reviewed 25 finished books", Points: 50},
	{Threshold: 50, Name: "Master Reviewer", Description: "Reviewed 50 finished books", Points: 100},
	{Threshold: 100, Name: "Legendary Critic", Description: "Reviewed 100 finished books", Points: 250},
}

// StreakMilestones reward consecutive reading days.
var StreakMilestones = []Milestone{
	{Threshold: 7, Name: "Week-Long Reader", Description: "Finished books 7 days in a row", Points: 15},
	{Threshold: 30, Name: "Monthly Momentum", Description: "Finished books 30 days in a row", Points: 50},
	{Threshold: 100, Name: "Hundred Day Habit", Description: "Finished books 100 days in a row", Points: 150},
	{Threshold: 365, Name: "Year of Reading", Description: "Finished books 365 days in a row", Points: 500},
}

// CrossedMilestones returns a BadgeSpec for every rung at or below value.
// Lower rungs are always included so re-evaluation stays stateless.
func CrossedMilestones(ladder []Milestone, typ BadgeType, metric string, value int) []BadgeSpec {
	var specs []BadgeSpec
	for _, m := range ladder {
		if value < m.Threshold {
			continue
		}
		specs = append(specs, BadgeSpec{
			Name:        m.Name,
			Description: m.Description,
			Type:        typ,
			Points:      m.Points,
			Criteria:    BadgeCriteria{Metric: metric, Threshold: m.Threshold},
		})
	}
	return specs
}

// GenreExplorerSpec returns the badge for finishing GenreExplorerMinimum books
// in a canonical genre slug. The name is derived deterministically from the
// slug so every reader crossing it races for the same (name, type) row.
func GenreExplorerSpec(slug string) BadgeSpec {
	display := genre.DisplayName(slug)
	return BadgeSpec{
		Name:        display + " Explorer",
		Description: "Finished 5 " + display + " books",
		Type:        BadgeGenreExplorer,
		Points:      genreExplorerPoints,
		Criteria:    BadgeCriteria{Metric: MetricGenreFinished, Genre: slug, Threshold: GenreExplorerMinimum},
	}
}
