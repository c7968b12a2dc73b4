package backup

import "time"

// FormatVersion is the backup format version. Increment major on breaking changes.
const FormatVersion = "1.0"

// Archive file names.
const (
	manifestFile    = "manifest.json"
	booksFile       = "entities/books.jsonl"
	challengesFile  = "entities/challenges.jsonl"
	recordsFile     = "entities/records.jsonl"
	goalsFile       = "entities/goals.jsonl"
	membershipsFile = "entities/memberships.jsonl"
	streaksFile     = "entities/streaks.jsonl"
	badgesFile      = "entities/badges.jsonl"
	userBadgesFile  = "entities/user_badges.jsonl"
	activitiesFile  = "entities/activities.jsonl"
)

// Manifest describes backup contents and metadata.
type Manifest struct {
	Version            string       `json:"version"`
	CreatedAt          time.Time    `json:"created_at"`
	Counts             EntityCounts `json:"counts"`
	IncludesActivities bool         `json:"includes_activities"`
}

// EntityCounts tracks entity counts for validation and progress reporting.
type EntityCounts struct {
	Books       int `json:"books"`
	Challenges  int `json:"challenges"`
	Records     int `json:"records"`
	Goals       int `json:"goals"`
	Memberships int `json:"memberships"`
	Streaks     int `json:"streaks"`
	Badges      int `json:"badges"`
	UserBadges  int `json:"user_badges"`
	Activities  int `json:"activities,omitempty"`
}
