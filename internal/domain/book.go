package domain

import "time"

// Book is a catalog entry that reading records point at. AverageRating and
// TotalRatings are derived from the book's public finished records.
type Book struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	AverageRating *float64  `json:"average_rating,omitempty"`
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          string    `json:"isbn,omitempty"`
	Genres        []string  `json:"genres"`
	PageCount     int       `json:"page_count"`
	TotalRatings  int       `json:"total_ratings"`
}

// RatingSummary is the aggregate written back to a book.
type RatingSummary struct {
	Average *float64 `json:"average_rating,omitempty"`
	Count   int      `json:"total_ratings"`
}

// AggregateRatings computes the mean and count of ratings. An empty input
// yields a nil average.
func AggregateRatings(ratings []float64) RatingSummary {
	if len(ratings) == 0 {
		return RatingSummary{}
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	avg := sum / float64(len(ratings))
	return RatingSummary{Average: &avg, Count: len(ratings)}
}
