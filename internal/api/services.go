package api

import (
	"github.com/listenupapp/pagebound-server/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Reading    *service.ReadingService
	Books      *service.BookService
	Ratings    *service.RatingAggregator
	Badges     *service.BadgeEvaluator
	Streaks    *service.StreakTracker
	Goals      *service.GoalService
	Challenges *service.ChallengeService
	Activity   *service.ActivityService
}
