package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/pagebound-server/internal/di/providers"
	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/service"
)

// SeedOptions configures the seed command.
type SeedOptions struct {
	Readers int
	Books   int
	Seed    uint64
}

// SeedResult is the output of the seed command.
type SeedResult struct {
	Books   int `json:"books"`
	Readers int `json:"readers"`
	Records int `json:"records"`
	Badges  int `json:"badges"`
}

type seedBook struct {
	title  string
	author string
	pages  int
	genres []string
}

var seedCatalog = []seedBook{
	{"Piranesi", "Susanna Clarke", 272, []string{"Fantasy", "Literary Fiction"}},
	{"Dune", "Frank Herbert", 604, []string{"Science Fiction"}},
	{"Middlemarch", "George Eliot", 880, []string{"Classics"}},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", 304, []string{"Science Fiction", "sci-fi"}},
	{"Rebecca", "Daphne du Maurier", 416, []string{"Gothic", "Mystery"}},
	{"The Remains of the Day", "Kazuo Ishiguro", 258, []string{"Literary Fiction"}},
	{"Project Hail Mary", "Andy Weir", 496, []string{"Science Fiction"}},
	{"Beloved", "Toni Morrison", 324, []string{"Classics", "Historical Fiction"}},
	{"The Name of the Rose", "Umberto Eco", 536, []string{"Mystery", "Historical Fiction"}},
	{"A Wizard of Earthsea", "Ursula K. Le Guin", 183, []string{"Fantasy"}},
	{"Station Eleven", "Emily St. John Mandel", 333, []string{"Literary Fiction", "Science Fiction"}},
	{"The Hobbit", "J. R. R. Tolkien", 310, []string{"Fantasy", "Classics"}},
	{"Jane Eyre", "Charlotte Brontë", 532, []string{"Classics", "Gothic"}},
	{"The Martian", "Andy Weir", 369, []string{"Science Fiction"}},
	{"Gideon the Ninth", "Tamsyn Muir", 448, []string{"Fantasy", "Science Fiction"}},
	{"Wolf Hall", "Hilary Mantel", 604, []string{"Historical Fiction"}},
}

var seedReviews = []string{
	"<p>Could not put it down.</p>",
	"<p>Slow start, <em>wonderful</em> ending.</p>",
	"Beautifully written but a little long.",
	"<p>A <strong>re-read</strong> that held up.</p>",
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate a data directory with sample books and readers",
		Long: `Create sample books and give each sample reader a shelf of records in
mixed statuses, a reading goal for the current year and reviews on some
finished books. Every write goes through the reading engine, so ratings,
streaks, badges and the activity feed are populated as they would be by
real use. Stop the server first; the outbox allows one writer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Books < 1 || opts.Books > len(seedCatalog) {
				return fmt.Errorf("--books must be between 1 and %d", len(seedCatalog))
			}
			if opts.Readers < 1 {
				return fmt.Errorf("--readers must be at least 1")
			}
			return withContainer(cmd, rootOpts, func(i do.Injector) error {
				res, err := runSeed(cmd.Context(), i, opts)
				if err != nil {
					return err
				}
				return formatter(cmd, rootOpts).Success(res,
					fmt.Sprintf("Created %d books", res.Books),
					fmt.Sprintf("Seeded %d readers with %d records", res.Readers, res.Records),
					fmt.Sprintf("Awarded %d badges", res.Badges),
				)
			})
		},
	}

	cmd.Flags().IntVar(&opts.Readers, "readers", 3, "number of sample readers")
	cmd.Flags().IntVar(&opts.Books, "books", 12, "number of sample books")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (0 picks one from the clock)")
	return cmd
}

func runSeed(ctx context.Context, i do.Injector, opts *SeedOptions) (*SeedResult, error) {
	books, err := do.Invoke[*service.BookService](i)
	if err != nil {
		return nil, err
	}
	reading, err := do.Invoke[*service.ReadingService](i)
	if err != nil {
		return nil, err
	}
	goals, err := do.Invoke[*service.GoalService](i)
	if err != nil {
		return nil, err
	}
	clock, err := do.Invoke[service.Clock](i)
	if err != nil {
		return nil, err
	}
	box, err := do.Invoke[*providers.OutboxHandle](i)
	if err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))
	res := &SeedResult{Readers: opts.Readers}

	created := make([]*domain.Book, 0, opts.Books)
	for _, sb := range seedCatalog[:opts.Books] {
		b, err := books.CreateBook(ctx, service.NewBookInput{
			Title:     sb.title,
			Author:    sb.author,
			PageCount: sb.pages,
			Genres:    sb.genres,
		})
		if err != nil {
			return nil, fmt.Errorf("create %q: %w", sb.title, err)
		}
		created = append(created, b)
	}
	res.Books = len(created)

	today := clock.Today()
	for n := 1; n <= opts.Readers; n++ {
		readerID := fmt.Sprintf("reader-%d", n)
		if _, err := goals.SetGoal(ctx, readerID, today.Year(), 6+rng.IntN(20)); err != nil {
			return nil, fmt.Errorf("set goal for %s: %w", readerID, err)
		}

		shelf := rng.Perm(len(created))[:1+rng.IntN(len(created))]
		for _, idx := range shelf {
			u := seedUpdate(rng, today)
			result, err := reading.AddRecord(ctx, readerID, created[idx].ID, u)
			if err != nil {
				return nil, fmt.Errorf("add record for %s: %w", readerID, err)
			}
			res.Records++
			res.Badges += len(result.NewBadges)
		}
	}

	if err := box.Flush(ctx); err != nil {
		return nil, fmt.Errorf("flush activity outbox: %w", err)
	}
	return res, nil
}

// seedUpdate picks a status and fills in the fields that status allows.
func seedUpdate(rng *rand.Rand, today time.Time) domain.RecordUpdate {
	statuses := []domain.ReadingStatus{
		domain.StatusWantToRead,
		domain.StatusCurrentlyReading,
		domain.StatusFinished,
		domain.StatusFinished,
		domain.StatusDidNotFinish,
	}
	status := statuses[rng.IntN(len(statuses))]
	u := domain.RecordUpdate{Status: &status}

	switch status {
	case domain.StatusFinished:
		finish := today.AddDate(0, 0, -rng.IntN(max(today.YearDay(), 1)))
		start := finish.AddDate(0, 0, -(3 + rng.IntN(30)))
		rating := float64(2+rng.IntN(17)) / 2
		u.StartDate, u.FinishDate, u.Rating = &start, &finish, &rating
		if rng.IntN(2) == 0 {
			review := seedReviews[rng.IntN(len(seedReviews))]
			u.ReviewText = &review
		}
		if rng.IntN(4) == 0 {
			fav := true
			u.IsFavorite = &fav
		}
	case domain.StatusCurrentlyReading:
		start := today.AddDate(0, 0, -rng.IntN(20))
		page := 1 + rng.IntN(150)
		u.StartDate, u.CurrentPage = &start, &page
	}
	return u
}
