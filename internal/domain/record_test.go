package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testToday = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	testNow   = testToday.Add(15 * time.Hour)
)

func ptr[T any](v T) *T { return &v }

func newRecord(status ReadingStatus) *ReadingRecord {
	rec := NewReadingRecord("rec-1", "reader-1", "book-1", testNow.Add(-48*time.Hour))
	rec.Status = status
	return rec
}

func TestApplyUpdate_ClearsRatingAndReviewUnlessFinished(t *testing.T) {
	statuses := []ReadingStatus{StatusWantToRead, StatusCurrentlyReading, StatusDidNotFinish}
	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			rec := newRecord(StatusFinished)
			rec.Rating = ptr(7.0)
			rec.ReviewText = ptr("loved it")

			_, err := ApplyUpdate(rec, RecordUpdate{
				Status:     ptr(status),
				Rating:     ptr(9.0),
				ReviewText: ptr("changed my mind"),
			}, testToday, testNow)

			require.NoError(t, err)
			assert.Equal(t, status, rec.Status)
			assert.Nil(t, rec.Rating)
			assert.Nil(t, rec.ReviewText)
		})
	}
}

func TestApplyUpdate_KeepsRatingWhenFinished(t *testing.T) {
	rec := newRecord(StatusCurrentlyReading)

	tr, err := ApplyUpdate(rec, RecordUpdate{
		Status:     ptr(StatusFinished),
		Rating:     ptr(8.5),
		ReviewText: ptr("great"),
	}, testToday, testNow)

	require.NoError(t, err)
	require.NotNil(t, rec.Rating)
	assert.InDelta(t, 8.5, *rec.Rating, 0.0001)
	assert.Equal(t, "great", *rec.ReviewText)
	assert.True(t, tr.EnteredFinished())
	assert.True(t, tr.NeedsRatingRecompute())
	assert.True(t, tr.ReviewAttached())
}

func TestApplyUpdate_RejectsInvalidInputWithoutChanges(t *testing.T) {
	tests := []struct {
		name  string
		field string
		u     RecordUpdate
	}{
		{"rating too low", "rating", RecordUpdate{Rating: ptr(0.5)}},
		{"rating too high", "rating", RecordUpdate{Rating: ptr(10.5)}},
		{"unknown status", "status", RecordUpdate{Status: ptr(ReadingStatus("ABANDONED"))}},
		{"negative page", "current_page", RecordUpdate{CurrentPage: ptr(-1)}},
		{"finish before start", "finish_date", RecordUpdate{
			StartDate:  ptr(testToday),
			FinishDate: ptr(testToday.AddDate(0, 0, -1)),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecord(StatusFinished)
			rec.Rating = ptr(6.0)
			before := rec.Clone()

			_, err := ApplyUpdate(rec, tt.u, testToday, testNow)

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.Fields(), tt.field)
			assert.Equal(t, before, rec)
		})
	}
}

func TestApplyUpdate_FinishDateChecksStoredStartDate(t *testing.T) {
	rec := newRecord(StatusCurrentlyReading)
	rec.StartDate = ptr(testToday)
	before := rec.Clone()

	_, err := ApplyUpdate(rec, RecordUpdate{
		Status:     ptr(StatusFinished),
		FinishDate: ptr(testToday.AddDate(0, 0, -3)),
	}, testToday, testNow)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.Fields(), "finish_date")
	assert.Equal(t, before, rec)

	// Moving the start date back in the same update makes it valid.
	_, err = ApplyUpdate(rec, RecordUpdate{
		Status:     ptr(StatusFinished),
		StartDate:  ptr(testToday.AddDate(0, 0, -10)),
		FinishDate: ptr(testToday.AddDate(0, 0, -3)),
	}, testToday, testNow)
	require.NoError(t, err)
	assert.Equal(t, testToday.AddDate(0, 0, -3), *rec.FinishDate)
}

func TestApplyUpdate_StartDateChecksStoredFinishDate(t *testing.T) {
	rec := newRecord(StatusFinished)
	rec.FinishDate = ptr(testToday)
	before := rec.Clone()

	_, err := ApplyUpdate(rec, RecordUpdate{StartDate: ptr(testToday.AddDate(0, 0, 1))}, testToday, testNow)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, before, rec)
}

func TestApplyUpdate_ClearRating(t *testing.T) {
	rec := newRecord(StatusFinished)
	rec.FinishDate = ptr(testToday)
	rec.Rating = ptr(7.0)
	rec.ReviewText = ptr("solid")

	tr, err := ApplyUpdate(rec, RecordUpdate{ClearRating: true}, testToday, testNow)

	require.NoError(t, err)
	assert.Nil(t, rec.Rating)
	assert.Equal(t, "solid", *rec.ReviewText)
	assert.True(t, tr.StayedFinished())
	assert.True(t, tr.NeedsRatingRecompute())

	_, err = ApplyUpdate(rec, RecordUpdate{ClearRating: true, Rating: ptr(5.0)}, testToday, testNow)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.Fields(), "rating")
}

func TestApplyUpdate_RefinishUsesNewFinishDate(t *testing.T) {
	rec := newRecord(StatusFinished)
	prior := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rec.FinishDate = &prior

	_, err := ApplyUpdate(rec, RecordUpdate{Status: ptr(StatusCurrentlyReading)}, testToday, testNow)
	require.NoError(t, err)
	assert.Nil(t, rec.FinishDate)

	tr, err := ApplyUpdate(rec, RecordUpdate{Status: ptr(StatusFinished)}, testToday, testNow)
	require.NoError(t, err)
	require.NotNil(t, rec.FinishDate)
	assert.Equal(t, testToday, *rec.FinishDate)
	assert.Equal(t, []time.Time{testToday}, tr.GoalDates())
}

func TestRecordUpdate_InZone(t *testing.T) {
	evening := time.Date(2025, 12, 31, 21, 0, 0, 0, time.FixedZone("EST", -5*3600))
	date := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)

	u := RecordUpdate{StartDate: &date, FinishDate: &evening}.InZone(time.UTC)

	assert.Equal(t, date, *u.StartDate)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *u.FinishDate)
	assert.Equal(t, 21, evening.Hour(), "input is not modified")
}

func TestApplyUpdate_RatingBoundsAreInclusive(t *testing.T) {
	for _, r := range []float64{MinRating, MaxRating} {
		rec := newRecord(StatusFinished)
		_, err := ApplyUpdate(rec, RecordUpdate{Rating: ptr(r)}, testToday, testNow)
		assert.NoError(t, err)
	}
}

func TestApplyUpdate_DefaultsDatesOnEntry(t *testing.T) {
	rec := newRecord(StatusWantToRead)

	_, err := ApplyUpdate(rec, RecordUpdate{Status: ptr(StatusCurrentlyReading)}, testToday, testNow)
	require.NoError(t, err)
	require.NotNil(t, rec.StartDate)
	assert.Equal(t, testToday, *rec.StartDate)
	assert.Nil(t, rec.FinishDate)

	_, err = ApplyUpdate(rec, RecordUpdate{Status: ptr(StatusFinished)}, testToday, testNow)
	require.NoError(t, err)
	require.NotNil(t, rec.FinishDate)
	assert.Equal(t, testToday, *rec.FinishDate)
}

func TestApplyUpdate_ExplicitFinishDateWins(t *testing.T) {
	rec := newRecord(StatusCurrentlyReading)
	explicit := time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)

	_, err := ApplyUpdate(rec, RecordUpdate{Status: ptr(StatusFinished), FinishDate: &explicit}, testToday, testNow)

	require.NoError(t, err)
	assert.Equal(t, explicit, *rec.FinishDate)
}

func TestApplyUpdate_EmptyReviewIsCleared(t *testing.T) {
	rec := newRecord(StatusFinished)
	rec.ReviewText = ptr("old")

	_, err := ApplyUpdate(rec, RecordUpdate{ReviewText: ptr("")}, testToday, testNow)

	require.NoError(t, err)
	assert.Nil(t, rec.ReviewText)
}

func TestTransition_LeavingFinishedUsesPriorFinishDate(t *testing.T) {
	rec := newRecord(StatusFinished)
	prior := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rec.FinishDate = &prior
	rec.Rating = ptr(8.0)

	tr, err := ApplyUpdate(rec, RecordUpdate{Status: ptr(StatusCurrentlyReading)}, testToday, testNow)

	require.NoError(t, err)
	assert.True(t, tr.LeftFinished())
	assert.True(t, tr.NeedsRatingRecompute())
	assert.Equal(t, []time.Time{prior}, tr.GoalDates())
}

func TestTransition_StayingFinished(t *testing.T) {
	t.Run("rating change recomputes rating only", func(t *testing.T) {
		rec := newRecord(StatusFinished)
		rec.FinishDate = ptr(testToday)
		rec.Rating = ptr(5.0)

		tr, err := ApplyUpdate(rec, RecordUpdate{Rating: ptr(6.0)}, testToday, testNow)

		require.NoError(t, err)
		assert.True(t, tr.NeedsRatingRecompute())
		assert.Empty(t, tr.GoalDates())
	})

	t.Run("notes change triggers nothing", func(t *testing.T) {
		rec := newRecord(StatusFinished)
		rec.Rating = ptr(5.0)

		tr, err := ApplyUpdate(rec, RecordUpdate{Notes: ptr("reread chapter 3")}, testToday, testNow)

		require.NoError(t, err)
		assert.False(t, tr.NeedsRatingRecompute())
		assert.Empty(t, tr.GoalDates())
		assert.Empty(t, ActivitiesFor(tr))
	})

	t.Run("privacy flip recomputes rating", func(t *testing.T) {
		rec := newRecord(StatusFinished)
		rec.Rating = ptr(5.0)

		tr, err := ApplyUpdate(rec, RecordUpdate{IsPrivate: ptr(true)}, testToday, testNow)

		require.NoError(t, err)
		assert.True(t, tr.NeedsRatingRecompute())
	})

	t.Run("moved finish date recounts both years", func(t *testing.T) {
		rec := newRecord(StatusFinished)
		old := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
		moved := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
		rec.FinishDate = &old

		tr, err := ApplyUpdate(rec, RecordUpdate{FinishDate: &moved}, testToday, testNow)

		require.NoError(t, err)
		assert.Equal(t, []time.Time{old, moved}, tr.GoalDates())
	})
}

func TestTransition_Deletion(t *testing.T) {
	rec := newRecord(StatusFinished)
	rec.FinishDate = ptr(testToday)

	tr := Transition{Before: rec}

	assert.True(t, tr.LeftFinished())
	assert.True(t, tr.NeedsRatingRecompute())
	assert.Equal(t, []time.Time{testToday}, tr.GoalDates())
	assert.Empty(t, ActivitiesFor(tr))
}

func TestActivitiesFor(t *testing.T) {
	rec := newRecord(StatusWantToRead)
	tr, err := ApplyUpdate(rec, RecordUpdate{Status: ptr(StatusCurrentlyReading)}, testToday, testNow)
	require.NoError(t, err)
	assert.Equal(t, []ActivityKind{ActivityStartedBook}, ActivitiesFor(tr))

	tr, err = ApplyUpdate(rec, RecordUpdate{Status: ptr(StatusFinished), ReviewText: ptr("wow")}, testToday, testNow)
	require.NoError(t, err)
	assert.Equal(t, []ActivityKind{ActivityFinishedBook, ActivityReviewedBook}, ActivitiesFor(tr))

	tr, err = ApplyUpdate(rec, RecordUpdate{Status: ptr(StatusDidNotFinish)}, testToday, testNow)
	require.NoError(t, err)
	assert.Empty(t, ActivitiesFor(tr))
}

func TestExcerpt(t *testing.T) {
	short := "fine"
	assert.Equal(t, short, Excerpt(short))

	long := make([]rune, 250)
	for i := range long {
		long[i] = 'é'
	}
	got := Excerpt(string(long))
	assert.Len(t, []rune(got), ReviewExcerptMaxRunes)
}
