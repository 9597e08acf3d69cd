package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mishnahbot/internal/calendar"
	"github.com/example/mishnahbot/internal/corpus"
	"github.com/example/mishnahbot/pkg/models"
)

func smallIndex() *corpus.Index {
	return corpus.NewIndex([]models.Tractate{
		{Name: "T1", HebrewName: "א", ChapterUnitCounts: []int{3, 2}},
		{Name: "T2", HebrewName: "ב", ChapterUnitCounts: []int{4}},
	})
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.ParseDate(s)
	require.NoError(t, err)
	return d
}

func learnNodes(entries []models.ScheduleEntry) []models.ScheduleEntry {
	var out []models.ScheduleEntry
	for _, e := range entries {
		if e.NodeType == models.NodeLearn {
			out = append(out, e)
		}
	}
	return out
}

func TestPlanPaceOneNoSkips(t *testing.T) {
	ix := corpus.NewIndex([]models.Tractate{
		{Name: "T1", HebrewName: "א", ChapterUnitCounts: []int{3}},
	})
	entries, err := Plan(ix, "track-1", 0, Options{
		StartDate: date(t, "2024-01-01"),
		Pace:      1,
		Intensity: models.ReviewNone,
	})
	require.NoError(t, err)

	learn := learnNodes(entries)
	require.Len(t, learn, 3)
	for i, want := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		assert.Equal(t, want, learn[i].Date)
		assert.Equal(t, i, learn[i].GlobalIndex)
	}

	// The last unit ends the only chapter, so the final day carries a quiz.
	last := entries[len(entries)-1]
	assert.Equal(t, models.NodeQuiz, last.NodeType)
	assert.Equal(t, "2024-01-03", last.Date)
	assert.Equal(t, "Quiz_T1.1", last.ContentRef)
}

func TestPlanSkipsNonStudyDates(t *testing.T) {
	ix := smallIndex()
	nonStudy := calendar.NewDateSet("2024-01-02", "2024-01-06", "2024-01-13")
	entries, err := Plan(ix, "track-1", 0, Options{
		StartDate:     date(t, "2024-01-01"),
		Pace:          2,
		Intensity:     models.ReviewNone,
		NonStudyDates: nonStudy,
	})
	require.NoError(t, err)

	prevDate := ""
	prevIndex := -1
	for _, e := range learnNodes(entries) {
		assert.NotContains(t, nonStudy, e.Date)
		assert.GreaterOrEqual(t, e.Date, prevDate)
		if e.Date != prevDate {
			assert.Greater(t, e.Date, prevDate)
		}
		assert.Greater(t, e.GlobalIndex, prevIndex)
		prevDate = e.Date
		prevIndex = e.GlobalIndex
	}
	// 9 units at pace 2 is 5 study days; 2024-01-02 was skipped.
	learn := learnNodes(entries)
	require.Len(t, learn, 9)
	assert.Equal(t, "2024-01-01", learn[0].Date)
	assert.Equal(t, "2024-01-03", learn[2].Date)
}

func TestPlanQuizOnDayEndingChapter(t *testing.T) {
	ix := smallIndex()
	entries, err := Plan(ix, "track-1", 0, Options{
		StartDate: date(t, "2024-01-01"),
		Pace:      3,
		Intensity: models.ReviewNone,
	})
	require.NoError(t, err)

	// Day 1 covers units 0-2, ending chapter 1 of T1.
	var quizzes []models.ScheduleEntry
	for _, e := range entries {
		if e.NodeType == models.NodeQuiz {
			quizzes = append(quizzes, e)
		}
	}
	require.NotEmpty(t, quizzes)
	assert.Equal(t, "2024-01-01", quizzes[0].Date)
	assert.Equal(t, "Quiz_T1.1", quizzes[0].ContentRef)
	// Day 3 covers units 6-8, ending T2's single chapter.
	last := quizzes[len(quizzes)-1]
	assert.Equal(t, "Quiz_T2.1", last.ContentRef)
}

func reviewNodes(entries []models.ScheduleEntry) []models.ScheduleEntry {
	var out []models.ScheduleEntry
	for _, e := range entries {
		if e.NodeType == models.NodeReview {
			out = append(out, e)
		}
	}
	return out
}

func TestPlanReviewIntervalLadder(t *testing.T) {
	ix := smallIndex()

	reviews := func(intensity models.ReviewIntensity) []models.ScheduleEntry {
		entries, err := Plan(ix, "track-1", 0, Options{
			StartDate: date(t, "2024-01-01"),
			Pace:      1,
			Intensity: intensity,
		})
		require.NoError(t, err)
		return reviewNodes(entries)
	}

	assert.Empty(t, reviews(models.ReviewNone))

	// Intensive brings every unit back 1, 3, 7, 14 and 30 study days after
	// it was learned: 9 units times 5 sessions.
	intensive := reviews(models.ReviewIntensive)
	require.Len(t, intensive, 45)
	var unit0 []string
	for _, e := range intensive {
		if e.GlobalIndex == 0 {
			unit0 = append(unit0, e.Date)
		}
	}
	assert.Equal(t, []string{"2024-01-02", "2024-01-04", "2024-01-08", "2024-01-15", "2024-01-31"}, unit0)

	// Light uses only the 7 and 30 day rungs.
	light := reviews(models.ReviewLight)
	require.Len(t, light, 18)
	assert.Equal(t, "2024-01-08", light[0].Date)
	assert.Equal(t, 0, light[0].GlobalIndex)
}

func TestPlanReviewsSkipNonStudyDates(t *testing.T) {
	ix := smallIndex()
	nonStudy := calendar.NewDateSet("2024-01-02")
	entries, err := Plan(ix, "track-1", 0, Options{
		StartDate:     date(t, "2024-01-01"),
		Pace:          1,
		Intensity:     models.ReviewIntensive,
		NonStudyDates: nonStudy,
	})
	require.NoError(t, err)

	for _, e := range reviewNodes(entries) {
		assert.NotEqual(t, "2024-01-02", e.Date)
	}
	// Unit 0's one-day review slides from the blocked 2nd to the 3rd,
	// the same date unit 1 is learned on.
	var unit0First string
	for _, e := range reviewNodes(entries) {
		if e.GlobalIndex == 0 {
			unit0First = e.Date
			break
		}
	}
	assert.Equal(t, "2024-01-03", unit0First)
}

func TestPlanOrdersLearnBeforeReviewOnSharedDate(t *testing.T) {
	ix := smallIndex()
	entries, err := Plan(ix, "track-1", 0, Options{
		StartDate: date(t, "2024-01-01"),
		Pace:      1,
		Intensity: models.ReviewIntensive,
	})
	require.NoError(t, err)

	// 2024-01-02 carries unit 1's learn node and unit 0's first review.
	var day2 []models.ScheduleEntry
	for _, e := range entries {
		if e.Date == "2024-01-02" {
			day2 = append(day2, e)
		}
	}
	require.Len(t, day2, 2)
	assert.Equal(t, models.NodeLearn, day2[0].NodeType)
	assert.Equal(t, 1, day2[0].GlobalIndex)
	assert.Equal(t, models.NodeReview, day2[1].NodeType)
	assert.Equal(t, 0, day2[1].GlobalIndex)
}

func TestPlanIdempotent(t *testing.T) {
	ix := smallIndex()
	opts := Options{
		StartDate:     date(t, "2024-01-01"),
		Pace:          2,
		Intensity:     models.ReviewMedium,
		NonStudyDates: calendar.NewDateSet("2024-01-06", "2024-01-13"),
	}
	first, err := Plan(ix, "track-1", 3, opts)
	require.NoError(t, err)
	second, err := Plan(ix, "track-1", 3, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPlanInvalidConfig(t *testing.T) {
	ix := smallIndex()
	var ice *InvalidConfigError

	_, err := Plan(ix, "track-1", 0, Options{StartDate: date(t, "2024-01-01"), Pace: 0, Intensity: models.ReviewNone})
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, "pace", ice.Field)

	_, err = Plan(ix, "track-1", 0, Options{StartDate: date(t, "2024-01-01"), Pace: 1, Intensity: "extreme"})
	require.ErrorAs(t, err, &ice)
}

func TestPlanCompleteTrack(t *testing.T) {
	ix := smallIndex()
	entries, err := Plan(ix, "track-1", ix.TotalUnits(), Options{
		StartDate: date(t, "2024-01-01"),
		Pace:      1,
		Intensity: models.ReviewNone,
	})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPlanShortFinalDay(t *testing.T) {
	ix := smallIndex()
	entries, err := Plan(ix, "track-1", 0, Options{
		StartDate: date(t, "2024-01-01"),
		Pace:      4,
		Intensity: models.ReviewNone,
	})
	require.NoError(t, err)
	learn := learnNodes(entries)
	require.Len(t, learn, 9)
	// 9 units at pace 4: the third day assigns only one unit.
	assert.Equal(t, "2024-01-03", learn[8].Date)
	assert.Equal(t, 8, learn[8].GlobalIndex)
	assert.NotEqual(t, learn[7].Date, learn[8].Date)
}

func TestEstimateCompletion(t *testing.T) {
	ix := smallIndex()
	est, err := EstimateCompletion(ix, 0, 1, date(t, "2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 9, est.TotalItems)
	assert.Equal(t, 1, est.ItemsPerDay)
	assert.InDelta(t, 9.0/250.0, est.Years, 1e-9)

	_, err = EstimateCompletion(ix, 0, 0, date(t, "2024-01-01"))
	var ice *InvalidConfigError
	assert.ErrorAs(t, err, &ice)
}
