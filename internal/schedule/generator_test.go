package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mishnahbot/internal/calendar"
	"github.com/example/mishnahbot/internal/database"
	"github.com/example/mishnahbot/pkg/models"
)

type failingCalendar struct{}

func (failingCalendar) HolyDates(ctx context.Context, start, end time.Time, region calendar.RegionMode) (calendar.DateSet, error) {
	return nil, errors.New("calendar service down")
}

type generatorFixture struct {
	gen   *Generator
	store *database.Store
	logs  *database.StudyLogRepository
	sched *database.ScheduleRepository
}

func newGeneratorFixture(t *testing.T, cal calendar.Service, today string) *generatorFixture {
	t.Helper()
	store, err := database.OpenLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	gen := NewGenerator(smallIndex(), store, cal, calendar.RegionTwoDay, nil)
	gen.now = func() time.Time { return date(t, today) }
	return &generatorFixture{
		gen:   gen,
		store: store,
		logs:  database.NewStudyLogRepository(store),
		sched: database.NewScheduleRepository(store),
	}
}

func (f *generatorFixture) createTrack(t *testing.T, scheduleType models.ScheduleType, pace int) *models.Track {
	t.Helper()
	track := &models.Track{
		UserID:          "user-1",
		Title:           "Morning seder",
		StartDate:       "2024-01-01",
		ScheduleType:    scheduleType,
		PaceUnitsPerDay: pace,
		ReviewIntensity: models.ReviewNone,
	}
	require.NoError(t, database.NewTrackRepository(f.store).Create(track))
	return track
}

func (f *generatorFixture) markCompleted(t *testing.T, track *models.Track, studyDate string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.logs.Upsert(&models.StudyLogRecord{
		UserID:      track.UserID,
		TrackID:     track.ID,
		StudyDate:   studyDate,
		IsCompleted: true,
		CompletedAt: &now,
		UpdatedAt:   now,
		DeviceID:    "device-1",
	}))
}

func TestRegeneratePersistsSchedule(t *testing.T) {
	f := newGeneratorFixture(t, calendar.Static{}, "2024-01-01")
	track := f.createTrack(t, models.ScheduleDaily, 2)

	entries, err := f.gen.Regenerate(context.Background(), track.ID, false)
	require.NoError(t, err)

	learn := learnNodes(entries)
	require.Len(t, learn, 9)
	assert.Equal(t, "2024-01-01", learn[0].Date)
	assert.Equal(t, 0, learn[0].GlobalIndex)

	stored, err := f.sched.GetByTrack(track.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, entries, stored)
}

func TestRegenerateWithoutForceKeepsExisting(t *testing.T) {
	f := newGeneratorFixture(t, calendar.Static{}, "2024-01-01")
	track := f.createTrack(t, models.ScheduleDaily, 2)

	first, err := f.gen.Regenerate(context.Background(), track.ID, false)
	require.NoError(t, err)

	// A pace change alone does not touch an existing future schedule.
	tracks := database.NewTrackRepository(f.store)
	require.NoError(t, tracks.UpdatePace(track.ID, 5, models.ReviewNone))

	second, err := f.gen.Regenerate(context.Background(), track.ID, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)
}

func TestRegenerateForceRebuildsFromResumePoint(t *testing.T) {
	f := newGeneratorFixture(t, calendar.Static{}, "2024-01-01")
	track := f.createTrack(t, models.ScheduleDaily, 2)

	_, err := f.gen.Regenerate(context.Background(), track.ID, false)
	require.NoError(t, err)

	// Day one (units 0 and 1) is done; regeneration resumes at unit 2.
	f.markCompleted(t, track, "2024-01-01")
	f.gen.now = func() time.Time { return date(t, "2024-01-02") }

	entries, err := f.gen.Regenerate(context.Background(), track.ID, true)
	require.NoError(t, err)

	learn := learnNodes(entries)
	require.Len(t, learn, 7)
	assert.Equal(t, "2024-01-02", learn[0].Date)
	assert.Equal(t, 2, learn[0].GlobalIndex)

	// Completed history stays in the store untouched.
	history, err := f.sched.EntriesForDate(track.ID, "2024-01-01")
	require.NoError(t, err)
	assert.NotEmpty(t, history)
}

func TestRegenerateForceOnCompletedDayKeepsResumePoint(t *testing.T) {
	f := newGeneratorFixture(t, calendar.Static{}, "2024-01-01")
	track := f.createTrack(t, models.ScheduleDaily, 2)

	_, err := f.gen.Regenerate(context.Background(), track.ID, false)
	require.NoError(t, err)

	// Units 0 and 1 are done, and today is still 2024-01-01. Forcing now
	// must not place unit 2 onto the already-completed date.
	f.markCompleted(t, track, "2024-01-01")

	first, err := f.gen.Regenerate(context.Background(), track.ID, true)
	require.NoError(t, err)
	learn := learnNodes(first)
	require.Len(t, learn, 7)
	assert.Equal(t, "2024-01-02", learn[0].Date)
	assert.Equal(t, 2, learn[0].GlobalIndex)

	// The resume point still reflects only what was actually studied.
	max, err := f.sched.MaxCompletedIndex(track.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, max)

	// A second force with no new completions schedules the same units.
	second, err := f.gen.Regenerate(context.Background(), track.ID, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)
	assert.Equal(t, 2, learnNodes(second)[0].GlobalIndex)
}

func TestRegenerateForceIsIdempotent(t *testing.T) {
	f := newGeneratorFixture(t, calendar.Static{}, "2024-01-01")
	track := f.createTrack(t, models.ScheduleDaily, 3)

	first, err := f.gen.Regenerate(context.Background(), track.ID, true)
	require.NoError(t, err)
	second, err := f.gen.Regenerate(context.Background(), track.ID, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)

	stored, err := f.sched.GetByTrack(track.ID)
	require.NoError(t, err)
	assert.Len(t, stored, len(first))
}

func TestRegenerateWeekdaysOnlySkipsRestDay(t *testing.T) {
	f := newGeneratorFixture(t, calendar.Static{}, "2024-01-01")
	track := f.createTrack(t, models.ScheduleWeekdaysOnly, 1)

	entries, err := f.gen.Regenerate(context.Background(), track.ID, false)
	require.NoError(t, err)
	for _, e := range entries {
		// 2024-01-06 and 2024-01-13 are Saturdays.
		assert.NotEqual(t, "2024-01-06", e.Date)
		assert.NotEqual(t, "2024-01-13", e.Date)
	}
}

func TestRegenerateDailyStudiesThroughRestDay(t *testing.T) {
	f := newGeneratorFixture(t, calendar.Static{}, "2024-01-01")
	track := f.createTrack(t, models.ScheduleDaily, 1)

	entries, err := f.gen.Regenerate(context.Background(), track.ID, false)
	require.NoError(t, err)

	learn := learnNodes(entries)
	require.Len(t, learn, 9)
	assert.Equal(t, "2024-01-06", learn[5].Date)
}

func TestRegenerateSkipsHolyDates(t *testing.T) {
	cal := calendar.Static{Dates: calendar.NewDateSet("2024-01-02")}
	f := newGeneratorFixture(t, cal, "2024-01-01")
	track := f.createTrack(t, models.ScheduleDaily, 1)

	entries, err := f.gen.Regenerate(context.Background(), track.ID, false)
	require.NoError(t, err)

	learn := learnNodes(entries)
	assert.Equal(t, "2024-01-01", learn[0].Date)
	assert.Equal(t, "2024-01-03", learn[1].Date)
}

func TestRegenerateStartsNoEarlierThanToday(t *testing.T) {
	f := newGeneratorFixture(t, calendar.Static{}, "2024-02-15")
	track := f.createTrack(t, models.ScheduleDaily, 1)

	entries, err := f.gen.Regenerate(context.Background(), track.ID, false)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "2024-02-15", entries[0].Date)
}

func TestRegenerateCalendarFailureWritesNothing(t *testing.T) {
	f := newGeneratorFixture(t, failingCalendar{}, "2024-01-01")
	track := f.createTrack(t, models.ScheduleDaily, 1)

	_, err := f.gen.Regenerate(context.Background(), track.ID, false)
	require.Error(t, err)

	stored, err := f.sched.GetByTrack(track.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRegenerateUnknownTrack(t *testing.T) {
	f := newGeneratorFixture(t, calendar.Static{}, "2024-01-01")
	var nfe *database.NotFoundError
	_, err := f.gen.Regenerate(context.Background(), "no-such-track", false)
	assert.ErrorAs(t, err, &nfe)
}
