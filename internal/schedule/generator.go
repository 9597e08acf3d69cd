package schedule

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/example/mishnahbot/internal/calendar"
	"github.com/example/mishnahbot/internal/corpus"
	"github.com/example/mishnahbot/internal/database"
	"github.com/example/mishnahbot/pkg/models"
)

// calendarSlack pads the holiday-calendar horizon so the study-day walk
// never runs past the dates we fetched holidays for.
const calendarSlack = 366

// Generator produces and persists schedules for tracks. Regeneration is
// serialized per track: a second invocation waits for the first and then
// reads the resume point the first one produced, never a stale snapshot.
type Generator struct {
	corpus *corpus.Index
	tracks *database.TrackRepository
	sched  *database.ScheduleRepository
	logs   *database.StudyLogRepository
	cal    calendar.Service
	region calendar.RegionMode
	logger *log.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGenerator wires a generator over the given store and calendar service.
// If logger is nil, a default logger writing to stderr is used.
func NewGenerator(ix *corpus.Index, store *database.Store, cal calendar.Service, region calendar.RegionMode, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.New(os.Stderr, "[schedule] ", log.LstdFlags)
	}
	return &Generator{
		corpus: ix,
		tracks: database.NewTrackRepository(store),
		sched:  database.NewScheduleRepository(store),
		logs:   database.NewStudyLogRepository(store),
		cal:    cal,
		region: region,
		logger: logger,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// trackLock returns the mutex serializing regeneration for one track.
func (g *Generator) trackLock(trackID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[trackID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[trackID] = l
	}
	return l
}

// Regenerate builds the remaining schedule for a track and persists it
// atomically. Without force, an existing future schedule is left alone and
// returned as-is; with force, future uncompleted entries are discarded and
// rebuilt from the current resume point. Nothing is persisted on failure.
func (g *Generator) Regenerate(ctx context.Context, trackID string, force bool) ([]models.ScheduleEntry, error) {
	lock := g.trackLock(trackID)
	lock.Lock()
	defer lock.Unlock()

	track, err := g.tracks.GetByID(trackID)
	if err != nil {
		return nil, err
	}

	start, err := g.effectiveStart(track)
	if err != nil {
		return nil, err
	}
	startStr := calendar.FormatDate(start)

	if !force {
		existing, err := g.sched.CountFrom(trackID, startStr)
		if err != nil {
			return nil, err
		}
		if existing > 0 {
			return g.sched.GetByTrack(trackID)
		}
	}

	// Resume point is read under the track lock, so it includes the
	// effects of any regeneration that was in flight when we were called.
	maxCompleted, err := g.sched.MaxCompletedIndex(trackID)
	if err != nil {
		return nil, err
	}
	resume := maxCompleted + 1

	opts := Options{
		StartDate: start,
		Pace:      track.PaceUnitsPerDay,
		Intensity: track.ReviewIntensity,
		Force:     force,
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	opts.NonStudyDates, err = g.nonStudyDates(ctx, track, start, resume)
	if err != nil {
		return nil, err
	}

	// Dates that already carry a completed log row are closed to new
	// placement: putting fresh units there would make them look completed
	// and the next resume point would skip over them.
	completed, err := g.logs.CompletedDatesFrom(trackID, startStr)
	if err != nil {
		return nil, err
	}
	for _, d := range completed {
		opts.NonStudyDates[d] = struct{}{}
	}

	entries, err := Plan(g.corpus, trackID, resume, opts)
	if err != nil {
		return nil, err
	}

	if err := g.sched.ReplaceFuture(trackID, startStr, entries); err != nil {
		return nil, err
	}
	g.logger.Printf("Regenerated track %s: resume=%d entries=%d force=%v",
		trackID, resume, len(entries), force)
	return entries, nil
}

// effectiveStart is the later of the track's configured start date and
// today: history is immutable, so regeneration never reaches backwards.
func (g *Generator) effectiveStart(track *models.Track) (time.Time, error) {
	start, err := calendar.ParseDate(track.StartDate)
	if err != nil {
		return time.Time{}, &InvalidConfigError{Field: "start_date", Value: track.StartDate, Reason: "not a YYYY-MM-DD date"}
	}
	today, _ := calendar.ParseDate(calendar.FormatDate(g.now()))
	if today.After(start) {
		return today, nil
	}
	return start, nil
}

// nonStudyDates fetches the non-study set covering the whole walk. A
// calendar failure aborts generation: guessing at study days would place
// units on holy dates.
func (g *Generator) nonStudyDates(ctx context.Context, track *models.Track, start time.Time, resume int) (calendar.DateSet, error) {
	remaining := g.corpus.TotalUnits() - resume
	if remaining < 0 {
		remaining = 0
	}
	studyDays := (remaining + track.PaceUnitsPerDay - 1) / track.PaceUnitsPerDay
	horizon := calendar.AddDays(start, studyDays*2+calendarSlack)

	includeRest := track.ScheduleType == models.ScheduleWeekdaysOnly
	set, err := calendar.NonStudyDates(ctx, g.cal, start, horizon, g.region, includeRest)
	if err != nil {
		return nil, fmt.Errorf("cannot generate schedule for track %s: %w", track.ID, err)
	}
	return set, nil
}
