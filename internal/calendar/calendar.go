// Package calendar supplies the non-study date set consumed by the schedule
// generator and streak calculator: the weekly rest day plus holy days
// obtained from a holiday calendar service.
package calendar

import (
	"context"
	"fmt"
	"time"
)

// DateFormat is the civil date format used across the engine.
const DateFormat = "2006-01-02"

// RegionMode selects the holiday observance variant the calendar service
// applies: Israel keeps single-day holidays, the diaspora doubles them.
type RegionMode string

const (
	RegionSingleDay RegionMode = "single-day"
	RegionTwoDay    RegionMode = "two-day"
)

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// ParseDate parses YYYY-MM-DD at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// AddDays returns the date days calendar days after t.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// NextStudyDay returns the first date on or after t absent from the
// non-study set.
func NextStudyDay(t time.Time, nonStudy DateSet) time.Time {
	for nonStudy.Has(t) {
		t = AddDays(t, 1)
	}
	return t
}

// AddStudyDays returns the date n study days after t, counting t itself when
// it is a study day and n is zero.
func AddStudyDays(t time.Time, n int, nonStudy DateSet) time.Time {
	t = NextStudyDay(t, nonStudy)
	for ; n > 0; n-- {
		t = NextStudyDay(AddDays(t, 1), nonStudy)
	}
	return t
}

// IsWeeklyRest reports whether the date is the weekly rest day (Saturday).
func IsWeeklyRest(t time.Time) bool {
	return t.Weekday() == time.Saturday
}

// DateSet is a set of civil dates keyed by their YYYY-MM-DD form.
type DateSet map[string]struct{}

// NewDateSet builds a set from formatted dates.
func NewDateSet(dates ...string) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

// Add inserts a date into the set.
func (s DateSet) Add(t time.Time) { s[FormatDate(t)] = struct{}{} }

// Has reports whether the date is in the set.
func (s DateSet) Has(t time.Time) bool {
	_, ok := s[FormatDate(t)]
	return ok
}

// Service is the holiday calendar collaborator. Implementations return the
// set of holy dates within [start, end] for the given region. A failure here
// is fatal to schedule generation: without it the engine cannot know which
// days are study days.
type Service interface {
	HolyDates(ctx context.Context, start, end time.Time, region RegionMode) (DateSet, error)
}

// Static is a Service over a fixed date set, for tests and offline use.
type Static struct {
	Dates DateSet
}

// HolyDates returns the fixed set regardless of range or region.
func (s Static) HolyDates(ctx context.Context, start, end time.Time, region RegionMode) (DateSet, error) {
	return s.Dates, nil
}

// NonStudyDates merges the service's holy dates over [start, end] with,
// when includeWeeklyRest is set, the weekly rest day, producing the full
// non-study set for a track.
func NonStudyDates(ctx context.Context, svc Service, start, end time.Time, region RegionMode, includeWeeklyRest bool) (DateSet, error) {
	holy, err := svc.HolyDates(ctx, start, end, region)
	if err != nil {
		return nil, fmt.Errorf("holiday calendar unavailable: %w", err)
	}
	out := make(DateSet, len(holy)+1)
	for d := range holy {
		out[d] = struct{}{}
	}
	if includeWeeklyRest {
		for t := start; !t.After(end); t = AddDays(t, 1) {
			if IsWeeklyRest(t) {
				out.Add(t)
			}
		}
	}
	return out, nil
}
