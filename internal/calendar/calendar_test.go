package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", FormatDate(d))
	assert.Equal(t, "2024-01-16", FormatDate(AddDays(d, 1)))

	_, err = ParseDate("15/01/2024")
	assert.Error(t, err)
}

func TestNextStudyDaySkipsNonStudyRun(t *testing.T) {
	set := NewDateSet("2024-01-05", "2024-01-06")

	fri, _ := ParseDate("2024-01-05")
	assert.Equal(t, "2024-01-07", FormatDate(NextStudyDay(fri, set)))

	thu, _ := ParseDate("2024-01-04")
	assert.Equal(t, "2024-01-04", FormatDate(NextStudyDay(thu, set)))
}

func TestAddStudyDays(t *testing.T) {
	set := NewDateSet("2024-01-05", "2024-01-06")
	thu, _ := ParseDate("2024-01-04")

	assert.Equal(t, "2024-01-04", FormatDate(AddStudyDays(thu, 0, set)))
	// Day 1 lands past the two-day gap.
	assert.Equal(t, "2024-01-07", FormatDate(AddStudyDays(thu, 1, set)))
	assert.Equal(t, "2024-01-09", FormatDate(AddStudyDays(thu, 3, set)))

	fri, _ := ParseDate("2024-01-05")
	assert.Equal(t, "2024-01-07", FormatDate(AddStudyDays(fri, 0, set)))
}

func TestIsWeeklyRest(t *testing.T) {
	sat, _ := ParseDate("2024-01-06")
	sun, _ := ParseDate("2024-01-07")
	assert.True(t, IsWeeklyRest(sat))
	assert.False(t, IsWeeklyRest(sun))
}

func TestNonStudyDatesMergesRestDays(t *testing.T) {
	start, _ := ParseDate("2024-01-01") // Monday
	end, _ := ParseDate("2024-01-14")
	svc := Static{Dates: NewDateSet("2024-01-03")}

	set, err := NonStudyDates(context.Background(), svc, start, end, RegionTwoDay, true)
	require.NoError(t, err)

	holiday, _ := ParseDate("2024-01-03")
	sat1, _ := ParseDate("2024-01-06")
	sat2, _ := ParseDate("2024-01-13")
	weekday, _ := ParseDate("2024-01-04")
	assert.True(t, set.Has(holiday))
	assert.True(t, set.Has(sat1))
	assert.True(t, set.Has(sat2))
	assert.False(t, set.Has(weekday))
}

func TestNonStudyDatesWithoutRestDays(t *testing.T) {
	start, _ := ParseDate("2024-01-01")
	end, _ := ParseDate("2024-01-14")
	svc := Static{Dates: NewDateSet("2024-01-03")}

	set, err := NonStudyDates(context.Background(), svc, start, end, RegionTwoDay, false)
	require.NoError(t, err)

	holiday, _ := ParseDate("2024-01-03")
	sat, _ := ParseDate("2024-01-06")
	assert.True(t, set.Has(holiday))
	assert.False(t, set.Has(sat))
}

func TestHebcalClientFiltersYomTov(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("cfg"))
		assert.Equal(t, "on", r.URL.Query().Get("i"))
		w.Write([]byte(`{"items":[
			{"date":"2024-04-23","title":"Pesach I","yomtov":true},
			{"date":"2024-04-22","title":"Erev Pesach","yomtov":false},
			{"date":"2024-04-29T00:00:00","title":"Pesach VII","yomtov":true}
		]}`))
	}))
	defer srv.Close()

	t.Setenv("HEBCAL_API_URL", srv.URL)
	c := NewHebcalClient()

	start, _ := ParseDate("2024-04-01")
	end, _ := ParseDate("2024-04-30")
	set, err := c.HolyDates(context.Background(), start, end, RegionSingleDay)
	require.NoError(t, err)

	pesach1, _ := ParseDate("2024-04-23")
	erev, _ := ParseDate("2024-04-22")
	pesach7, _ := ParseDate("2024-04-29")
	assert.True(t, set.Has(pesach1))
	assert.False(t, set.Has(erev))
	assert.True(t, set.Has(pesach7))
}

func TestHebcalClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	t.Setenv("HEBCAL_API_URL", srv.URL)
	c := NewHebcalClient()
	_, err := c.HolyDates(context.Background(), time.Now(), time.Now(), RegionTwoDay)
	assert.Error(t, err)
}
