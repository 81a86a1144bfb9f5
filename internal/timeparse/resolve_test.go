package timeparse

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(now time.Time) *Resolver {
	return NewResolverWithClock(slog.New(slog.NewTextHandler(io.Discard, nil)), func() time.Time { return now })
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	r := newTestResolver(time.Now())

	assert.Equal(t, time.UTC, r.Location(""))
	assert.Equal(t, time.UTC, r.Location("Mars/Olympus_Mons"))
	assert.Equal(t, "America/New_York", r.Location("America/New_York").String())
}

func TestParse_ISOForms(t *testing.T) {
	r := newTestResolver(time.Now())
	ny := r.Location("America/New_York")

	got, err := r.Parse("2024-07-04 15:00", ny, PreferFuture)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-04T15:00:00-04:00", got.Format(time.RFC3339))

	got, err = r.Parse("2024-07-04T19:00:00Z", ny, PreferFuture)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-04T15:00:00-04:00", got.Format(time.RFC3339), "explicit offsets are kept as instants")

	got, err = r.Parse("2024-07-04", ny, PreferFuture)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-04T00:00:00-04:00", got.Format(time.RFC3339))
}

func TestParse_NaturalLanguageRelativeToNow(t *testing.T) {
	now := time.Date(2024, 7, 4, 9, 30, 0, 0, time.UTC)
	r := newTestResolver(now)

	got, err := r.Parse("tomorrow", time.UTC, PreferFuture)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-05", got.Format(DateLayout))
}

func TestParse_RelativeDayPhrases(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// Wednesday.
	r := newTestResolver(time.Date(2024, 7, 3, 12, 0, 0, 0, ny))

	tests := []struct {
		phrase string
		dir    Direction
		want   string
	}{
		{"tomorrow 3pm", PreferFuture, "2024-07-04T15:00:00-04:00"},
		{"tomorrow at 9:30am", PreferFuture, "2024-07-04T09:30:00-04:00"},
		{"today", PreferFuture, "2024-07-03T00:00:00-04:00"},
		{"yesterday 18:00", PreferPast, "2024-07-02T18:00:00-04:00"},
		{"next Friday", PreferFuture, "2024-07-05T00:00:00-04:00"},
		{"next Friday 3pm", PreferFuture, "2024-07-05T15:00:00-04:00"},
		{"this Friday", PreferFuture, "2024-07-05T00:00:00-04:00"},
		{"last Friday", PreferFuture, "2024-06-28T00:00:00-04:00"},
		{"next Wednesday", PreferFuture, "2024-07-10T00:00:00-04:00"},
		{"last wednesday", PreferPast, "2024-06-26T00:00:00-04:00"},
		{"Friday", PreferFuture, "2024-07-05T00:00:00-04:00"},
		{"Friday", PreferPast, "2024-06-28T00:00:00-04:00"},
		{"Friday 3pm", PreferPast, "2024-06-28T15:00:00-04:00"},
		{"on Monday at noon", PreferFuture, "2024-07-08T12:00:00-04:00"},
	}
	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got, err := r.Parse(tt.phrase, ny, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format(time.RFC3339))
		})
	}
}

func TestParse_PastWeekdayNeverInFuture(t *testing.T) {
	now := time.Date(2024, 7, 3, 12, 0, 0, 0, time.UTC)
	r := newTestResolver(now)

	for _, phrase := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"} {
		got, err := r.Parse(phrase, time.UTC, PreferPast)
		require.NoError(t, err, phrase)
		assert.False(t, got.After(now), "%s resolved to %s", phrase, got)
		assert.True(t, now.Sub(got) < 7*24*time.Hour, "%s resolved to %s", phrase, got)
		assert.Equal(t, phrase, got.Weekday().String())
	}
}

func TestParse_WeekdayAcrossMonthBoundary(t *testing.T) {
	// Tuesday.
	r := newTestResolver(time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC))

	got, err := r.Parse("Friday", time.UTC, PreferPast)
	require.NoError(t, err)
	assert.Equal(t, "2024-09-27", got.Format(DateLayout))

	// Saturday.
	r = newTestResolver(time.Date(2024, 8, 31, 8, 0, 0, 0, time.UTC))
	got, err = r.Parse("next Monday", time.UTC, PreferFuture)
	require.NoError(t, err)
	assert.Equal(t, "2024-09-02", got.Format(DateLayout))
}

func TestParse_ImpossibleDateRejected(t *testing.T) {
	r := newTestResolver(time.Date(2024, 7, 3, 12, 0, 0, 0, time.UTC))

	for _, dir := range []Direction{PreferFuture, PreferPast} {
		_, err := r.Parse("31 february", time.UTC, dir)
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), "got %v", err)
	}
}

func TestParse_Unparseable(t *testing.T) {
	r := newTestResolver(time.Now())

	_, err := r.Parse("   ", time.UTC, PreferFuture)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "UTC", pe.Zone)
}

func TestDayBounds(t *testing.T) {
	r := newTestResolver(time.Now())
	dubai := r.Location("Asia/Dubai")

	start, end, err := r.DayBounds("2024-03-10", dubai)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10T00:00:00+04:00", start.Format(time.RFC3339))
	assert.Equal(t, "2024-03-10T23:59:59.999999999+04:00", end.Format(time.RFC3339Nano))
}

func TestTimedEnd_DefaultsToOneHour(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	start := time.Date(2024, 11, 3, 0, 30, 0, 0, ny)

	end, err := TimedEnd(start, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, end.Sub(start))
	assert.Equal(t, ny, end.Location())
}

func TestTimedEnd_RejectsEndNotAfterStart(t *testing.T) {
	start := time.Date(2024, 7, 4, 15, 0, 0, 0, time.UTC)

	_, err := TimedEnd(start, &start)
	assert.Error(t, err)

	earlier := start.Add(-time.Minute)
	_, err = TimedEnd(start, &earlier)
	assert.Error(t, err)

	later := start.Add(30 * time.Minute)
	end, err := TimedEnd(start, &later)
	require.NoError(t, err)
	assert.Equal(t, later, end)
}

func TestAllDayRange(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		wantStart string
		wantEnd   string
	}{
		{name: "single day", start: "2024-07-04", wantStart: "2024-07-04", wantEnd: "2024-07-05"},
		{name: "inclusive end", start: "2024-07-04", end: "2024-07-05", wantStart: "2024-07-04", wantEnd: "2024-07-06"},
		{name: "same day end", start: "2024-07-04", end: "2024-07-04", wantStart: "2024-07-04", wantEnd: "2024-07-05"},
		{name: "month boundary", start: "2024-02-28", end: "2024-02-29", wantStart: "2024-02-28", wantEnd: "2024-03-01"},
	}

	r := newTestResolver(time.Now())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := r.Parse(tt.start, time.UTC, PreferFuture)
			require.NoError(t, err)

			var end *time.Time
			if tt.end != "" {
				e, err := r.Parse(tt.end, time.UTC, PreferFuture)
				require.NoError(t, err)
				end = &e
			}

			gotStart, gotEnd, err := AllDayRange(start, end)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, gotStart)
			assert.Equal(t, tt.wantEnd, gotEnd)
		})
	}
}

func TestAllDayRange_EndBeforeStart(t *testing.T) {
	start := time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)

	_, _, err := AllDayRange(start, &end)
	assert.Error(t, err)
}
