// Package timeparse turns natural-language date and time phrases into
// timezone-aware instants for calendar requests.
package timeparse

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// DefaultDuration is the length of a timed event created without an end.
const DefaultDuration = time.Hour

// DateLayout is the calendar API's all-day date format.
const DateLayout = "2006-01-02"

// Direction decides how ambiguous phrases such as "Friday" are resolved.
type Direction int

const (
	PreferFuture Direction = iota
	PreferPast
)

// exact forms accepted before falling back to the natural-language parser.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
}

// ParseError is returned when a phrase cannot be understood.
type ParseError struct {
	Phrase string
	Zone   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %q with timezone %q", e.Phrase, e.Zone)
}

// Resolver parses phrases relative to the current time.
type Resolver struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewResolver creates a Resolver using the wall clock.
func NewResolver(logger *slog.Logger) *Resolver {
	return NewResolverWithClock(logger, time.Now)
}

// NewResolverWithClock creates a Resolver that reads the current time from now.
func NewResolverWithClock(logger *slog.Logger, now func() time.Time) *Resolver {
	return &Resolver{logger: logger, now: now}
}

// Location loads an IANA zone. Unknown or empty zones fall back to UTC
// with a warning.
func (r *Resolver) Location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		r.logger.Warn("Unknown timezone, falling back to UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

// Now returns the current time in loc.
func (r *Resolver) Now(loc *time.Location) time.Time {
	return r.now().In(loc)
}

// Parse resolves phrase to an instant in loc. Phrases without an explicit
// offset are interpreted as wall-clock time in loc.
func (r *Resolver) Parse(phrase string, loc *time.Location, dir Direction) (time.Time, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return time.Time{}, &ParseError{Phrase: phrase, Zone: loc.String()}
	}

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, phrase, loc); err == nil {
			return t.In(loc), nil
		}
	}

	now := r.Now(loc)
	if t, ok := relativeDay(phrase, now, dir); ok {
		return t, nil
	}

	source := dps.Future
	if dir == PreferPast {
		source = dps.Past
	}
	cfg := &dps.Configuration{
		CurrentTime:         now,
		PreferredDateSource: source,
		DefaultTimezone:     loc,
	}
	parsed, err := dps.Parse(cfg, phrase)
	if err != nil || parsed.Time.IsZero() {
		r.logger.Debug("Natural language parse failed", "phrase", phrase, "timezone", loc.String(), "error", err)
		return time.Time{}, &ParseError{Phrase: phrase, Zone: loc.String()}
	}
	t := parsed.Time.In(loc)
	if !consistent(phrase, t) {
		r.logger.Debug("Parsed date contradicts phrase", "phrase", phrase, "timezone", loc.String(), "parsed", t.Format(time.RFC3339))
		return time.Time{}, &ParseError{Phrase: phrase, Zone: loc.String()}
	}
	return t, nil
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999999999, t.Location())
}

// DayBounds resolves phrase to a day and returns its first and last instants.
func (r *Resolver) DayBounds(phrase string, loc *time.Location) (time.Time, time.Time, error) {
	t, err := r.Parse(phrase, loc, PreferFuture)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return StartOfDay(t), EndOfDay(t), nil
}

// TimedEnd returns end when given, otherwise start plus DefaultDuration.
// The end must be strictly after the start.
func TimedEnd(start time.Time, end *time.Time) (time.Time, error) {
	if end == nil {
		return start.Add(DefaultDuration), nil
	}
	if !end.After(start) {
		return time.Time{}, fmt.Errorf("end %s must be after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return *end, nil
}

// AllDayRange returns the API start date and exclusive end date for an
// all-day event. inclusiveEnd is the last day the user wants covered; nil
// means a single-day event.
func AllDayRange(start time.Time, inclusiveEnd *time.Time) (string, string, error) {
	first := StartOfDay(start)
	last := first
	if inclusiveEnd != nil {
		last = time.Date(inclusiveEnd.Year(), inclusiveEnd.Month(), inclusiveEnd.Day(), 0, 0, 0, 0, first.Location())
		if last.Before(first) {
			return "", "", fmt.Errorf("end date %s is before start date %s", last.Format(DateLayout), first.Format(DateLayout))
		}
	}
	return first.Format(DateLayout), last.AddDate(0, 0, 1).Format(DateLayout), nil
}
