package models

import (
	"errors"
	"time"
)

// Event is the provider-independent form of a calendar event.
// An event is either timed (Start/End set) or all-day (StartDate/EndDate set), never both.
type Event struct {
	ID          string    // Provider event id, empty before creation
	Summary     string    // Title of the event
	Description string    // Free-form notes
	Location    string    // Where the event happens
	ColorID     string    // Calendar color id "1".."11", empty for the calendar default
	Start       time.Time // Start instant of a timed event
	End         time.Time // End instant of a timed event
	TimeZone    string    // IANA zone the timed event is expressed in
	StartDate   string    // First day of an all-day event, YYYY-MM-DD
	EndDate     string    // Exclusive last day of an all-day event, YYYY-MM-DD
	Attendees   []string  // Attendee emails
	Recurrence  []string  // RRULE/EXRULE/RDATE/EXDATE lines
	Organizer   string    // Organizer's email
	UID         string    // iCalendar UID
	Link        string    // Link to the event in the calendar UI
}

// AllDay reports whether the event uses date-only boundaries.
func (e *Event) AllDay() bool {
	return e.StartDate != ""
}

// Validate checks the timed/all-day invariant and that the end follows the start.
func (e *Event) Validate() error {
	timed := !e.Start.IsZero() || !e.End.IsZero()
	allDay := e.StartDate != "" || e.EndDate != ""

	switch {
	case timed && allDay:
		return errors.New("event cannot be both timed and all-day")
	case !timed && !allDay:
		return errors.New("event needs either a start time or a start date")
	case timed:
		if e.Start.IsZero() || e.End.IsZero() {
			return errors.New("timed event needs both start and end")
		}
		if !e.End.After(e.Start) {
			return errors.New("event end must be after its start")
		}
	default:
		if e.StartDate == "" || e.EndDate == "" {
			return errors.New("all-day event needs both start and end dates")
		}
		if e.EndDate <= e.StartDate {
			return errors.New("all-day end date must be after its start date")
		}
	}
	return nil
}
