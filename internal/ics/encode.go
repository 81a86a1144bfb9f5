package ics

import (
	"fmt"
	"io"
	"strings"
	"suiteagent/internal/models"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const productID = "-//suiteagent//EN"

// Encode writes events as a single VCALENDAR to w.
func Encode(w io.Writer, events []*models.Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, event := range events {
		vevent, err := toICal(event, now)
		if err != nil {
			return fmt.Errorf("failed to convert event %s: %w", event.ID, err)
		}
		cal.Children = append(cal.Children, vevent)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// toICal converts an internal Event model to an ical.Component (VEvent).
func toICal(event *models.Event, now time.Time) (*ical.Component, error) {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, eventUID(event))
	ve.Props.SetText(ical.PropSummary, event.Summary)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())

	if event.AllDay() {
		start, err := time.Parse("2006-01-02", event.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q: %w", event.StartDate, err)
		}
		end, err := time.Parse("2006-01-02", event.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q: %w", event.EndDate, err)
		}
		ve.Props.SetDate(ical.PropDateTimeStart, start)
		ve.Props.SetDate(ical.PropDateTimeEnd, end)
	} else {
		ve.Props.SetDateTime(ical.PropDateTimeStart, event.Start.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, event.End.UTC())
	}

	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}
	if event.Link != "" {
		p := ical.NewProp(ical.PropURL)
		p.Value = event.Link
		ve.Props.Add(p)
	}
	if event.Organizer != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.Value = "mailto:" + event.Organizer
		ve.Props.Add(p)
	}
	for _, attendee := range event.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.Value = "mailto:" + attendee
		ve.Props.Add(p)
	}
	// Recurrence lines arrive as "RRULE:FREQ=WEEKLY", one property each.
	for _, line := range event.Recurrence {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		p := ical.NewProp(strings.ToUpper(name))
		p.Value = value
		ve.Props.Add(p)
	}
	return ve, nil
}

func eventUID(event *models.Event) string {
	if event.UID != "" {
		return event.UID
	}
	if event.ID != "" {
		return event.ID
	}
	return uuid.New().String()
}
