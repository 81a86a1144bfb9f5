package google

import (
	"context"
	"fmt"
	"log/slog"
	"suiteagent/internal/models"
	"time"

	"google.golang.org/api/calendar/v3"
)

// Delete outcomes reported by DeleteEvent.
const (
	StatusDeleted        = "deleted"
	StatusNotFoundOrGone = "notFoundOrGone"
)

// CalendarClient provides a client for interacting with the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
}

// DeleteResult describes the outcome of an event deletion.
type DeleteResult struct {
	EventID string `json:"eventId"`
	Status  string `json:"status"`
}

// EventPatch lists the fields to change on an existing event. Nil pointers
// leave a field untouched; a pointer to "" clears it.
type EventPatch struct {
	Summary     *string
	Description *string
	Location    *string
	ColorID     *string

	// Timed boundaries, expressed in TimeZone.
	Start    *time.Time
	End      *time.Time
	TimeZone string

	// All-day boundaries, end exclusive.
	StartDate string
	EndDate   string

	Attendees     []string
	SetAttendees  bool
	Recurrence    []string
	SetRecurrence bool
}

// Empty reports whether the patch changes nothing.
func (p *EventPatch) Empty() bool {
	return p.Summary == nil && p.Description == nil && p.Location == nil && p.ColorID == nil &&
		p.Start == nil && p.End == nil && p.StartDate == "" && p.EndDate == "" &&
		!p.SetAttendees && !p.SetRecurrence
}

// Timezone returns the calendar owner's configured timezone.
func (c *CalendarClient) Timezone(ctx context.Context) (string, error) {
	setting, err := c.service.Settings.Get("timezone").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to fetch calendar timezone: %w", err)
	}
	c.logger.Debug("Fetched calendar timezone", "timezone", setting.Value)
	return setting.Value, nil
}

// ListEvents returns single events between timeMin and timeMax ordered by start time.
func (c *CalendarClient) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, maxResults int64) ([]*calendar.Event, error) {
	c.logger.Debug("Fetching events", "calendarID", calendarID, "timeMin", timeMin, "timeMax", timeMax)

	events, err := c.service.Events.List(calendarID).
		SingleEvents(true).
		TimeMin(timeMin.Format(time.RFC3339Nano)).
		TimeMax(timeMax.Format(time.RFC3339Nano)).
		MaxResults(maxResults).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	c.logger.Info("Fetched events from Google Calendar", "count", len(events.Items), "calendarID", calendarID)
	return events.Items, nil
}

// CreateEvent inserts event into calendarID.
func (c *CalendarClient) CreateEvent(ctx context.Context, calendarID string, event *models.Event) (*calendar.Event, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	created, err := c.service.Events.Insert(calendarID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	c.logger.Info("Created event", "eventID", created.Id, "calendarID", calendarID)
	return created, nil
}

// PatchEvent applies patch to an existing event.
func (c *CalendarClient) PatchEvent(ctx context.Context, calendarID, eventID string, patch *EventPatch) (*calendar.Event, error) {
	updated, err := c.service.Events.Patch(calendarID, eventID, patch.toGoogle()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", eventID, err)
	}

	c.logger.Info("Updated event", "eventID", eventID, "calendarID", calendarID)
	return updated, nil
}

// DeleteEvent removes an event. An event the API reports as missing or
// already gone counts as deleted.
func (c *CalendarClient) DeleteEvent(ctx context.Context, calendarID, eventID string) (*DeleteResult, error) {
	err := c.service.Events.Delete(calendarID, eventID).Context(ctx).Do()
	switch {
	case err == nil:
		c.logger.Info("Deleted event", "eventID", eventID, "calendarID", calendarID)
		return &DeleteResult{EventID: eventID, Status: StatusDeleted}, nil
	case IsNotFoundOrGone(err):
		c.logger.Warn("Event not found or already gone", "eventID", eventID, "calendarID", calendarID)
		return &DeleteResult{EventID: eventID, Status: StatusNotFoundOrGone}, nil
	default:
		return nil, fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
}

func toGoogleEvent(event *models.Event) *calendar.Event {
	ge := &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		ColorId:     event.ColorID,
		Recurrence:  event.Recurrence,
	}

	if event.AllDay() {
		ge.Start = &calendar.EventDateTime{Date: event.StartDate}
		ge.End = &calendar.EventDateTime{Date: event.EndDate}
	} else {
		ge.Start = &calendar.EventDateTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: event.TimeZone}
		ge.End = &calendar.EventDateTime{DateTime: event.End.Format(time.RFC3339), TimeZone: event.TimeZone}
	}

	for _, email := range event.Attendees {
		ge.Attendees = append(ge.Attendees, &calendar.EventAttendee{Email: email})
	}
	return ge
}

func (p *EventPatch) toGoogle() *calendar.Event {
	ge := &calendar.Event{}

	setText := func(value *string, dst *string, field string) {
		if value == nil {
			return
		}
		if *value == "" {
			ge.NullFields = append(ge.NullFields, field)
			return
		}
		*dst = *value
	}
	setText(p.Description, &ge.Description, "Description")
	setText(p.Location, &ge.Location, "Location")
	setText(p.ColorID, &ge.ColorId, "ColorId")
	if p.Summary != nil {
		ge.Summary = *p.Summary
		ge.ForceSendFields = append(ge.ForceSendFields, "Summary")
	}

	timed := func(t *time.Time) *calendar.EventDateTime {
		return &calendar.EventDateTime{
			DateTime:   t.Format(time.RFC3339),
			TimeZone:   p.TimeZone,
			NullFields: []string{"Date"},
		}
	}
	allDay := func(d string) *calendar.EventDateTime {
		return &calendar.EventDateTime{Date: d, NullFields: []string{"DateTime", "TimeZone"}}
	}
	switch {
	case p.StartDate != "":
		ge.Start = allDay(p.StartDate)
		ge.End = allDay(p.EndDate)
	default:
		if p.Start != nil {
			ge.Start = timed(p.Start)
		}
		if p.End != nil {
			ge.End = timed(p.End)
		}
	}

	if p.SetAttendees {
		ge.Attendees = []*calendar.EventAttendee{}
		for _, email := range p.Attendees {
			ge.Attendees = append(ge.Attendees, &calendar.EventAttendee{Email: email})
		}
		ge.ForceSendFields = append(ge.ForceSendFields, "Attendees")
	}
	if p.SetRecurrence {
		ge.Recurrence = p.Recurrence
		if len(p.Recurrence) == 0 {
			ge.NullFields = append(ge.NullFields, "Recurrence")
		}
	}
	return ge
}

// ToModels converts Google Calendar events to the internal Event model.
func ToModels(items []*calendar.Event) []*models.Event {
	var out []*models.Event
	for _, item := range items {
		if item.Start == nil || item.End == nil {
			continue
		}

		event := &models.Event{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Location:    item.Location,
			ColorID:     item.ColorId,
			UID:         item.ICalUID,
			Link:        item.HtmlLink,
			Recurrence:  item.Recurrence,
		}
		if item.Organizer != nil {
			event.Organizer = item.Organizer.Email
		}
		for _, a := range item.Attendees {
			event.Attendees = append(event.Attendees, a.Email)
		}

		if item.Start.DateTime != "" {
			start, errStart := time.Parse(time.RFC3339, item.Start.DateTime)
			end, errEnd := time.Parse(time.RFC3339, item.End.DateTime)
			if errStart != nil || errEnd != nil {
				continue
			}
			event.Start, event.End, event.TimeZone = start, end, item.Start.TimeZone
		} else {
			event.StartDate, event.EndDate = item.Start.Date, item.End.Date
		}
		out = append(out, event)
	}
	return out
}
