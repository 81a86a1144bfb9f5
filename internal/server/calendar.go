package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"suiteagent/internal/google"
	"suiteagent/internal/ics"
	"suiteagent/internal/models"
	"suiteagent/internal/timeparse"
	"time"

	"google.golang.org/api/calendar/v3"
)

const (
	defaultCalendarID = "primary"
	defaultMaxResults = 50
)

func (s *Server) calendarRoutes(r routeGroup) {
	r.HandleFunc("/events/list", s.handleListEvents).Methods(http.MethodPost)
	r.HandleFunc("/events/export", s.handleExportEvents).Methods(http.MethodPost)
	r.HandleFunc("/event/create", s.handleCreateEvent).Methods(http.MethodPost)
	r.HandleFunc("/event/update", s.handleUpdateEvent).Methods(http.MethodPost)
	r.HandleFunc("/event/delete", s.handleDeleteEvent).Methods(http.MethodPost)
}

// nullableString tells an absent field apart from an explicit null.
type nullableString struct {
	Set   bool
	Null  bool
	Value string
}

func (n *nullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Null = true
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

type listEventsRequest struct {
	CalendarID     string `json:"calendar_id"`
	DateNatural    string `json:"date_natural"`
	TimeMinNatural string `json:"time_min_natural"`
	TimeMaxNatural string `json:"time_max_natural"`
	UserTimezone   string `json:"user_timezone"`
	MaxResults     int64  `json:"max_results"`
}

type createEventRequest struct {
	CalendarID       string   `json:"calendar_id"`
	Summary          string   `json:"summary"`
	Description      string   `json:"description"`
	Location         string   `json:"location"`
	Color            string   `json:"color"`
	StartNatural     string   `json:"start_natural"`
	EndNatural       string   `json:"end_natural"`
	StartDateNatural string   `json:"start_date_natural"`
	EndDateNatural   string   `json:"end_date_natural"`
	Attendees        []string `json:"attendees"`
	RecurrenceRules  []string `json:"recurrence_rules"`
	Timezone         string   `json:"timezone"`
}

type updateEventRequest struct {
	CalendarID       string         `json:"calendar_id"`
	EventID          string         `json:"event_id"`
	Summary          *string        `json:"summary"`
	Description      nullableString `json:"description"`
	Location         nullableString `json:"location"`
	Color            nullableString `json:"color"`
	StartNatural     string         `json:"start_natural"`
	EndNatural       string         `json:"end_natural"`
	StartDateNatural string         `json:"start_date_natural"`
	EndDateNatural   string         `json:"end_date_natural"`
	Attendees        *[]string      `json:"attendees"`
	RecurrenceRules  *[]string      `json:"recurrence_rules"`
	Timezone         string         `json:"timezone"`
}

type deleteEventRequest struct {
	CalendarID string `json:"calendar_id"`
	EventID    string `json:"event_id"`
}

// listRange resolves the window of a list or export request.
func (s *Server) listRange(req *listEventsRequest) (time.Time, time.Time, error) {
	zone := req.UserTimezone
	if zone == "" {
		zone = s.cfg.Calendar.FallbackTimezone
	}
	loc := s.times.Location(zone)

	if req.DateNatural != "" {
		start, end, err := s.times.DayBounds(req.DateNatural, loc)
		if err != nil {
			return time.Time{}, time.Time{}, invalid("date_natural", "Could not understand date_natural %q", req.DateNatural)
		}
		return start, end, nil
	}

	timeMin := timeparse.StartOfDay(s.times.Now(loc))
	if req.TimeMinNatural != "" {
		t, err := s.times.Parse(req.TimeMinNatural, loc, timeparse.PreferPast)
		if err != nil {
			return time.Time{}, time.Time{}, invalid("time_min_natural", "Could not understand time_min_natural %q", req.TimeMinNatural)
		}
		timeMin = t
	}

	timeMax := timeparse.EndOfDay(timeMin)
	if req.TimeMaxNatural != "" {
		t, err := s.times.Parse(req.TimeMaxNatural, loc, timeparse.PreferFuture)
		if err != nil {
			return time.Time{}, time.Time{}, invalid("time_max_natural", "Could not understand time_max_natural %q", req.TimeMaxNatural)
		}
		timeMax = t
	}
	if !timeMax.After(timeMin) {
		return time.Time{}, time.Time{}, invalid("time_max_natural", "time_max_natural must be after time_min_natural")
	}
	return timeMin, timeMax, nil
}

// listEvents runs a list request shared by the list and export endpoints.
func (s *Server) listEvents(r *http.Request, req *listEventsRequest) (string, []*calendar.Event, error) {
	if err := decodeJSON(r, req); err != nil {
		return "", nil, err
	}
	if req.CalendarID == "" {
		req.CalendarID = defaultCalendarID
	}
	if req.MaxResults <= 0 {
		req.MaxResults = defaultMaxResults
	}

	timeMin, timeMax, err := s.listRange(req)
	if err != nil {
		return "", nil, err
	}

	token, err := s.accessToken(r)
	if err != nil {
		return "", nil, err
	}
	client, err := s.google.Calendar(r.Context(), token)
	if err != nil {
		return "", nil, err
	}
	items, err := client.ListEvents(r.Context(), req.CalendarID, timeMin, timeMax, req.MaxResults)
	if err != nil {
		return "", nil, err
	}
	return req.CalendarID, items, nil
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	calendarID, items, err := s.listEvents(r, &listEventsRequest{})
	if err != nil {
		s.fail(w, r, err, "Calendar")
		return
	}
	if items == nil {
		items = []*calendar.Event{}
	}
	writeOK(w, envelope{"calendar_id": calendarID, "events": items, "count": len(items)})
}

func (s *Server) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	_, items, err := s.listEvents(r, &listEventsRequest{})
	if err != nil {
		s.fail(w, r, err, "Calendar")
		return
	}

	var buf bytes.Buffer
	if err := ics.Encode(&buf, google.ToModels(items), time.Now()); err != nil {
		s.fail(w, r, err, "Calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// eventZone picks the zone for natural-language times on create and update:
// the requested zone, then the calendar's own setting, then UTC.
func (s *Server) eventZone(ctx context.Context, client *google.CalendarClient, requested string) *time.Location {
	if requested != "" {
		return s.times.Location(requested)
	}
	zone, err := client.Timezone(ctx)
	if err != nil {
		s.logger.Warn("Could not read calendar timezone, using UTC", "error", err)
		return time.UTC
	}
	return s.times.Location(zone)
}

// colorID resolves a color name or id. Unsupported values are ignored.
func (s *Server) colorID(input string) (string, bool) {
	id, ok := models.ColorID(input)
	if !ok {
		s.logger.Warn("Ignoring unsupported event color", "color", input)
	}
	return id, ok
}

// eventTimes resolves the natural-language boundaries of an event. Exactly
// one of the timed or all-day pairs may be given.
type eventTimes struct {
	start, end         *time.Time
	startDate, endDate string
}

func (s *Server) resolveEventTimes(loc *time.Location, startNatural, endNatural, startDateNatural, endDateNatural string) (*eventTimes, error) {
	timed := startNatural != "" || endNatural != ""
	allDay := startDateNatural != "" || endDateNatural != ""
	if timed && allDay {
		return nil, invalid("start_natural", "Provide either start_natural/end_natural or start_date_natural/end_date_natural, not both")
	}

	out := &eventTimes{}
	switch {
	case allDay:
		if startDateNatural == "" {
			return nil, invalid("start_date_natural", "start_date_natural is required with end_date_natural")
		}
		start, err := s.times.Parse(startDateNatural, loc, timeparse.PreferFuture)
		if err != nil {
			return nil, invalid("start_date_natural", "Could not understand start_date_natural %q", startDateNatural)
		}
		var inclusiveEnd *time.Time
		if endDateNatural != "" {
			end, err := s.times.Parse(endDateNatural, loc, timeparse.PreferFuture)
			if err != nil {
				return nil, invalid("end_date_natural", "Could not understand end_date_natural %q", endDateNatural)
			}
			inclusiveEnd = &end
		}
		out.startDate, out.endDate, err = timeparse.AllDayRange(start, inclusiveEnd)
		if err != nil {
			return nil, invalid("end_date_natural", "%v", err)
		}
	case startNatural != "":
		start, err := s.times.Parse(startNatural, loc, timeparse.PreferFuture)
		if err != nil {
			return nil, invalid("start_natural", "Could not understand start_natural %q", startNatural)
		}
		var endPtr *time.Time
		if endNatural != "" {
			end, err := s.times.Parse(endNatural, loc, timeparse.PreferFuture)
			if err != nil {
				return nil, invalid("end_natural", "Could not understand end_natural %q", endNatural)
			}
			endPtr = &end
		}
		end, err := timeparse.TimedEnd(start, endPtr)
		if err != nil {
			return nil, invalid("end_natural", "%v", err)
		}
		out.start, out.end = &start, &end
	case endNatural != "":
		end, err := s.times.Parse(endNatural, loc, timeparse.PreferFuture)
		if err != nil {
			return nil, invalid("end_natural", "Could not understand end_natural %q", endNatural)
		}
		out.end = &end
	}
	return out, nil
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	if strings.TrimSpace(req.Summary) == "" {
		s.fail(w, r, invalid("summary", "summary is required"), "Event")
		return
	}
	if req.StartNatural == "" && req.StartDateNatural == "" {
		s.fail(w, r, invalid("start_natural", "Either start_natural or start_date_natural is required"), "Event")
		return
	}
	if req.CalendarID == "" {
		req.CalendarID = defaultCalendarID
	}

	token, err := s.accessToken(r)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	client, err := s.google.Calendar(r.Context(), token)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}

	loc := s.eventZone(r.Context(), client, req.Timezone)
	times, err := s.resolveEventTimes(loc, req.StartNatural, req.EndNatural, req.StartDateNatural, req.EndDateNatural)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}

	event := &models.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Location:    req.Location,
		Attendees:   req.Attendees,
		Recurrence:  req.RecurrenceRules,
	}
	if req.Color != "" {
		if id, ok := s.colorID(req.Color); ok {
			event.ColorID = id
		}
	}
	if times.startDate != "" {
		event.StartDate, event.EndDate = times.startDate, times.endDate
	} else {
		event.Start, event.End, event.TimeZone = *times.start, *times.end, loc.String()
	}

	created, err := client.CreateEvent(r.Context(), req.CalendarID, event)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	writeOK(w, envelope{"message": "Event created successfully.", "event": created})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	if req.EventID == "" {
		s.fail(w, r, invalid("event_id", "event_id is required"), "Event")
		return
	}
	if req.CalendarID == "" {
		req.CalendarID = defaultCalendarID
	}

	patch := &google.EventPatch{Summary: req.Summary}
	if req.Description.Set {
		patch.Description = &req.Description.Value
	}
	if req.Location.Set {
		patch.Location = &req.Location.Value
	}
	if req.Color.Set {
		if req.Color.Null {
			reset := ""
			patch.ColorID = &reset
		} else if id, ok := s.colorID(req.Color.Value); ok {
			patch.ColorID = &id
		}
	}
	if req.Attendees != nil {
		patch.Attendees, patch.SetAttendees = *req.Attendees, true
	}
	if req.RecurrenceRules != nil {
		patch.Recurrence, patch.SetRecurrence = *req.RecurrenceRules, true
	}

	changesTime := req.StartNatural != "" || req.EndNatural != "" || req.StartDateNatural != "" || req.EndDateNatural != ""
	if patch.Empty() && !changesTime {
		s.fail(w, r, invalid("event_id", "No updatable fields provided for event %s", req.EventID), "Event")
		return
	}

	token, err := s.accessToken(r)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	client, err := s.google.Calendar(r.Context(), token)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}

	if changesTime {
		loc := s.eventZone(r.Context(), client, req.Timezone)
		times, err := s.resolveEventTimes(loc, req.StartNatural, req.EndNatural, req.StartDateNatural, req.EndDateNatural)
		if err != nil {
			s.fail(w, r, err, "Event")
			return
		}
		patch.Start, patch.End = times.start, times.end
		patch.StartDate, patch.EndDate = times.startDate, times.endDate
		patch.TimeZone = loc.String()
	}

	updated, err := client.PatchEvent(r.Context(), req.CalendarID, req.EventID, patch)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	writeOK(w, envelope{"message": "Event updated successfully.", "event": updated})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	var req deleteEventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	if req.EventID == "" {
		s.fail(w, r, invalid("event_id", "event_id is required"), "Event")
		return
	}
	if req.CalendarID == "" {
		req.CalendarID = defaultCalendarID
	}

	token, err := s.accessToken(r)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	client, err := s.google.Calendar(r.Context(), token)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}

	result, err := client.DeleteEvent(r.Context(), req.CalendarID, req.EventID)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	writeOK(w, envelope{"message": fmt.Sprintf("Event '%s' deletion processed.", req.EventID), "details": result})
}
