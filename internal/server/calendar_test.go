package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

type fakeCalendar struct {
	mu       sync.Mutex
	timezone string
	inserted []*calendar.Event
	patched  []map[string]interface{}
	deleted  []string
	gone     bool
	events   []map[string]interface{}
	query    map[string]string
}

func (f *fakeCalendar) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		assert.Equal(t, "Bearer access-for-refresh-1", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/users/me/settings/timezone"):
			writeAPIJSON(w, http.StatusOK, map[string]interface{}{"id": "timezone", "value": f.timezone})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/calendars/primary/events"):
			var ev calendar.Event
			require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
			f.inserted = append(f.inserted, &ev)
			ev.Id = "new-event"
			writeAPIJSON(w, http.StatusOK, &ev)
		case r.Method == http.MethodPatch && strings.Contains(r.URL.Path, "/calendars/primary/events/"):
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.patched = append(f.patched, body)
			body["id"] = "ev-1"
			writeAPIJSON(w, http.StatusOK, body)
		case r.Method == http.MethodDelete && strings.Contains(r.URL.Path, "/calendars/primary/events/"):
			f.deleted = append(f.deleted, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
			if f.gone {
				writeAPIError(w, http.StatusGone, "Resource has been deleted")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/calendars/primary/events"):
			f.query = map[string]string{
				"timeMin":      r.URL.Query().Get("timeMin"),
				"timeMax":      r.URL.Query().Get("timeMax"),
				"singleEvents": r.URL.Query().Get("singleEvents"),
			}
			writeAPIJSON(w, http.StatusOK, map[string]interface{}{"items": f.events})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestCreateEvent_AllDay(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantStart string
		wantEnd   string
	}{
		{
			name:      "single day",
			body:      `{"summary":"Holiday","start_date_natural":"2024-07-04","timezone":"UTC"}`,
			wantStart: "2024-07-04",
			wantEnd:   "2024-07-05",
		},
		{
			name:      "inclusive end date",
			body:      `{"summary":"Trip","start_date_natural":"2024-07-04","end_date_natural":"2024-07-05","timezone":"UTC"}`,
			wantStart: "2024-07-04",
			wantEnd:   "2024-07-06",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCalendar{}
			env := newTestEnv(t, fake.handler(t))

			rec := env.post(t, "/calendar/event/create", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			require.Len(t, fake.inserted, 1)
			ev := fake.inserted[0]
			assert.Equal(t, tt.wantStart, ev.Start.Date)
			assert.Equal(t, tt.wantEnd, ev.End.Date)
			assert.Empty(t, ev.Start.DateTime)

			body := decodeBody(t, rec)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, "Event created successfully.", body["message"])
		})
	}
}

func TestCreateEvent_TimedDefaultsToOneHour(t *testing.T) {
	fake := &fakeCalendar{}
	env := newTestEnv(t, fake.handler(t))

	rec := env.post(t, "/calendar/event/create", `{
		"summary": "Standup",
		"start_natural": "2024-07-04 15:00",
		"timezone": "America/New_York",
		"color": "tomato",
		"attendees": ["a@example.com"]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, fake.inserted, 1)
	ev := fake.inserted[0]
	assert.Equal(t, "2024-07-04T15:00:00-04:00", ev.Start.DateTime)
	assert.Equal(t, "2024-07-04T16:00:00-04:00", ev.End.DateTime)
	assert.Equal(t, "America/New_York", ev.Start.TimeZone)
	assert.Equal(t, "11", ev.ColorId)
	require.Len(t, ev.Attendees, 1)
	assert.Equal(t, "a@example.com", ev.Attendees[0].Email)
}

func TestCreateEvent_UsesCalendarTimezone(t *testing.T) {
	fake := &fakeCalendar{timezone: "Asia/Dubai"}
	env := newTestEnv(t, fake.handler(t))

	rec := env.post(t, "/calendar/event/create", `{"summary":"Call","start_natural":"2024-07-04 09:30","color":"not-a-color"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ev := fake.inserted[0]
	assert.Equal(t, "2024-07-04T09:30:00+04:00", ev.Start.DateTime)
	assert.Equal(t, "Asia/Dubai", ev.Start.TimeZone)
	assert.Empty(t, ev.ColorId)
}

func TestCreateEvent_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing summary", `{"start_natural":"2024-07-04 15:00","timezone":"UTC"}`},
		{"missing start", `{"summary":"x","timezone":"UTC"}`},
		{"mixed timed and all-day", `{"summary":"x","start_natural":"2024-07-04 15:00","start_date_natural":"2024-07-04","timezone":"UTC"}`},
		{"end before start", `{"summary":"x","start_natural":"2024-07-04 15:00","end_natural":"2024-07-04 14:00","timezone":"UTC"}`},
		{"unparseable start", `{"summary":"x","start_natural":"xyzzy plugh","timezone":"UTC"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCalendar{}
			env := newTestEnv(t, fake.handler(t))

			rec := env.post(t, "/calendar/event/create", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Empty(t, fake.inserted)
		})
	}
}

func TestUpdateEvent(t *testing.T) {
	fake := &fakeCalendar{}
	env := newTestEnv(t, fake.handler(t))

	rec := env.post(t, "/calendar/event/update", `{"event_id":"ev-1","summary":"Renamed","description":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, fake.patched, 1)
	assert.Equal(t, "Renamed", fake.patched[0]["summary"])
	desc, present := fake.patched[0]["description"]
	assert.True(t, present)
	assert.Nil(t, desc)
	assert.NotContains(t, fake.patched[0], "start")
	assert.Equal(t, "Event updated successfully.", decodeBody(t, rec)["message"])
}

func TestUpdateEvent_NothingToChange(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.post(t, "/calendar/event/update", `{"event_id":"ev-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.post(t, "/calendar/event/update", `{"event_id":"ev-1","color":"chartreuse"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.post(t, "/calendar/event/update", `{"summary":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteEvent(t *testing.T) {
	fake := &fakeCalendar{}
	env := newTestEnv(t, fake.handler(t))

	rec := env.post(t, "/calendar/event/delete", `{"event_id":"ev-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Event 'ev-1' deletion processed.", body["message"])
	assert.Equal(t, "deleted", body["details"].(map[string]interface{})["status"])

	fake.gone = true
	rec = env.post(t, "/calendar/event/delete", `{"event_id":"ev-2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "notFoundOrGone", decodeBody(t, rec)["details"].(map[string]interface{})["status"])
	assert.Equal(t, []string{"ev-1", "ev-2"}, fake.deleted)
}

func TestListEvents_DateNatural(t *testing.T) {
	fake := &fakeCalendar{events: []map[string]interface{}{
		{"id": "e1", "summary": "Lunch", "start": map[string]string{"dateTime": "2024-07-04T12:00:00Z"}, "end": map[string]string{"dateTime": "2024-07-04T13:00:00Z"}},
	}}
	env := newTestEnv(t, fake.handler(t))

	rec := env.post(t, "/calendar/events/list", `{"date_natural":"2024-07-04","user_timezone":"UTC"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "primary", body["calendar_id"])
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "2024-07-04T00:00:00Z", fake.query["timeMin"])
	assert.True(t, strings.HasPrefix(fake.query["timeMax"], "2024-07-04T23:59:59"), fake.query["timeMax"])
	assert.Equal(t, "true", fake.query["singleEvents"])
}

func TestListEvents_EmptyIsArray(t *testing.T) {
	fake := &fakeCalendar{}
	env := newTestEnv(t, fake.handler(t))

	rec := env.post(t, "/calendar/events/list", `{"date_natural":"2024-07-04"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"events":[]`)
}

func TestExportEvents(t *testing.T) {
	fake := &fakeCalendar{events: []map[string]interface{}{
		{"id": "e1", "iCalUID": "uid-1@google.com", "summary": "Holiday", "start": map[string]string{"date": "2024-07-04"}, "end": map[string]string{"date": "2024-07-05"}},
	}}
	env := newTestEnv(t, fake.handler(t))

	rec := env.post(t, "/calendar/events/export", `{"date_natural":"2024-07-04","user_timezone":"UTC"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	out := rec.Body.String()
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "UID:uid-1@google.com")
	assert.Contains(t, out, "SUMMARY:Holiday")
}

// wednesday is the pinned clock for natural-language requests.
var wednesday = time.Date(2024, 7, 3, 12, 0, 0, 0, time.UTC)

func TestListEvents_TimeWindow(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMin string
		wantMax string
	}{
		{
			name:    "defaults to today",
			body:    `{"user_timezone":"UTC"}`,
			wantMin: "2024-07-03T00:00:00Z",
			wantMax: "2024-07-03T23:59:59.999999999Z",
		},
		{
			name:    "max defaults to end of the min day",
			body:    `{"time_min_natural":"2024-07-01 09:00","user_timezone":"UTC"}`,
			wantMin: "2024-07-01T09:00:00Z",
			wantMax: "2024-07-01T23:59:59.999999999Z",
		},
		{
			name:    "bare weekday min looks back",
			body:    `{"time_min_natural":"Friday","user_timezone":"UTC"}`,
			wantMin: "2024-06-28T00:00:00Z",
			wantMax: "2024-06-28T23:59:59.999999999Z",
		},
		{
			name:    "relative min and max",
			body:    `{"time_min_natural":"yesterday","time_max_natural":"next Friday 5pm","user_timezone":"UTC"}`,
			wantMin: "2024-07-02T00:00:00Z",
			wantMax: "2024-07-05T17:00:00Z",
		},
		{
			name:    "phrases resolve in the user timezone",
			body:    `{"time_min_natural":"tomorrow 9am","time_max_natural":"tomorrow 5pm","user_timezone":"America/New_York"}`,
			wantMin: "2024-07-04T09:00:00-04:00",
			wantMax: "2024-07-04T17:00:00-04:00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCalendar{}
			env := newTestEnvAt(t, fake.handler(t), wednesday)

			rec := env.post(t, "/calendar/events/list", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantMin, fake.query["timeMin"])
			assert.Equal(t, tt.wantMax, fake.query["timeMax"])
		})
	}
}

func TestListEvents_RejectsBadWindow(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"max before min", `{"time_min_natural":"2024-07-04 10:00","time_max_natural":"2024-07-04 09:00","user_timezone":"UTC"}`},
		{"max equals min", `{"time_min_natural":"2024-07-04 10:00","time_max_natural":"2024-07-04 10:00","user_timezone":"UTC"}`},
		{"impossible date", `{"date_natural":"31 february","user_timezone":"UTC"}`},
		{"unparseable min", `{"time_min_natural":"xyzzy plugh","user_timezone":"UTC"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCalendar{}
			env := newTestEnvAt(t, fake.handler(t), wednesday)

			rec := env.post(t, "/calendar/events/list", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, false, decodeBody(t, rec)["success"])
			assert.Nil(t, fake.query, "calendar must not be queried")
		})
	}
}

func TestCreateEvent_NaturalLanguage(t *testing.T) {
	fake := &fakeCalendar{}
	env := newTestEnvAt(t, fake.handler(t), wednesday)

	rec := env.post(t, "/calendar/event/create", `{"summary":"Review","start_natural":"next Friday 3pm","timezone":"America/New_York"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, fake.inserted, 1)
	assert.Equal(t, "2024-07-05T15:00:00-04:00", fake.inserted[0].Start.DateTime)
	assert.Equal(t, "2024-07-05T16:00:00-04:00", fake.inserted[0].End.DateTime)
}

func TestUpdateEvent_SwitchesBetweenTimedAndAllDay(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantStart map[string]interface{}
		wantEnd   map[string]interface{}
	}{
		{
			name:      "timed to all-day",
			body:      `{"event_id":"ev-1","start_date_natural":"next Friday","timezone":"UTC"}`,
			wantStart: map[string]interface{}{"date": "2024-07-05", "dateTime": nil, "timeZone": nil},
			wantEnd:   map[string]interface{}{"date": "2024-07-06", "dateTime": nil, "timeZone": nil},
		},
		{
			name:      "all-day to timed",
			body:      `{"event_id":"ev-1","start_natural":"tomorrow 3pm","timezone":"America/New_York"}`,
			wantStart: map[string]interface{}{"date": nil, "dateTime": "2024-07-04T15:00:00-04:00", "timeZone": "America/New_York"},
			wantEnd:   map[string]interface{}{"date": nil, "dateTime": "2024-07-04T16:00:00-04:00", "timeZone": "America/New_York"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCalendar{}
			env := newTestEnvAt(t, fake.handler(t), wednesday)

			rec := env.post(t, "/calendar/event/update", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			require.Len(t, fake.patched, 1)
			assert.Equal(t, tt.wantStart, fake.patched[0]["start"])
			assert.Equal(t, tt.wantEnd, fake.patched[0]["end"])
		})
	}
}
