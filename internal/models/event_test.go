package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestColorID(t *testing.T) {
	tests := []struct {
		in     string
		wantID string
		wantOK bool
	}{
		{"tomato", "11", true},
		{"  Peacock ", "7", true},
		{"default", "", true},
		{"3", "3", true},
		{"11", "11", true},
		{"0", "", false},
		{"12", "", false},
		{"chartreuse", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		id, ok := ColorID(tt.in)
		assert.Equal(t, tt.wantID, id, "input %q", tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
	}
}

func TestEventValidate(t *testing.T) {
	start := time.Date(2024, 7, 4, 15, 0, 0, 0, time.UTC)

	timed := &Event{Start: start, End: start.Add(time.Hour)}
	assert.NoError(t, timed.Validate())
	assert.False(t, timed.AllDay())

	allDay := &Event{StartDate: "2024-07-04", EndDate: "2024-07-05"}
	assert.NoError(t, allDay.Validate())
	assert.True(t, allDay.AllDay())

	both := &Event{Start: start, End: start.Add(time.Hour), StartDate: "2024-07-04", EndDate: "2024-07-05"}
	assert.Error(t, both.Validate())

	assert.Error(t, (&Event{}).Validate())
	assert.Error(t, (&Event{Start: start, End: start}).Validate())
	assert.Error(t, (&Event{StartDate: "2024-07-04", EndDate: "2024-07-04"}).Validate())
}
