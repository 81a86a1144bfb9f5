package models

import (
	"strconv"
	"strings"
)

// DefaultColor resets an event to its calendar's color.
const DefaultColor = "default"

var eventColors = map[string]string{
	"lavender":  "1",
	"sage":      "2",
	"grape":     "3",
	"flamingo":  "4",
	"banana":    "5",
	"tangerine": "6",
	"peacock":   "7",
	"graphite":  "8",
	"blueberry": "9",
	"basil":     "10",
	"tomato":    "11",
}

// ColorID maps a color name or numeric id to a calendar color id.
// "default" maps to the empty id. ok is false for anything unsupported.
func ColorID(input string) (id string, ok bool) {
	v := strings.ToLower(strings.TrimSpace(input))
	if v == DefaultColor {
		return "", true
	}
	if id, found := eventColors[v]; found {
		return id, true
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 11 {
		return strconv.Itoa(n), true
	}
	return "", false
}
