package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tues": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thurs": time.Thursday, "thur": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var (
	weekdayPhrase = regexp.MustCompile(`(?i)^(?:(next|this|last|on)\s+)?` +
		`(monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat|sunday|sun)\b` +
		`[,\s]*(?:at\s+)?(.*)$`)
	dayWordPhrase = regexp.MustCompile(`(?i)^(today|tomorrow|yesterday|tonight)\b[,\s]*(?:at\s+)?(.*)$`)

	fullWeekday = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

	monthNames   = `(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`
	dayThenMonth = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthNames + `\b`)
	monthThenDay = regexp.MustCompile(`(?i)\b` + monthNames + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
)

var clockLayouts = []string{"3pm", "3:04pm", "3 pm", "3:04 pm", "15:04", "15:04:05"}

// relativeDay resolves phrases anchored on a day word or weekday, such as
// "tomorrow 3pm" or "next Friday", against now. ok is false when the phrase
// has some other shape.
func relativeDay(phrase string, now time.Time, dir Direction) (time.Time, bool) {
	if m := dayWordPhrase.FindStringSubmatch(phrase); m != nil {
		offset := 0
		switch strings.ToLower(m[1]) {
		case "tomorrow":
			offset = 1
		case "yesterday":
			offset = -1
		}
		rest := m[2]
		if strings.EqualFold(m[1], "tonight") && strings.TrimSpace(rest) == "" {
			rest = "8pm"
		}
		return onDay(now, offset, rest)
	}

	m := weekdayPhrase.FindStringSubmatch(phrase)
	if m == nil {
		return time.Time{}, false
	}
	return onDay(now, weekdayOffset(now.Weekday(), weekdays[strings.ToLower(m[2])], strings.ToLower(m[1]), dir), m[3])
}

// weekdayOffset is the number of days from today to the target weekday.
// "next" and "last" never pick today; a bare weekday follows dir.
func weekdayOffset(today, target time.Weekday, qualifier string, dir Direction) int {
	ahead := (int(target) - int(today) + 7) % 7
	behind := (int(today) - int(target) + 7) % 7
	switch qualifier {
	case "next":
		if ahead == 0 {
			return 7
		}
		return ahead
	case "last":
		if behind == 0 {
			return -7
		}
		return -behind
	case "this":
		return ahead
	}
	if dir == PreferPast {
		return -behind
	}
	return ahead
}

// onDay places the clock time in rest on the day offset days from now.
// An empty rest means midnight.
func onDay(now time.Time, offset int, rest string) (time.Time, bool) {
	h, m, sec, ok := clockTime(rest)
	if !ok {
		return time.Time{}, false
	}
	y, mo, d := now.Date()
	return time.Date(y, mo, d+offset, h, m, sec, 0, now.Location()), true
}

func clockTime(s string) (int, int, int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return 0, 0, 0, true
	case "noon":
		return 12, 0, 0, true
	case "midnight":
		return 0, 0, 0, true
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), t.Second(), true
		}
	}
	return 0, 0, 0, false
}

// consistent reports whether t agrees with the weekday and day of month
// the phrase names explicitly. The natural-language parser silently moves
// impossible dates such as "31 february" to a nearby valid one.
func consistent(phrase string, t time.Time) bool {
	if m := fullWeekday.FindStringSubmatch(phrase); m != nil && weekdays[strings.ToLower(m[1])] != t.Weekday() {
		return false
	}
	for _, re := range []*regexp.Regexp{dayThenMonth, monthThenDay} {
		if m := re.FindStringSubmatch(phrase); m != nil {
			if day, err := strconv.Atoi(m[1]); err == nil && day != t.Day() {
				return false
			}
		}
	}
	return true
}
