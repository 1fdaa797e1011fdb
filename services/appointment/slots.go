// File: services/appointment/slots.go
package appointment

import (
	"strings"
	"time"
)

// Placeholder practice details shown while scheduling integration is mocked.
const (
	DefaultPhysician = "Dr. Emily Carter"
	DefaultLocation  = "Downtown Clinic"
)

var (
	defaultSlots   = []string{"9:00 AM", "9:30 AM", "10:00 AM", "2:00 PM", "2:30 PM", "3:00 PM"}
	morningSlots   = []string{"9:00 AM", "9:30 AM", "10:00 AM", "10:30 AM", "11:00 AM"}
	afternoonSlots = []string{"1:00 PM", "1:30 PM", "2:00 PM", "2:30 PM", "3:00 PM"}
	eveningSlots   = []string{"5:00 PM", "5:30 PM", "6:00 PM"}
	alternateSlots = []string{"10:30 AM", "11:00 AM", "11:30 AM", "3:30 PM", "4:00 PM"}
)

// SlotsFor returns the offered times for a stated time-of-day preference.
// An empty or unrecognised preference gets the default mixed set.
func SlotsFor(timePreference string) []string {
	pref := strings.ToLower(timePreference)
	switch {
	case strings.Contains(pref, "morning"):
		return append([]string(nil), morningSlots...)
	case strings.Contains(pref, "afternoon"):
		return append([]string(nil), afternoonSlots...)
	case strings.Contains(pref, "evening"):
		return append([]string(nil), eveningSlots...)
	default:
		return append([]string(nil), defaultSlots...)
	}
}

// AlternateSlots returns the slot set offered after a "choose another date"
// request.
func AlternateSlots() []string {
	return append([]string(nil), alternateSlots...)
}

var weekdayIndex = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ResolveDate turns a stated date preference into a concrete appointment
// date. "Today" is redirected to tomorrow (same-day slots are limited) and
// the second return value is true so the caller can explain the shift.
// "Next <weekday>" always lands strictly after today.
func ResolveDate(now time.Time, datePreference string) (time.Time, bool) {
	pref := strings.ToLower(strings.TrimSpace(datePreference))

	switch {
	case pref == "today":
		return now.AddDate(0, 0, 1), true
	case pref == "tomorrow":
		return now.AddDate(0, 0, 1), false
	case pref != "":
		parts := strings.Fields(pref)
		if len(parts) == 2 && parts[0] == "next" {
			if target, ok := weekdayIndex[parts[1]]; ok {
				diff := int(target) - int(now.Weekday())
				if diff <= 0 {
					diff += 7
				}
				return now.AddDate(0, 0, diff), false
			}
		}
		return now.AddDate(0, 0, 1), false
	default:
		return now.AddDate(0, 0, 1), false
	}
}

// FormatDate renders a date the way it is shown in chat, e.g.
// "Monday, September 1".
func FormatDate(t time.Time, includeWeekday bool) string {
	if includeWeekday {
		return t.Format("Monday, January 2")
	}
	return t.Format("January 2")
}
