// Package timeutil provides UTC day-boundary helpers. All progression
// bookkeeping (streaks, night-hour detection, inactivity audits) is
// done against UTC days so that the backend behaves the same way in
// every deployment region.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// NightHoursEnd is the exclusive end of the night window. Activity
// between 00:00 and 05:59 UTC counts as night activity.
const NightHoursEnd = 6

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// Date creates a UTC time for the given date at midnight.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// DateTime creates a UTC time for the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
}

// StartOfDay returns midnight UTC of the given day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of the given UTC day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// StartOfWeek returns midnight UTC of the Monday of the given week.
func StartOfWeek(t time.Time) time.Time {
	t = StartOfDay(t)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return t.AddDate(0, 0, -(weekday - 1))
}

// IsToday reports whether t falls on the current UTC day.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// IsYesterday reports whether t falls on the previous UTC day.
func IsYesterday(t time.Time) bool {
	return IsSameDay(t, Now().AddDate(0, 0, -1))
}

// IsSameDay reports whether two times fall on the same UTC day.
func IsSameDay(t1, t2 time.Time) bool {
	t1, t2 = t1.UTC(), t2.UTC()
	return t1.Year() == t2.Year() && t1.YearDay() == t2.YearDay()
}

// IsConsecutiveDay reports whether t2 is exactly the UTC day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	return IsSameDay(t1.AddDate(0, 0, 1), t2)
}

// DaysBetween returns the number of whole UTC days between two times.
// The result is non-negative regardless of argument order.
func DaysBetween(t1, t2 time.Time) int {
	d1, d2 := StartOfDay(t1), StartOfDay(t2)
	days := int(d2.Sub(d1).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

// DaysSince returns the number of whole UTC days since t.
func DaysSince(t time.Time) int {
	return DaysBetween(t, Now())
}

// IsNightHours reports whether t falls in the night window (00:00-05:59 UTC).
func IsNightHours(t time.Time) bool {
	return t.UTC().Hour() < NightHoursEnd
}

// FormatDateStr formats a time as "2006-01-02" in UTC.
func FormatDateStr(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// FormatDateTimeStr formats a time as "2006-01-02 15:04:05" in UTC.
func FormatDateTimeStr(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// ParseDate parses a "2006-01-02" string as a UTC date.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}

// FormatRelative formats a time relative to now ("5 minutes ago").
func FormatRelative(t time.Time) string {
	d := time.Since(t)
	if d < 0 {
		return t.UTC().Format("2006-01-02 15:04")
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}
