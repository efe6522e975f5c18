package timeutil

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// DayLayout is the calendar date format shared by Harvest and the CLI flags.
const DayLayout = "2006-01-02"

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

// MostRecentMonday returns midnight of the Monday on or before value.
func MostRecentMonday(value time.Time) time.Time {
	offset := (int(value.Weekday()) + 6) % 7
	return StartOfDay(value).AddDate(0, 0, -offset)
}

func FormatDay(value time.Time) string {
	return value.Format(DayLayout)
}

func ParseDay(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(DayLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q (expected YYYY-MM-DD): %w", value, err)
	}
	return parsed, nil
}

// NoonIn places the calendar date of day at 12:00 in the named IANA zone.
func NoonIn(day time.Time, zone string) (time.Time, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(zone))
	if err != nil {
		return time.Time{}, fmt.Errorf("load location %q: %w", zone, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc), nil
}
