package worklog

import (
	"fmt"
	"math"
	"strings"
	"time"

	"harvestsync/harvest"
	"harvestsync/internal/timeutil"
	"harvestsync/jira"
)

// Seconds converts Harvest's rounded hours to whole seconds.
func Seconds(hours float64) int {
	return int(math.Round(hours * 3600))
}

// Started places the entry's spent date at local noon in zone. Harvest keeps
// no start time for duration-based entries.
func Started(entry harvest.TimeEntry, zone string) (time.Time, error) {
	day, err := entry.Day()
	if err != nil {
		return time.Time{}, fmt.Errorf("time entry %d: %w", entry.ID, err)
	}
	return timeutil.NoonIn(day, zone)
}

// Comment builds the work-log comment: the entry notes followed by the marker
// token on its own paragraph.
func Comment(marker Marker, entry harvest.TimeEntry) *jira.Node {
	return jira.Doc(strings.TrimSpace(entry.NotesText()), marker.Token(entry.ID))
}

// Build assembles the POST body for one entry.
func Build(marker Marker, entry harvest.TimeEntry, zone string) (jira.WorklogInput, time.Time, error) {
	started, err := Started(entry, zone)
	if err != nil {
		return jira.WorklogInput{}, time.Time{}, err
	}
	seconds := Seconds(entry.RoundedHours)
	if seconds <= 0 {
		return jira.WorklogInput{}, time.Time{}, fmt.Errorf("time entry %d has no rounded hours to log", entry.ID)
	}
	return jira.WorklogInput{
		Comment:          Comment(marker, entry),
		Started:          started.Format(jira.StartedLayout),
		TimeSpentSeconds: seconds,
	}, started, nil
}
