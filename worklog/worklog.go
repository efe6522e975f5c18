package worklog

import "time"

// Logged is the normalized result of one synced time entry, shared by the
// pipeline summary and the report outputs.
type Logged struct {
	EntryID   int64
	SpentDate time.Time
	Started   time.Time
	Project   string
	IssueKey  string
	Hours     float64
	Seconds   int
	Notes     string
	DryRun    bool
	WorklogID string
}
