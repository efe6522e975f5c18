package worklog

import (
	"fmt"
	"strconv"
	"strings"

	"harvestsync/jira"
)

// Marker links a Jira work log back to the Harvest entry it was created from.
// Token is written into new work-log comments and Marks recognizes it again
// when existing work logs are scanned, so both sides must change together.
type Marker interface {
	Token(entryID int64) string
	Marks(comment string, entryID int64) bool
}

// TextMarker matches any comment containing the entry id as a decimal
// substring, whatever token text surrounds it. Any other number in the
// comment that contains the id matches as well.
type TextMarker struct{}

func (TextMarker) Token(entryID int64) string {
	return fmt.Sprintf("harvest time entry #%d", entryID)
}

func (TextMarker) Marks(comment string, entryID int64) bool {
	return strings.Contains(comment, strconv.FormatInt(entryID, 10))
}

// FindLogged returns the first existing work log that marks entryID.
func FindLogged(marker Marker, worklogs []jira.Worklog, entryID int64) (jira.Worklog, bool) {
	for _, existing := range worklogs {
		if marker.Marks(existing.CommentText(), entryID) {
			return existing, true
		}
	}
	return jira.Worklog{}, false
}
