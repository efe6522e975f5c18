package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"harvestsync/config"
	"harvestsync/jira"
)

// DefaultTimezone is used whenever the Jira user's timezone cannot be resolved.
const DefaultTimezone = "America/New_York"

// Trackers returns the Jira client for a configured project.
type Trackers func(project config.Project) (jira.Client, error)

// PoolTrackers adapts a jira.Pool to Trackers.
func PoolTrackers(pool *jira.Pool) Trackers {
	return func(project config.Project) (jira.Client, error) {
		return pool.Client(project.JiraDomain, project.JiraEmail, project.JiraToken)
	}
}

func entryFields(rec *Record) []zap.Field {
	return []zap.Field{
		zap.Int64("entry_id", rec.Entry.ID),
		zap.Int64("project_id", rec.Entry.Project.ID),
		zap.String("spent_date", rec.Entry.SpentDate),
	}
}

func remoteFields(err error) []zap.Field {
	var statusErr *jira.StatusError
	if errors.As(err, &statusErr) {
		return []zap.Field{zap.Int("status", statusErr.StatusCode), zap.String("response", statusErr.Body)}
	}
	return nil
}

// AttachProject looks up the first configured project for the entry's Harvest
// project. Unmatched entries pass on without one.
func AttachProject(log *zap.Logger) Step {
	return func(rec *Record) *Record {
		project, ok := rec.Config.ProjectFor(rec.Entry.Project.ID)
		if !ok {
			log.Info("no project configuration for time entry", entryFields(rec)...)
			return rec
		}
		rec.Project = project
		return rec
	}
}

// TimezoneCache holds the Jira user's timezone once it has been resolved.
// The fallback zone is never stored.
type TimezoneCache struct {
	zone string
}

func (c *TimezoneCache) Zone() (string, bool) {
	if c == nil || c.zone == "" {
		return "", false
	}
	return c.zone, true
}

func (c *TimezoneCache) Store(zone string) {
	if c != nil {
		c.zone = zone
	}
}

// AttachTimezone resolves the timezone of the configured Jira user. The first
// successful lookup is cached for the rest of the run; failures fall back to
// DefaultTimezone and are retried on the next record.
func AttachTimezone(ctx context.Context, log *zap.Logger, trackers Trackers, cache *TimezoneCache) Step {
	return func(rec *Record) *Record {
		if zone, ok := cache.Zone(); ok {
			rec.Timezone = zone
			return rec
		}

		zone, err := lookupTimezone(ctx, trackers, rec.Project)
		if err != nil {
			fields := append(entryFields(rec), zap.String("fallback", DefaultTimezone), zap.Error(err))
			log.Warn("cannot resolve Jira user timezone", append(fields, remoteFields(err)...)...)
			rec.Timezone = DefaultTimezone
			return rec
		}
		cache.Store(zone)
		rec.Timezone = zone
		return rec
	}
}

func lookupTimezone(ctx context.Context, trackers Trackers, project *config.Project) (string, error) {
	if project == nil {
		return "", errors.New("record has no project configuration")
	}
	client, err := trackers(*project)
	if err != nil {
		return "", err
	}
	users, err := client.FindAssignableUsers(ctx, project.JiraProjectKey, project.JiraEmail)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", fmt.Errorf("no assignable user %s in project %s", project.JiraEmail, project.JiraProjectKey)
	}
	zone := strings.TrimSpace(users[0].TimeZone)
	if zone == "" {
		return "", fmt.Errorf("user %s has no timezone", project.JiraEmail)
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return "", fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return zone, nil
}

// IssueKeys returns every non-overlapping "<projectKey>-<digits>" match in
// notes, left to right.
func IssueKeys(projectKey, notes string) []string {
	return newKeyMatcher().find(projectKey, notes)
}

// keyMatcher compiles the issue key pattern of each project key once.
type keyMatcher struct {
	patterns map[string]*regexp.Regexp
}

func newKeyMatcher() *keyMatcher {
	return &keyMatcher{patterns: make(map[string]*regexp.Regexp)}
}

func (m *keyMatcher) pattern(projectKey string) *regexp.Regexp {
	if pattern, ok := m.patterns[projectKey]; ok {
		return pattern
	}
	pattern := regexp.MustCompile(regexp.QuoteMeta(projectKey) + `-\d+`)
	m.patterns[projectKey] = pattern
	return pattern
}

func (m *keyMatcher) find(projectKey, notes string) []string {
	if projectKey == "" || notes == "" {
		return nil
	}
	return m.pattern(projectKey).FindAllString(notes, -1)
}

// AttachIssue extracts the Jira issue key from the entry notes and fetches
// the issue. The first key wins when the notes mention several.
func AttachIssue(ctx context.Context, log *zap.Logger, trackers Trackers) Step {
	matcher := newKeyMatcher()
	return func(rec *Record) *Record {
		if rec.Project == nil {
			return rec
		}
		keys := matcher.find(rec.Project.JiraProjectKey, rec.Entry.NotesText())
		switch {
		case len(keys) == 0:
			log.Warn("no Jira issue key in time entry notes",
				append(entryFields(rec), zap.String("jira_project", rec.Project.JiraProjectKey))...)
			return rec
		case len(keys) > 1:
			log.Info("multiple Jira issue keys in time entry notes, choosing first",
				append(entryFields(rec), zap.Strings("keys", keys))...)
		}

		client, err := trackers(*rec.Project)
		if err != nil {
			log.Error("cannot create Jira client", append(entryFields(rec), zap.Error(err))...)
			return rec
		}
		issue, err := client.GetIssue(ctx, keys[0])
		if err != nil {
			fields := append(entryFields(rec), zap.String("issue", keys[0]), zap.Error(err))
			log.Error("failed to fetch Jira issue", append(fields, remoteFields(err)...)...)
			return rec
		}
		rec.Issue = &issue
		return rec
	}
}

// AttachWorklogs loads all existing work logs of the record's issue. The page
// embedded in the issue is used as is when it is already complete.
func AttachWorklogs(ctx context.Context, log *zap.Logger, trackers Trackers) Step {
	return func(rec *Record) *Record {
		if rec.Issue == nil || rec.Project == nil {
			return rec
		}
		if embedded := rec.Issue.Fields.Worklog; embedded.Complete() {
			rec.SetWorklogs(embedded.Worklogs)
			return rec
		}

		client, err := trackers(*rec.Project)
		if err != nil {
			log.Error("cannot create Jira client", append(entryFields(rec), zap.Error(err))...)
			return rec
		}
		worklogs, err := client.ListWorklogs(ctx, rec.Issue.Key)
		if err != nil {
			fields := append(entryFields(rec), zap.String("issue", rec.Issue.Key), zap.Error(err))
			log.Error("failed to load existing work logs", append(fields, remoteFields(err)...)...)
			return rec
		}
		rec.SetWorklogs(worklogs)
		return rec
	}
}
