package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"harvestsync/config"
	"harvestsync/harvest"
	"harvestsync/jira"
	"harvestsync/submitter"
)

type fakeHarvest struct {
	entries  []harvest.TimeEntry
	perPage  int
	failPage int
	requests []harvest.ListQuery
}

func (f *fakeHarvest) ListTimeEntries(_ context.Context, query harvest.ListQuery) (harvest.TimeEntriesPage, error) {
	f.requests = append(f.requests, query)
	if f.failPage == query.Page {
		return harvest.TimeEntriesPage{}, &harvest.StatusError{StatusCode: 500, Body: "boom"}
	}
	perPage := f.perPage
	if perPage <= 0 {
		perPage = query.PerPage
	}
	start := (query.Page - 1) * perPage
	end := min(start+perPage, len(f.entries))
	page := harvest.TimeEntriesPage{Page: query.Page, PerPage: perPage}
	if start < len(f.entries) {
		page.TimeEntries = f.entries[start:end]
	}
	if end < len(f.entries) {
		next := query.Page + 1
		page.NextPage = &next
	}
	return page, nil
}

// fakeJira keeps work logs per issue so that created work logs show up in the
// next issue fetch.
type fakeJira struct {
	worklogs map[string][]jira.Worklog
	missing  map[string]bool
	// embedLimit caps how many work logs GetIssue embeds; zero embeds all.
	embedLimit int

	users    []jira.User
	usersErr error
	addErr   error

	userCalls     int
	issueCalls    []string
	worklogCalls  []string
	added         []jira.WorklogInput
	addedToIssues []string
}

func newFakeJira() *fakeJira {
	return &fakeJira{
		worklogs: map[string][]jira.Worklog{},
		missing:  map[string]bool{},
		users:    []jira.User{{AccountID: "abc", TimeZone: "Europe/Berlin"}},
	}
}

func (f *fakeJira) GetIssue(_ context.Context, key string) (jira.Issue, error) {
	f.issueCalls = append(f.issueCalls, key)
	if f.missing[key] {
		return jira.Issue{}, &jira.StatusError{Method: "GET", Path: "/rest/api/3/issue/" + key, StatusCode: 404, Body: "not found"}
	}
	all := f.worklogs[key]
	embedded := all
	if f.embedLimit > 0 && len(embedded) > f.embedLimit {
		embedded = embedded[:f.embedLimit]
	}
	return jira.Issue{
		ID:  "1" + key,
		Key: key,
		Fields: jira.IssueFields{
			Summary: "issue " + key,
			Worklog: &jira.WorklogPage{Total: len(all), MaxResults: 20, Worklogs: append([]jira.Worklog(nil), embedded...)},
		},
	}, nil
}

func (f *fakeJira) ListWorklogs(_ context.Context, key string) ([]jira.Worklog, error) {
	f.worklogCalls = append(f.worklogCalls, key)
	return append([]jira.Worklog(nil), f.worklogs[key]...), nil
}

func (f *fakeJira) FindAssignableUsers(context.Context, string, string) ([]jira.User, error) {
	f.userCalls++
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return f.users, nil
}

func (f *fakeJira) AddWorklog(_ context.Context, key string, input jira.WorklogInput) (jira.Worklog, error) {
	f.added = append(f.added, input)
	f.addedToIssues = append(f.addedToIssues, key)
	if f.addErr != nil {
		return jira.Worklog{}, f.addErr
	}
	created := jira.Worklog{
		ID:               fmt.Sprintf("%d", 1000+len(f.added)),
		Comment:          input.Comment,
		Started:          input.Started,
		TimeSpentSeconds: input.TimeSpentSeconds,
	}
	f.worklogs[key] = append(f.worklogs[key], created)
	return created, nil
}

func withLegacyComment(id, text string) jira.Worklog {
	return jira.Worklog{ID: id, Comment: jira.Doc(text), TimeSpentSeconds: 60}
}

func testConfig() *config.Config {
	return &config.Config{
		User: config.UserConfig{ID: 7, HarvestAccountID: "acct", HarvestAccessToken: "token"},
		Projects: []config.Project{{
			HarvestProjectID: 1001,
			JiraProjectKey:   "FOO",
			JiraDomain:       "acme.atlassian.net",
			JiraEmail:        "me@example.com",
			JiraToken:        "jira-token",
		}},
	}
}

func closedEntry(id int64, notes string, hours float64) harvest.TimeEntry {
	return harvest.TimeEntry{
		ID:           id,
		SpentDate:    "2026-10-13",
		RoundedHours: hours,
		Hours:        hours,
		Notes:        &notes,
		IsClosed:     true,
		User:         harvest.Reference{ID: 7, Name: "Ada"},
		Project:      harvest.Reference{ID: 1001, Name: "Platform"},
	}
}

type harness struct {
	harvest *fakeHarvest
	jira    *fakeJira
	logs    *observer.ObservedLogs
	deps    Deps
	created int
}

func newHarness(entries []harvest.TimeEntry, dryRun bool) *harness {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	h := &harness{
		harvest: &fakeHarvest{entries: entries},
		jira:    newFakeJira(),
		logs:    logs,
	}
	h.deps = Deps{
		Config:  testConfig(),
		Harvest: h.harvest,
		Trackers: func(project config.Project) (jira.Client, error) {
			if project.JiraDomain == "" {
				return nil, errors.New("no domain")
			}
			h.created++
			return h.jira, nil
		},
		Writer: submitter.New(log, submitter.Options{DryRun: dryRun}),
		Log:    log,
	}
	return h
}

func (h *harness) messages(level zapcore.Level, contains string) []observer.LoggedEntry {
	var out []observer.LoggedEntry
	for _, entry := range h.logs.All() {
		if entry.Level == level && strings.Contains(entry.Message, contains) {
			out = append(out, entry)
		}
	}
	return out
}
