package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"

	"go.uber.org/zap/zapcore"

	"harvestsync/harvest"
	"harvestsync/jira"
)

func TestRun_UnmatchedProjectIsReportedOnce(t *testing.T) {
	t.Parallel()

	entry := closedEntry(501, "FOO-1 standup", 0.25)
	entry.Project = harvest.Reference{ID: 999, Name: "Unknown"}
	h := newHarness([]harvest.TimeEntry{entry}, false)

	summary, err := Run(context.Background(), h.deps, harvest.Window{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	diagnostics := h.messages(zapcore.InfoLevel, "no project configuration")
	if len(diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %d", len(diagnostics))
	}
	fields := diagnostics[0].ContextMap()
	if fields["entry_id"] != int64(501) || fields["project_id"] != int64(999) {
		t.Fatalf("diagnostic must name entry and project, got %+v", fields)
	}
	if summary.Skipped[ReasonNoProject] != 1 || summary.Logged != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if h.created != 0 || len(h.jira.issueCalls) != 0 || h.jira.userCalls != 0 {
		t.Fatalf("no Jira traffic expected for unmatched entries")
	}
}

func TestRun_SkipsEntriesThatAreNotClosed(t *testing.T) {
	t.Parallel()

	entry := closedEntry(502, "FOO-2 still running", 1)
	entry.IsClosed = false
	h := newHarness([]harvest.TimeEntry{entry}, false)

	summary, err := Run(context.Background(), h.deps, harvest.Window{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(h.jira.added) != 0 {
		t.Fatalf("open entries must not be logged")
	}
	if summary.Skipped[ReasonNotClosed] != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := len(h.messages(zapcore.InfoLevel, "not closed")); got != 1 {
		t.Fatalf("expected one not-closed diagnostic, got %d", got)
	}
}

func TestRun_IsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness([]harvest.TimeEntry{
		closedEntry(601, "FOO-10 auth", 1),
		closedEntry(602, "FOO-10 auth review", 0.5),
		closedEntry(603, "FOO-11 docs", 2),
	}, false)

	first, err := Run(context.Background(), h.deps, harvest.Window{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Logged != 3 || len(h.jira.added) != 3 {
		t.Fatalf("first run should log 3 entries, got %+v", first)
	}

	second, err := Run(context.Background(), h.deps, harvest.Window{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(h.jira.added) != 3 {
		t.Fatalf("second run must not create work logs, total POSTs %d", len(h.jira.added))
	}
	if second.Logged != 0 || second.Skipped[ReasonAlreadyLogged] != 3 || second.TotalHours != 0 {
		t.Fatalf("unexpected second summary: %+v", second)
	}
}

func TestRun_NoIssueKeyWarnsAndDrops(t *testing.T) {
	t.Parallel()

	h := newHarness([]harvest.TimeEntry{closedEntry(701, "team lunch", 1)}, false)

	summary, err := Run(context.Background(), h.deps, harvest.Window{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(h.messages(zapcore.WarnLevel, "no Jira issue key")) != 1 {
		t.Fatalf("expected one warning, got %+v", h.logs.All())
	}
	if len(h.jira.issueCalls) != 0 || len(h.jira.added) != 0 {
		t.Fatalf("no issue fetch or work log expected")
	}
	if summary.Skipped[ReasonNoIssue] != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRun_MissingIssueIsLoggedAsError(t *testing.T) {
	t.Parallel()

	h := newHarness([]harvest.TimeEntry{closedEntry(702, "FOO-404 ghost", 1)}, false)
	h.jira.missing["FOO-404"] = true

	summary, err := Run(context.Background(), h.deps, harvest.Window{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	failures := h.messages(zapcore.ErrorLevel, "failed to fetch Jira issue")
	if len(failures) != 1 || failures[0].ContextMap()["status"] != int64(404) {
		t.Fatalf("expected one error with status, got %+v", h.logs.All())
	}
	if summary.Skipped[ReasonNoIssue] != 1 || len(h.jira.added) != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRun_DryRunCountsHoursWithoutPosting(t *testing.T) {
	t.Parallel()

	h := newHarness([]harvest.TimeEntry{
		closedEntry(801, "FOO-20 design", 1.5),
		closedEntry(802, "FOO-21 review", 0.25),
	}, true)

	summary, err := Run(context.Background(), h.deps, harvest.Window{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(h.jira.added) != 0 {
		t.Fatalf("dry run must not POST")
	}
	if summary.Logged != 2 || math.Abs(summary.TotalHours-1.75) > 1e-9 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := len(h.messages(zapcore.DebugLevel, "dry run")); got != 2 {
		t.Fatalf("expected 2 dry-run payload logs, got %d", got)
	}
	finished := h.messages(zapcore.InfoLevel, "sync finished")
	if len(finished) != 1 || finished[0].ContextMap()["total_hours"] != 1.75 {
		t.Fatalf("expected summary line with total hours, got %+v", finished)
	}
}

func TestRun_ConsumesEveryPage(t *testing.T) {
	t.Parallel()

	entries := make([]harvest.TimeEntry, 0, 207)
	for i := range 207 {
		entries = append(entries, closedEntry(int64(10000+i), fmt.Sprintf("FOO-%d", i+1), 0.25))
	}
	h := newHarness(entries, true)

	summary, err := Run(context.Background(), h.deps, harvest.Window{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(h.harvest.requests) != 3 {
		t.Fatalf("expected 3 page requests, got %d", len(h.harvest.requests))
	}
	for i, query := range h.harvest.requests {
		if query.Page != i+1 || query.PerPage != harvest.DefaultPageSize {
			t.Fatalf("unexpected query %d: %+v", i, query)
		}
	}
	if summary.Fetched != 207 || summary.Logged != 207 {
		t.Fatalf("expected 207 entries through the pipeline, got %+v", summary)
	}
	if summary.Results[0].EntryID != 10000 || summary.Results[206].EntryID != 10206 {
		t.Fatalf("entries out of order")
	}
}

func TestRun_PaginationFailureAbortsRun(t *testing.T) {
	t.Parallel()

	entries := make([]harvest.TimeEntry, 0, 150)
	for i := range 150 {
		entries = append(entries, closedEntry(int64(20000+i), "FOO-1 work", 0.5))
	}
	h := newHarness(entries, true)
	h.harvest.failPage = 2

	summary, err := Run(context.Background(), h.deps, harvest.Window{})
	var statusErr *harvest.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 500 {
		t.Fatalf("expected page 2 status error, got %v", err)
	}
	if summary.Fetched != 100 || summary.Logged != 100 {
		t.Fatalf("first page should still have been processed, got %+v", summary)
	}
	if len(h.messages(zapcore.ErrorLevel, "sync aborted")) != 1 {
		t.Fatalf("expected abort log")
	}
}

func TestRun_WriteFailureDoesNotStopRun(t *testing.T) {
	t.Parallel()

	h := newHarness([]harvest.TimeEntry{
		closedEntry(901, "FOO-30 a", 1),
		closedEntry(902, "FOO-31 b", 1),
	}, false)
	h.jira.addErr = &jira.StatusError{Method: "POST", StatusCode: 400, Body: "bad"}

	summary, err := Run(context.Background(), h.deps, harvest.Window{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(h.jira.added) != 2 || summary.Failed != 2 || summary.Logged != 0 || summary.TotalHours != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRun_ZeroHourEntryIsSkippedNotFailed(t *testing.T) {
	t.Parallel()

	for _, dryRun := range []bool{false, true} {
		h := newHarness([]harvest.TimeEntry{
			closedEntry(951, "FOO-40 standup", 0),
			closedEntry(952, "FOO-41 review", 0.5),
		}, dryRun)

		summary, err := Run(context.Background(), h.deps, harvest.Window{})
		if err != nil {
			t.Fatalf("run (dry run %v): %v", dryRun, err)
		}
		if summary.Failed != 0 || summary.Skipped[ReasonNoDuration] != 1 || summary.Logged != 1 {
			t.Fatalf("unexpected summary (dry run %v): %+v", dryRun, summary)
		}
		if !dryRun && (len(h.jira.added) != 1 || !slices.Equal(h.jira.addedToIssues, []string{"FOO-41"})) {
			t.Fatalf("only FOO-41 should be written, got %v", h.jira.addedToIssues)
		}
		if len(h.messages(zapcore.ErrorLevel, "")) != 0 {
			t.Fatalf("zero-hour entry must not log errors (dry run %v)", dryRun)
		}
		finished := h.messages(zapcore.InfoLevel, "sync finished")
		if len(finished) != 1 || finished[0].ContextMap()["skipped_no_duration"] != int64(1) {
			t.Fatalf("expected skip count in summary line, got %+v", finished)
		}
	}
}

func TestRun_CancelledContextStops(t *testing.T) {
	t.Parallel()

	h := newHarness([]harvest.TimeEntry{closedEntry(990, "FOO-1 a", 1)}, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, h.deps, harvest.Window{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_RequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := Run(context.Background(), Deps{}, harvest.Window{}); err == nil {
		t.Fatalf("expected error for missing dependencies")
	}
}
