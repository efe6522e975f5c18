package submitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"harvestsync/harvest"
	"harvestsync/jira"
	"harvestsync/worklog"
)

// Writer creates one Jira work log per eligible time entry. It is not
// idempotent on its own; callers must filter entries already marked in the
// issue's existing work logs with the same Marker.
type Writer struct {
	log    *zap.Logger
	marker worklog.Marker
	dryRun bool
}

type Options struct {
	DryRun bool
	Marker worklog.Marker
}

func New(log *zap.Logger, opts Options) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	marker := opts.Marker
	if marker == nil {
		marker = worklog.TextMarker{}
	}
	return &Writer{log: log, marker: marker, dryRun: opts.DryRun}
}

func (w *Writer) DryRun() bool {
	return w.dryRun
}

func (w *Writer) Marker() worklog.Marker {
	return w.marker
}

// Submit logs entry against issueKey in zone. In dry-run mode the request body
// is only logged. Failures are logged here and returned so the caller can count
// them; they never abort a run.
func (w *Writer) Submit(ctx context.Context, client jira.Client, issueKey string, entry harvest.TimeEntry, zone string) (worklog.Logged, error) {
	fields := []zap.Field{
		zap.Int64("entry_id", entry.ID),
		zap.String("issue", issueKey),
		zap.String("spent_date", entry.SpentDate),
		zap.Float64("hours", entry.RoundedHours),
	}

	input, started, err := worklog.Build(w.marker, entry, zone)
	if err != nil {
		w.log.Error("cannot build work log", append(fields, zap.Error(err))...)
		return worklog.Logged{}, err
	}

	result := worklog.Logged{
		EntryID:  entry.ID,
		Started:  started,
		Project:  entry.Project.Name,
		IssueKey: issueKey,
		Hours:    entry.RoundedHours,
		Seconds:  input.TimeSpentSeconds,
		Notes:    entry.NotesText(),
		DryRun:   w.dryRun,
	}
	if day, dayErr := entry.Day(); dayErr == nil {
		result.SpentDate = day
	}

	if w.dryRun {
		body, err := json.Marshal(input)
		if err != nil {
			return worklog.Logged{}, fmt.Errorf("marshal work log for entry %d: %w", entry.ID, err)
		}
		w.log.Debug("dry run: would create work log", append(fields, zap.ByteString("body", body))...)
		return result, nil
	}

	created, err := client.AddWorklog(ctx, issueKey, input)
	if err != nil {
		var statusErr *jira.StatusError
		if errors.As(err, &statusErr) {
			fields = append(fields, zap.Int("status", statusErr.StatusCode), zap.String("response", statusErr.Body))
		}
		w.log.Error("failed to create work log", append(fields, zap.Error(err))...)
		return worklog.Logged{}, fmt.Errorf("create work log for entry %d on %s: %w", entry.ID, issueKey, err)
	}

	result.WorklogID = created.ID
	w.log.Info("created work log", append(fields, zap.String("worklog_id", created.ID))...)
	return result, nil
}
