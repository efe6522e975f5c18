package pipeline

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"harvestsync/config"
	"harvestsync/harvest"
	"harvestsync/submitter"
	"harvestsync/worklog"
)

type Deps struct {
	Config   *config.Config
	Harvest  harvest.Client
	Trackers Trackers
	Writer   *submitter.Writer
	Log      *zap.Logger
}

type Summary struct {
	Fetched    int
	Logged     int
	Failed     int
	TotalHours float64
	Skipped    map[Reason]int
	Results    []worklog.Logged
}

// SkippedTotal is the number of records dropped by any filter.
func (s Summary) SkippedTotal() int {
	total := 0
	for _, count := range s.Skipped {
		total += count
	}
	return total
}

// Stages chains every stage and filter between the source and the writer.
// Records are pulled one at a time; nothing is buffered.
func Stages(ctx context.Context, deps Deps, source Stream, cache *TimezoneCache, dropped func(*Record, Reason)) Stream {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	stream := Map(source, AttachProject(log))
	stream = Filter(stream, HasProject, dropped)
	stream = Map(stream, AttachTimezone(ctx, log, deps.Trackers, cache))
	stream = Map(stream, AttachIssue(ctx, log, deps.Trackers))
	stream = Map(stream, AttachWorklogs(ctx, log, deps.Trackers))
	stream = Filter(stream, HasIssue, dropped)
	return Filter(stream, CanLog(log, deps.Writer.Marker()), dropped)
}

// Run syncs every time entry in window and returns the folded summary. Only a
// failing time-entry page or a cancelled context stops the run early; the
// summary gathered so far is returned with the error.
func Run(ctx context.Context, deps Deps, window harvest.Window) (Summary, error) {
	if deps.Config == nil || deps.Harvest == nil || deps.Trackers == nil || deps.Writer == nil {
		return Summary{}, errors.New("pipeline: config, harvest client, trackers and writer are required")
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	log := deps.Log

	summary := Summary{Skipped: map[Reason]int{}}
	dropped := func(_ *Record, reason Reason) {
		summary.Skipped[reason]++
	}

	source := Records(harvest.TimeEntries(ctx, deps.Harvest, window), deps.Config)
	counted := func(yield func(*Record, error) bool) {
		for rec, err := range source {
			if err == nil {
				summary.Fetched++
				log.Debug("processing time entry", entryFields(rec)...)
			}
			if !yield(rec, err) {
				return
			}
		}
	}

	stream := Stages(ctx, deps, counted, &TimezoneCache{}, dropped)

	var runErr error
	for rec, err := range stream {
		if err != nil {
			runErr = err
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		client, err := deps.Trackers(*rec.Project)
		if err != nil {
			log.Error("cannot create Jira client", append(entryFields(rec), zap.Error(err))...)
			summary.Failed++
			continue
		}
		logged, err := deps.Writer.Submit(ctx, client, rec.Issue.Key, rec.Entry, rec.Timezone)
		if err != nil {
			summary.Failed++
			continue
		}
		summary.Logged++
		summary.TotalHours += logged.Hours
		summary.Results = append(summary.Results, logged)
	}

	fields := []zap.Field{
		zap.Float64("total_hours", math.Round(summary.TotalHours*100)/100),
		zap.Int("fetched", summary.Fetched),
		zap.Int("logged", summary.Logged),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.SkippedTotal()),
		zap.Bool("dry_run", deps.Writer.DryRun()),
	}
	for _, reason := range Reasons {
		if count := summary.Skipped[reason]; count > 0 {
			fields = append(fields, zap.Int("skipped_"+string(reason), count))
		}
	}
	if runErr != nil {
		log.Error("sync aborted", append(fields, zap.Error(runErr))...)
		return summary, runErr
	}
	log.Info("sync finished", fields...)
	return summary, nil
}
