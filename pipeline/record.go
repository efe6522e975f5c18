package pipeline

import (
	"iter"

	"harvestsync/config"
	"harvestsync/harvest"
	"harvestsync/jira"
)

// Record carries one time entry through the stages. Each stage fills in one
// field and never clears what an earlier stage set.
type Record struct {
	Entry    harvest.TimeEntry
	Config   *config.Config
	Project  *config.Project
	Timezone string
	Issue    *jira.Issue
	Worklogs []jira.Worklog

	worklogsLoaded bool
}

// HasWorklogs reports whether the existing work logs of the issue were loaded
// completely. An issue without any work logs still counts as loaded.
func (r *Record) HasWorklogs() bool {
	return r.worklogsLoaded
}

// SetWorklogs attaches the full list of existing work logs.
func (r *Record) SetWorklogs(worklogs []jira.Worklog) {
	r.Worklogs = worklogs
	r.worklogsLoaded = true
}

// Stream is a lazy, single-pass sequence of records. A non-nil error ends the
// useful part of the stream and is forwarded untouched by every stage.
type Stream = iter.Seq2[*Record, error]

// Step enriches a record in place and returns it.
type Step func(*Record) *Record

// Check decides whether a record may continue. A rejected record reports why.
type Check func(*Record) (Reason, bool)

// Records turns the time-entry source into records bound to cfg.
func Records(entries iter.Seq2[harvest.TimeEntry, error], cfg *config.Config) Stream {
	return func(yield func(*Record, error) bool) {
		for entry, err := range entries {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(&Record{Entry: entry, Config: cfg}, nil) {
				return
			}
		}
	}
}

// Map applies step to every record pulled from in.
func Map(in Stream, step Step) Stream {
	return func(yield func(*Record, error) bool) {
		for rec, err := range in {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(step(rec), nil) {
				return
			}
		}
	}
}

// Filter forwards records accepted by check. Rejected records are handed to
// dropped, which may be nil.
func Filter(in Stream, check Check, dropped func(*Record, Reason)) Stream {
	return func(yield func(*Record, error) bool) {
		for rec, err := range in {
			if err != nil {
				yield(nil, err)
				return
			}
			reason, ok := check(rec)
			if !ok {
				if dropped != nil {
					dropped(rec, reason)
				}
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}
