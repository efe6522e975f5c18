package pipeline

import (
	"go.uber.org/zap"

	"harvestsync/worklog"
)

// Reason names why a record left the pipeline before the writer.
type Reason string

const (
	ReasonNoProject     Reason = "no_project"
	ReasonNoIssue       Reason = "no_issue"
	ReasonNotClosed     Reason = "not_closed"
	ReasonOtherUser     Reason = "other_user"
	ReasonNoDuration    Reason = "no_duration"
	ReasonAlreadyLogged Reason = "already_logged"
)

// Reasons lists every Reason in pipeline order.
var Reasons = []Reason{ReasonNoProject, ReasonNoIssue, ReasonNotClosed, ReasonOtherUser, ReasonNoDuration, ReasonAlreadyLogged}

// HasProject keeps records with a project configuration. The project stage
// already explained the miss.
func HasProject(rec *Record) (Reason, bool) {
	if rec.Project == nil {
		return ReasonNoProject, false
	}
	return "", true
}

// HasIssue keeps records whose issue and work logs were both loaded.
func HasIssue(rec *Record) (Reason, bool) {
	if rec.Issue == nil || !rec.HasWorklogs() {
		return ReasonNoIssue, false
	}
	return "", true
}

// CanLog applies the eligibility rules in order. The entry must be closed and
// belong to the configured user when one is set. Its rounded hours must amount
// to at least one second, and no existing work log may carry its marker. Each
// rejection is logged exactly once.
func CanLog(log *zap.Logger, marker worklog.Marker) Check {
	return func(rec *Record) (Reason, bool) {
		fields := append(entryFields(rec), zap.String("issue", rec.Issue.Key))

		if !rec.Entry.IsClosed {
			log.Info("skipping time entry that is not closed yet", fields...)
			return ReasonNotClosed, false
		}
		if want := rec.Config.User.ID; want != 0 && want != rec.Entry.User.ID {
			log.Info("skipping time entry of another user",
				append(fields, zap.Int64("user_id", rec.Entry.User.ID), zap.Int64("expected_user_id", want))...)
			return ReasonOtherUser, false
		}
		if worklog.Seconds(rec.Entry.RoundedHours) <= 0 {
			log.Info("skipping time entry without rounded hours",
				append(fields, zap.Float64("rounded_hours", rec.Entry.RoundedHours))...)
			return ReasonNoDuration, false
		}
		if existing, ok := worklog.FindLogged(marker, rec.Worklogs, rec.Entry.ID); ok {
			log.Info("time entry already logged", append(fields, zap.String("worklog_id", existing.ID))...)
			return ReasonAlreadyLogged, false
		}
		return "", true
	}
}
