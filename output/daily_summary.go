package output

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"harvestsync/worklog"
)

// DailySummary totals the synced entries of one spent date.
type DailySummary struct {
	Date         string
	Hours        float64
	Entries      int
	DryRunCount  int
	WorklogCount int
	Issues       []string
}

func BuildDailySummaries(results []worklog.Logged) []DailySummary {
	if len(results) == 0 {
		return []DailySummary{}
	}

	byDay := make(map[string][]worklog.Logged)
	for _, result := range results {
		day := result.SpentDate.Format("2006-01-02")
		byDay[day] = append(byDay[day], result)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	summaries := make([]DailySummary, 0, len(days))
	for _, day := range days {
		summaries = append(summaries, summarizeDay(day, byDay[day]))
	}
	return summaries
}

func summarizeDay(day string, results []worklog.Logged) DailySummary {
	summary := DailySummary{Date: day, Entries: len(results)}
	seen := make(map[string]bool)
	hours := 0.0
	for _, result := range results {
		hours += result.Hours
		if result.DryRun {
			summary.DryRunCount++
		} else if result.WorklogID != "" {
			summary.WorklogCount++
		}
		if result.IssueKey != "" && !seen[result.IssueKey] {
			seen[result.IssueKey] = true
			summary.Issues = append(summary.Issues, result.IssueKey)
		}
	}
	sort.Strings(summary.Issues)
	summary.Hours = roundHours(hours)
	return summary
}

func roundHours(value float64) float64 {
	return math.Round(value*100) / 100
}

var dailyHeaders = []string{"Date", "Hours", "Entries", "WorklogsCreated", "DryRun", "Issues"}

func dailyTable(summaries []DailySummary) table {
	rows := make([][]any, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, []any{
			summary.Date,
			summary.Hours,
			summary.Entries,
			summary.WorklogCount,
			summary.DryRunCount,
			strings.Join(summary.Issues, " "),
		})
	}
	return table{headers: dailyHeaders, rows: rows}
}

func WriteDailySummaries(path, format string, summaries []DailySummary) error {
	switch normalizeFormat(format) {
	case "csv":
		return writeCSV(path, dailyTable(summaries))
	case "excel", "xlsx":
		return writeExcel(path, "Daily summary", dailyTable(summaries))
	default:
		return fmt.Errorf("unsupported output format for daily summaries: %s", format)
	}
}
