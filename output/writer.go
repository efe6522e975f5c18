package output

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"harvestsync/worklog"
)

type Writer interface {
	Write(path string, results []worklog.Logged) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// DetectFormat infers the report format from the file extension. Unknown
// extensions fall back to csv.
func DetectFormat(path string) string {
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".") {
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

// table is the format-neutral shape shared by the csv and excel writers.
type table struct {
	headers []string
	rows    [][]any
}

var rawHeaders = []string{"EntryID", "SpentDate", "Project", "Issue", "Hours", "TimeSpentSeconds", "Started", "WorklogID", "DryRun", "Notes"}

func rawTable(results []worklog.Logged) table {
	rows := make([][]any, 0, len(results))
	for _, result := range results {
		started := ""
		if !result.Started.IsZero() {
			started = result.Started.Format("2006-01-02T15:04:05-07:00")
		}
		spent := ""
		if !result.SpentDate.IsZero() {
			spent = result.SpentDate.Format("2006-01-02")
		}
		rows = append(rows, []any{
			result.EntryID,
			spent,
			result.Project,
			result.IssueKey,
			result.Hours,
			result.Seconds,
			started,
			result.WorklogID,
			result.DryRun,
			result.Notes,
		})
	}
	return table{headers: rawHeaders, rows: rows}
}

func formatCell(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return fmt.Sprintf("%.2f", v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
