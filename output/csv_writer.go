package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"harvestsync/worklog"
)

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, results []worklog.Logged) error {
	return writeCSV(path, rawTable(results))
}

func writeCSV(path string, data table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(data.headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	record := make([]string, len(data.headers))
	for _, row := range data.rows {
		for i, value := range row {
			record[i] = formatCell(value)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}
