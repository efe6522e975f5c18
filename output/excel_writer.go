package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"harvestsync/worklog"
)

type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, results []worklog.Logged) error {
	return writeExcel(path, "Work logs", rawTable(results))
}

// writeExcel keeps numbers and booleans typed so the sheet can be summed.
func writeExcel(path, sheetName string, data table) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if sheetName != "" && sheetName != sheet {
		if err := file.SetSheetName(sheet, sheetName); err != nil {
			return fmt.Errorf("rename excel sheet: %w", err)
		}
		sheet = sheetName
	}

	for col, header := range data.headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, row := range data.rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}
	return nil
}
