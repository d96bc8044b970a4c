package render

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"bespreking/internal/plan"
)

const (
	scheduleSheet    = "Rooster"
	unscheduledSheet = "Niet ingepland"
)

// XLSX exports res as a workbook: one row per timeslot with a column per
// room, plus a sheet listing unscheduled classes when there are any.
func XLSX(res *plan.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile creates "Sheet1"; rename it rather than leaving it empty.
	if err := f.SetSheetName(f.GetSheetName(0), scheduleSheet); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}

	headers := append([]string{"Datum", "Tijdslot"}, res.Rooms...)
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("xlsx: %w", err)
		}
		f.SetCellValue(scheduleSheet, cell, h)
	}

	row := 2
	for _, day := range Days(res.Timeslots, res.Rooms) {
		for _, r := range day.Rows {
			values := append([]string{day.Label, r.Time}, r.Cells...)
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(scheduleSheet, cell, v)
			}
			row++
		}
	}

	if len(res.Unscheduled) > 0 {
		if _, err := f.NewSheet(unscheduledSheet); err != nil {
			return nil, fmt.Errorf("xlsx: %w", err)
		}
		f.SetCellValue(unscheduledSheet, "A1", "Klas")
		for i, code := range res.Unscheduled {
			f.SetCellValue(unscheduledSheet, fmt.Sprintf("A%d", i+2), code)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}
