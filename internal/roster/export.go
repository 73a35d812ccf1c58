package roster

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/reportmate/comment-engine/internal/model"
)

// Exporter produces the finished-comments workbook handed back to the
// teacher at the end of a batch run.
type Exporter struct {
	logger *slog.Logger
}

func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// ExportCommentsXLSX returns an XLSX workbook (as bytes) with one row per
// student. Students without a comment still get a row so the teacher sees
// what is missing.
func (ex *Exporter) ExportCommentsXLSX(students []*model.StudentResult, period string) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Comments"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Student",
		"Period",
		"Grade",
		"Status Tags",
		"Comment",
		"Model",
		"Generated At",
		"Error",
	}
	for i, h := range headers {
		cellName, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cellName, h)
	}

	row := 2
	for _, s := range students {
		write := func(col int, v any) {
			cellName, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cellName, v)
		}

		write(1, s.StudentName)
		write(2, s.Period)

		if s.Inputs.Grade != nil {
			write(3, *s.Inputs.Grade)
		} else {
			write(3, "")
		}
		write(4, strings.Join(s.Inputs.StatusTags, ", "))

		if s.Output != nil {
			write(5, s.Output.Text)
			write(6, s.Output.Model)
			if !s.Output.GeneratedAt.IsZero() {
				write(7, s.Output.GeneratedAt.Format("2006-01-02 15:04"))
			} else {
				write(7, "")
			}
			write(8, s.Output.ErrorMessage)
		}

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 26) // student
	_ = f.SetColWidth(sheet, "B", "B", 10) // period
	_ = f.SetColWidth(sheet, "C", "D", 18) // grade, tags
	_ = f.SetColWidth(sheet, "E", "E", 80) // comment
	_ = f.SetColWidth(sheet, "F", "G", 18) // model, timestamp
	_ = f.SetColWidth(sheet, "H", "H", 40) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	ex.logger.Info("roster.export.ok",
		"period", period,
		"rows", len(students),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
