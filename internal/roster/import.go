// Package roster moves student data in and out of XLSX workbooks: class
// rosters in, finished comments out.
package roster

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/reportmate/comment-engine/constants"
	"github.com/reportmate/comment-engine/internal/model"
)

// Importer reads a class roster workbook into student entities. The expected
// layout is a header row followed by one row per student:
//
//	A: Name  B: Grade  C: Context  D: Tags (comma separated)
type Importer struct {
	logger *slog.Logger
}

func NewImporter(logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{logger: logger}
}

// ImportFile loads the first sheet of the workbook at path. Rows without a
// name are skipped; free-form tags are canonicalized, with unknown tags kept
// under Other so nothing the teacher typed is silently dropped.
func (im *Importer) ImportFile(path, period string) ([]*model.StudentResult, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := constants.AllowedRosterExtensions[ext]; !ok {
		return nil, fmt.Errorf("unsupported roster format %q", ext)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read roster sheet %q: %w", sheet, err)
	}

	now := time.Now()
	var students []*model.StudentResult
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		name := strings.TrimSpace(cell(row, 0))
		if name == "" {
			skipped++
			continue
		}

		inputs := model.GenerationInputs{
			ContextNote: strings.TrimSpace(cell(row, 2)),
			StatusTags:  parseTags(cell(row, 3)),
		}
		if g, ok := parseGrade(cell(row, 1)); ok {
			inputs.Grade = &g
		}

		students = append(students, &model.StudentResult{
			ID:          uuid.New(),
			StudentName: name,
			Period:      period,
			Inputs:      inputs,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	im.logger.Info("roster.import.ok",
		"path", path,
		"sheet", sheet,
		"students", len(students),
		"skipped_rows", skipped,
	)
	return students, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseGrade(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return 0, false
	}
	g, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return g, true
}

func parseTags(raw string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		canonical, _ := constants.CanonicalizeTag(part)
		t := string(canonical)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}
