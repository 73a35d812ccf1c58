package roster

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/reportmate/comment-engine/internal/model"
)

func writeRoster(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportRoster(t *testing.T) {
	path := writeRoster(t, [][]string{
		{"Name", "Grade", "Context", "Tags"},
		{"Alex Meier", "2.5", "new to the school", "hw, participation"},
		{"Mira Schmidt", "", "", "conduct, conduct"},
		{"", "3.0", "row without a name", ""},
		{"Jonas Weber", "not a number", "", "something made up"},
	})

	students, err := NewImporter(nil).ImportFile(path, "2026-S1")
	require.NoError(t, err)
	require.Len(t, students, 3, "nameless rows are skipped")

	alex := students[0]
	assert.Equal(t, "Alex Meier", alex.StudentName)
	assert.Equal(t, "2026-S1", alex.Period)
	require.NotNil(t, alex.Inputs.Grade)
	assert.Equal(t, 2.5, *alex.Inputs.Grade)
	assert.Equal(t, "new to the school", alex.Inputs.ContextNote)
	assert.Equal(t, []string{"Homework", "Participation"}, alex.Inputs.StatusTags)

	mira := students[1]
	assert.Nil(t, mira.Inputs.Grade)
	assert.Equal(t, []string{"SocialBehavior"}, mira.Inputs.StatusTags, "synonyms canonicalized, duplicates collapsed")

	jonas := students[2]
	assert.Nil(t, jonas.Inputs.Grade, "unparseable grade means no grade")
	assert.Equal(t, []string{"Other"}, jonas.Inputs.StatusTags, "unknown tags land in Other")
}

func TestImportRejectsWrongExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name\nAlex"), 0o644))

	_, err := NewImporter(nil).ImportFile(path, "2026-S1")
	assert.ErrorContains(t, err, "unsupported roster format")
}

func TestImportCommaDecimalGrade(t *testing.T) {
	path := writeRoster(t, [][]string{
		{"Name", "Grade", "Context", "Tags"},
		{"Alex", "2,5", "", ""},
	})

	students, err := NewImporter(nil).ImportFile(path, "2026-S1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.NotNil(t, students[0].Inputs.Grade)
	assert.Equal(t, 2.5, *students[0].Inputs.Grade)
}

func TestExportCommentsXLSX(t *testing.T) {
	grade := 2.0
	students := []*model.StudentResult{
		{
			ID:          uuid.New(),
			StudentName: "Alex Meier",
			Period:      "2026-S1",
			Inputs:      model.GenerationInputs{Grade: &grade, StatusTags: []string{"Homework", "Effort"}},
			Output: &model.GenerationOutput{
				Text:        "Alex has made steady progress.",
				Model:       "test-model",
				GeneratedAt: time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC),
			},
			WasGenerated: true,
		},
		{
			ID:          uuid.New(),
			StudentName: "Mira Schmidt",
			Period:      "2026-S1",
			Output:      &model.GenerationOutput{ErrorMessage: "generation failed"},
		},
		{
			ID:          uuid.New(),
			StudentName: "Jonas Weber",
			Period:      "2026-S1",
		},
	}

	data, err := NewExporter(nil).ExportCommentsXLSX(students, "2026-S1")
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Comments")
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus one row per student, commentless ones included")

	assert.Equal(t, "Student", rows[0][0])
	assert.Equal(t, "Comment", rows[0][4])

	assert.Equal(t, "Alex Meier", rows[1][0])
	assert.Equal(t, "Homework, Effort", rows[1][3])
	assert.Equal(t, "Alex has made steady progress.", rows[1][4])
	assert.Equal(t, "2026-06-01 10:30", rows[1][6])

	assert.Equal(t, "Mira Schmidt", rows[2][0])
	assert.Equal(t, "generation failed", rows[2][7])

	assert.Equal(t, "Jonas Weber", rows[3][0])
}
