package reports

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yukikurage/taskflow-api/internal/analytics"
	"github.com/yukikurage/taskflow-api/internal/models"
)

var reportNow = time.Date(2026, 3, 18, 15, 30, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func sampleTasks() []models.Task {
	alice := models.User{ID: 1, FullName: "Alice Smith", Email: "alice@example.com"}
	bob := models.User{ID: 2, FullName: "Bob Jones", Email: "bob@example.com"}
	backend := &models.Team{ID: 10, Name: "Backend"}

	return []models.Task{
		{
			ID: 1, Title: "Design schema", Status: models.TaskStatusTodo, Priority: models.TaskPriorityHigh,
			DueDate: ptr(reportNow.Add(-48 * time.Hour)), CreatedAt: reportNow.Add(-72 * time.Hour),
			Creator: alice, Team: backend,
			Assignments: []models.TaskAssignment{{UserID: 1, User: alice}},
		},
		{
			ID: 2, Title: "Write handlers", Status: models.TaskStatusInProgress, Priority: models.TaskPriorityMedium,
			DueDate: ptr(reportNow.Add(72 * time.Hour)), CreatedAt: reportNow.Add(-24 * time.Hour),
			Creator: alice, Team: backend,
			Assignments: []models.TaskAssignment{{UserID: 1, User: alice}, {UserID: 2, User: bob}},
		},
		{
			ID: 3, Title: "Ship release", Status: models.TaskStatusDone, Priority: models.TaskPriorityUrgent,
			CreatedAt: reportNow.Add(-2 * time.Hour), Creator: bob,
		},
	}
}

func newTestGenerator() *Generator {
	return NewGenerator().WithClock(func() time.Time { return reportNow })
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatExcel, f)

	f, err = ParseFormat("pdf")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "TaskFlow_Report_2026-03-18.xlsx", ExcelFilename(reportNow))
	assert.Equal(t, "TaskFlow_Weekly_Report_2026-03-18.pdf", PDFFilename(analytics.PeriodWeekly, reportNow))
	assert.Equal(t, "TaskFlow_Full_Report_2026-03-18.pdf", PDFFilename(analytics.PeriodAll, reportNow))
}

func TestGenerate_Excel(t *testing.T) {
	report, err := newTestGenerator().Generate(sampleTasks(), Request{Format: FormatExcel, GeneratedBy: "Admin"})
	require.NoError(t, err)

	assert.Equal(t, "TaskFlow_Report_2026-03-18.xlsx", report.Filename)
	assert.Equal(t, FormatExcel.ContentType(), report.ContentType)
	assert.Equal(t, 3, report.Snapshot.TotalTasks)

	f, err := excelize.OpenReader(bytes.NewReader(report.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		SheetTaskSummary, SheetStatus, SheetPriority, SheetTeamPerformance,
		SheetTasksByTeam, SheetUserPerformance, SheetOverdue, SheetSummary,
	}, f.GetSheetList())

	rows, err := f.GetRows(SheetTaskSummary)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Task Title", rows[0][1])
	assert.Equal(t, "Design schema", rows[1][1])
	assert.Equal(t, "Yes", rows[1][10])
	assert.Equal(t, "No Due Date", rows[3][9])
	assert.Equal(t, "No Team", rows[3][6])

	overdue, err := f.GetRows(SheetOverdue)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, "2", overdue[1][7])

	pics, err := f.GetPictures(SheetSummary, "D2")
	require.NoError(t, err)
	assert.Len(t, pics, 1)
}

func TestGenerate_ExcelEmpty(t *testing.T) {
	report, err := newTestGenerator().Generate(nil, Request{Format: FormatExcel})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(report.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Len(t, f.GetSheetList(), 8)
	rows, err := f.GetRows(SheetTaskSummary)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestGenerate_PDF(t *testing.T) {
	report, err := newTestGenerator().Generate(sampleTasks(), Request{
		Format: FormatPDF, Period: analytics.PeriodWeekly, GeneratedBy: "Admin",
	})
	require.NoError(t, err)

	assert.Equal(t, "TaskFlow_Weekly_Report_2026-03-18.pdf", report.Filename)
	assert.Equal(t, "application/pdf", report.ContentType)
	assert.True(t, bytes.HasPrefix(report.Data, []byte("%PDF")))
}

func TestGenerate_PDFEmpty(t *testing.T) {
	report, err := newTestGenerator().Generate(nil, Request{Format: FormatPDF})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(report.Data, []byte("%PDF")))
	assert.Zero(t, report.Snapshot.TotalTasks)
}

func TestGenerate_PDFManyTasks(t *testing.T) {
	report, err := newTestGenerator().Generate(manyOverdueTasks(MaxPDFTaskRows+20), Request{Format: FormatPDF})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(report.Data, []byte("%PDF")))
}

func manyOverdueTasks(n int) []models.Task {
	tasks := make([]models.Task, 0, n)
	for i := 0; i < n; i++ {
		tasks = append(tasks, models.Task{
			ID: uint64(i + 1), Title: fmt.Sprintf("Overdue chore %d", i+1), Status: models.TaskStatusTodo,
			Priority: models.TaskPriorityLow, DueDate: ptr(reportNow.Add(-24 * time.Hour)),
			CreatedAt: reportNow.Add(-time.Hour),
		})
	}
	return tasks
}

var pageCountPattern = regexp.MustCompile(`/Count (\d+)`)

func renderPlainPDF(t *testing.T, tasks []models.Task) (string, int) {
	t.Helper()
	snap := analytics.Aggregate(tasks, reportNow, analytics.Options{})
	data, err := buildPDF(tasks, snap, Meta{Period: analytics.PeriodAll, GeneratedAt: reportNow, GeneratedBy: "Tester"}, false)
	require.NoError(t, err)

	m := pageCountPattern.FindSubmatch(data)
	require.NotNil(t, m, "page count missing")
	pages, err := strconv.Atoi(string(m[1]))
	require.NoError(t, err)
	return string(data), pages
}

func TestBuildPDF_CapsLongListings(t *testing.T) {
	out, pages := renderPlainPDF(t, manyOverdueTasks(MaxPDFTaskRows+20))

	assert.Contains(t, out, "Overdue Tasks \\(70\\)")
	assert.Contains(t, out, "... and 40 more overdue tasks requiring immediate attention")
	assert.Contains(t, out, "... and 20 more tasks")
	assert.Contains(t, out, "Overdue chore 50")
	assert.Greater(t, pages, 3)
	assert.Contains(t, out, fmt.Sprintf("Page 1 of %d", pages))
	assert.Contains(t, out, fmt.Sprintf("Page %d of %d", pages, pages))
	assert.NotContains(t, out, "{nb}")
}

func TestBuildPDF_EmptySectionsPrintNotices(t *testing.T) {
	out, pages := renderPlainPDF(t, nil)

	assert.Contains(t, out, "No data available")
	assert.Contains(t, out, "No overdue tasks")
	assert.Contains(t, out, "No tasks in this period")
	assert.NotContains(t, out, "more overdue tasks")
	assert.Contains(t, out, fmt.Sprintf("Page %d of %d", pages, pages))
}

func TestPDFFit_CutsTranslatedTextByBytes(t *testing.T) {
	b := newPDFBuilder(Meta{Period: analytics.PeriodAll, GeneratedAt: reportNow}, false)
	b.pdf.AddPage()
	b.pdf.SetFont("Helvetica", "", 9)

	got := b.fit(b.tr("Réunion équipe données très longue pour le trimestre"), 20)

	assert.True(t, strings.HasPrefix(got, "R\xe9union"), "got %q", got)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.NotContains(t, got, "\uFFFD")
	assert.LessOrEqual(t, b.pdf.GetStringWidth(got), 20.0)

	short := b.tr("Café")
	assert.Equal(t, short, b.fit(short, 20))
}

func TestGenerate_FiltersByPeriod(t *testing.T) {
	report, err := newTestGenerator().Generate(sampleTasks(), Request{Format: FormatExcel, Period: analytics.PeriodDaily})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Snapshot.TotalTasks)
	assert.Equal(t, 1, report.Snapshot.CompletedTasks)
}

func TestGenerate_UnknownFormat(t *testing.T) {
	_, err := newTestGenerator().Generate(sampleTasks(), Request{Format: "docx"})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestGenerate_RecoversFromRenderPanic(t *testing.T) {
	g := newTestGenerator()
	g.buildPDF = func([]models.Task, analytics.Snapshot, Meta) ([]byte, error) {
		panic("font table corrupted")
	}

	report, err := g.Generate(sampleTasks(), Request{Format: FormatPDF})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrRenderFailed)
}

func TestGenerate_WrapsRenderError(t *testing.T) {
	g := newTestGenerator()
	g.buildExcel = func([]models.Task, analytics.Snapshot, Meta) ([]byte, error) {
		return nil, errors.New("disk full")
	}

	_, err := g.Generate(sampleTasks(), Request{Format: FormatExcel})
	assert.ErrorIs(t, err, ErrRenderFailed)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCharts(t *testing.T) {
	snap := analytics.Aggregate(sampleTasks(), reportNow, analytics.Options{})

	for name, render := range map[string]func([]analytics.NameValue) ([]byte, error){
		"status":   RenderStatusChart,
		"priority": RenderPriorityChart,
	} {
		t.Run(name, func(t *testing.T) {
			data, err := render(snap.StatusDistribution)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, 640, img.Bounds().Dx())
			assert.Equal(t, 400, img.Bounds().Dy())
		})
	}
}

func TestCharts_Empty(t *testing.T) {
	data, err := RenderStatusChart(nil)
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}
