package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"github.com/yukikurage/taskflow-api/internal/analytics"
	"github.com/yukikurage/taskflow-api/internal/models"
)

// Workbook sheet names, in output order.
const (
	SheetTaskSummary     = "Task Summary"
	SheetStatus          = "Status Distribution"
	SheetPriority        = "Priority Distribution"
	SheetTeamPerformance = "Team Performance"
	SheetTasksByTeam     = "Tasks by Team"
	SheetUserPerformance = "User Performance"
	SheetOverdue         = "Overdue Tasks"
	SheetSummary         = "Summary Statistics"
)

const dateLayout = "2006-01-02"

type sheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]interface{}
}

// BuildExcel assembles the multi-sheet workbook for tasks and their snapshot.
// An empty task list yields sheets that hold only their headers.
func BuildExcel(tasks []models.Task, snap analytics.Snapshot, meta Meta) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F46E5"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	sheets := []sheet{
		taskSummarySheet(tasks, meta),
		distributionSheet(SheetStatus, "Status", snap.StatusDistribution, snap.TotalTasks),
		distributionSheet(SheetPriority, "Priority", snap.PriorityDistribution, snap.TotalTasks),
		teamPerformanceSheet(snap),
		tasksByTeamSheet(snap),
		userPerformanceSheet(snap),
		overdueSheet(tasks, meta),
		summarySheet(snap, meta),
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %q: %w", s.name, err)
		}
		if err := writeSheet(f, s, headerStyle); err != nil {
			return nil, err
		}
	}

	if err := embedCharts(f, snap); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	headers := make([]interface{}, len(s.headers))
	for i, h := range s.headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(s.name, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %q headers: %w", s.name, err)
	}

	last, err := excelize.CoordinatesToCellName(len(s.headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %q headers: %w", s.name, err)
	}

	for i, w := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.name, col, col, w); err != nil {
			return fmt.Errorf("failed to size %q columns: %w", s.name, err)
		}
	}

	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return fmt.Errorf("failed to write %q row %d: %w", s.name, i+2, err)
		}
	}
	return nil
}

func taskSummarySheet(tasks []models.Task, meta Meta) sheet {
	s := sheet{
		name: SheetTaskSummary,
		headers: []string{
			"#", "Task Title", "Description", "Status", "Priority", "Assigned To",
			"Team", "Created By", "Created Date", "Due Date", "Is Overdue", "Days Until Due",
		},
		widths: []float64{6, 32, 40, 14, 12, 28, 20, 20, 14, 14, 12, 15},
	}
	for i, t := range tasks {
		s.rows = append(s.rows, []interface{}{
			i + 1,
			t.Title,
			orPlaceholder(t.Description, "N/A"),
			t.Status.Label(),
			t.Priority.Label(),
			analytics.AssigneeList(t),
			analytics.TeamName(t),
			analytics.CreatorName(t),
			t.CreatedAt.Format(dateLayout),
			formatDue(t.DueDate),
			yesNo(analytics.IsOverdue(t, meta.GeneratedAt)),
			daysUntilDue(t, meta),
		})
	}
	return s
}

func distributionSheet(name, label string, dist []analytics.NameValue, total int) sheet {
	s := sheet{
		name:    name,
		headers: []string{label, "Count", "Percentage"},
		widths:  []float64{20, 10, 14},
	}
	for _, nv := range dist {
		s.rows = append(s.rows, []interface{}{
			nv.Name,
			nv.Value,
			fmt.Sprintf("%.1f%%", analytics.Share(nv.Value, total)),
		})
	}
	return s
}

func teamPerformanceSheet(snap analytics.Snapshot) sheet {
	s := sheet{
		name:    SheetTeamPerformance,
		headers: []string{"Team", "Total", "Completed", "In Progress", "Overdue", "Completion Rate", "Rating"},
		widths:  []float64{24, 10, 12, 12, 10, 16, 10},
	}
	for _, t := range snap.TeamPerformance {
		s.rows = append(s.rows, []interface{}{
			t.Name, t.Total, t.Completed, t.InProgress, t.Overdue,
			fmt.Sprintf("%d%%", t.CompletionRate),
			analytics.TeamRating(t.CompletionRate),
		})
	}
	return s
}

func tasksByTeamSheet(snap analytics.Snapshot) sheet {
	s := sheet{
		name:    SheetTasksByTeam,
		headers: []string{"Rank", "Team", "Tasks", "Share"},
		widths:  []float64{8, 24, 10, 12},
	}
	for i, nv := range snap.TeamDistribution {
		s.rows = append(s.rows, []interface{}{
			i + 1, nv.Name, nv.Value,
			fmt.Sprintf("%.1f%%", analytics.Share(nv.Value, snap.TotalTasks)),
		})
	}
	return s
}

func userPerformanceSheet(snap analytics.Snapshot) sheet {
	s := sheet{
		name:    SheetUserPerformance,
		headers: []string{"User", "Total", "Completed", "Pending", "Overdue", "Completion Rate", "Rating"},
		widths:  []float64{26, 10, 12, 10, 10, 16, 18},
	}
	for _, a := range snap.AssigneePerformance {
		s.rows = append(s.rows, []interface{}{
			a.Name, a.Total, a.Completed, a.Pending(), a.Overdue,
			fmt.Sprintf("%d%%", a.CompletionRate),
			analytics.PerformanceRating(a.CompletionRate),
		})
	}
	return s
}

func overdueSheet(tasks []models.Task, meta Meta) sheet {
	s := sheet{
		name:    SheetOverdue,
		headers: []string{"#", "Task Title", "Priority", "Status", "Assigned To", "Team", "Due Date", "Days Overdue"},
		widths:  []float64{6, 32, 12, 14, 28, 20, 14, 14},
	}
	for i, t := range analytics.OverdueTasks(tasks, meta.GeneratedAt) {
		s.rows = append(s.rows, []interface{}{
			i + 1,
			t.Title,
			t.Priority.Label(),
			t.Status.Label(),
			analytics.AssigneeList(t),
			analytics.TeamName(t),
			formatDue(t.DueDate),
			analytics.DaysOverdue(t.DueDate, meta.GeneratedAt),
		})
	}
	return s
}

func summarySheet(snap analytics.Snapshot, meta Meta) sheet {
	return sheet{
		name:    SheetSummary,
		headers: []string{"Metric", "Value"},
		widths:  []float64{26, 30},
		rows: [][]interface{}{
			{"Report Period", meta.Period.Describe(meta.GeneratedAt)},
			{"Generated", meta.GeneratedAt.Format("2006-01-02 15:04")},
			{"Generated By", orPlaceholder(meta.GeneratedBy, analytics.UnknownLabel)},
			{"Total Tasks", snap.TotalTasks},
			{"Completed Tasks", snap.CompletedTasks},
			{"In Progress Tasks", snap.InProgressTasks},
			{"Overdue Tasks", snap.OverdueTasks},
			{"Completion Rate", fmt.Sprintf("%d%%", snap.CompletionRate)},
			{"Completion Status", analytics.CompletionStatus(snap.CompletionRate)},
			{"Teams", len(snap.TeamDistribution)},
			{"Active Assignees", len(snap.AssigneePerformance)},
		},
	}
}

func embedCharts(f *excelize.File, snap analytics.Snapshot) error {
	if snap.TotalTasks == 0 {
		return nil
	}

	charts := []struct {
		cell   string
		render func([]analytics.NameValue) ([]byte, error)
		dist   []analytics.NameValue
	}{
		{"D2", RenderStatusChart, snap.StatusDistribution},
		{"D24", RenderPriorityChart, snap.PriorityDistribution},
	}
	for _, c := range charts {
		png, err := c.render(c.dist)
		if err != nil {
			return err
		}
		if err := f.AddPictureFromBytes(SheetSummary, c.cell, &excelize.Picture{
			Extension: ".png",
			File:      png,
			Format:    &excelize.GraphicOptions{ScaleX: 0.7, ScaleY: 0.7},
		}); err != nil {
			return fmt.Errorf("failed to embed chart: %w", err)
		}
	}
	return nil
}

func daysUntilDue(t models.Task, meta Meta) interface{} {
	days, ok := analytics.DaysUntilDue(t.DueDate, meta.GeneratedAt)
	if !ok {
		return "N/A"
	}
	return days
}
