package reports

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/yukikurage/taskflow-api/internal/analytics"
	"github.com/yukikurage/taskflow-api/internal/models"
)

// Display caps for the long PDF listings. The workbook always lists everything.
const (
	MaxPDFOverdueRows = 30
	MaxPDFTaskRows    = 50
)

const (
	pdfMargin      = 15.0
	pdfBottomLimit = 25.0
	pdfLineHeight  = 7.0
)

type pdfColumn struct {
	title string
	width float64
	align string
}

type pdfBuilder struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	meta  Meta
	pageW float64
	pageH float64
}

// BuildPDF renders the paginated analytics report. Sections whose input is
// empty print a short notice instead of a table.
func BuildPDF(tasks []models.Task, snap analytics.Snapshot, meta Meta) ([]byte, error) {
	return buildPDF(tasks, snap, meta, true)
}

func newPDFBuilder(meta Meta, compress bool) *pdfBuilder {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(compress)
	pdf.AliasNbPages("")

	b := &pdfBuilder{
		pdf:  pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		meta: meta,
	}
	b.pageW, b.pageH = pdf.GetPageSize()
	pdf.SetFooterFunc(b.footer)
	return b
}

func buildPDF(tasks []models.Task, snap analytics.Snapshot, meta Meta, compress bool) ([]byte, error) {
	b := newPDFBuilder(meta, compress)
	pdf := b.pdf

	b.coverPage(snap)
	b.visualPage(snap)

	pdf.AddPage()
	b.summarySection(snap)
	b.distributionSection("Status Breakdown", "Status", snap.StatusDistribution, snap.TotalTasks)
	b.distributionSection("Priority Breakdown", "Priority", snap.PriorityDistribution, snap.TotalTasks)
	b.teamSection(snap)
	b.userSection(snap)
	b.overdueSection(analytics.OverdueTasks(tasks, meta.GeneratedAt))
	b.taskListSection(tasks)

	if pdf.Err() {
		return nil, fmt.Errorf("failed to render pdf: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *pdfBuilder) footer() {
	b.pdf.SetY(-15)
	b.pdf.SetFont("Helvetica", "I", 8)
	b.setText(mutedColor)
	text := fmt.Sprintf("TaskFlow %s Report | Page %d of {nb} | %s",
		b.meta.Period.Label(), b.pdf.PageNo(), b.meta.GeneratedAt.Format(dateLayout))
	b.pdf.CellFormat(0, 10, text, "", 0, "C", false, 0, "")
}

func (b *pdfBuilder) setText(hex string) {
	b.pdf.SetTextColor(rgb(hex))
}

func (b *pdfBuilder) setFill(hex string) {
	b.pdf.SetFillColor(rgb(hex))
}

// ensureSpace starts a new page when fewer than h millimetres remain above
// the footer. It reports whether a page was added.
func (b *pdfBuilder) ensureSpace(h float64) bool {
	if b.pdf.GetY()+h <= b.pageH-pdfBottomLimit {
		return false
	}
	b.pdf.AddPage()
	return true
}

func (b *pdfBuilder) heading(title string) {
	b.ensureSpace(24)
	b.pdf.Ln(4)
	b.pdf.SetFont("Helvetica", "B", 14)
	b.setText(brandColor)
	b.pdf.CellFormat(0, 10, b.tr(title), "", 1, "L", false, 0, "")
	b.setText(textColor)
}

func (b *pdfBuilder) notice(text string) {
	b.pdf.SetFont("Helvetica", "I", 10)
	b.setText(mutedColor)
	b.pdf.CellFormat(0, pdfLineHeight, b.tr(text), "", 1, "L", false, 0, "")
	b.setText(textColor)
}

func (b *pdfBuilder) tableHeader(cols []pdfColumn) {
	b.pdf.SetFont("Helvetica", "B", 9)
	b.setFill(brandColor)
	b.pdf.SetTextColor(255, 255, 255)
	for _, c := range cols {
		b.pdf.CellFormat(c.width, pdfLineHeight, c.title, "1", 0, "C", true, 0, "")
	}
	b.pdf.Ln(-1)
	b.setText(textColor)
}

// table draws rows and repeats the header after every page break.
func (b *pdfBuilder) table(cols []pdfColumn, rows [][]string) {
	b.ensureSpace(pdfLineHeight * 2)
	b.tableHeader(cols)
	for i, row := range rows {
		if b.ensureSpace(pdfLineHeight) {
			b.tableHeader(cols)
		}
		b.pdf.SetFont("Helvetica", "", 9)
		fill := i%2 == 1
		b.setFill("#F3F4F6")
		for j, c := range cols {
			text := ""
			if j < len(row) {
				text = b.fit(b.tr(row[j]), c.width-2)
			}
			b.pdf.CellFormat(c.width, pdfLineHeight, text, "1", 0, c.align, fill, 0, "")
		}
		b.pdf.Ln(-1)
	}
}

// fit truncates s with an ellipsis so it fits into width millimetres. s is
// already translated to the single-byte font encoding, so it is cut by bytes.
func (b *pdfBuilder) fit(s string, width float64) string {
	if b.pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && b.pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func (b *pdfBuilder) coverPage(snap analytics.Snapshot) {
	pdf := b.pdf
	pdf.AddPage()

	b.setFill(brandColor)
	pdf.Rect(0, 0, b.pageW, 90, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 36)
	pdf.SetXY(pdfMargin, 28)
	pdf.CellFormat(b.pageW-2*pdfMargin, 16, "TaskFlow", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 18)
	pdf.CellFormat(0, 12, "Analytics Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 13)
	pdf.CellFormat(0, 10, b.meta.Period.Label()+" Report", "", 1, "C", false, 0, "")

	pdf.SetY(110)
	b.setText(textColor)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Report Details", "", 1, "L", false, 0, "")

	details := [][2]string{
		{"Generated", b.meta.GeneratedAt.Format("January 2, 2006 15:04")},
		{"Generated By", orPlaceholder(b.meta.GeneratedBy, analytics.UnknownLabel)},
		{"Total Tasks Analyzed", strconv.Itoa(snap.TotalTasks)},
		{"Report Period", b.meta.Period.Describe(b.meta.GeneratedAt)},
	}
	for _, d := range details {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(55, 8, d[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, b.tr(d[1]), "", 1, "L", false, 0, "")
	}

	pdf.SetY(b.pageH - 45)
	pdf.SetFont("Helvetica", "I", 10)
	b.setText(mutedColor)
	pdf.CellFormat(0, 8, "Confidential - For Internal Use Only", "", 1, "C", false, 0, "")
}

func (b *pdfBuilder) visualPage(snap analytics.Snapshot) {
	pdf := b.pdf
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	b.setText(brandColor)
	pdf.CellFormat(0, 12, "Executive Summary - Visual Analytics", "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	b.setText(textColor)
	pdf.CellFormat(0, 8, "Task Status Distribution", "", 1, "L", false, 0, "")
	if snap.TotalTasks == 0 {
		b.notice("No data available")
	} else {
		b.pieChart(snap.StatusDistribution, 65, pdf.GetY()+45, 40)
	}

	pdf.SetY(160)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Task Priority Distribution", "", 1, "L", false, 0, "")
	if len(snap.PriorityDistribution) == 0 {
		b.notice("No data available")
	} else {
		b.barChart(snap.PriorityDistribution, pdf.GetY()+5, 85)
	}
}

func (b *pdfBuilder) pieChart(dist []analytics.NameValue, cx, cy, r float64) {
	total := 0
	for _, nv := range dist {
		total += nv.Value
	}
	if total == 0 {
		return
	}

	start := -math.Pi / 2
	for i, nv := range dist {
		if nv.Value == 0 {
			continue
		}
		sweep := 2 * math.Pi * float64(nv.Value) / float64(total)
		points := []fpdf.PointType{{X: cx, Y: cy}}
		steps := int(math.Max(2, math.Ceil(sweep/(math.Pi/90))))
		for s := 0; s <= steps; s++ {
			a := start + sweep*float64(s)/float64(steps)
			points = append(points, fpdf.PointType{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
		}
		b.setFill(colorFor(statusColors, nv.Name, i))
		b.pdf.Polygon(points, "F")
		start += sweep
	}

	b.pdf.SetFont("Helvetica", "", 10)
	for i, nv := range dist {
		y := cy - r + 6 + float64(i)*9
		b.setFill(colorFor(statusColors, nv.Name, i))
		b.pdf.Rect(cx+r+20, y, 5, 5, "F")
		b.pdf.SetXY(cx+r+28, y-1)
		b.setText(textColor)
		label := fmt.Sprintf("%s: %d (%.1f%%)", nv.Name, nv.Value, analytics.Share(nv.Value, total))
		b.pdf.CellFormat(70, 7, label, "", 0, "L", false, 0, "")
	}
}

func (b *pdfBuilder) barChart(dist []analytics.NameValue, top, height float64) {
	maxValue := 1
	for _, nv := range dist {
		if nv.Value > maxValue {
			maxValue = nv.Value
		}
	}

	left := pdfMargin + 10
	width := b.pageW - 2*pdfMargin - 20
	bottom := top + height - 10
	slot := width / float64(len(dist))
	barW := slot * 0.55

	b.pdf.SetDrawColor(rgb(lineColor))
	b.pdf.Line(left, bottom, left+width, bottom)
	b.pdf.SetFont("Helvetica", "", 9)
	for i, nv := range dist {
		h := (height - 20) * float64(nv.Value) / float64(maxValue)
		x := left + slot*float64(i) + (slot-barW)/2
		b.setFill(colorFor(priorityColors, nv.Name, i))
		b.pdf.Rect(x, bottom-h, barW, h, "F")

		b.setText(textColor)
		b.pdf.SetXY(x, bottom-h-6)
		b.pdf.CellFormat(barW, 5, strconv.Itoa(nv.Value), "", 0, "C", false, 0, "")
		b.pdf.SetXY(x, bottom+1)
		b.pdf.CellFormat(barW, 5, nv.Name, "", 0, "C", false, 0, "")
	}
	b.pdf.SetY(top + height)
}

func (b *pdfBuilder) summarySection(snap analytics.Snapshot) {
	b.heading("Summary Statistics")

	kpis := []struct {
		label string
		value int
		color string
	}{
		{"Total Tasks", snap.TotalTasks, brandColor},
		{"Completed", snap.CompletedTasks, statusColors["DONE"]},
		{"In Progress", snap.InProgressTasks, statusColors["IN PROGRESS"]},
		{"Overdue", snap.OverdueTasks, alertColor},
	}
	boxW := (b.pageW - 2*pdfMargin - 3*4) / 4
	y := b.pdf.GetY()
	for i, k := range kpis {
		x := pdfMargin + float64(i)*(boxW+4)
		b.setFill(k.color)
		b.pdf.Rect(x, y, boxW, 22, "F")
		b.pdf.SetTextColor(255, 255, 255)
		b.pdf.SetFont("Helvetica", "B", 16)
		b.pdf.SetXY(x, y+3)
		b.pdf.CellFormat(boxW, 9, strconv.Itoa(k.value), "", 0, "C", false, 0, "")
		b.pdf.SetFont("Helvetica", "", 9)
		b.pdf.SetXY(x, y+13)
		b.pdf.CellFormat(boxW, 6, k.label, "", 0, "C", false, 0, "")
	}
	b.setText(textColor)
	b.pdf.SetY(y + 28)

	rows := [][]string{
		{"Total Tasks", strconv.Itoa(snap.TotalTasks), "Tasks in the selected period"},
		{"Completed", strconv.Itoa(snap.CompletedTasks), fmt.Sprintf("%d%% completion rate", snap.CompletionRate)},
		{"In Progress", strconv.Itoa(snap.InProgressTasks), "Currently being worked on"},
		{"Overdue", strconv.Itoa(snap.OverdueTasks), "Past due and not completed"},
		{"Completion Status", analytics.CompletionStatus(snap.CompletionRate), fmt.Sprintf("%d%% of tasks done", snap.CompletionRate)},
	}
	b.table([]pdfColumn{
		{"Metric", 50, "L"},
		{"Value", 40, "C"},
		{"Details", 90, "L"},
	}, rows)
}

func (b *pdfBuilder) distributionSection(title, label string, dist []analytics.NameValue, total int) {
	b.heading(title)
	if len(dist) == 0 {
		b.notice("No data available")
		return
	}

	rows := make([][]string, len(dist))
	for i, nv := range dist {
		share := analytics.Share(nv.Value, total)
		rows[i] = []string{nv.Name, strconv.Itoa(nv.Value), fmt.Sprintf("%.1f%%", share), shareIndicator(share)}
	}
	b.table([]pdfColumn{
		{label, 60, "L"},
		{"Count", 30, "C"},
		{"Percentage", 40, "C"},
		{"Share", 50, "C"},
	}, rows)
}

func shareIndicator(share float64) string {
	switch {
	case share >= 50:
		return "High"
	case share >= 20:
		return "Moderate"
	default:
		return "Low"
	}
}

func (b *pdfBuilder) teamSection(snap analytics.Snapshot) {
	b.heading("Team Performance")
	if len(snap.TeamPerformance) == 0 {
		b.notice("No data available")
		return
	}

	rows := make([][]string, len(snap.TeamPerformance))
	for i, t := range snap.TeamPerformance {
		rows[i] = []string{
			t.Name,
			strconv.Itoa(t.Total),
			strconv.Itoa(t.Completed),
			strconv.Itoa(t.InProgress),
			strconv.Itoa(t.Overdue),
			fmt.Sprintf("%d%%", t.CompletionRate),
			analytics.TeamRating(t.CompletionRate),
		}
	}
	b.table([]pdfColumn{
		{"Team", 50, "L"},
		{"Total", 20, "C"},
		{"Done", 20, "C"},
		{"Active", 20, "C"},
		{"Overdue", 20, "C"},
		{"Rate", 25, "C"},
		{"Rating", 25, "C"},
	}, rows)

	b.heading("Tasks by Team")
	ranking := make([][]string, len(snap.TeamDistribution))
	for i, nv := range snap.TeamDistribution {
		ranking[i] = []string{
			strconv.Itoa(i + 1),
			nv.Name,
			strconv.Itoa(nv.Value),
			fmt.Sprintf("%.1f%%", analytics.Share(nv.Value, snap.TotalTasks)),
		}
	}
	b.table([]pdfColumn{
		{"Rank", 20, "C"},
		{"Team", 90, "L"},
		{"Tasks", 30, "C"},
		{"Share", 40, "C"},
	}, ranking)
}

func (b *pdfBuilder) userSection(snap analytics.Snapshot) {
	b.heading("User Performance")
	if len(snap.AssigneePerformance) == 0 {
		b.notice("No data available")
		return
	}

	rows := make([][]string, len(snap.AssigneePerformance))
	for i, a := range snap.AssigneePerformance {
		rows[i] = []string{
			a.Name,
			strconv.Itoa(a.Total),
			strconv.Itoa(a.Completed),
			strconv.Itoa(a.Pending()),
			strconv.Itoa(a.Overdue),
			fmt.Sprintf("%d%%", a.CompletionRate),
			analytics.PerformanceRating(a.CompletionRate),
		}
	}
	b.table([]pdfColumn{
		{"User", 50, "L"},
		{"Total", 18, "C"},
		{"Done", 18, "C"},
		{"Pending", 20, "C"},
		{"Overdue", 20, "C"},
		{"Rate", 18, "C"},
		{"Rating", 36, "C"},
	}, rows)
}

func (b *pdfBuilder) overdueSection(overdue []models.Task) {
	b.heading(fmt.Sprintf("Overdue Tasks (%d)", len(overdue)))
	if len(overdue) == 0 {
		b.notice("No overdue tasks")
		return
	}

	shown := overdue
	if len(shown) > MaxPDFOverdueRows {
		shown = shown[:MaxPDFOverdueRows]
	}
	rows := make([][]string, len(shown))
	for i, t := range shown {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			t.Title,
			t.Priority.Label(),
			analytics.AssigneeList(t),
			formatDue(t.DueDate),
			strconv.Itoa(analytics.DaysOverdue(t.DueDate, b.meta.GeneratedAt)),
		}
	}
	b.table([]pdfColumn{
		{"#", 10, "C"},
		{"Task", 60, "L"},
		{"Priority", 22, "C"},
		{"Assigned To", 42, "L"},
		{"Due Date", 24, "C"},
		{"Days", 22, "C"},
	}, rows)

	if extra := len(overdue) - len(shown); extra > 0 {
		b.ensureSpace(pdfLineHeight)
		b.notice(fmt.Sprintf("... and %d more overdue tasks requiring immediate attention", extra))
	}
}

func (b *pdfBuilder) taskListSection(tasks []models.Task) {
	b.heading("Detailed Task List")
	if len(tasks) == 0 {
		b.notice("No tasks in this period")
		return
	}

	shown := tasks
	if len(shown) > MaxPDFTaskRows {
		shown = shown[:MaxPDFTaskRows]
	}
	rows := make([][]string, len(shown))
	for i, t := range shown {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			t.Title,
			t.Status.Label(),
			t.Priority.Label(),
			analytics.TeamName(t),
			analytics.AssigneeList(t),
			formatDue(t.DueDate),
		}
	}
	b.table([]pdfColumn{
		{"#", 10, "C"},
		{"Title", 48, "L"},
		{"Status", 24, "C"},
		{"Priority", 20, "C"},
		{"Team", 26, "L"},
		{"Assigned To", 30, "L"},
		{"Due", 22, "C"},
	}, rows)

	if extra := len(tasks) - len(shown); extra > 0 {
		b.ensureSpace(pdfLineHeight)
		b.notice(fmt.Sprintf("... and %d more tasks (see Excel export for complete list)", extra))
	}
}
