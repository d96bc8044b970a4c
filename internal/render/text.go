package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"bespreking/internal/plan"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Text renders res for a terminal: one table per day, followed by the
// unscheduled classes and any conflicts.
func Text(res *plan.Result) string {
	var b strings.Builder

	for _, day := range Days(res.Timeslots, res.Rooms) {
		rows := make([][]string, 0, len(day.Rows))
		for _, r := range day.Rows {
			rows = append(rows, append([]string{r.Time}, r.Cells...))
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderHeader(true).
			BorderRow(false).
			Headers(append([]string{"Tijdslot"}, res.Rooms...)...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})

		b.WriteString(headingStyle.Render("Dag: " + day.Label))
		b.WriteString("\n")
		b.WriteString(t.String())
		b.WriteString("\n\n")
	}

	if closed := closedLabels(res); len(closed) > 0 {
		b.WriteString(headingStyle.Render("Overgeslagen dagen:"))
		b.WriteString(" " + strings.Join(closed, ", ") + "\n")
	}
	if len(res.Unscheduled) > 0 {
		b.WriteString(headingStyle.Render("Niet ingeplande klassen:"))
		b.WriteString(" " + strings.Join(res.Unscheduled, ", ") + "\n")
	}
	if len(res.Conflicts) > 0 {
		b.WriteString(warnStyle.Render("Waarschuwing: Conflicten gevonden!"))
		b.WriteString("\n")
		for _, c := range res.Conflicts {
			b.WriteString("  - " + c.String() + "\n")
		}
	}
	return b.String()
}
