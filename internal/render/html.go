package render

import (
	"embed"
	"html/template"
	"io"
	"sort"
	"strings"
	"time"

	"bespreking/internal/model"
	"bespreking/internal/plan"
)

const (
	// DateLayout is the Dutch day-month-year notation used in headings.
	DateLayout  = "02/01/2006"
	ClockLayout = "15:04"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"join": strings.Join,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Day is one rendered day of the schedule.
type Day struct {
	Date  time.Time
	Label string
	Rows  []Row
}

// Row is one timeslot: its time range and the class per room ("" when free).
type Row struct {
	Slot  int
	Start time.Time
	End   time.Time
	Time  string
	Cells []string
}

// View is the template data for a schedule.
type View struct {
	Title       string
	Rooms       []string
	Days        []Day
	Closed      []string
	Unscheduled []string
	Conflicts   []string
	Trace       []string
}

// Days groups timeslots by day in ascending order with rows sorted by
// start time.
func Days(timeslots []model.Timeslot, rooms []string) []Day {
	byDay := make(map[int64]*Day)
	keys := make([]int64, 0)
	for i, ts := range timeslots {
		key := ts.Day.Unix()
		d, ok := byDay[key]
		if !ok {
			d = &Day{Date: ts.Day, Label: ts.Day.Format(DateLayout)}
			byDay[key] = d
			keys = append(keys, key)
		}
		cells := make([]string, len(rooms))
		for j, room := range rooms {
			cells[j] = ts.Assignments[room]
		}
		d.Rows = append(d.Rows, Row{
			Slot:  i,
			Start: ts.Start,
			End:   ts.End,
			Time:  ts.Start.Format(ClockLayout) + "-" + ts.End.Format(ClockLayout),
			Cells: cells,
		})
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })

	out := make([]Day, 0, len(keys))
	for _, k := range keys {
		d := byDay[k]
		sort.SliceStable(d.Rows, func(a, b int) bool { return d.Rows[a].Start.Before(d.Rows[b].Start) })
		out = append(out, *d)
	}
	return out
}

// NewView builds template data for res.
func NewView(res *plan.Result, title string) View {
	conflicts := make([]string, 0, len(res.Conflicts))
	for _, c := range res.Conflicts {
		conflicts = append(conflicts, c.String())
	}
	return View{
		Title:       title,
		Rooms:       res.Rooms,
		Days:        Days(res.Timeslots, res.Rooms),
		Closed:      closedLabels(res),
		Unscheduled: res.Unscheduled,
		Conflicts:   conflicts,
		Trace:       res.Trace,
	}
}

// closedLabels formats skipped days as "14/03/2025 (Studiedag)".
func closedLabels(res *plan.Result) []string {
	out := make([]string, 0, len(res.ClosedDays))
	for _, d := range res.ClosedDays {
		label := d.Date.Format(DateLayout)
		if d.Reason != "" {
			label += " (" + d.Reason + ")"
		}
		out = append(out, label)
	}
	return out
}

// HTML writes a standalone HTML page for res.
func HTML(w io.Writer, res *plan.Result, title string) error {
	return templates.ExecuteTemplate(w, "page", NewView(res, title))
}

// Fragment writes only the schedule tables, unscheduled list and conflicts.
func Fragment(w io.Writer, res *plan.Result) error {
	return templates.ExecuteTemplate(w, "schedule", NewView(res, ""))
}
