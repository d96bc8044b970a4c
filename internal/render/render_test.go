package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bespreking/internal/closures"
	"bespreking/internal/model"
	"bespreking/internal/plan"
)

func slot(day, hour, min int, assignments map[string]string) model.Timeslot {
	start := time.Date(2025, 3, day, hour, min, 0, 0, time.UTC)
	return model.Timeslot{
		Day:         time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC),
		Start:       start,
		End:         start.Add(30 * time.Minute),
		Assignments: assignments,
	}
}

func sampleResult() *plan.Result {
	classes := model.NewClassSet()
	classes.Add("A3HA", "Jansen")
	classes.Add("A3HA", "Bakker")
	classes.Add("V4A", "Smit")
	classes.Add("H2B", "Smit")

	return &plan.Result{
		ID:        "run-1",
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Classes:   classes,
		Rooms:     []string{"R1", "R2"},
		Timeslots: []model.Timeslot{
			// Out of order on purpose: days and rows must be sorted.
			slot(14, 8, 30, map[string]string{"R1": "", "R2": ""}),
			slot(13, 9, 0, map[string]string{"R1": "V4A", "R2": ""}),
			slot(13, 8, 30, map[string]string{"R1": "A3HA", "R2": "H2B"}),
		},
		Placements: []model.Placement{
			{Code: "A3HA", Slot: 2, Room: "R1"},
			{Code: "H2B", Slot: 2, Room: "R2"},
			{Code: "V4A", Slot: 1, Room: "R1"},
		},
		Unscheduled: []string{"B1C", "B1D"},
		Conflicts:   []model.Conflict{{Slot: 2, Teacher: "Smit", Count: 2, Max: 1}},
	}
}

func TestDaysSortedAscending(t *testing.T) {
	res := sampleResult()
	days := Days(res.Timeslots, res.Rooms)

	require.Len(t, days, 2)
	assert.Equal(t, "13/03/2025", days[0].Label)
	assert.Equal(t, "14/03/2025", days[1].Label)
	require.Len(t, days[0].Rows, 2)
	assert.Equal(t, "08:30-09:00", days[0].Rows[0].Time)
	assert.Equal(t, []string{"A3HA", "H2B"}, days[0].Rows[0].Cells)
	assert.Equal(t, []string{"V4A", ""}, days[0].Rows[1].Cells)
	assert.Equal(t, 1, days[0].Rows[1].Slot)
}

func TestHTMLPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, sampleResult(), "Rooster"))

	out := buf.String()
	assert.Contains(t, out, "<h3>Dag: 13/03/2025</h3>")
	assert.Contains(t, out, "<th>Tijdslot</th><th>R1</th><th>R2</th>")
	assert.Contains(t, out, "<tr><td>08:30-09:00</td><td>A3HA</td><td>H2B</td></tr>")
	assert.Contains(t, out, "<tr><td>08:30-09:00</td><td></td><td></td></tr>")
	assert.Contains(t, out, "Niet ingeplande klassen:</strong> B1C, B1D")
	assert.Contains(t, out, "<li>Conflict in tijdslot 2: Docent Smit is 2 keer ingepland (max 1)</li>")
	assert.Contains(t, out, `data-ready="true"`)
	assert.NotContains(t, out, "DEBUG INFO")
	assert.Less(t, strings.Index(out, "13/03/2025"), strings.Index(out, "14/03/2025"))
}

func TestFragmentEscapesAndTraces(t *testing.T) {
	res := sampleResult()
	res.Rooms = []string{"<R1>", "R2"}
	res.Trace = []string{"Timeslots generated: 3"}

	var buf bytes.Buffer
	require.NoError(t, Fragment(&buf, res))

	out := buf.String()
	assert.Contains(t, out, "&lt;R1&gt;")
	assert.Contains(t, out, "DEBUG INFO:\nTimeslots generated: 3")
	assert.NotContains(t, out, "<html")
}

func TestText(t *testing.T) {
	out := Text(sampleResult())

	assert.Contains(t, out, "Dag: 13/03/2025")
	assert.Contains(t, out, "Tijdslot")
	assert.Contains(t, out, "A3HA")
	assert.Contains(t, out, "B1C, B1D")
	assert.Contains(t, out, "Docent Smit is 2 keer ingepland")
}

func TestICS(t *testing.T) {
	data := ICS(sampleResult())

	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 3)

	first := events[0]
	assert.Equal(t, "A3HA", first.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "R1", first.GetProperty(ical.ComponentPropertyLocation).Value)
	assert.Contains(t, first.GetProperty(ical.ComponentPropertyDescription).Value, "Jansen")

	start, err := first.GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2025, 3, 13, 8, 30, 0, 0, time.UTC)))
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(sampleResult())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Rooster", "Niet ingepland"}, f.GetSheetList())

	rows, err := f.GetRows("Rooster")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Datum", "Tijdslot", "R1", "R2"}, rows[0])
	assert.Equal(t, []string{"13/03/2025", "08:30-09:00", "A3HA", "H2B"}, rows[1])
	assert.Equal(t, []string{"13/03/2025", "09:00-09:30", "V4A"}, rows[2])
	assert.Equal(t, []string{"14/03/2025", "08:30-09:00"}, rows[3])

	missing, err := f.GetRows("Niet ingepland")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Klas"}, {"B1C"}, {"B1D"}}, missing)
}

func TestClosedDaysListed(t *testing.T) {
	res := sampleResult()
	res.ClosedDays = []closures.Day{{Date: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), Reason: "Studiedag"}}

	var buf bytes.Buffer
	require.NoError(t, Fragment(&buf, res))
	assert.Contains(t, buf.String(), "Overgeslagen dagen:")
	assert.Contains(t, buf.String(), "15/03/2025 (Studiedag)")

	assert.Contains(t, Text(res), "15/03/2025 (Studiedag)")
}
