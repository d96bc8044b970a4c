package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bespreking/internal/closures"
	"bespreking/internal/config"
	appLog "bespreking/internal/log"
	"bespreking/internal/model"
	"bespreking/internal/roster"
	"bespreking/internal/scheduler"
	"bespreking/internal/slots"
)

var ErrNegativeOverlap = errors.New("plan: max overlap must not be negative")

// Request bundles everything one scheduling run needs.
type Request struct {
	Sheet      *roster.Sheet
	Columns    config.ColumnsConfig
	Mapping    config.ClusterMapping
	Rooms      []string
	Slots      slots.Params
	MaxOverlap int

	// Closures lists the days Slots skips, for reporting. Optional.
	Closures *closures.Calendar

	// Debug fills Result.Trace with a step-by-step account of the run.
	Debug bool
}

// Result is the outcome of a successful run.
type Result struct {
	ID          string
	CreatedAt   time.Time
	Classes     *model.ClassSet
	Rooms       []string
	MaxOverlap  int
	Timeslots   []model.Timeslot
	Placements  []model.Placement
	Unscheduled []string
	Conflicts   []model.Conflict
	ClosedDays  []closures.Day
	Trace       []string
}

// Run validates the request, expands rows into classes, generates
// timeslots, schedules and checks for conflicts. Any error aborts the
// whole run; unscheduled classes and conflicts are not errors.
func Run(req Request) (*Result, error) {
	if req.MaxOverlap < 0 {
		return nil, ErrNegativeOverlap
	}
	if err := slots.CheckRange(req.Slots.StartDate, req.Slots.EndDate); err != nil {
		return nil, err
	}

	res := &Result{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		Rooms:      req.Rooms,
		MaxOverlap: req.MaxOverlap,
	}
	tr := &tracer{enabled: req.Debug, runID: res.ID}

	classes, err := roster.Expand(req.Sheet, req.Columns, req.Mapping)
	if err != nil {
		return nil, fmt.Errorf("process rows: %w", err)
	}
	tr.add("Spreadsheet read, rows: %d", len(req.Sheet.Rows))
	res.Classes = classes

	timeslots, err := slots.Generate(req.Slots)
	if err != nil {
		return nil, fmt.Errorf("generate timeslots: %w", err)
	}
	res.ClosedDays = req.Closures.Days()
	for _, d := range res.ClosedDays {
		tr.add("Day %s skipped: %s", d.Date.Format(slots.DateLayout), d.Reason)
	}
	tr.add("Timeslots generated: %d", len(timeslots))

	out := scheduler.Schedule(classes.Entries(), timeslots, req.Rooms, req.MaxOverlap)
	for _, p := range out.Placements {
		tr.add("Class %s scheduled in timeslot %d in room %s", p.Code, p.Slot, p.Room)
	}
	for _, code := range out.Unscheduled {
		tr.add("Could not schedule class %s", code)
	}

	res.Timeslots = out.Timeslots
	res.Placements = out.Placements
	res.Unscheduled = out.Unscheduled
	res.Conflicts = scheduler.CheckConflicts(out.Timeslots, classes, req.Rooms, req.MaxOverlap)
	for _, c := range res.Conflicts {
		tr.add("Conflict found: teacher %s in timeslot %d", c.Teacher, c.Slot)
	}
	res.Trace = tr.lines

	appLog.Info("schedule generated",
		"run_id", res.ID,
		"classes", classes.Len(),
		"rooms", len(req.Rooms),
		"timeslots", len(timeslots),
		"scheduled", len(out.Placements),
		"unscheduled", len(out.Unscheduled),
		"conflicts", len(res.Conflicts),
	)
	return res, nil
}

type tracer struct {
	enabled bool
	runID   string
	lines   []string
}

func (t *tracer) add(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	appLog.Debug(line, "run_id", t.runID)
	if t.enabled {
		t.lines = append(t.lines, line)
	}
}
