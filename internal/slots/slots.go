package slots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "bespreking/internal/log"
	"bespreking/internal/model"
)

// MaxRangeDays is the largest allowed difference between start and end date.
const MaxRangeDays = 14

const DateLayout = "2006-01-02"

var (
	ErrRangeTooLarge = errors.New("slots: date range exceeds 14 days")
	ErrInvalidParams = errors.New("slots: invalid parameters")
	ErrNoTimeslots   = errors.New("slots: no timeslots generated")
)

// Params describes the tiling of a date range into timeslots.
type Params struct {
	// StartDate / EndDate are calendar dates; their time of day is ignored.
	StartDate time.Time
	EndDate   time.Time

	// StartTime / EndTime are "HH:MM" times of day.
	StartTime string
	EndTime   string

	SlotMinutes int

	// Location is the zone slots are generated in. If nil, time.Local is used.
	Location *time.Location

	// Closed, if set, marks days that get no timeslots.
	Closed DayFilter
}

// DayFilter reports whether no meetings take place on a day.
type DayFilter interface {
	Closed(day time.Time) (reason string, ok bool)
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidParams, s)
	}
	return t, nil
}

// ParseClock parses "HH:MM" into hours and minutes.
func ParseClock(s string) (int, int, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: time %q", ErrInvalidParams, s)
	}
	h, herr := strconv.Atoi(hs)
	m, merr := strconv.Atoi(ms)
	if herr != nil || merr != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("%w: time %q", ErrInvalidParams, s)
	}
	return h, m, nil
}

// DaysBetween returns the number of calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

// CheckRange rejects ranges whose end lies more than MaxRangeDays after start.
func CheckRange(start, end time.Time) error {
	if d := DaysBetween(start, end); d > MaxRangeDays {
		return fmt.Errorf("%w (%d days)", ErrRangeTooLarge, d)
	}
	return nil
}

// Generate tiles every day from StartDate to EndDate (inclusive) with
// SlotMinutes-long slots between StartTime and EndTime. A slot that would
// end after EndTime is dropped. Every room of every slot starts free.
func Generate(p Params) ([]model.Timeslot, error) {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	if p.SlotMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot duration %d", ErrInvalidParams, p.SlotMinutes)
	}
	sh, sm, err := ParseClock(p.StartTime)
	if err != nil {
		return nil, err
	}
	eh, em, err := ParseClock(p.EndTime)
	if err != nil {
		return nil, err
	}
	if err := CheckRange(p.StartDate, p.EndDate); err != nil {
		return nil, err
	}

	days, err := dayRange(p.StartDate, p.EndDate, loc)
	if err != nil {
		return nil, err
	}

	slotLen := time.Duration(p.SlotMinutes) * time.Minute
	timeslots := make([]model.Timeslot, 0)
	skipped := 0
	for _, day := range days {
		if p.Closed != nil {
			if _, closed := p.Closed.Closed(day); closed {
				skipped++
				continue
			}
		}
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
		dayEnd := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc)

		for cur := dayStart; cur.Before(dayEnd); {
			end := cur.Add(slotLen)
			if end.After(dayEnd) {
				break
			}
			timeslots = append(timeslots, model.Timeslot{
				Day:         day,
				Start:       cur,
				End:         end,
				Assignments: map[string]string{},
			})
			cur = end
		}
	}

	appLog.Debug("timeslots generated", "days", len(days), "closed_days", skipped, "slots", len(timeslots))
	if len(timeslots) == 0 {
		return nil, ErrNoTimeslots
	}
	return timeslots, nil
}

// dayRange lists local midnights from start to end inclusive using a DAILY
// recurrence, so DST transitions keep each day anchored at 00:00.
func dayRange(start, end time.Time, loc *time.Location) ([]time.Time, error) {
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	if last.Before(first) {
		return nil, nil
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: first,
		Until:   last,
	})
	if err != nil {
		return nil, fmt.Errorf("slots: build day recurrence: %w", err)
	}
	return r.All(), nil
}
