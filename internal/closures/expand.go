package closures

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "bespreking/internal/log"
)

const maxOccurrencesPerEvent = 5000

const dayKeyLayout = "2006-01-02"

// Day is one closed calendar day.
type Day struct {
	Date   time.Time
	Reason string
}

// Calendar is the set of closed days within an expanded window.
type Calendar struct {
	loc  *time.Location
	days map[string]Day
}

// Expand computes the closed days between from and to (inclusive calendar
// dates) in loc. An event closes every day it overlaps. Recurring events
// are expanded with their RRULE minus EXDATEs.
func Expand(events []Event, from, to time.Time, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	c := &Calendar{loc: loc, days: make(map[string]Day)}

	winStart := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	winEnd := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	if !winEnd.After(winStart) {
		return c
	}

	for _, ev := range events {
		dur := ev.End.Sub(ev.Start)
		for _, start := range occurrences(ev, winStart.Add(-dur), winEnd) {
			c.mark(start, start.Add(dur), winStart, winEnd, ev.Summary)
		}
	}
	return c
}

// occurrences returns the start times of ev that may overlap the window.
func occurrences(ev Event, from, to time.Time) []time.Time {
	if ev.RawRRule == "" {
		return []time.Time{ev.Start}
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("closures: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	starts := set.Between(from, to, true)
	if len(starts) > maxOccurrencesPerEvent {
		appLog.Warn("closures: occurrences truncated", "uid", ev.UID, "cap", maxOccurrencesPerEvent)
		starts = starts[:maxOccurrencesPerEvent]
	}
	return starts
}

// mark closes every day in [start, end) that lies inside the window. A
// zero-length event still closes the day it starts on.
func (c *Calendar) mark(start, end, winStart, winEnd time.Time, reason string) {
	start, end = start.In(c.loc), end.In(c.loc)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, c.loc)
	for {
		if !day.Before(winEnd) {
			return
		}
		if !day.Before(winStart) {
			key := day.Format(dayKeyLayout)
			if _, ok := c.days[key]; !ok {
				c.days[key] = Day{Date: day, Reason: reason}
			}
		}
		day = day.AddDate(0, 0, 1)
		if !day.Before(end) {
			return
		}
	}
}

// Closed reports whether day is closed and the summary of the first event
// that closed it.
func (c *Calendar) Closed(day time.Time) (string, bool) {
	if c == nil {
		return "", false
	}
	d, ok := c.days[day.In(c.loc).Format(dayKeyLayout)]
	return d.Reason, ok
}

// Days returns the closed days in date order.
func (c *Calendar) Days() []Day {
	if c == nil {
		return nil
	}
	out := make([]Day, 0, len(c.days))
	for _, d := range c.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Len is the number of closed days.
func (c *Calendar) Len() int {
	if c == nil {
		return 0
	}
	return len(c.days)
}
