// Package closures reads an iCalendar file of days on which no student
// reviews take place (holidays, study days) so that slot generation can
// skip them.
package closures

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "bespreking/internal/log"
)

var ErrEmpty = errors.New("closures: empty calendar")

// Event is a VEVENT reduced to what is needed to find closed days.
type Event struct {
	UID     string
	Summary string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule string
	ExDates  []time.Time
}

// LoadFile parses the calendar at path. Floating and date-only values are
// interpreted in loc.
func LoadFile(path string, loc *time.Location) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("closures: %w", err)
	}
	defer f.Close()
	return Parse(f, loc)
}

// Parse parses a calendar. Events that cannot be read are logged and
// skipped; only a calendar that fails to parse as a whole is an error.
func Parse(r io.Reader, loc *time.Location) ([]Event, error) {
	if loc == nil {
		loc = time.Local
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("closures: read: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmpty
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("closures calendar parse failed", err)
		return nil, fmt.Errorf("closures: %w", err)
	}

	events := make([]Event, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve, loc)
		if perr != nil {
			appLog.Error("closures vevent skipped", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("closures calendar parsed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (Event, error) {
	var out Event

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, fmt.Errorf("event %q: missing DTSTART", out.UID)
	}
	out.AllDay = isDateValue(dtStart)

	if out.AllDay {
		start, err := parseTime(dtStart.Value, loc)
		if err != nil {
			return out, fmt.Errorf("event %q: DTSTART: %w", out.UID, err)
		}
		out.Start = start
		out.End = start.AddDate(0, 0, 1)
		if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
			if end, err := parseTime(p.Value, loc); err == nil && end.After(start) {
				out.End = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, fmt.Errorf("event %q: DTSTART: %w", out.UID, err)
		}
		out.Start = start.In(loc)
		out.End = out.Start
		if end, err := ve.GetEndAt(); err == nil && end.After(start) {
			out.End = end.In(loc)
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseTime(part, loc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

// isDateValue reports whether a DTSTART carries a date without time.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// parseTime handles the UTC, floating and date-only forms used by DTSTART,
// DTEND and EXDATE values without a TZID.
func parseTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse("20060102T150405Z", v)
		return t.In(loc), err
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
