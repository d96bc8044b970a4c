package render

import (
	"fmt"
	"strings"

	ical "github.com/arran4/golang-ical"

	"bespreking/internal/plan"
)

const productID = "-//bespreking//leerlingbespreking//NL"

// ICS exports every assignment in res as a VEVENT: the class code is the
// summary, the room the location and the teachers the description.
func ICS(res *plan.Result) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName("Leerlingbespreking")

	for _, p := range res.Placements {
		ts := res.Timeslots[p.Slot]
		ev := cal.AddEvent(fmt.Sprintf("%s-%d-%s@bespreking", res.ID, p.Slot, uidSafe(p.Room)))
		ev.SetDtStampTime(res.CreatedAt)
		ev.SetStartAt(ts.Start)
		ev.SetEndAt(ts.End)
		ev.SetSummary(p.Code)
		ev.SetLocation(p.Room)
		if class, ok := res.Classes.Get(p.Code); ok {
			ev.SetDescription("Docenten: " + strings.Join(class.Teachers, ", "))
		}
	}

	return []byte(cal.Serialize())
}

func uidSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '@' {
			return '_'
		}
		return r
	}, s)
}
