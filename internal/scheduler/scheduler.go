// Package scheduler assigns classes to (timeslot, room) pairs with a
// single greedy first-fit pass and checks the result for teachers booked
// more often per slot than the overlap cap allows.
package scheduler

import (
	"slices"
	"strings"

	"bespreking/internal/model"
)

// Outcome is the result of one greedy pass. Timeslots is the same slice
// that was passed in, with assignments filled.
type Outcome struct {
	Timeslots   []model.Timeslot
	Unscheduled []string
	Placements  []model.Placement
}

// ParseRooms splits a comma separated room list, trimming names and
// dropping empty and repeated entries.
func ParseRooms(s string) []string {
	rooms := make([]string, 0)
	for _, r := range strings.Split(s, ",") {
		r = strings.TrimSpace(r)
		if r == "" || slices.Contains(rooms, r) {
			continue
		}
		rooms = append(rooms, r)
	}
	return rooms
}

// Schedule places every class in the first timeslot whose first free room
// it may use. Classes with more teachers go first; equal counts keep input
// order.
//
// Only the first free room of a slot is considered. If any teacher of the
// class is already at maxOverlap+1 uses in that slot, the slot is skipped
// entirely and the scan moves to the next slot.
func Schedule(classes []model.ClassEntry, timeslots []model.Timeslot, rooms []string, maxOverlap int) Outcome {
	out := Outcome{
		Timeslots:   timeslots,
		Unscheduled: make([]string, 0),
		Placements:  make([]model.Placement, 0),
	}

	usage := make([]map[string]int, len(timeslots))
	for i := range timeslots {
		usage[i] = make(map[string]int)
		timeslots[i].Assignments = make(map[string]string, len(rooms))
		for _, room := range rooms {
			timeslots[i].Assignments[room] = ""
		}
	}

	order := slices.Clone(classes)
	slices.SortStableFunc(order, func(a, b model.ClassEntry) int {
		return len(b.Teachers) - len(a.Teachers)
	})

	limit := maxOverlap + 1
	for _, class := range order {
		placed := false
		for i := range timeslots {
			room, ok := firstFreeRoom(timeslots[i], rooms)
			if !ok {
				continue
			}
			if overCap(usage[i], class.Teachers, limit) {
				continue
			}

			timeslots[i].Assignments[room] = class.Code
			for _, teacher := range class.Teachers {
				usage[i][teacher]++
			}
			out.Placements = append(out.Placements, model.Placement{Code: class.Code, Slot: i, Room: room})
			placed = true
			break
		}
		if !placed {
			out.Unscheduled = append(out.Unscheduled, class.Code)
		}
	}

	return out
}

func firstFreeRoom(ts model.Timeslot, rooms []string) (string, bool) {
	for _, room := range rooms {
		if ts.Assignments[room] == "" {
			return room, true
		}
	}
	return "", false
}

func overCap(usage map[string]int, teachers []string, limit int) bool {
	for _, teacher := range teachers {
		if usage[teacher] >= limit {
			return true
		}
	}
	return false
}

// CheckConflicts recounts every slot from its assignments and reports each
// teacher who appears more than maxOverlap+1 times. Rooms are visited in the
// given order and teachers are reported in first-seen order.
func CheckConflicts(timeslots []model.Timeslot, classes *model.ClassSet, rooms []string, maxOverlap int) []model.Conflict {
	conflicts := make([]model.Conflict, 0)
	limit := maxOverlap + 1

	for i, ts := range timeslots {
		counts := make(map[string]int)
		seen := make([]string, 0)
		for _, room := range rooms {
			code, ok := ts.Assigned(room)
			if !ok {
				continue
			}
			class, ok := classes.Get(code)
			if !ok {
				continue
			}
			for _, teacher := range class.Teachers {
				if counts[teacher] == 0 {
					seen = append(seen, teacher)
				}
				counts[teacher]++
			}
		}
		for _, teacher := range seen {
			if counts[teacher] > limit {
				conflicts = append(conflicts, model.Conflict{
					Slot:    i,
					Teacher: teacher,
					Count:   counts[teacher],
					Max:     limit,
				})
			}
		}
	}

	return conflicts
}
