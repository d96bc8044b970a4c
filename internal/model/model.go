package model

import (
	"fmt"
	"slices"
	"time"
)

// ClassEntry is one class (group) to be discussed, together with every
// teacher who must attend. Teachers keep first-seen order without repeats.
type ClassEntry struct {
	Code     string   `json:"code"`
	Teachers []string `json:"teachers"`
}

// ClassSet is an insertion-ordered collection of classes keyed by code.
type ClassSet struct {
	order []string
	byKey map[string]*ClassEntry
}

// NewClassSet returns an empty set.
func NewClassSet() *ClassSet {
	return &ClassSet{byKey: make(map[string]*ClassEntry)}
}

// Add registers teacher for class code, creating the class on first use.
func (s *ClassSet) Add(code, teacher string) {
	e, ok := s.byKey[code]
	if !ok {
		e = &ClassEntry{Code: code}
		s.byKey[code] = e
		s.order = append(s.order, code)
	}
	if !slices.Contains(e.Teachers, teacher) {
		e.Teachers = append(e.Teachers, teacher)
	}
}

// Get returns the class for code.
func (s *ClassSet) Get(code string) (ClassEntry, bool) {
	e, ok := s.byKey[code]
	if !ok {
		return ClassEntry{}, false
	}
	return *e, true
}

// Len returns the number of classes.
func (s *ClassSet) Len() int {
	return len(s.order)
}

// Entries returns copies of all classes in insertion order.
func (s *ClassSet) Entries() []ClassEntry {
	out := make([]ClassEntry, 0, len(s.order))
	for _, code := range s.order {
		e := s.byKey[code]
		out = append(out, ClassEntry{Code: e.Code, Teachers: slices.Clone(e.Teachers)})
	}
	return out
}

// Timeslot is a fixed-length interval on one day. Assignments maps each
// room to the class code held there; "" means the room is free.
type Timeslot struct {
	Day         time.Time         `json:"day"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	Assignments map[string]string `json:"assignments"`
}

// Assigned returns the class code in room, if any.
func (t Timeslot) Assigned(room string) (string, bool) {
	code := t.Assignments[room]
	return code, code != ""
}

// Placement records one accepted (class, slot, room) assignment.
type Placement struct {
	Code string `json:"code"`
	Slot int    `json:"slot"`
	Room string `json:"room"`
}

// Conflict reports a teacher booked more often in one slot than allowed.
type Conflict struct {
	Slot    int    `json:"slot"`
	Teacher string `json:"teacher"`
	Count   int    `json:"count"`
	Max     int    `json:"max"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("Conflict in tijdslot %d: Docent %s is %d keer ingepland (max %d)", c.Slot, c.Teacher, c.Count, c.Max)
}
