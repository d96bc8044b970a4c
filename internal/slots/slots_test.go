package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestGenerateTilesEachDay(t *testing.T) {
	got, err := Generate(Params{
		StartDate:   date(t, "2025-03-13"),
		EndDate:     date(t, "2025-03-14"),
		StartTime:   "08:30",
		EndTime:     "10:00",
		SlotMinutes: 30,
		Location:    time.UTC,
	})
	require.NoError(t, err)
	require.Len(t, got, 6)

	assert.Equal(t, time.Date(2025, 3, 13, 8, 30, 0, 0, time.UTC), got[0].Start)
	assert.Equal(t, time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC), got[0].End)
	assert.Equal(t, time.Date(2025, 3, 13, 9, 30, 0, 0, time.UTC), got[2].Start)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), got[3].Day)
	assert.Equal(t, time.Date(2025, 3, 14, 8, 30, 0, 0, time.UTC), got[3].Start)
	for _, ts := range got {
		assert.NotNil(t, ts.Assignments)
		assert.Empty(t, ts.Assignments)
	}
}

func TestGenerateDropsOverhangingSlot(t *testing.T) {
	got, err := Generate(Params{
		StartDate:   date(t, "2025-03-13"),
		EndDate:     date(t, "2025-03-13"),
		StartTime:   "09:00",
		EndTime:     "10:00",
		SlotMinutes: 25,
		Location:    time.UTC,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2025, 3, 13, 9, 50, 0, 0, time.UTC), got[1].End)
}

func TestGenerateRangeBoundary(t *testing.T) {
	p := Params{
		StartDate:   date(t, "2025-03-01"),
		EndDate:     date(t, "2025-03-15"),
		StartTime:   "09:00",
		EndTime:     "09:30",
		SlotMinutes: 30,
		Location:    time.UTC,
	}
	got, err := Generate(p)
	require.NoError(t, err)
	assert.Len(t, got, 15)

	p.EndDate = date(t, "2025-03-16")
	_, err = Generate(p)
	assert.ErrorIs(t, err, ErrRangeTooLarge)
}

func TestGenerateNoSlots(t *testing.T) {
	base := Params{
		StartDate:   date(t, "2025-03-13"),
		EndDate:     date(t, "2025-03-13"),
		StartTime:   "10:00",
		EndTime:     "10:00",
		SlotMinutes: 30,
		Location:    time.UTC,
	}
	_, err := Generate(base)
	assert.ErrorIs(t, err, ErrNoTimeslots)

	reversed := base
	reversed.StartTime = "09:00"
	reversed.StartDate = date(t, "2025-03-14")
	_, err = Generate(reversed)
	assert.ErrorIs(t, err, ErrNoTimeslots)

	short := base
	short.StartTime = "09:50"
	_, err = Generate(short)
	assert.ErrorIs(t, err, ErrNoTimeslots)
}

func TestGenerateInvalidParams(t *testing.T) {
	p := Params{
		StartDate:   date(t, "2025-03-13"),
		EndDate:     date(t, "2025-03-13"),
		StartTime:   "9h",
		EndTime:     "10:00",
		SlotMinutes: 30,
	}
	_, err := Generate(p)
	assert.ErrorIs(t, err, ErrInvalidParams)

	p.StartTime = "09:00"
	p.SlotMinutes = 0
	_, err = Generate(p)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestGenerateAcrossDST(t *testing.T) {
	ams, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Skip("tzdata not available")
	}
	start, err := ParseDate("2025-03-29", ams)
	require.NoError(t, err)
	end, err := ParseDate("2025-03-31", ams)
	require.NoError(t, err)

	got, err := Generate(Params{StartDate: start, EndDate: end, StartTime: "08:00", EndTime: "09:00", SlotMinutes: 60, Location: ams})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, ts := range got {
		assert.Equal(t, 8, ts.Start.Hour())
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock(" 08:05 ")
	require.NoError(t, err)
	assert.Equal(t, 8, h)
	assert.Equal(t, 5, m)

	for _, bad := range []string{"", "8", "24:00", "12:60", "ab:cd"} {
		_, _, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidParams, bad)
	}
}

func TestCheckRange(t *testing.T) {
	assert.NoError(t, CheckRange(date(t, "2025-12-25"), date(t, "2026-01-08")))
	assert.ErrorIs(t, CheckRange(date(t, "2025-12-25"), date(t, "2026-01-09")), ErrRangeTooLarge)
	assert.Equal(t, -1, DaysBetween(date(t, "2025-03-02"), date(t, "2025-03-01")))
}

type closedSet map[string]string

func (c closedSet) Closed(day time.Time) (string, bool) {
	r, ok := c[day.Format(DateLayout)]
	return r, ok
}

func TestGenerateSkipsClosedDays(t *testing.T) {
	got, err := Generate(Params{
		StartDate:   date(t, "2025-03-13"),
		EndDate:     date(t, "2025-03-15"),
		StartTime:   "09:00",
		EndTime:     "10:00",
		SlotMinutes: 60,
		Location:    time.UTC,
		Closed:      closedSet{"2025-03-14": "Studiedag"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 13, got[0].Day.Day())
	assert.Equal(t, 15, got[1].Day.Day())

	_, err = Generate(Params{
		StartDate:   date(t, "2025-03-14"),
		EndDate:     date(t, "2025-03-14"),
		StartTime:   "09:00",
		EndTime:     "10:00",
		SlotMinutes: 60,
		Location:    time.UTC,
		Closed:      closedSet{"2025-03-14": "Studiedag"},
	})
	assert.ErrorIs(t, err, ErrNoTimeslots)
}
