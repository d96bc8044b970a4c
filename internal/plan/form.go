package plan

import (
	"bespreking/internal/closures"
	"bespreking/internal/config"
	"bespreking/internal/roster"
	"bespreking/internal/scheduler"
	"bespreking/internal/slots"
)

// Form holds scheduling parameters as entered by a user, before parsing.
type Form struct {
	Rooms       string
	From        string
	To          string
	StartTime   string
	EndTime     string
	SlotMinutes int
	MaxOverlap  int
	Debug       bool

	// ClosuresFile overrides Config.ClosuresFile when set.
	ClosuresFile string
}

// DefaultForm pre-fills a Form from the configured defaults.
func DefaultForm(d config.DefaultsConfig) Form {
	return Form{
		Rooms:       d.Rooms,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		SlotMinutes: d.SlotMinutes,
		MaxOverlap:  d.MaxOverlap,
	}
}

// NewRequest parses f against cfg and returns a Request for sheet. The
// cluster mapping is copied so later edits do not affect the run.
func NewRequest(cfg *config.Config, sheet *roster.Sheet, f Form) (Request, error) {
	loc := cfg.Location()
	start, err := slots.ParseDate(f.From, loc)
	if err != nil {
		return Request{}, err
	}
	end, err := slots.ParseDate(f.To, loc)
	if err != nil {
		return Request{}, err
	}

	params := slots.Params{
		StartDate:   start,
		EndDate:     end,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
		SlotMinutes: f.SlotMinutes,
		Location:    loc,
	}

	var cal *closures.Calendar
	path := f.ClosuresFile
	if path == "" {
		path = cfg.ClosuresFile
	}
	if path != "" {
		events, err := closures.LoadFile(path, loc)
		if err != nil {
			return Request{}, err
		}
		cal = closures.Expand(events, start, end, loc)
		params.Closed = cal
	}

	return Request{
		Sheet:      sheet,
		Columns:    cfg.Columns,
		Mapping:    cfg.Clusters.Clone(),
		Rooms:      scheduler.ParseRooms(f.Rooms),
		Slots:      params,
		Closures:   cal,
		MaxOverlap: f.MaxOverlap,
		Debug:      f.Debug,
	}, nil
}
