package web

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bespreking/internal/capture"
	appLog "bespreking/internal/log"
	"bespreking/internal/plan"
	"bespreking/internal/render"
)

// runResponse is the JSON response shape for a scheduling run.
type runResponse struct {
	ID          string        `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	Rooms       []string      `json:"rooms"`
	MaxOverlap  int           `json:"max_overlap"`
	Days        []dayDTO      `json:"days"`
	ClosedDays  []closedDTO   `json:"closed_days,omitempty"`
	Unscheduled []string      `json:"unscheduled"`
	Conflicts   []conflictDTO `json:"conflicts"`
	Trace       []string      `json:"trace,omitempty"`
}

type dayDTO struct {
	Date  string   `json:"date"`
	Slots []rowDTO `json:"slots"`
}

type rowDTO struct {
	Index int       `json:"index"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// Rooms maps room name to class code; free rooms are omitted.
	Rooms map[string]string `json:"rooms"`
}

type closedDTO struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type conflictDTO struct {
	Slot    int    `json:"slot"`
	Teacher string `json:"teacher"`
	Count   int    `json:"count"`
	Max     int    `json:"max"`
	Message string `json:"message"`
}

type runSummary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Scheduled   int       `json:"scheduled"`
	Unscheduled int       `json:"unscheduled"`
	Conflicts   int       `json:"conflicts"`
}

func newRunResponse(res *plan.Result) runResponse {
	days := render.Days(res.Timeslots, res.Rooms)
	out := runResponse{
		ID:          res.ID,
		CreatedAt:   res.CreatedAt,
		Rooms:       res.Rooms,
		MaxOverlap:  res.MaxOverlap,
		Days:        make([]dayDTO, 0, len(days)),
		Unscheduled: res.Unscheduled,
		Conflicts:   make([]conflictDTO, 0, len(res.Conflicts)),
		Trace:       res.Trace,
	}
	for _, d := range days {
		dd := dayDTO{Date: d.Date.Format("2006-01-02"), Slots: make([]rowDTO, 0, len(d.Rows))}
		for _, row := range d.Rows {
			rooms := make(map[string]string)
			for i, code := range row.Cells {
				if code != "" {
					rooms[res.Rooms[i]] = code
				}
			}
			dd.Slots = append(dd.Slots, rowDTO{Index: row.Slot, Start: row.Start, End: row.End, Rooms: rooms})
		}
		out.Days = append(out.Days, dd)
	}
	for _, d := range res.ClosedDays {
		out.ClosedDays = append(out.ClosedDays, closedDTO{Date: d.Date.Format("2006-01-02"), Reason: d.Reason})
	}
	for _, c := range res.Conflicts {
		out.Conflicts = append(out.Conflicts, conflictDTO{
			Slot:    c.Slot,
			Teacher: c.Teacher,
			Count:   c.Count,
			Max:     c.Max,
			Message: c.String(),
		})
	}
	return out
}

// runOr404 resolves the {id} URL parameter.
func (s *Server) runOr404(w http.ResponseWriter, r *http.Request) (*plan.Result, bool) {
	res, ok := s.lookupRun(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	return res, true
}

func (s *Server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	s.runsMu.RLock()
	out := make([]runSummary, 0, len(s.runOrder))
	for i := len(s.runOrder) - 1; i >= 0; i-- {
		res := s.runs[s.runOrder[i]]
		out = append(out, runSummary{
			ID:          res.ID,
			CreatedAt:   res.CreatedAt,
			Scheduled:   len(res.Placements),
			Unscheduled: len(res.Unscheduled),
			Conflicts:   len(res.Conflicts),
		})
	}
	s.runsMu.RUnlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runOr404(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(res))
}

func (s *Server) runPage(res *plan.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := render.HTML(&buf, res, "Leerlingbespreking"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) handleRunHTML(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runOr404(w, r)
	if !ok {
		return
	}
	page, err := s.runPage(res)
	if err != nil {
		appLog.Error("render run page failed", err, "run_id", res.ID)
		writeError(w, http.StatusInternalServerError, "failed to render schedule")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleRunICS(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runOr404(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leerlingbespreking.ics"`)
	_, _ = w.Write(render.ICS(res))
}

func (s *Server) handleRunXLSX(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runOr404(w, r)
	if !ok {
		return
	}
	data, err := render.XLSX(res)
	if err != nil {
		appLog.Error("render run workbook failed", err, "run_id", res.ID)
		writeError(w, http.StatusInternalServerError, "failed to render schedule")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="leerlingbespreking.xlsx"`)
	_, _ = w.Write(data)
}

// handleRunPreview renders the run page in headless Chromium and returns
// the screenshot.
func (s *Server) handleRunPreview(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runOr404(w, r)
	if !ok {
		return
	}
	page, err := s.runPage(res)
	if err != nil {
		appLog.Error("render run page failed", err, "run_id", res.ID)
		writeError(w, http.StatusInternalServerError, "failed to render schedule")
		return
	}
	png, err := s.capturePNG(r.Context(), capture.Options{HTML: page})
	if err != nil {
		appLog.Error("preview capture failed", err, "run_id", res.ID)
		writeError(w, http.StatusServiceUnavailable, "preview not available")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
