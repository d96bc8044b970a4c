package web

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"bespreking/internal/config"
	appLog "bespreking/internal/log"
	"bespreking/internal/plan"
	"bespreking/internal/render"
	"bespreking/internal/roster"
	"bespreking/internal/slots"
)

var errNoFile = errors.New("web: no spreadsheet uploaded")

// userMessage maps a run error to the generic message shown to users.
func userMessage(err error) string {
	switch {
	case errors.Is(err, errNoFile):
		return "Selecteer eerst een Excel-bestand."
	case errors.Is(err, slots.ErrRangeTooLarge):
		return "De geselecteerde datumrange is te groot (meer dan 14 dagen). Pas de datums aan."
	case errors.Is(err, slots.ErrNoTimeslots):
		return "Geen tijdslots gegenereerd. Controleer de datum- en tijdinstellingen."
	case errors.Is(err, slots.ErrInvalidParams), errors.Is(err, plan.ErrNegativeOverlap):
		return "Ongeldige instellingen. Controleer de invoer."
	default:
		return "Fout bij verwerken van Excel-bestand."
	}
}

// formFromRequest reads scheduling parameters, falling back to the
// configured defaults for empty fields.
func formFromRequest(r *http.Request, d config.DefaultsConfig) plan.Form {
	f := plan.DefaultForm(d)
	if v := strings.TrimSpace(r.FormValue("rooms")); v != "" {
		f.Rooms = v
	}
	f.From = r.FormValue("from")
	f.To = r.FormValue("to")
	if v := r.FormValue("start_time"); v != "" {
		f.StartTime = v
	}
	if v := r.FormValue("end_time"); v != "" {
		f.EndTime = v
	}
	f.SlotMinutes = parseIntDefault(r.FormValue("slot_minutes"), f.SlotMinutes)
	f.MaxOverlap = parseIntDefault(r.FormValue("max_overlap"), f.MaxOverlap)
	switch strings.ToLower(r.FormValue("debug")) {
	case "on", "true", "1":
		f.Debug = true
	}
	return f
}

// runFromRequest parses the multipart upload and runs the scheduler.
func (s *Server) runFromRequest(r *http.Request) (*plan.Result, plan.Form, error) {
	s.cfgMu.RLock()
	defaults := s.cfg.Defaults
	s.cfgMu.RUnlock()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, plan.Form{}, err
	}
	form := formFromRequest(r, defaults)

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, form, errNoFile
	}
	defer file.Close()

	format, err := roster.FormatFromName(header.Filename)
	if err != nil {
		return nil, form, err
	}
	sheet, err := roster.Read(file, format)
	if err != nil {
		return nil, form, err
	}

	s.cfgMu.RLock()
	req, err := plan.NewRequest(s.cfg, sheet, form)
	s.cfgMu.RUnlock()
	if err != nil {
		return nil, form, err
	}

	res, err := plan.Run(req)
	if err != nil {
		return nil, form, err
	}
	s.storeRun(res)
	return res, form, nil
}

// indexView is the data for the form page.
type indexView struct {
	Form     plan.Form
	Clusters []clusterDTO
	Error    string
	Notice   string
	RunID    string
	Result   template.HTML
}

func (s *Server) renderIndex(w http.ResponseWriter, status int, v indexView) {
	s.cfgMu.RLock()
	v.Clusters = clusterList(s.cfg.Clusters)
	s.cfgMu.RUnlock()

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "index", v); err != nil {
		appLog.Error("render index failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// formDefaults is the form as first shown: configured defaults, today as
// both start and end date.
func formDefaults(cfg *config.Config) plan.Form {
	form := plan.DefaultForm(cfg.Defaults)
	today := time.Now().In(cfg.Location()).Format(slots.DateLayout)
	form.From, form.To = today, today
	return form
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.cfgMu.RLock()
	form := formDefaults(s.cfg)
	s.cfgMu.RUnlock()

	s.renderIndex(w, http.StatusOK, indexView{Form: form, Notice: r.URL.Query().Get("notice")})
}

// handleScheduleForm handles the HTML form submit and renders the result
// below the form.
func (s *Server) handleScheduleForm(w http.ResponseWriter, r *http.Request) {
	res, form, err := s.runFromRequest(r)
	if err != nil {
		appLog.Error("schedule form run failed", err)
		s.renderIndex(w, http.StatusBadRequest, indexView{Form: form, Error: userMessage(err)})
		return
	}

	var frag bytes.Buffer
	if err := render.Fragment(&frag, res); err != nil {
		appLog.Error("render schedule failed", err, "run_id", res.ID)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	s.renderIndex(w, http.StatusOK, indexView{
		Form:   form,
		RunID:  res.ID,
		Result: template.HTML(frag.String()),
	})
}

// handleScheduleAPI is the JSON variant of the form submit.
//
// POST /api/schedule (multipart: file, rooms, from, to, start_time,
// end_time, slot_minutes, max_overlap, debug)
func (s *Server) handleScheduleAPI(w http.ResponseWriter, r *http.Request) {
	res, _, err := s.runFromRequest(r)
	if err != nil {
		appLog.Error("schedule api run failed", err)
		writeError(w, http.StatusBadRequest, userMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(res))
}
