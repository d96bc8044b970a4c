package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"bespreking/internal/config"
	appLog "bespreking/internal/log"
)

var errClusterNotFound = errors.New("cluster not found")

type clusterDTO struct {
	Base  string   `json:"base"`
	Codes []string `json:"codes"`
}

type clusterRequest struct {
	Codes []string `json:"codes"`
}

func clusterList(m config.ClusterMapping) []clusterDTO {
	out := make([]clusterDTO, 0, len(m))
	for _, base := range m.Bases() {
		out = append(out, clusterDTO{Base: base, Codes: m[base]})
	}
	return out
}

// updateClusters applies fn to a copy of the mapping, persists the config
// and only then swaps the copy in.
func (s *Server) updateClusters(fn func(config.ClusterMapping) error) error {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	prev := s.cfg.Clusters
	next := prev.Clone()
	if err := fn(next); err != nil {
		return err
	}

	s.cfg.Clusters = next
	if s.cfgPath == "" {
		return nil
	}
	if err := s.cfg.Save(s.cfgPath); err != nil {
		s.cfg.Clusters = prev
		appLog.Error("failed to persist cluster mapping", err, "path", s.cfgPath)
		return err
	}
	return nil
}

func (s *Server) handleListClusters(w http.ResponseWriter, _ *http.Request) {
	s.cfgMu.RLock()
	out := clusterList(s.cfg.Clusters)
	s.cfgMu.RUnlock()
	writeJSON(w, http.StatusOK, out)
}

// handlePutCluster replaces the codes of one base.
//
// PUT /api/clusters/{base} {"codes": ["A3HA", "A3HB"]}
func (s *Server) handlePutCluster(w http.ResponseWriter, r *http.Request) {
	base := chi.URLParam(r, "base")

	var body clusterRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var setErr error
	err := s.updateClusters(func(m config.ClusterMapping) error {
		setErr = m.Set(base, body.Codes)
		return setErr
	})
	switch {
	case setErr != nil:
		writeError(w, http.StatusBadRequest, setErr.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to save cluster mapping")
		return
	}

	appLog.Info("cluster mapping updated", "base", base, "codes", strings.Join(body.Codes, ","))
	s.cfgMu.RLock()
	out := clusterDTO{Base: strings.TrimSpace(base), Codes: s.cfg.Clusters[strings.TrimSpace(base)]}
	s.cfgMu.RUnlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteCluster(w http.ResponseWriter, r *http.Request) {
	base := chi.URLParam(r, "base")
	err := s.updateClusters(func(m config.ClusterMapping) error {
		if _, ok := m[base]; !ok {
			return errClusterNotFound
		}
		delete(m, base)
		return nil
	})
	switch {
	case errors.Is(err, errClusterNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to save cluster mapping")
		return
	}
	appLog.Info("cluster mapping removed", "base", base)
	w.WriteHeader(http.StatusNoContent)
}

// handleClusterForm is the HTML form counterpart of PUT /api/clusters/{base}.
// Codes are entered comma separated.
func (s *Server) handleClusterForm(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimSpace(r.FormValue("base"))
	codes := strings.Split(r.FormValue("codes"), ",")

	var setErr error
	err := s.updateClusters(func(m config.ClusterMapping) error {
		setErr = m.Set(base, codes)
		return setErr
	})
	if err != nil {
		s.cfgMu.RLock()
		form := formDefaults(s.cfg)
		s.cfgMu.RUnlock()
		msg := "Opslaan van de clusterindeling is mislukt."
		if setErr != nil {
			msg = "Vul alle velden in met geldige codes."
		}
		s.renderIndex(w, http.StatusBadRequest, indexView{Form: form, Error: msg})
		return
	}

	s.cfgMu.RLock()
	saved := strings.Join(s.cfg.Clusters[base], ", ")
	s.cfgMu.RUnlock()
	notice := "Cluster mapping voor '" + base + "' is bijgewerkt naar: " + saved
	http.Redirect(w, r, "/?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}
