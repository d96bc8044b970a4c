package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bespreking/internal/capture"
	"bespreking/internal/config"
	appLog "bespreking/internal/log"
	"bespreking/internal/plan"
)

// maxRuns bounds the in-memory run history.
const maxRuns = 20

// maxUploadBytes bounds multipart uploads.
const maxUploadBytes = 16 << 20

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = template.Must(template.New("").ParseFS(templateFS, "templates/*.tmpl"))

// Server provides the scheduling form, the JSON API and the cluster editor.
type Server struct {
	cfgMu   sync.RWMutex
	cfg     *config.Config
	cfgPath string

	router chi.Router

	// Recent runs, newest last. Only kept in memory.
	runsMu   sync.RWMutex
	runs     map[string]*plan.Result
	runOrder []string

	capturePNG func(context.Context, capture.Options) ([]byte, error)
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithCapture replaces the PNG capture function (tests use a fake).
func WithCapture(fn func(context.Context, capture.Options) ([]byte, error)) Option {
	return func(s *Server) {
		s.capturePNG = fn
	}
}

// NewServer constructs a new Server. Cluster edits are persisted to
// cfgPath; an empty path keeps them in memory only.
func NewServer(cfg *config.Config, cfgPath string, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		cfgPath:    cfgPath,
		router:     chi.NewRouter(),
		runs:       make(map[string]*plan.Result),
		capturePNG: capture.PNG,
	}
	for _, o := range opts {
		o(s)
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Bespreking", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, cfg *config.Config, cfgPath string) error {
	s := NewServer(cfg, cfgPath)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Post("/schedule", s.handleScheduleForm)
	r.Post("/clusters", s.handleClusterForm)

	r.Route("/api", func(r chi.Router) {
		r.Post("/schedule", s.handleScheduleAPI)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/schedule.html", s.handleRunHTML)
		r.Get("/runs/{id}/schedule.ics", s.handleRunICS)
		r.Get("/runs/{id}/schedule.xlsx", s.handleRunXLSX)
		r.Get("/runs/{id}/preview.png", s.handleRunPreview)

		r.Get("/clusters", s.handleListClusters)
		r.Put("/clusters/{base}", s.handlePutCluster)
		r.Delete("/clusters/{base}", s.handleDeleteCluster)
	})
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// storeRun remembers res, evicting the oldest run beyond maxRuns.
func (s *Server) storeRun(res *plan.Result) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	s.runs[res.ID] = res
	s.runOrder = append(s.runOrder, res.ID)
	for len(s.runOrder) > maxRuns {
		delete(s.runs, s.runOrder[0])
		s.runOrder = s.runOrder[1:]
	}
}

func (s *Server) lookupRun(id string) (*plan.Result, bool) {
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()
	res, ok := s.runs[id]
	return res, ok
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
