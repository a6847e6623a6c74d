package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/urlmonitor/internal/domain"
	apimw "github.com/hamed0406/urlmonitor/internal/httpapi/middleware"
)

// Monitor is the control surface the API drives. *scheduler.Scheduler
// implements it.
type Monitor interface {
	Register(ctx context.Context, url string, interval int) (domain.Target, error)
	Start(ctx context.Context, id domain.TargetID) error
	Stop(ctx context.Context, id domain.TargetID) error
	SetMonitoring(ctx context.Context, id domain.TargetID, on bool) error
	RestartForIntervalChange(ctx context.Context, id domain.TargetID, minutes int) (domain.Target, error)
	Delete(ctx context.Context, id domain.TargetID) error
	CheckNow(ctx context.Context, id domain.TargetID) (domain.ProbeResult, error)
	CheckAll(ctx context.Context) []domain.TargetStatus
	Status(id domain.TargetID) (domain.TargetStatus, error)
	List() []domain.TargetStatus
	ActiveCount() int
}

type Options struct {
	AllowedOrigins []string
	RateRPM        int
	RateBurst      int
}

type Server struct {
	Logger  *zap.Logger
	Monitor Monitor
	opts    Options
}

func NewServer(l *zap.Logger, m Monitor, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{Logger: l, Monitor: m, opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(apimw.Log(s.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(s.opts.RateRPM, s.opts.RateBurst))

		r.Get("/health", s.handleHealth)
		r.Get("/urls", s.handleList)
		r.Post("/urls", s.handleRegister)
		r.Post("/urls/check-all", s.handleCheckAll)

		r.Route("/urls/{id}", func(r chi.Router) {
			r.Get("/", s.handleStatus)
			r.Delete("/", s.handleDelete)
			r.Post("/start", s.handleStart)
			r.Post("/stop", s.handleStop)
			r.Put("/interval", s.handleInterval)
			r.Put("/monitoring", s.handleMonitoring)
			r.Post("/check", s.handleCheck)
		})
	})

	return r
}

type registerPayload struct {
	URL      string `json:"url"`
	Interval int    `json:"interval"`
}

type intervalPayload struct {
	Interval int `json:"interval"`
}

type monitoringPayload struct {
	Monitoring *bool `json:"monitoring"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "url-monitor",
		"active":    s.Monitor.ActiveCount(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Monitor.List())
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var p registerPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.URL == "" {
		writeErrorMsg(w, http.StatusBadRequest, "bad payload")
		return
	}
	t, err := s.Monitor.Register(r.Context(), p.URL, p.Interval)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Logger.Info("added_target",
		zap.String("target_id", string(t.ID)),
		zap.String("url", t.URL),
		zap.Int("interval", t.Interval),
	)
	writeJSON(w, http.StatusCreated, map[string]any{"id": t.ID, "target": t})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Monitor.Status(targetID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := targetID(r)
	if err := s.Monitor.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	id := targetID(r)
	if err := s.Monitor.Start(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeStatus(w, r, id)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id := targetID(r)
	if err := s.Monitor.Stop(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeStatus(w, r, id)
}

func (s *Server) handleInterval(w http.ResponseWriter, r *http.Request) {
	var p intervalPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Interval == 0 {
		writeErrorMsg(w, http.StatusBadRequest, "bad payload")
		return
	}
	id := targetID(r)
	if _, err := s.Monitor.RestartForIntervalChange(r.Context(), id, p.Interval); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeStatus(w, r, id)
}

func (s *Server) handleMonitoring(w http.ResponseWriter, r *http.Request) {
	var p monitoringPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Monitoring == nil {
		writeErrorMsg(w, http.StatusBadRequest, "bad payload")
		return
	}
	id := targetID(r)
	if err := s.Monitor.SetMonitoring(r.Context(), id, *p.Monitoring); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeStatus(w, r, id)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	id := targetID(r)
	res, err := s.Monitor.CheckNow(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "result": res})
}

func (s *Server) handleCheckAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Monitor.CheckAll(r.Context()))
}

func (s *Server) writeStatus(w http.ResponseWriter, r *http.Request, id domain.TargetID) {
	st, err := s.Monitor.Status(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.Logger.Error("api_error",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeErrorMsg(w, code, err.Error())
}

// statusFor maps the domain error taxonomy onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyActive), errors.Is(err, domain.ErrDuplicateURL):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidURL), errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrShuttingDown):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func targetID(r *http.Request) domain.TargetID {
	return domain.TargetID(chi.URLParam(r, "id"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
