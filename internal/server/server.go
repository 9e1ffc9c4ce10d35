package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/petra-dev/upwatch/internal/checker"
	"github.com/petra-dev/upwatch/internal/config"
	"github.com/petra-dev/upwatch/internal/metrics"
	"github.com/petra-dev/upwatch/internal/registry"
)

// Refresher re-evaluates registered services and persists the outcomes.
type Refresher interface {
	RefreshAll(ctx context.Context)
	RefreshService(ctx context.Context, svc registry.Service) checker.CheckResult
}

// Server holds the chi router and its dependencies.
type Server struct {
	store     registry.Store
	checker   checker.Checker
	refresher Refresher
	router    chi.Router
	logger    *zap.Logger
}

// New creates a Server and registers all routes. origins configures CORS
// for the dashboard; empty means allow all. Pass nil logger to discard logs.
func New(store registry.Store, c checker.Checker, refresher Refresher, origins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:     store,
		checker:   c,
		refresher: refresher,
		router:    chi.NewRouter(),
		logger:    logger,
	}
	s.registerRoutes(origins)
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes(origins []string) {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if len(origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))
	}

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/check", s.handleCheck)
	r.Get("/api/services", s.handleListServices)
	r.Post("/api/services", s.handleAddService)
	r.Post("/api/services/refresh", s.handleRefreshAll)
	r.Get("/api/services/{id}", s.handleGetService)
	r.Delete("/api/services/{id}", s.handleRemoveService)
	r.Post("/api/services/{id}/check", s.handleCheckService)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCheck runs an ad-hoc evaluation. The response is always HTTP 200:
// evaluation-level failures are carried in the result envelope, and only a
// malformed request body yields status unknown.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checker.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, checker.CheckResult{
			Status: checker.StatusUnknown,
			Error:  "invalid check request",
		})
		return
	}

	start := time.Now()
	result := s.checker.Evaluate(r.Context(), req)
	metrics.ObserveEvaluation(req.Mode, result.Status, time.Since(start))

	writeJSON(w, http.StatusOK, result)
}

type addServicePayload struct {
	Name           string       `json:"name"`
	Mode           checker.Mode `json:"mode"`
	URL            string       `json:"url"`
	ExtractionPath string       `json:"extractionPath"`
	Selector       string       `json:"selector"`
	ExpectedValue  *string      `json:"expectedValue"`
}

type serviceWithResult struct {
	Service registry.Service    `json:"service"`
	Result  checker.CheckResult `json:"result"`
}

func (s *Server) handleAddService(w http.ResponseWriter, r *http.Request) {
	var p addServicePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !p.Mode.Valid() {
		writeError(w, http.StatusBadRequest, "mode must be structured-api or markup-page")
		return
	}
	if err := config.ValidateURL(p.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.Name == "" {
		u, _ := url.Parse(p.URL)
		p.Name = u.Host
	}

	svc := &registry.Service{
		Name:           p.Name,
		Mode:           p.Mode,
		URL:            p.URL,
		ExtractionPath: p.ExtractionPath,
		Selector:       p.Selector,
		ExpectedValue:  p.ExpectedValue,
	}
	if err := s.store.Add(r.Context(), svc); err != nil {
		if errors.Is(err, registry.ErrDuplicateURL) {
			writeError(w, http.StatusConflict, "service URL already registered")
			return
		}
		s.logger.Error("adding service", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Run one check synchronously for immediate feedback.
	result := s.refresher.RefreshService(r.Context(), *svc)

	stored, err := s.store.Get(r.Context(), svc.ID)
	if err != nil {
		s.logger.Error("reloading service after check", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("service registered",
		zap.String("service", stored.Name),
		zap.String("url", stored.URL),
		zap.String("status", string(result.Status)),
	)
	writeJSON(w, http.StatusCreated, serviceWithResult{Service: *stored, Result: result})
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("listing services", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if services == nil {
		services = []registry.Service{}
	}
	writeJSON(w, http.StatusOK, services)
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	svc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, registry.ErrNotFound) {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	if err != nil {
		s.logger.Error("getting service", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (s *Server) handleRemoveService(w http.ResponseWriter, r *http.Request) {
	err := s.store.Remove(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, registry.ErrNotFound) {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	if err != nil {
		s.logger.Error("removing service", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckService(w http.ResponseWriter, r *http.Request) {
	svc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, registry.ErrNotFound) {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	if err != nil {
		s.logger.Error("getting service", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result := s.refresher.RefreshService(r.Context(), *svc)

	stored, err := s.store.Get(r.Context(), svc.ID)
	if err != nil {
		s.logger.Error("reloading service after check", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, serviceWithResult{Service: *stored, Result: result})
}

func (s *Server) handleRefreshAll(w http.ResponseWriter, r *http.Request) {
	s.refresher.RefreshAll(r.Context())
	s.handleListServices(w, r)
}
