// Package server exposes an engine over HTTP: charges can be edited, renders
// restarted and the current raster fetched as an image.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pthm-cable/fields/charges"
	"github.com/pthm-cable/fields/engine"
	"github.com/pthm-cable/fields/export"
	"github.com/pthm-cable/fields/telemetry"
)

// Service serves one engine.
type Service struct {
	eng       *engine.Engine
	telemetry *telemetry.Collector
	logger    *slog.Logger
	router    *chi.Mux
}

// New creates the service and its router. col may be nil.
func New(eng *engine.Engine, col *telemetry.Collector, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{eng: eng, telemetry: col, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	s.RegisterHTTP(r)
	s.router = r
	return s
}

// RegisterHTTP registers the endpoints on r.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Route("/charges", func(r chi.Router) {
		r.Get("/", s.handleListCharges)
		r.Post("/", s.handleAddCharge)
		r.Delete("/", s.handleClearCharges)
		r.Get("/nearest", s.handleNearest)
		r.Post("/invert", s.handleInvert)
		r.Post("/scale", s.handleScale)
		r.Post("/random", s.handleRandom)
	})
	r.Route("/render", func(r chi.Router) {
		r.Get("/", s.handleRenderStatus)
		r.Post("/", s.handleRestart)
		r.Delete("/", s.handleStop)
	})
	r.Get("/field.{format}", s.handleImage)
	r.Get("/stats", s.handleStats)
}

// ServeHTTP implements http.Handler.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}

// ChargeList is the body of GET /charges.
type ChargeList struct {
	Charges []charges.Charge `json:"charges"`
	Max     int              `json:"max"`
}

// PointRequest locates a charge.
type PointRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ScaleRequest is the body of POST /charges/scale.
type ScaleRequest struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Factor float64 `json:"factor"`
}

// RenderStatus is the body of GET /render.
type RenderStatus struct {
	ID         string `json:"id"`
	State      string `json:"state"`
	Rendering  bool   `json:"rendering"`
	LastEvent  string `json:"last_event,omitempty"`
	Resolution int    `json:"resolution,omitempty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

func (s *Service) handleListCharges(w http.ResponseWriter, r *http.Request) {
	s.writeCharges(w, http.StatusOK)
}

func (s *Service) handleAddCharge(w http.ResponseWriter, r *http.Request) {
	var c charges.Charge
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if math.IsNaN(c.Size) || math.IsInf(c.Size, 0) {
		http.Error(w, "size must be finite", http.StatusBadRequest)
		return
	}
	if !s.eng.AddCharge(c.X, c.Y, c.Size) {
		http.Error(w, "Charge limit reached", http.StatusConflict)
		return
	}
	s.logger.Info("charge added", "charge", c, "request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusCreated, c)
}

func (s *Service) handleClearCharges(w http.ResponseWriter, r *http.Request) {
	s.eng.Stop()
	s.eng.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleNearest(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		http.Error(w, "x and y query parameters required", http.StatusBadRequest)
		return
	}
	c, ok := s.eng.FindCharge(x, y)
	if !ok {
		http.Error(w, "No charge in range", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Service) handleInvert(w http.ResponseWriter, r *http.Request) {
	var req PointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !s.eng.InvertCharge(req.X, req.Y) {
		http.Error(w, "No charge in range", http.StatusNotFound)
		return
	}
	c, _ := s.eng.FindCharge(req.X, req.Y)
	writeJSON(w, http.StatusOK, c)
}

func (s *Service) handleScale(w http.ResponseWriter, r *http.Request) {
	var req ScaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Factor == 0 || math.IsNaN(req.Factor) || math.IsInf(req.Factor, 0) {
		http.Error(w, "factor must be finite and non-zero", http.StatusBadRequest)
		return
	}
	if _, ok := s.eng.FindCharge(req.X, req.Y); !ok {
		http.Error(w, "No charge in range", http.StatusNotFound)
		return
	}
	c, ok := s.eng.ScaleCharge(req.X, req.Y, req.Factor)
	if !ok {
		http.Error(w, "Scaled size out of range", http.StatusUnprocessableEntity)
		return
	}
	s.eng.Restart(0)
	writeJSON(w, http.StatusOK, c)
}

func (s *Service) handleRandom(w http.ResponseWriter, r *http.Request) {
	n := s.eng.Randomise()
	s.eng.Restart(0)
	s.logger.Info("charges randomised", "count", n)
	s.writeCharges(w, http.StatusOK)
}

func (s *Service) handleRenderStatus(w http.ResponseWriter, r *http.Request) {
	ctrl := s.eng.Controller()
	width, height := s.eng.Size()
	st := RenderStatus{
		ID:        ctrl.Current().String(),
		State:     ctrl.State().String(),
		Rendering: ctrl.IsRendering(),
		Width:     width,
		Height:    height,
	}
	if ev := s.eng.LastEvent(); ev.RenderID == ctrl.Current() {
		st.LastEvent = ev.Kind.String()
		st.Resolution = ev.Resolution
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Service) handleRestart(w http.ResponseWriter, r *http.Request) {
	var delay time.Duration
	if v := r.URL.Query().Get("delay_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			http.Error(w, "Invalid delay_ms", http.StatusBadRequest)
			return
		}
		delay = time.Duration(ms) * time.Millisecond
	}
	id, ok := s.eng.Restart(delay)
	if !ok {
		http.Error(w, "Render not started", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id.String()})
}

func (s *Service) handleStop(w http.ResponseWriter, r *http.Request) {
	s.eng.Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleImage(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	img := s.eng.Canvas().Image()
	w.Header().Set("Content-Type", f.ContentType())
	if err := export.Encode(w, img, f); err != nil {
		s.logger.Error("encoding image failed", "error", err)
	}
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.telemetry == nil {
		http.Error(w, "Telemetry disabled", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": s.telemetry.Summary(),
		"perf":    s.telemetry.Perf(),
	})
}

func (s *Service) writeCharges(w http.ResponseWriter, status int) {
	reg := s.eng.Registry()
	writeJSON(w, status, ChargeList{Charges: reg.Snapshot(), Max: reg.Cap()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response failed", "error", err)
	}
}
