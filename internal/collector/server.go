package collector

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/healthcarekit/vitalmon/internal/vitals"
)

const defaultHistoryLimit = 100

// maxHistoryLimit caps a single history response.
const maxHistoryLimit = 1000

// WithLogger sets the logger for the server.
func WithLogger(logger *slog.Logger) func(*Server) {
	return func(s *Server) {
		s.logger = logger.With(slog.String("component", "collector"))
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) func(*Server) {
	return func(s *Server) {
		s.metrics = m
	}
}

// Server is the collector HTTP API. One collector run owns one store
// session; every reading received during the run lands in it.
type Server struct {
	store     *Store
	sessionID string
	started   time.Time

	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates a Server writing into the given session.
func NewServer(store *Store, sessionID string, options ...func(*Server)) *Server {
	s := Server{
		store:     store,
		sessionID: sessionID,
		started:   time.Now(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /api/vitals", s.handleReceive)
	mux.HandleFunc("GET /api/vitals/latest", s.handleLatest)
	mux.HandleFunc("GET /api/vitals/history", s.handleHistory)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "online",
		"message": "vitalmon collector is running",
		"endpoints": map[string]string{
			"/api/vitals":         "POST - receive a telemetry record",
			"/api/vitals/latest":  "GET - latest reading",
			"/api/vitals/history": "GET - recent readings",
			"/api/status":         "GET - collector status",
			"/metrics":            "GET - Prometheus metrics",
		},
	})
}

func (s *Server) handleReceive(w http.ResponseWriter, r *http.Request) {
	var rec vitals.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		if s.metrics != nil {
			s.metrics.ReadingsRejected.Inc()
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed record: " + err.Error()})
		return
	}

	id, err := s.store.InsertReading(r.Context(), s.sessionID, &rec)
	if err != nil {
		s.logger.Error("storing reading failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "storage failure"})
		return
	}

	if s.metrics != nil {
		s.metrics.ReadingsReceived.Inc()
		s.metrics.LastHeartRate.Set(float64(rec.HeartRate))
		s.metrics.LastSpO2.Set(float64(rec.OxygenSaturation))
	}

	s.logger.Debug("reading received",
		slog.Int64("id", id),
		slog.String("deviceID", rec.DeviceID),
		slog.Int("hr", rec.HeartRate),
		slog.Int("spo2", rec.OxygenSaturation),
		slog.Bool("ecgLeads", rec.ECGLeadsConnected))

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "vital record received",
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	reading, err := s.store.LatestReading(r.Context(), s.sessionID)
	if errors.Is(err, ErrNoReadings) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"status":  "no_data",
			"message": "no vital records received yet",
		})
		return
	}
	if err != nil {
		s.logger.Error("reading latest failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "storage failure"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   reading,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	readings, err := s.store.History(r.Context(), s.sessionID, limit)
	if err != nil {
		s.logger.Error("reading history failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "storage failure"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"count":  len(readings),
		"data":   readings,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	total, err := s.store.Count(r.Context(), s.sessionID)
	if err != nil {
		s.logger.Error("counting readings failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "storage failure"})
		return
	}

	resp := map[string]any{
		"status":         "online",
		"session_id":     s.sessionID,
		"total_readings": total,
		"started":        humanize.Time(s.started),
	}

	if latest, err := s.store.LatestReading(r.Context(), s.sessionID); err == nil {
		resp["latest_reading_time"] = latest.ReceivedAt
		resp["device_id"] = latest.Record.DeviceID
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
