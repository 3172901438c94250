// Package gateway exposes daily task generation, persistence and the study
// assistant over HTTP.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dohr-michael/dayplan/internal/assistant"
	"github.com/dohr-michael/dayplan/internal/events"
	"github.com/dohr-michael/dayplan/internal/gateway/ws"
	"github.com/dohr-michael/dayplan/internal/generation"
	"github.com/dohr-michael/dayplan/internal/sessions"
	"github.com/dohr-michael/dayplan/internal/tasks"
)

// TaskGenerator produces a task batch for a student.
type TaskGenerator interface {
	Generate(ctx context.Context, studentID string, prefs generation.Preferences) (*tasks.Batch, error)
}

// TaskPersister saves and maintains confirmed tasks.
type TaskPersister interface {
	Save(ctx context.Context, req sessions.SaveRequest) (*sessions.SaveResult, error)
	ListForDate(ctx context.Context, studentID, date string) ([]tasks.Persisted, error)
	UpdateStatus(ctx context.Context, taskID string, status tasks.TaskStatus) (*tasks.Persisted, error)
}

// Assistant answers chat messages.
type Assistant interface {
	Reply(ctx context.Context, req assistant.Request) (*assistant.Reply, error)
}

// Server is the dayplan HTTP gateway.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	generator  TaskGenerator
	persister  TaskPersister
	assistant  Assistant
}

// NewServer creates a new gateway server.
func NewServer(bus *events.Bus, generator TaskGenerator, persister TaskPersister, host string, port int) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)

	s := &Server{
		hub:       ws.NewHub(bus),
		bus:       bus,
		generator: generator,
		persister: persister,
	}

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/ws", s.hub.ServeWS)

	r.Route("/api/daily-tasks", func(r chi.Router) {
		r.Post("/", s.handleGenerate)
		r.Put("/", s.handleSave)
		r.Get("/", s.handleList)
		r.Patch("/{id}", s.handleUpdateStatus)
	})
	r.Post("/api/assistant/chat", s.handleChat)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// SetAssistant enables the chat endpoint.
func (s *Server) SetAssistant(a Assistant) {
	s.assistant = a
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("dayplan gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	studentID := r.URL.Query().Get("student_id")

	type eventJSON struct {
		ID        string             `json:"id"`
		StudentID string             `json:"student_id,omitempty"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}

	result := []eventJSON{}
	for _, e := range s.bus.HistoryFor(studentID, limit) {
		result = append(result, eventJSON{
			ID:        e.ID,
			StudentID: e.StudentID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
