package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dohr-michael/dayplan/internal/generation"
	"github.com/dohr-michael/dayplan/internal/goals"
	"github.com/dohr-michael/dayplan/internal/sessions"
	"github.com/dohr-michael/dayplan/internal/tasks"
)

const (
	msgGenerationFailed = "failed to generate daily tasks, please try again later"
	msgSaveFailed       = "failed to save daily tasks, please try again later"
	msgInternal         = "internal server error"
)

type generateRequest struct {
	StudentID   string                 `json:"student_id"`
	Preferences generation.Preferences `json:"preferences"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	batch, err := s.generator.Generate(r.Context(), req.StudentID, req.Preferences)
	if err != nil {
		s.writeDomainError(w, err, msgGenerationFailed)
		return
	}

	slog.Info("daily tasks generated", "student_id", req.StudentID, "source", batch.Source, "count", len(batch.Tasks))
	writeData(w, "", batch)
}

type saveRequest struct {
	StudentID    string   `json:"student_id"`
	Tasks        []string `json:"tasks"`
	BasedOnGoals []string `json:"basedOnGoals"`
	SessionID    string   `json:"generation_session_id"`
}

type saveResponse struct {
	Tasks      []tasks.Persisted `json:"tasks"`
	SessionID  string            `json:"session_id"`
	SavedCount int               `json:"saved_count"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeBody(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	res, err := s.persister.Save(r.Context(), sessions.SaveRequest{
		StudentID:    req.StudentID,
		Tasks:        req.Tasks,
		BasedOnGoals: req.BasedOnGoals,
		SessionID:    req.SessionID,
	})
	if err != nil {
		s.writeDomainError(w, err, msgSaveFailed)
		return
	}

	writeData(w, fmt.Sprintf("saved %d daily tasks", res.SavedCount), saveResponse{
		Tasks:      res.Tasks,
		SessionID:  res.SessionID,
		SavedCount: res.SavedCount,
	})
}

type listResponse struct {
	Date  string            `json:"date"`
	Tasks []tasks.Persisted `json:"tasks"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	studentID := q.Get("student_id")
	date := q.Get("date")
	if date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			writeError(w, http.StatusBadRequest, "date must use YYYY-MM-DD")
			return
		}
	}

	list, err := s.persister.ListForDate(r.Context(), studentID, date)
	if err != nil {
		s.writeDomainError(w, err, msgInternal)
		return
	}
	if date == "" {
		date = tasks.Date(time.Now())
	}
	if list == nil {
		list = []tasks.Persisted{}
	}
	writeData(w, "", listResponse{Date: date, Tasks: list})
}

type statusRequest struct {
	Status tasks.TaskStatus `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	t, err := s.persister.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeDomainError(w, err, msgInternal)
		return
	}
	writeData(w, "", t)
}

// writeDomainError maps domain errors to HTTP statuses. Server-side failures
// answer with generic, never the underlying error.
func (s *Server) writeDomainError(w http.ResponseWriter, err error, generic string) {
	switch {
	case errors.Is(err, generation.ErrMissingStudentID),
		errors.Is(err, sessions.ErrMissingStudentID):
		writeError(w, http.StatusBadRequest, "student_id is required")
	case errors.Is(err, sessions.ErrEmptyTaskList):
		writeError(w, http.StatusBadRequest, sessions.ErrEmptyTaskList.Error())
	case errors.Is(err, sessions.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, sessions.ErrInvalidStatus.Error())
	case errors.Is(err, goals.ErrStudentNotFound):
		writeError(w, http.StatusNotFound, goals.ErrStudentNotFound.Error())
	case errors.Is(err, goals.ErrNoActiveGoals):
		writeError(w, http.StatusNotFound, goals.ErrNoActiveGoals.Error())
	case errors.Is(err, sessions.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, sessions.ErrTaskNotFound.Error())
	case errors.Is(err, sessions.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sessions.ErrDuplicateSession):
		writeError(w, http.StatusConflict, sessions.ErrDuplicateSession.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, generic)
	}
}
