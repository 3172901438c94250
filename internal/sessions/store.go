// Package sessions persists confirmed task batches and their session
// summaries.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/dohr-michael/dayplan/internal/tasks"
)

var (
	ErrMissingStudentID  = errors.New("student id is required")
	ErrEmptyTaskList     = errors.New("task list is required and must not be empty")
	ErrPersistence       = errors.New("failed to save tasks")
	ErrDuplicateSession  = errors.New("generation session already saved")
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid task status")
)

// TaskStore persists daily tasks.
type TaskStore interface {
	// InsertBatch writes every task or none of them. Rows colliding with an
	// already saved session fail with ErrDuplicateSession.
	InsertBatch(ctx context.Context, ts []tasks.Persisted) error
	ListForDate(ctx context.Context, studentID, date string) ([]tasks.Persisted, error)
	// Get returns ErrTaskNotFound for an unknown id.
	Get(ctx context.Context, id string) (*tasks.Persisted, error)
	UpdateStatus(ctx context.Context, id string, status tasks.TaskStatus, completedAt *time.Time) error
}

// SessionStore persists session summaries.
type SessionStore interface {
	InsertSession(ctx context.Context, s tasks.Session) error
}
