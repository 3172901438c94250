package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dohr-michael/dayplan/internal/duration"
	"github.com/dohr-michael/dayplan/internal/events"
	"github.com/dohr-michael/dayplan/internal/goals"
	"github.com/dohr-michael/dayplan/internal/reconcile"
	"github.com/dohr-michael/dayplan/internal/tasks"
)

var sessionIDRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// SaveRequest is a confirmed batch to persist.
type SaveRequest struct {
	StudentID    string
	Tasks        []string
	BasedOnGoals []string
	// SessionID is kept when it is a canonical UUID, otherwise replaced.
	SessionID string
}

// SaveResult describes a persisted batch.
type SaveResult struct {
	Tasks      []tasks.Persisted
	SessionID  string
	SavedCount int
}

// Persister turns confirmed task lines into persisted rows.
type Persister struct {
	students goals.StudentStore
	goals    goals.GoalStore
	tasks    TaskStore
	sessions SessionStore
	matcher  reconcile.Matcher
	locale   duration.Locale
	bus      *events.Bus
	now      func() time.Time
}

// Option configures a Persister.
type Option func(*Persister)

// WithMatcher replaces the goal reconciliation heuristic.
func WithMatcher(m reconcile.Matcher) Option {
	return func(p *Persister) { p.matcher = m }
}

// WithLocale sets the locale used for default task content and categories.
func WithLocale(l duration.Locale) Option {
	return func(p *Persister) { p.locale = l }
}

// WithBus publishes save outcomes on bus.
func WithBus(bus *events.Bus) Option {
	return func(p *Persister) { p.bus = bus }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Persister) { p.now = now }
}

// NewPersister creates a Persister.
func NewPersister(students goals.StudentStore, gs goals.GoalStore, ts TaskStore, ss SessionStore, opts ...Option) *Persister {
	p := &Persister{
		students: students,
		goals:    gs,
		tasks:    ts,
		sessions: ss,
		matcher:  reconcile.SubstringMatcher{},
		locale:   duration.LocaleEN,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Save validates and persists a confirmed batch. The task rows are written
// atomically; the session summary is best effort.
func (p *Persister) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	studentID := strings.TrimSpace(req.StudentID)
	if studentID == "" {
		return nil, ErrMissingStudentID
	}
	if len(req.Tasks) == 0 {
		return nil, ErrEmptyTaskList
	}

	ok, err := p.students.Exists(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup student: %v", ErrPersistence, err)
	}
	if !ok {
		return nil, goals.ErrStudentNotFound
	}

	active, err := p.goals.ListActive(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch goals: %v", ErrPersistence, err)
	}
	candidates := reconcile.Candidates(active)

	sessionID := req.SessionID
	if !sessionIDRe.MatchString(sessionID) {
		sessionID = uuid.NewString()
	}
	now := p.now()
	today := tasks.Date(now)

	rows := make([]tasks.Persisted, len(req.Tasks))
	linked := 0
	for i, content := range req.Tasks {
		if strings.TrimSpace(content) == "" {
			slog.Warn("blank task replaced with default", "student_id", studentID, "index", i)
			content = tasks.DefaultContent(p.locale)
		}
		row := tasks.Persisted{
			ID:               tasks.GenerateTaskID(),
			StudentID:        studentID,
			Content:          content,
			Category:         tasks.Category(content, p.locale),
			EstimatedMinutes: duration.Minutes(content),
			Status:           tasks.TaskPending,
			SessionID:        sessionID,
			Order:            i + 1,
			TaskDate:         today,
			CreatedAt:        now.UTC(),
		}
		if m, ok := p.matcher.Match(content, candidates, req.BasedOnGoals); ok {
			goalID := m.GoalID
			row.SourceGoalID = &goalID
			row.GoalTitle = m.GoalTitle
			row.SourceKeyResultIndex = m.KeyResultIndex
			linked++
		}
		rows[i] = row
	}

	if err := p.tasks.InsertBatch(ctx, rows); err != nil {
		if errors.Is(err, ErrDuplicateSession) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, sessionID)
		}
		slog.Error("task insert failed", "student_id", studentID, "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	summary := tasks.Session{
		ID:             sessionID,
		StudentID:      studentID,
		GenerationDate: today,
		TotalTasks:     len(rows),
		BasedOnGoals:   req.BasedOnGoals,
		Descriptor:     tasks.Describe(len(req.BasedOnGoals), len(rows)),
		CreatedAt:      now.UTC(),
	}
	if err := p.sessions.InsertSession(ctx, summary); err != nil {
		slog.Warn("session summary insert failed", "student_id", studentID, "session_id", sessionID, "error", err)
		p.bus.Publish(events.NewTypedStudentEvent(events.SourcePersister, events.SessionSummaryFailedPayload{
			SessionID: sessionID,
			Error:     err.Error(),
		}, studentID))
	}

	slog.Info("daily tasks saved", "student_id", studentID, "session_id", sessionID, "count", len(rows), "linked", linked)
	p.bus.Publish(events.NewTypedStudentEvent(events.SourcePersister, events.TasksSavedPayload{
		SessionID:  sessionID,
		SavedCount: len(rows),
		Linked:     linked,
		TaskDate:   today,
	}, studentID))

	return &SaveResult{Tasks: rows, SessionID: sessionID, SavedCount: len(rows)}, nil
}

// ListForDate returns a student's tasks for a date, in task order. An empty
// date means today.
func (p *Persister) ListForDate(ctx context.Context, studentID, date string) ([]tasks.Persisted, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, ErrMissingStudentID
	}
	if date == "" {
		date = tasks.Date(p.now())
	}
	return p.tasks.ListForDate(ctx, studentID, date)
}

// UpdateStatus moves a task to a new status. Completing a task stamps its
// completion time; leaving the completed state clears it.
func (p *Persister) UpdateStatus(ctx context.Context, taskID string, status tasks.TaskStatus) (*tasks.Persisted, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	t, err := p.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !tasks.CanTransition(t.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, status)
	}
	if t.Status == status {
		return t, nil
	}

	var completedAt *time.Time
	if status == tasks.TaskCompleted {
		now := p.now().UTC()
		completedAt = &now
	}
	if err := p.tasks.UpdateStatus(ctx, taskID, status, completedAt); err != nil {
		return nil, fmt.Errorf("update task %s: %w", taskID, err)
	}

	from := t.Status
	t.Status = status
	t.CompletedAt = completedAt

	p.bus.Publish(events.NewTypedStudentEvent(events.SourcePersister, events.TaskStatusChangedPayload{
		TaskID: taskID,
		From:   string(from),
		To:     string(status),
	}, t.StudentID))
	return t, nil
}
