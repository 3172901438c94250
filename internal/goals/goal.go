// Package goals holds the learner objective model and builds the goal
// context fed to task generators.
package goals

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoActiveGoals   = errors.New("you currently have no active goals, create some goals first")
	ErrStudentNotFound = errors.New("student not found")
)

// Category classifies a goal.
type Category string

const (
	CategoryAcademic Category = "academic"
	CategorySkill    Category = "skill"
	CategoryProject  Category = "project"
	CategoryPersonal Category = "personal"
	CategoryCareer   Category = "career"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryAcademic, CategorySkill, CategoryProject, CategoryPersonal, CategoryCareer:
		return true
	}
	return false
}

// Priority ranks goals against each other.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities: high sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Status is the lifecycle state of a goal.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusPaused     Status = "paused"
	StatusCancelled  Status = "cancelled"
)

// Active reports whether goals in this status feed task generation.
func (s Status) Active() bool {
	return s == StatusNotStarted || s == StatusInProgress
}

// KeyResult is a measurable sub-result of a goal, addressed by position.
// An empty Text marks an unused slot.
type KeyResult struct {
	Text      string `json:"text" yaml:"text"`
	Progress  int    `json:"progress" yaml:"progress"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Incomplete reports whether the key result still needs work.
func (kr KeyResult) Incomplete() bool {
	return kr.Text != "" && !kr.Completed && kr.Progress < 100
}

// Goal is an OKR-style objective owned by the goal store.
type Goal struct {
	ID          string      `json:"id" yaml:"id"`
	StudentID   string      `json:"student_id" yaml:"student_id"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Category    Category    `json:"category" yaml:"category"`
	Priority    Priority    `json:"priority" yaml:"priority"`
	Status      Status      `json:"status" yaml:"status"`
	Progress    int         `json:"progress" yaml:"progress"`
	TargetDate  *time.Time  `json:"target_date,omitempty" yaml:"target_date,omitempty"`
	KeyResults  []KeyResult `json:"key_results" yaml:"key_results"`
}

// FirstIncompleteKeyResult returns the position of the first key result that
// still needs work.
func (g Goal) FirstIncompleteKeyResult() (int, bool) {
	for i, kr := range g.KeyResults {
		if kr.Incomplete() {
			return i, true
		}
	}
	return 0, false
}

// GoalStore reads goals owned by the goal-management collaborator.
type GoalStore interface {
	// ListActive returns the student's not_started and in_progress goals,
	// ordered by priority then ascending target date, nulls last.
	ListActive(ctx context.Context, studentID string) ([]Goal, error)
}

// StudentStore resolves student identifiers.
type StudentStore interface {
	Exists(ctx context.Context, studentID string) (bool, error)
}
