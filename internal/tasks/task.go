// Package tasks defines generated daily tasks, their wire encoding and the
// persisted task and session records.
package tasks

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dohr-michael/dayplan/internal/duration"
)

// TaskStatus represents the lifecycle state of a persisted task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a task may move from one status to another.
// Work advances pending → in_progress → completed; open tasks may be
// cancelled and any task may be reset to pending.
func CanTransition(from, to TaskStatus) bool {
	if from == to {
		return true
	}
	switch to {
	case TaskPending:
		return from.Valid()
	case TaskInProgress:
		return from == TaskPending
	case TaskCompleted:
		return from == TaskInProgress
	case TaskCancelled:
		return from == TaskPending || from == TaskInProgress
	}
	return false
}

// Source tags the generator tier that produced a batch.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
)

// Batch is an ephemeral generation result. It is never persisted directly.
type Batch struct {
	Tasks              []string  `json:"tasks"`
	BasedOnGoals       []string  `json:"basedOnGoals"`
	GeneratedAt        time.Time `json:"generatedAt"`
	TotalEstimatedTime string    `json:"totalEstimatedTime"`
	Source             Source    `json:"source"`
}

// Persisted is a confirmed daily task.
type Persisted struct {
	ID                   string     `json:"id"`
	StudentID            string     `json:"student_id"`
	Content              string     `json:"task_content"`
	Category             string     `json:"task_category"`
	EstimatedMinutes     int        `json:"estimated_minutes"`
	Status               TaskStatus `json:"status"`
	SourceGoalID         *string    `json:"source_goal_id"`
	SourceKeyResultIndex int        `json:"source_key_result_index"`
	GoalTitle            string     `json:"goal_title"`
	SessionID            string     `json:"generation_session_id"`
	Order                int        `json:"task_order"`
	TaskDate             string     `json:"task_date"`
	CreatedAt            time.Time  `json:"created_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	ActualMinutes        *int       `json:"actual_minutes,omitempty"`
	DifficultyRating     *int       `json:"difficulty_rating,omitempty"`
	CompletionNotes      *string    `json:"completion_notes,omitempty"`
}

// Session summarizes one saved generation batch.
type Session struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	GenerationDate string    `json:"generation_date"`
	TotalTasks     int       `json:"total_tasks"`
	BasedOnGoals   []string  `json:"based_on_goals"`
	Descriptor     string    `json:"descriptor"`
	CreatedAt      time.Time `json:"created_at"`
}

// Describe renders the session descriptor.
func Describe(goalCount, taskCount int) string {
	return fmt.Sprintf("generated %d daily tasks from %d goals", taskCount, goalCount)
}

// GenerateTaskID creates a persisted task identifier. Ids share one table
// across students, so they carry a full random UUID.
func GenerateTaskID() string {
	return uuid.NewString()
}

// Date formats t as a task date.
func Date(t time.Time) string {
	return t.Format(time.DateOnly)
}

// DefaultContent replaces blank task lines on save.
func DefaultContent(locale duration.Locale) string {
	return Generated{
		Category:    StudyTaskLabel(locale),
		Description: StudyTaskLabel(locale),
		Minutes:     duration.DefaultMinutes,
	}.Line(locale)
}
