// Package generation turns a goal context into a daily task batch, trying a
// remote primary generator before a deterministic local one.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dohr-michael/dayplan/internal/duration"
	"github.com/dohr-michael/dayplan/internal/goals"
	"github.com/dohr-michael/dayplan/internal/tasks"
)

var (
	ErrMissingStudentID = errors.New("student id is required")
	ErrGenerationFailed = errors.New("daily task generation failed")
	ErrTooFewTasks      = errors.New("generator returned too few tasks")
)

// Task count bounds for a batch.
const (
	MinTasks           = 3
	MaxTasks           = 5
	DefaultMaxDuration = 480
)

// Preferences tunes a generation request.
type Preferences struct {
	TaskCount   int              `json:"taskCount,omitempty"`
	MaxDuration int              `json:"maxDuration,omitempty"` // minutes
	Priorities  []goals.Priority `json:"priorities,omitempty"`
}

// DefaultPreferences returns the preferences applied when a request has none.
func DefaultPreferences() Preferences {
	return Preferences{
		TaskCount:   MaxTasks,
		MaxDuration: DefaultMaxDuration,
		Priorities:  []goals.Priority{goals.PriorityHigh, goals.PriorityMedium},
	}
}

// Merge overlays the non-zero fields of p on base. The task count is
// clamped to the allowed range.
func (p Preferences) Merge(base Preferences) Preferences {
	out := base
	if p.TaskCount != 0 {
		out.TaskCount = p.TaskCount
	}
	if p.MaxDuration > 0 {
		out.MaxDuration = p.MaxDuration
	}
	if len(p.Priorities) > 0 {
		out.Priorities = p.Priorities
	}
	out.TaskCount = min(max(out.TaskCount, MinTasks), MaxTasks)
	return out
}

// Request is the input handed to a generator.
type Request struct {
	StudentID   string
	Date        time.Time
	Context     *goals.Context
	Preferences Preferences
	Locale      duration.Locale
}

// Output is a generator's raw result.
type Output struct {
	Tasks []string
	// BasedOnGoals may be empty, in which case the context titles are used.
	BasedOnGoals []string
}

// Generator produces task lines for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Output, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (*Output, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (*Output, error) {
	return f(ctx, req)
}

// TierAttempt records how one tier fared.
type TierAttempt struct {
	Tier     tasks.Source
	Attempts int
	Err      error
}

// Error is returned when every tier failed. It unwraps to ErrGenerationFailed.
type Error struct {
	StudentID string
	Goals     int
	Tiers     []TierAttempt
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Tiers))
	for i, t := range e.Tiers {
		parts[i] = fmt.Sprintf("%s (%d attempts): %v", t.Tier, t.Attempts, t.Err)
	}
	return fmt.Sprintf("%s for %d goals: %s", ErrGenerationFailed, e.Goals, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return ErrGenerationFailed }

// usable trims blank lines and enforces the batch size bounds.
func usable(lines []string, taskCount int) ([]string, error) {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) < MinTasks {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrTooFewTasks, len(out), MinTasks)
	}
	if taskCount > 0 && len(out) > taskCount {
		out = out[:taskCount]
	}
	return out, nil
}
