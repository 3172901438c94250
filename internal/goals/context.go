package goals

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Urgency is a coarse deadline classification.
type Urgency string

const (
	UrgencyUrgent    Urgency = "urgent"
	UrgencyImportant Urgency = "important"
	UrgencyNormal    Urgency = "normal"
)

// UrgencyOf classifies a goal by the calendar days left until its target date.
// Overdue goals are urgent.
func UrgencyOf(target *time.Time, today time.Time) Urgency {
	if target == nil {
		return UrgencyNormal
	}
	days := DaysBetween(today, *target)
	switch {
	case days <= 7:
		return UrgencyUrgent
	case days <= 30:
		return UrgencyImportant
	default:
		return UrgencyNormal
	}
}

// DaysBetween counts calendar days from a to b, ignoring time of day.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Sort orders goals by priority (high first) then ascending target date with
// undated goals last. The sort is stable.
func Sort(gs []Goal) {
	sort.SliceStable(gs, func(i, j int) bool {
		pi, pj := gs[i].Priority.Rank(), gs[j].Priority.Rank()
		if pi != pj {
			return pi < pj
		}
		ti, tj := gs[i].TargetDate, gs[j].TargetDate
		switch {
		case ti == nil && tj == nil:
			return false
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.Before(*tj)
		}
	})
}

// Entry is one goal with its derived urgency and rendered context block.
type Entry struct {
	Goal    Goal
	Urgency Urgency
	Block   string
}

// Context is the generation input for one student.
type Context struct {
	StudentID string
	Date      time.Time
	Entries   []Entry
}

// Goals returns the goals in priority order.
func (c *Context) Goals() []Goal {
	out := make([]Goal, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.Goal
	}
	return out
}

// Titles returns the goal titles in priority order.
func (c *Context) Titles() []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.Goal.Title
	}
	return out
}

// Text joins every goal block into the prompt context.
func (c *Context) Text() string {
	blocks := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		blocks[i] = e.Block
	}
	return strings.Join(blocks, "\n")
}

// ContextBuilder loads active goals and renders them for generators.
type ContextBuilder struct {
	store GoalStore
	now   func() time.Time
}

// BuilderOption configures a ContextBuilder.
type BuilderOption func(*ContextBuilder)

// WithClock overrides the clock used to compute urgency.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *ContextBuilder) { b.now = now }
}

// NewContextBuilder creates a ContextBuilder over store.
func NewContextBuilder(store GoalStore, opts ...BuilderOption) *ContextBuilder {
	b := &ContextBuilder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build loads the student's active goals. It returns ErrNoActiveGoals when
// there is nothing to generate from.
func (b *ContextBuilder) Build(ctx context.Context, studentID string) (*Context, error) {
	list, err := b.store.ListActive(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list active goals: %w", err)
	}

	active := list[:0:0]
	for _, g := range list {
		if g.Status.Active() {
			active = append(active, g)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoActiveGoals
	}
	Sort(active)

	today := b.now()
	c := &Context{StudentID: studentID, Date: today, Entries: make([]Entry, len(active))}
	for i, g := range active {
		u := UrgencyOf(g.TargetDate, today)
		c.Entries[i] = Entry{Goal: g, Urgency: u, Block: renderBlock(i+1, g, u)}
	}

	slog.Debug("goal context built", "student_id", studentID, "goals", len(active))
	return c, nil
}

func renderBlock(n int, g Goal, u Urgency) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Goal %d: %s [%s]\n", n, g.Title, u)
	fmt.Fprintf(&sb, "Description: %s\n", g.Description)
	fmt.Fprintf(&sb, "Category: %s\n", g.Category)
	fmt.Fprintf(&sb, "Priority: %s\n", g.Priority)
	fmt.Fprintf(&sb, "Progress: %d%%\n", g.Progress)
	if g.TargetDate != nil {
		fmt.Fprintf(&sb, "Target date: %s\n", g.TargetDate.Format(time.DateOnly))
	} else {
		sb.WriteString("Target date: none\n")
	}
	sb.WriteString("Key results:\n")

	k := 0
	for _, kr := range g.KeyResults {
		if strings.TrimSpace(kr.Text) == "" {
			continue
		}
		k++
		state := "in progress"
		if kr.Completed {
			state = "completed"
		}
		fmt.Fprintf(&sb, "  - KR%d: %s (progress: %d%%, %s)\n", k, kr.Text, kr.Progress, state)
	}
	if k == 0 {
		sb.WriteString("  - no key results yet\n")
	}
	sb.WriteString("---")
	return sb.String()
}
