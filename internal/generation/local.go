package generation

import (
	"context"
	"fmt"

	"github.com/dohr-michael/dayplan/internal/duration"
	"github.com/dohr-michael/dayplan/internal/goals"
	"github.com/dohr-michael/dayplan/internal/tasks"
)

const (
	localGoalLimit      = 2
	highPriorityMinutes = 120
	otherMinutes        = 90
	reviewMinutes       = 30
	reflectionMinutes   = 20
	reviewProgressFloor = 20
)

// LocalGenerator builds tasks from the goal records alone. It never touches
// the network and always yields the same batch for the same context.
type LocalGenerator struct{}

// Generate implements Generator.
func (LocalGenerator) Generate(_ context.Context, req Request) (*Output, error) {
	if req.Context == nil || len(req.Context.Entries) == 0 {
		return nil, goals.ErrNoActiveGoals
	}
	locale := req.Locale

	// Priority preferences steer the primary tier only.
	selected := req.Context.Goals()
	if len(selected) > localGoalLimit {
		selected = selected[:localGoalLimit]
	}

	var out []tasks.Generated
	for _, g := range selected {
		minutes := otherMinutes
		if g.Priority == goals.PriorityHigh {
			minutes = highPriorityMinutes
		}
		out = append(out, tasks.Generated{
			Category:    tasks.CategoryLabel(g.Category, locale),
			Description: goalTaskText(g, locale),
			Minutes:     minutes,
		})
		if g.Progress > reviewProgressFloor {
			out = append(out, reviewTask(g, locale))
		}
	}

	if len(out) < MinTasks {
		out = append(out, tasks.Generated{
			Category:    tasks.PlanningLabel(locale),
			Description: reflectionText(locale),
			Minutes:     reflectionMinutes,
		})
	}
	// A single goal with no review still falls short after the reflection task.
	if len(out) < MinTasks {
		out = append(out, reviewTask(selected[0], locale))
	}
	if len(out) > MaxTasks {
		out = out[:MaxTasks]
	}

	lines := make([]string, len(out))
	for i, t := range out {
		lines[i] = t.Line(locale)
	}
	return &Output{Tasks: lines, BasedOnGoals: req.Context.Titles()}, nil
}

func goalTaskText(g goals.Goal, locale duration.Locale) string {
	if i, ok := g.FirstIncompleteKeyResult(); ok {
		kr := g.KeyResults[i].Text
		if locale == duration.LocaleZH {
			return fmt.Sprintf("%s - 针对\"%s\"", kr, g.Title)
		}
		return fmt.Sprintf("%s - for %q", kr, g.Title)
	}
	if locale == duration.LocaleZH {
		return fmt.Sprintf("推进\"%s\"的学习计划", g.Title)
	}
	return fmt.Sprintf("Advance the study plan for %q", g.Title)
}

func reviewTask(g goals.Goal, locale duration.Locale) tasks.Generated {
	text := fmt.Sprintf("Organize notes and key points for %q", g.Title)
	if locale == duration.LocaleZH {
		text = fmt.Sprintf("整理\"%s\"的学习笔记和重点内容", g.Title)
	}
	return tasks.Generated{
		Category:    tasks.ReviewLabel(locale),
		Description: text,
		Minutes:     reviewMinutes,
	}
}

func reflectionText(locale duration.Locale) string {
	if locale == duration.LocaleZH {
		return "回顾今日学习目标，调整明日计划"
	}
	return "Reflect on today's goals and adjust tomorrow's plan"
}
