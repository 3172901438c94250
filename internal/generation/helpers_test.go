package generation

import (
	"context"
	"time"

	"github.com/dohr-michael/dayplan/internal/goals"
)

var fixedNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fakeGoals struct {
	goals []goals.Goal
	err   error
}

func (f *fakeGoals) ListActive(_ context.Context, _ string) ([]goals.Goal, error) {
	return f.goals, f.err
}

type fakeStudents struct {
	known map[string]bool
}

func (f *fakeStudents) Exists(_ context.Context, id string) (bool, error) {
	return f.known[id], nil
}

func scenarioGoals() []goals.Goal {
	return []goals.Goal{
		{
			ID:       "g-react",
			Title:    "Learn React",
			Category: goals.CategorySkill,
			Priority: goals.PriorityMedium,
			Status:   goals.StatusNotStarted,
			Progress: 0,
		},
		{
			ID:       "g-algo",
			Title:    "Finish Algorithms",
			Category: goals.CategoryAcademic,
			Priority: goals.PriorityHigh,
			Status:   goals.StatusInProgress,
			Progress: 25,
			KeyResults: []goals.KeyResult{
				{Text: "practice 10 problems", Progress: 40},
			},
		},
	}
}

func newTestOrchestrator(gs []goals.Goal, opts ...Option) *Orchestrator {
	builder := goals.NewContextBuilder(&fakeGoals{goals: gs}, goals.WithClock(fixedClock))
	students := &fakeStudents{known: map[string]bool{"stu-1": true}}
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return NewOrchestrator(students, builder, opts...)
}

func buildContext(gs []goals.Goal) *goals.Context {
	builder := goals.NewContextBuilder(&fakeGoals{goals: gs}, goals.WithClock(fixedClock))
	gctx, err := builder.Build(context.Background(), "stu-1")
	if err != nil {
		panic(err)
	}
	return gctx
}
