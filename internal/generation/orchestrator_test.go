package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dohr-michael/dayplan/internal/events"
	"github.com/dohr-michael/dayplan/internal/goals"
	"github.com/dohr-michael/dayplan/internal/tasks"
)

func staticGenerator(lines ...string) Generator {
	return GeneratorFunc(func(context.Context, Request) (*Output, error) {
		return &Output{Tasks: lines, BasedOnGoals: []string{"Finish Algorithms"}}, nil
	})
}

func TestGenerate_PrimarySuccess(t *testing.T) {
	primary := staticGenerator(
		"[Coursework] Read chapter 4 (1 hour)",
		"[Coursework] Solve 5 graph problems (2 hours)",
		"",
		"[Review] Summarize notes (30 minutes)",
		"[Planning] Plan tomorrow (20 minutes)",
	)
	o := newTestOrchestrator(scenarioGoals(), WithPrimary(primary, DailyTaskPolicy))

	batch, err := o.Generate(context.Background(), "stu-1", Preferences{TaskCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	if batch.Source != tasks.SourcePrimary {
		t.Errorf("expected primary source, got %s", batch.Source)
	}
	if len(batch.Tasks) != 3 {
		t.Fatalf("expected truncation to 3 tasks, got %d", len(batch.Tasks))
	}
	if batch.TotalEstimatedTime != "approximately 3 hours 30 minutes" {
		t.Errorf("unexpected total %q", batch.TotalEstimatedTime)
	}
	if len(batch.BasedOnGoals) != 1 || batch.BasedOnGoals[0] != "Finish Algorithms" {
		t.Errorf("expected generator basedOnGoals, got %v", batch.BasedOnGoals)
	}
	if !batch.GeneratedAt.Equal(fixedNow) {
		t.Errorf("unexpected generatedAt %s", batch.GeneratedAt)
	}
}

func TestGenerate_PrimaryTimeoutFallsBack(t *testing.T) {
	hang := GeneratorFunc(func(ctx context.Context, _ Request) (*Output, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	bus := events.NewBus(16)
	defer bus.Close()
	failed, unsub := bus.SubscribeChan(4, events.EventTierFailed)
	defer unsub()

	o := newTestOrchestrator(scenarioGoals(),
		WithPrimary(hang, Policy{Timeout: 20 * time.Millisecond, MaxAttempts: 1}),
		WithBus(bus),
	)

	start := time.Now()
	batch, err := o.Generate(context.Background(), "stu-1", Preferences{})
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("fallback took too long: %s", time.Since(start))
	}
	if batch.Source != tasks.SourceSecondary {
		t.Errorf("expected secondary source, got %s", batch.Source)
	}
	if n := len(batch.Tasks); n < MinTasks || n > MaxTasks {
		t.Errorf("expected 3..5 tasks, got %d", n)
	}

	select {
	case e := <-failed:
		p, ok := events.GetTierFailedPayload(e)
		if !ok || p.Tier != "primary" || !p.Timeout {
			t.Errorf("unexpected tier failure payload %+v", p)
		}
		if e.StudentID != "stu-1" {
			t.Errorf("expected student id on event, got %q", e.StudentID)
		}
	case <-time.After(time.Second):
		t.Fatal("no tier failure event")
	}
}

func TestGenerate_UncooperativePrimaryFallsBackOnTime(t *testing.T) {
	sleepy := GeneratorFunc(func(context.Context, Request) (*Output, error) {
		time.Sleep(600 * time.Millisecond)
		return &Output{Tasks: []string{"late"}}, nil
	})
	o := newTestOrchestrator(scenarioGoals(),
		WithPrimary(sleepy, Policy{Timeout: 50 * time.Millisecond, MaxAttempts: 1}))

	start := time.Now()
	batch, err := o.Generate(context.Background(), "stu-1", Preferences{})
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("primary held the request for %s", elapsed)
	}
	if batch.Source != tasks.SourceSecondary {
		t.Errorf("expected secondary source, got %s", batch.Source)
	}
}

func TestGenerate_TooFewPrimaryTasksFallsBack(t *testing.T) {
	o := newTestOrchestrator(scenarioGoals(),
		WithPrimary(staticGenerator("[Coursework] Only one (1 hour)"), DailyTaskPolicy))

	batch, err := o.Generate(context.Background(), "stu-1", Preferences{})
	if err != nil {
		t.Fatal(err)
	}
	if batch.Source != tasks.SourceSecondary {
		t.Errorf("expected fallback, got %s", batch.Source)
	}
}

func TestGenerate_SecondaryScenario(t *testing.T) {
	o := newTestOrchestrator(scenarioGoals())

	batch, err := o.Generate(context.Background(), "stu-1", Preferences{})
	if err != nil {
		t.Fatal(err)
	}
	if batch.Source != tasks.SourceSecondary {
		t.Errorf("expected secondary source, got %s", batch.Source)
	}
	if batch.TotalEstimatedTime != "approximately 4 hours" {
		t.Errorf("unexpected total %q", batch.TotalEstimatedTime)
	}
	if len(batch.BasedOnGoals) != 2 {
		t.Errorf("unexpected basedOnGoals %v", batch.BasedOnGoals)
	}
}

func TestGenerate_BothTiersFail(t *testing.T) {
	boom := GeneratorFunc(func(context.Context, Request) (*Output, error) {
		return nil, errors.New("boom")
	})
	o := newTestOrchestrator(scenarioGoals(),
		WithPrimary(boom, DailyTaskPolicy),
		WithSecondary(boom),
	)

	_, err := o.Generate(context.Background(), "stu-1", Preferences{})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	var genErr *Error
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if genErr.Goals != 2 || len(genErr.Tiers) != 2 {
		t.Errorf("unexpected diagnostics %+v", genErr)
	}
	if genErr.Tiers[0].Tier != tasks.SourcePrimary || genErr.Tiers[1].Tier != tasks.SourceSecondary {
		t.Errorf("unexpected tier order %+v", genErr.Tiers)
	}
}

func TestGenerate_Validation(t *testing.T) {
	o := newTestOrchestrator(scenarioGoals())

	if _, err := o.Generate(context.Background(), "  ", Preferences{}); !errors.Is(err, ErrMissingStudentID) {
		t.Errorf("expected ErrMissingStudentID, got %v", err)
	}
	if _, err := o.Generate(context.Background(), "ghost", Preferences{}); !errors.Is(err, goals.ErrStudentNotFound) {
		t.Errorf("expected ErrStudentNotFound, got %v", err)
	}

	empty := newTestOrchestrator(nil)
	if _, err := empty.Generate(context.Background(), "stu-1", Preferences{}); !errors.Is(err, goals.ErrNoActiveGoals) {
		t.Errorf("expected ErrNoActiveGoals, got %v", err)
	}
}

func TestPreferencesMerge(t *testing.T) {
	tests := []struct {
		name string
		in   Preferences
		want int
	}{
		{"defaults", Preferences{}, 5},
		{"explicit", Preferences{TaskCount: 4}, 4},
		{"clamped low", Preferences{TaskCount: 1}, 3},
		{"clamped high", Preferences{TaskCount: 12}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Merge(DefaultPreferences())
			if got.TaskCount != tt.want {
				t.Errorf("TaskCount = %d, want %d", got.TaskCount, tt.want)
			}
			if got.MaxDuration != DefaultMaxDuration {
				t.Errorf("MaxDuration = %d", got.MaxDuration)
			}
		})
	}
}
