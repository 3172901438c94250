package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dohr-michael/dayplan/internal/duration"
	"github.com/dohr-michael/dayplan/internal/events"
	"github.com/dohr-michael/dayplan/internal/goals"
	"github.com/dohr-michael/dayplan/internal/tasks"
)

var errNoOutput = errors.New("generator returned no output")

// Orchestrator runs the two-tier generation flow: the primary generator under
// its policy, then the local generator when the primary fails.
type Orchestrator struct {
	students      goals.StudentStore
	builder       *goals.ContextBuilder
	primary       Generator
	primaryPolicy Policy
	secondary     Generator
	defaults      Preferences
	locale        duration.Locale
	bus           *events.Bus
	now           func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPrimary sets the remote generator and its call policy.
func WithPrimary(g Generator, p Policy) Option {
	return func(o *Orchestrator) {
		o.primary = g
		o.primaryPolicy = p
	}
}

// WithSecondary replaces the local generator.
func WithSecondary(g Generator) Option {
	return func(o *Orchestrator) { o.secondary = g }
}

// WithDefaults sets the preferences applied when a request leaves them out.
func WithDefaults(p Preferences) Option {
	return func(o *Orchestrator) { o.defaults = p.Merge(DefaultPreferences()) }
}

// WithLocale sets the rendering locale of generated tasks.
func WithLocale(l duration.Locale) Option {
	return func(o *Orchestrator) { o.locale = l }
}

// WithBus publishes tier outcomes on bus.
func WithBus(bus *events.Bus) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an orchestrator. Without WithPrimary only the local
// generator runs.
func NewOrchestrator(students goals.StudentStore, builder *goals.ContextBuilder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		students:      students,
		builder:       builder,
		primaryPolicy: DailyTaskPolicy,
		secondary:     LocalGenerator{},
		defaults:      DefaultPreferences(),
		locale:        duration.LocaleEN,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate produces today's task batch for a student.
func (o *Orchestrator) Generate(ctx context.Context, studentID string, prefs Preferences) (*tasks.Batch, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, ErrMissingStudentID
	}
	ctx = events.ContextWithStudentID(ctx, studentID)

	ok, err := o.students.Exists(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("lookup student: %w", err)
	}
	if !ok {
		return nil, goals.ErrStudentNotFound
	}

	gctx, err := o.builder.Build(ctx, studentID)
	if err != nil {
		return nil, err
	}

	req := Request{
		StudentID:   studentID,
		Date:        o.now(),
		Context:     gctx,
		Preferences: prefs.Merge(o.defaults),
		Locale:      o.locale,
	}
	goalCount := len(gctx.Entries)
	start := o.now()

	o.bus.Publish(events.NewTypedStudentEvent(events.SourceGenerator, events.GenerationRequestedPayload{
		Goals:     goalCount,
		TaskCount: req.Preferences.TaskCount,
	}, studentID))

	var tried []TierAttempt

	if o.primary != nil {
		out, attempts, err := Run(ctx, o.primaryPolicy, func(actx context.Context) (*Output, error) {
			res, err := o.primary.Generate(actx, req)
			if err != nil {
				return nil, err
			}
			if res == nil {
				return nil, errNoOutput
			}
			lines, err := usable(res.Tasks, req.Preferences.TaskCount)
			if err != nil {
				return nil, err
			}
			return &Output{Tasks: lines, BasedOnGoals: res.BasedOnGoals}, nil
		})
		if err == nil {
			return o.finish(studentID, gctx, out, tasks.SourcePrimary, start), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		tried = append(tried, o.tierFailed(studentID, tasks.SourcePrimary, attempts, err, start))
	}

	out, err := o.secondary.Generate(ctx, req)
	if err == nil && out == nil {
		err = errNoOutput
	}
	if err == nil {
		var lines []string
		lines, err = usable(out.Tasks, MaxTasks)
		if err == nil {
			out.Tasks = lines
			return o.finish(studentID, gctx, out, tasks.SourceSecondary, start), nil
		}
	}
	tried = append(tried, o.tierFailed(studentID, tasks.SourceSecondary, 1, err, start))

	genErr := &Error{StudentID: studentID, Goals: goalCount, Tiers: tried}
	slog.Error("daily task generation failed", "student_id", studentID, "goals", goalCount, "error", genErr)
	o.bus.Publish(events.NewTypedStudentEvent(events.SourceGenerator, events.GenerationFailedPayload{
		Tiers: tierNames(tried),
		Goals: goalCount,
		Error: genErr.Error(),
	}, studentID))
	return nil, genErr
}

func (o *Orchestrator) tierFailed(studentID string, tier tasks.Source, attempts int, err error, start time.Time) TierAttempt {
	timeout := errors.Is(err, ErrTimeout)
	slog.Warn("generation tier failed",
		"student_id", studentID,
		"tier", tier,
		"attempts", attempts,
		"timeout", timeout,
		"error", err,
	)
	o.bus.Publish(events.NewTypedStudentEvent(events.SourceGenerator, events.TierFailedPayload{
		Tier:     string(tier),
		Attempts: attempts,
		Timeout:  timeout,
		Error:    err.Error(),
		Duration: o.now().Sub(start),
	}, studentID))
	return TierAttempt{Tier: tier, Attempts: attempts, Err: err}
}

func (o *Orchestrator) finish(studentID string, gctx *goals.Context, out *Output, source tasks.Source, start time.Time) *tasks.Batch {
	basedOn := out.BasedOnGoals
	if len(basedOn) == 0 {
		basedOn = gctx.Titles()
	}
	batch := &tasks.Batch{
		Tasks:              out.Tasks,
		BasedOnGoals:       basedOn,
		GeneratedAt:        o.now().UTC(),
		TotalEstimatedTime: duration.Total(out.Tasks, o.locale),
		Source:             source,
	}

	slog.Info("daily tasks generated",
		"student_id", studentID,
		"source", source,
		"count", len(batch.Tasks),
		"total", batch.TotalEstimatedTime,
	)
	o.bus.Publish(events.NewTypedStudentEvent(events.SourceGenerator, events.GenerationCompletedPayload{
		Source:    string(source),
		TaskCount: len(batch.Tasks),
		Goals:     len(gctx.Entries),
		Total:     batch.TotalEstimatedTime,
		Duration:  o.now().Sub(start),
	}, studentID))
	return batch
}

func tierNames(tried []TierAttempt) []string {
	out := make([]string, len(tried))
	for i, t := range tried {
		out[i] = string(t.Tier)
	}
	return out
}
