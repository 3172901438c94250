package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dohr-michael/dayplan/internal/events"
	"github.com/dohr-michael/dayplan/internal/goals"
	"github.com/dohr-michael/dayplan/internal/tasks"
)

var fixedNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

type memStudents map[string]bool

func (m memStudents) Exists(_ context.Context, id string) (bool, error) { return m[id], nil }

type memGoals []goals.Goal

func (m memGoals) ListActive(context.Context, string) ([]goals.Goal, error) { return m, nil }

type memTasks struct {
	mu        sync.Mutex
	rows      map[string]tasks.Persisted
	insertErr error
}

func newMemTasks() *memTasks { return &memTasks{rows: map[string]tasks.Persisted{}} }

func (m *memTasks) InsertBatch(_ context.Context, ts []tasks.Persisted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, t := range ts {
		m.rows[t.ID] = t
	}
	return nil
}

func (m *memTasks) ListForDate(_ context.Context, studentID, date string) ([]tasks.Persisted, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tasks.Persisted
	for _, t := range m.rows {
		if t.StudentID == studentID && t.TaskDate == date {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTasks) Get(_ context.Context, id string) (*tasks.Persisted, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return &t, nil
}

func (m *memTasks) UpdateStatus(_ context.Context, id string, status tasks.TaskStatus, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows[id]
	t.Status = status
	t.CompletedAt = completedAt
	m.rows[id] = t
	return nil
}

type memSessions struct {
	saved []tasks.Session
	err   error
}

func (m *memSessions) InsertSession(_ context.Context, s tasks.Session) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, s)
	return nil
}

func testGoals() memGoals {
	return memGoals{
		{ID: "g-algo", Title: "Finish Algorithms", Priority: goals.PriorityHigh, Status: goals.StatusInProgress,
			KeyResults: []goals.KeyResult{{Text: "read CLRS"}, {Text: "practice 10 problems"}}},
		{ID: "g-react", Title: "Learn React", Priority: goals.PriorityMedium, Status: goals.StatusNotStarted},
	}
}

func newTestPersister(ts *memTasks, ss *memSessions, opts ...Option) *Persister {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewPersister(memStudents{"stu-1": true}, testGoals(), ts, ss, opts...)
}

func TestSave(t *testing.T) {
	ts, ss := newMemTasks(), &memSessions{}
	p := newTestPersister(ts, ss)

	res, err := p.Save(context.Background(), SaveRequest{
		StudentID: "stu-1",
		Tasks: []string{
			`[Coursework] practice 10 problems - for "Finish Algorithms" (2 hours)`,
			`[Skill Building] Advance the study plan for "Learn React" (1.5 hours)`,
			`Stretch (ten minutes)`,
		},
		BasedOnGoals: []string{"Finish Algorithms", "Learn React"},
		SessionID:    "3F2B8F3E-1C2D-4E5F-8A9B-0C1D2E3F4A5B",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.SavedCount != 3 || res.SessionID != "3F2B8F3E-1C2D-4E5F-8A9B-0C1D2E3F4A5B" {
		t.Fatalf("unexpected result %+v", res)
	}

	type summary struct {
		Order    int
		Category string
		Minutes  int
		Goal     string
		KR       int
		Date     string
		Status   tasks.TaskStatus
	}
	var got []summary
	for _, r := range res.Tasks {
		goal := ""
		if r.SourceGoalID != nil {
			goal = *r.SourceGoalID
		}
		got = append(got, summary{r.Order, r.Category, r.EstimatedMinutes, goal, r.SourceKeyResultIndex, r.TaskDate, r.Status})
	}
	want := []summary{
		{1, "Coursework", 120, "g-algo", 1, "2026-10-16", tasks.TaskPending},
		{2, "Skill Building", 90, "g-react", 0, "2026-10-16", tasks.TaskPending},
		{3, "Study Task", 60, "g-algo", 0, "2026-10-16", tasks.TaskPending},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("persisted tasks mismatch (-want +got):\n%s", diff)
	}

	if len(ss.saved) != 1 {
		t.Fatalf("expected a session summary, got %d", len(ss.saved))
	}
	if ss.saved[0].Descriptor != "generated 3 daily tasks from 2 goals" {
		t.Errorf("unexpected descriptor %q", ss.saved[0].Descriptor)
	}
}

func TestSave_TaskOrderContiguous(t *testing.T) {
	for _, n := range []int{1, 3, 7} {
		t.Run(fmt.Sprintf("%d tasks", n), func(t *testing.T) {
			p := newTestPersister(newMemTasks(), &memSessions{})
			lines := make([]string, n)
			for i := range lines {
				lines[i] = fmt.Sprintf("[Review] item %d (30 minutes)", i)
			}
			res, err := p.Save(context.Background(), SaveRequest{StudentID: "stu-1", Tasks: lines})
			if err != nil {
				t.Fatal(err)
			}
			for i, r := range res.Tasks {
				if r.Order != i+1 {
					t.Errorf("task %d has order %d", i, r.Order)
				}
				if r.SessionID != res.SessionID {
					t.Errorf("task %d has session %q, want %q", i, r.SessionID, res.SessionID)
				}
			}
		})
	}
}

func TestSave_SessionIDReplaced(t *testing.T) {
	p := newTestPersister(newMemTasks(), &memSessions{})
	res, err := p.Save(context.Background(), SaveRequest{StudentID: "stu-1", Tasks: []string{"x"}, SessionID: "not-a-uuid"})
	if err != nil {
		t.Fatal(err)
	}
	if !sessionIDRe.MatchString(res.SessionID) {
		t.Errorf("expected a fresh UUID, got %q", res.SessionID)
	}
}

func TestSave_BlankTaskDefaulted(t *testing.T) {
	p := newTestPersister(newMemTasks(), &memSessions{})
	res, err := p.Save(context.Background(), SaveRequest{StudentID: "stu-1", Tasks: []string{"   "}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Tasks[0].Content != "[Study Task] Study Task (1 hour)" {
		t.Errorf("unexpected default content %q", res.Tasks[0].Content)
	}
	if res.Tasks[0].EstimatedMinutes != 60 {
		t.Errorf("unexpected minutes %d", res.Tasks[0].EstimatedMinutes)
	}
}

func TestSave_Validation(t *testing.T) {
	ts := newMemTasks()
	p := newTestPersister(ts, &memSessions{})

	tests := []struct {
		name string
		req  SaveRequest
		want error
	}{
		{"missing student", SaveRequest{Tasks: []string{"a"}}, ErrMissingStudentID},
		{"empty tasks", SaveRequest{StudentID: "stu-1"}, ErrEmptyTaskList},
		{"unknown student", SaveRequest{StudentID: "ghost", Tasks: []string{"a"}}, goals.ErrStudentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Save(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
	if len(ts.rows) != 0 {
		t.Errorf("validation failures wrote %d rows", len(ts.rows))
	}
}

func TestSave_InsertFailure(t *testing.T) {
	ts := newMemTasks()
	ts.insertErr = errors.New("disk full")
	ss := &memSessions{}
	p := newTestPersister(ts, ss)

	_, err := p.Save(context.Background(), SaveRequest{StudentID: "stu-1", Tasks: []string{"a"}})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(ss.saved) != 0 {
		t.Error("session summary written after failed insert")
	}
}

func TestSave_SummaryFailureIsNonFatal(t *testing.T) {
	bus := events.NewBus(8)
	defer bus.Close()
	failed, unsub := bus.SubscribeChan(2, events.EventSessionSummaryFailed)
	defer unsub()

	p := newTestPersister(newMemTasks(), &memSessions{err: errors.New("constraint")}, WithBus(bus))
	res, err := p.Save(context.Background(), SaveRequest{StudentID: "stu-1", Tasks: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("summary failure must not fail the save: %v", err)
	}
	if res.SavedCount != 2 {
		t.Errorf("unexpected count %d", res.SavedCount)
	}

	select {
	case e := <-failed:
		if e.StudentID != "stu-1" {
			t.Errorf("unexpected student %q", e.StudentID)
		}
	case <-time.After(time.Second):
		t.Fatal("no summary failure event")
	}
}

func TestUpdateStatus(t *testing.T) {
	ts := newMemTasks()
	p := newTestPersister(ts, &memSessions{})
	res, err := p.Save(context.Background(), SaveRequest{StudentID: "stu-1", Tasks: []string{"a"}})
	if err != nil {
		t.Fatal(err)
	}
	id := res.Tasks[0].ID

	if _, err := p.UpdateStatus(context.Background(), id, tasks.TaskCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> completed should be rejected, got %v", err)
	}

	if _, err := p.UpdateStatus(context.Background(), id, tasks.TaskInProgress); err != nil {
		t.Fatal(err)
	}
	done, err := p.UpdateStatus(context.Background(), id, tasks.TaskCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(fixedNow) {
		t.Errorf("expected completion stamp, got %v", done.CompletedAt)
	}

	reset, err := p.UpdateStatus(context.Background(), id, tasks.TaskPending)
	if err != nil {
		t.Fatal(err)
	}
	if reset.CompletedAt != nil {
		t.Error("reset should clear the completion stamp")
	}

	if _, err := p.UpdateStatus(context.Background(), id, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := p.UpdateStatus(context.Background(), "task_missing", tasks.TaskPending); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestListForDate_DefaultsToToday(t *testing.T) {
	ts := newMemTasks()
	p := newTestPersister(ts, &memSessions{})
	if _, err := p.Save(context.Background(), SaveRequest{StudentID: "stu-1", Tasks: []string{"a", "b"}}); err != nil {
		t.Fatal(err)
	}
	got, err := p.ListForDate(context.Background(), "stu-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(got))
	}
	if _, err := p.ListForDate(context.Background(), "", ""); !errors.Is(err, ErrMissingStudentID) {
		t.Errorf("expected ErrMissingStudentID, got %v", err)
	}
}
