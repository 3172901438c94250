package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dohr-michael/dayplan/internal/events"
)

func dayDir(dir string, ts time.Time) string {
	return filepath.Join(dir, ts.Local().Format(dayLayout))
}

// waitForFile polls until path exists, since subscribers run asynchronously.
func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s was never written", path)
}

func TestEventLogger_WriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(64)
	defer bus.Close()

	el := NewEventLogger(dir, bus)
	defer el.Close()

	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.Local)
	bus.Publish(events.Event{
		ID:        "evt-1",
		Type:      events.EventGenerationCompleted,
		Timestamp: ts,
		Source:    events.SourceGenerator,
		Payload:   map[string]any{"source": "secondary"},
	})

	path := filepath.Join(dir, "2026-03-02", "_global.jsonl")
	waitForFile(t, path)
	time.Sleep(20 * time.Millisecond)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read JSONL: %v", err)
	}

	var got events.Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != "evt-1" {
		t.Errorf("got ID %q, want %q", got.ID, "evt-1")
	}
	if got.Type != events.EventGenerationCompleted {
		t.Errorf("got type %q, want %q", got.Type, events.EventGenerationCompleted)
	}
}

func TestEventLogger_StudentRouting(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(64)
	defer bus.Close()

	el := NewEventLogger(dir, bus)
	defer el.Close()

	bus.Publish(events.NewEvent(events.EventGenerationRequested, events.SourceGateway, nil))
	saved := events.NewTypedStudentEvent(events.SourcePersister, events.TasksSavedPayload{SavedCount: 3}, "stu-42")
	bus.Publish(saved)

	day := dayDir(dir, saved.Timestamp)
	waitForFile(t, filepath.Join(day, "_global.jsonl"))
	studentPath := filepath.Join(day, "stu-42.jsonl")
	waitForFile(t, studentPath)
	time.Sleep(20 * time.Millisecond)

	data, err := os.ReadFile(studentPath)
	if err != nil {
		t.Fatalf("student file missing: %v", err)
	}
	var got events.Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != events.EventTasksSaved || got.StudentID != "stu-42" {
		t.Errorf("unexpected event %+v", got)
	}
}

func TestEventLogger_ConcurrentAppends(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(64)
	defer bus.Close()

	el := NewEventLogger(dir, bus)
	defer el.Close()

	const n = 20
	ts := time.Now()
	for i := 0; i < n; i++ {
		e := events.NewEvent(events.EventTierFailed, events.SourceGenerator, map[string]any{"i": i})
		e.Timestamp = ts
		bus.Publish(e)
	}

	path := filepath.Join(dayDir(dir, ts), "_global.jsonl")
	deadline := time.Now().Add(2 * time.Second)
	var count int
	for time.Now().Before(deadline) {
		count = countLines(t, path)
		if count == n {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if count != n {
		t.Errorf("got %d events, want %d", count, n)
	}
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	var count int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e events.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal line %d: %v", count, err)
		}
		count++
	}
	return count
}

func TestEventLogger_DirectoryAutoCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	bus := events.NewBus(64)
	defer bus.Close()

	el := NewEventLogger(dir, bus)
	defer el.Close()

	e := events.NewEvent(events.EventAssistantReply, events.SourceAssistant, nil)
	bus.Publish(e)

	waitForFile(t, filepath.Join(dayDir(dir, e.Timestamp), "_global.jsonl"))
}

func TestEventLogger_OnlySelectedTypes(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(64)
	defer bus.Close()

	el := NewEventLogger(dir, bus, events.EventTasksSaved)
	defer el.Close()

	skipped := events.NewStudentEvent(events.EventModelCall, events.SourceModel, nil, "stu-1")
	kept := events.NewStudentEvent(events.EventTasksSaved, events.SourcePersister, nil, "stu-1")
	bus.Publish(skipped)
	bus.Publish(kept)

	path := filepath.Join(dayDir(dir, kept.Timestamp), "stu-1.jsonl")
	waitForFile(t, path)
	time.Sleep(20 * time.Millisecond)
	if n := countLines(t, path); n != 1 {
		t.Errorf("expected only tasks.saved to be logged, got %d lines", n)
	}
}

func TestSafeName(t *testing.T) {
	if got := safeName("../etc/passwd"); got != "___etc_passwd" {
		t.Errorf("safeName = %q", got)
	}
}
