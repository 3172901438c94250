// Package storage persists bus events as append-only JSONL logs, one
// directory per day and one file per student inside it.
package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dohr-michael/dayplan/internal/events"
)

const dayLayout = "2006-01-02"

// EventLogger appends bus events to <dir>/<day>/<student>.jsonl. Events
// without a student land in _global.jsonl. The day is the event's local date.
type EventLogger struct {
	mu          sync.Mutex
	dir         string
	unsubscribe func()
}

// NewEventLogger subscribes to every bus event, or only to the given types,
// and writes them under dir.
func NewEventLogger(dir string, bus *events.Bus, only ...events.EventType) *EventLogger {
	el := &EventLogger{dir: dir}
	el.unsubscribe = bus.Subscribe(el.handleEvent, only...)
	return el
}

// Close unsubscribes the logger from the event bus.
func (el *EventLogger) Close() {
	if el.unsubscribe != nil {
		el.unsubscribe()
	}
}

func (el *EventLogger) handleEvent(e events.Event) {
	if err := el.writeEvent(e); err != nil {
		slog.Warn("event log write failed", "event", e.Type, "error", err)
	}
}

func (el *EventLogger) writeEvent(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	// Subscribers run concurrently; serialize appends.
	el.mu.Lock()
	defer el.mu.Unlock()

	path := el.logPath(e)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

func (el *EventLogger) logPath(e events.Event) string {
	name := "_global"
	if e.StudentID != "" {
		name = safeName(e.StudentID)
	}
	return filepath.Join(el.dir, e.Timestamp.Local().Format(dayLayout), name+".jsonl")
}

// safeName keeps student ids from escaping the log directory.
func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
