// Package heartbeat records the liveness of a running dayplan server, and a
// tally of the generations it served, in a small JSON file that the status
// command inspects.
package heartbeat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dohr-michael/dayplan/internal/events"
)

// DefaultInterval is the write period used by NewWriter.
const DefaultInterval = 30 * time.Second

// Status represents the liveness state of the server.
type Status string

const (
	StatusAlive Status = "alive"
	StatusStale Status = "stale"
	StatusDead  Status = "dead"
)

// Heartbeat is the data written to the heartbeat file.
type Heartbeat struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	Primary   string    `json:"primary,omitempty"`
	Locale    string    `json:"locale,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`

	// Served counts completed generations by the tier that produced them.
	Served         map[string]int `json:"served,omitempty"`
	Failed         int            `json:"failed,omitempty"`
	LastGeneration *time.Time     `json:"last_generation,omitempty"`
}

// Uptime is the time between server start and the last write.
func (hb Heartbeat) Uptime() time.Duration {
	return hb.Timestamp.Sub(hb.StartedAt).Truncate(time.Second)
}

// Info describes the server a Writer announces.
type Info struct {
	Addr    string
	Primary string
	Locale  string
}

// Writer periodically rewrites the heartbeat file.
type Writer struct {
	path     string
	info     Info
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	started time.Time
	served  map[string]int
	failed  int
	last    *time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWriter creates a writer announcing info at path every DefaultInterval.
func NewWriter(path string, info Info) *Writer {
	return &Writer{
		path:     path,
		info:     info,
		interval: DefaultInterval,
		now:      time.Now,
		served:   make(map[string]int),
	}
}

// Track tallies generation outcomes published on bus until the returned
// function is called. Counts reach the file on the next write.
func (w *Writer) Track(bus *events.Bus) func() {
	return bus.Subscribe(func(e events.Event) {
		w.mu.Lock()
		defer w.mu.Unlock()

		ts := e.Timestamp
		w.last = &ts
		switch e.Type {
		case events.EventGenerationCompleted:
			p, ok := events.GetGenerationCompletedPayload(e)
			if !ok || p.Source == "" {
				p.Source = "unknown"
			}
			w.served[p.Source]++
		case events.EventGenerationFailed:
			w.failed++
		}
	}, events.EventGenerationCompleted, events.EventGenerationFailed)
}

// Start writes a first heartbeat synchronously, then keeps it fresh in the
// background. Calling Start twice is a no-op.
func (w *Writer) Start() error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return nil
	}
	w.started = w.now()
	w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("heartbeat dir: %w", err)
	}
	if err := w.write(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.mu.Lock()
	w.cancel, w.done = cancel, done
	w.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = w.write()
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop halts the writer and removes the heartbeat file.
func (w *Writer) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	os.Remove(w.path)
}

func (w *Writer) snapshot() Heartbeat {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Heartbeat{
		PID:            os.Getpid(),
		Addr:           w.info.Addr,
		Primary:        w.info.Primary,
		Locale:         w.info.Locale,
		StartedAt:      w.started,
		Timestamp:      w.now(),
		Served:         maps.Clone(w.served),
		Failed:         w.failed,
		LastGeneration: w.last,
	}
}

func (w *Writer) write() error {
	data, err := json.MarshalIndent(w.snapshot(), "", "  ")
	if err != nil {
		return err
	}

	// readers never see a partial file
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}
	return os.Rename(tmp, w.path)
}

// Check reads a heartbeat file. A heartbeat older than maxAge is stale; a
// missing file means no server is running.
func Check(path string, maxAge time.Duration) (Status, *Heartbeat, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return StatusDead, nil, nil
	}
	if err != nil {
		return StatusDead, nil, fmt.Errorf("read heartbeat: %w", err)
	}

	var hb Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		return StatusDead, nil, fmt.Errorf("decode heartbeat: %w", err)
	}
	if time.Since(hb.Timestamp) > maxAge {
		return StatusStale, &hb, nil
	}
	return StatusAlive, &hb, nil
}
