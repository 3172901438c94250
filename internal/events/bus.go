// Package events provides an in-memory event bus carrying pipeline
// diagnostics (tier failures, saves, summaries) to observers.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Generation pipeline
	EventGenerationRequested EventType = "generation.requested"
	EventTierFailed          EventType = "generation.tier.failed"
	EventGenerationCompleted EventType = "generation.completed"
	EventGenerationFailed    EventType = "generation.failed"

	// Persistence
	EventTasksSaved           EventType = "tasks.saved"
	EventSessionSummaryFailed EventType = "session.summary.failed"
	EventTaskStatusChanged    EventType = "task.status.changed"

	// Conversational assistant
	EventAssistantReply EventType = "assistant.reply"

	// Chat model calls
	EventModelCall EventType = "model.call"
)

// EventSource identifies the component that emitted an event.
type EventSource string

const (
	SourceGateway   EventSource = "gateway"
	SourceGenerator EventSource = "generator"
	SourcePersister EventSource = "persister"
	SourceAssistant EventSource = "assistant"
	SourceModel     EventSource = "model"
)

// Event is one pipeline occurrence. StudentID is empty for events not tied
// to a student.
type Event struct {
	ID        string         `json:"id"`
	StudentID string         `json:"student_id,omitempty"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    EventSource    `json:"source"`
	Payload   map[string]any `json:"payload"`
}

var eventSeq uint64

// NewEvent creates an event not tied to a student.
func NewEvent(eventType EventType, source EventSource, payload map[string]any) Event {
	return NewStudentEvent(eventType, source, payload, "")
}

// NewStudentEvent creates an event scoped to a student.
func NewStudentEvent(eventType EventType, source EventSource, payload map[string]any, studentID string) Event {
	return Event{
		ID:        generateEventID(),
		StudentID: studentID,
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    source,
		Payload:   payload,
	}
}

func generateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), atomic.AddUint64(&eventSeq, 1))
}

// Subscriber is a function that receives events.
type Subscriber func(Event)

type subscription struct {
	eventTypes []EventType
	handler    Subscriber
}

func (s *subscription) wants(t EventType) bool {
	if len(s.eventTypes) == 0 {
		return true
	}
	for _, et := range s.eventTypes {
		if et == t {
			return true
		}
	}
	return false
}

// Bus is an in-memory event bus. Publish never blocks: events are dropped
// when the queue is full. A single dispatcher records history and fans out
// to subscribers, each call on its own goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]*subscription
	nextID      int
	queue       chan Event
	history     *ring
	closed      bool
	done        chan struct{}
}

// NewBus creates a bus whose queue and history both hold size events.
func NewBus(size int) *Bus {
	if size < 1 {
		size = 1
	}
	b := &Bus{
		subscribers: make(map[int]*subscription),
		queue:       make(chan Event, size),
		history:     newRing(size),
		done:        make(chan struct{}),
	}
	go b.dispatch()
	return b
}

func (b *Bus) dispatch() {
	for {
		select {
		case event := <-b.queue:
			b.history.add(event)
			b.notify(event)
		case <-b.done:
			return
		}
	}
}

func (b *Bus) notify(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.wants(event.Type) {
			go sub.handler(event)
		}
	}
}

// Publish queues an event. A nil or closed bus drops it.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.queue <- event:
	default:
	}
}

// Subscribe registers a handler for the given event types, or for every
// event when none are given. Returns an unsubscribe function.
func (b *Bus) Subscribe(handler Subscriber, eventTypes ...EventType) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subscribers[id] = &subscription{eventTypes: eventTypes, handler: handler}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
	}
}

// SubscribeChan delivers matching events on a buffered channel. Events are
// dropped when the channel is full.
func (b *Bus) SubscribeChan(bufSize int, eventTypes ...EventType) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)
	var once sync.Once
	var closing sync.RWMutex
	closed := false

	unsubscribe := b.Subscribe(func(e Event) {
		closing.RLock()
		defer closing.RUnlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		default:
		}
	}, eventTypes...)

	return ch, func() {
		once.Do(func() {
			unsubscribe()
			closing.Lock()
			closed = true
			close(ch)
			closing.Unlock()
		})
	}
}

// History returns up to limit recent events, oldest first.
func (b *Bus) History(limit int) []Event {
	return b.HistoryFor("", limit)
}

// HistoryFor returns up to limit recent events of one student, oldest
// first. An empty studentID matches every event.
func (b *Bus) HistoryFor(studentID string, limit int) []Event {
	return b.history.last(limit, func(e Event) bool {
		return studentID == "" || e.StudentID == studentID
	})
}

// Close stops dispatching. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
}

// ring keeps the most recent events.
type ring struct {
	mu     sync.RWMutex
	events []Event
	pos    int
	count  int
}

func newRing(size int) *ring {
	return &ring{events: make([]Event, size)}
}

func (r *ring) add(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.pos] = event
	r.pos = (r.pos + 1) % len(r.events)
	if r.count < len(r.events) {
		r.count++
	}
}

// last walks from newest to oldest collecting up to n matching events and
// returns them oldest first.
func (r *ring) last(n int, match func(Event) bool) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	var out []Event
	size := len(r.events)
	for i := 1; i <= r.count && len(out) < n; i++ {
		e := r.events[(r.pos-i+size)%size]
		if match(e) {
			out = append(out, e)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
