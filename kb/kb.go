// Package kb holds the in-memory body store the overlay and RPC server
// evaluate against.
package kb

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/aero-overlay/internal/scenario"
	"github.com/signalsfoundry/aero-overlay/model"
)

var (
	// ErrBodyNotFound is returned when an ID has no body.
	ErrBodyNotFound = errors.New("body not found")
	// ErrBodyExists is returned when adding a body whose ID is taken.
	ErrBodyExists = errors.New("body already exists")
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventBodyAdded EventType = iota
	EventBodyUpdated
	EventBodyRemoved
)

func (e EventType) String() string {
	switch e {
	case EventBodyAdded:
		return "added"
	case EventBodyUpdated:
		return "updated"
	case EventBodyRemoved:
		return "removed"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

// Body is a named scenario held by the store. Mesh buffers are shared
// between copies and must be treated as read-only.
type Body struct {
	ID       string
	Scenario scenario.Scenario
	// Revision increases on every update.
	Revision uint64
}

// Event is emitted to subscribers when a body changes.
type Event struct {
	Type EventType
	Body Body
}

// CountRecorder receives the body count after every add or remove.
type CountRecorder interface {
	SetBodyCount(n int)
}

// StoreOption configures a BodyStore.
type StoreOption func(*BodyStore)

// WithCountRecorder wires a gauge-style sink for the body count.
func WithCountRecorder(r CountRecorder) StoreOption {
	return func(s *BodyStore) {
		s.counts = r
	}
}

// BodyStore is an in-memory, thread-safe store of bodies.
type BodyStore struct {
	mu sync.RWMutex

	bodies map[string]*Body
	counts CountRecorder

	nextSub int
	subs    map[int]func(Event)
}

// NewBodyStore constructs an empty store.
func NewBodyStore(opts ...StoreOption) *BodyStore {
	s := &BodyStore{
		bodies: make(map[string]*Body),
		subs:   make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddBody stores sc under id.
func (s *BodyStore) AddBody(id string, sc scenario.Scenario) error {
	if id == "" {
		return fmt.Errorf("add body: empty ID")
	}
	s.mu.Lock()
	if _, exists := s.bodies[id]; exists {
		s.mu.Unlock()
		return fmt.Errorf("add body %q: %w", id, ErrBodyExists)
	}
	b := &Body{ID: id, Scenario: sc, Revision: 1}
	s.bodies[id] = b
	n := len(s.bodies)
	event := Event{Type: EventBodyAdded, Body: *b}
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	s.recordCount(n)
	notify(subs, event)
	return nil
}

// GetBody returns a copy of the body with the given ID.
func (s *BodyStore) GetBody(id string) (Body, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bodies[id]
	if !ok {
		return Body{}, fmt.Errorf("get body %q: %w", id, ErrBodyNotFound)
	}
	return *b, nil
}

// ListBodies returns a snapshot of all bodies ordered by ID.
func (s *BodyStore) ListBodies() []Body {
	s.mu.RLock()
	res := make([]Body, 0, len(s.bodies))
	for _, b := range s.bodies {
		res = append(res, *b)
	}
	s.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Len reports the number of stored bodies.
func (s *BodyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bodies)
}

// UpdatePose replaces a body's pose and notifies subscribers.
func (s *BodyStore) UpdatePose(id string, pose scenario.Pose) error {
	return s.update(id, func(sc *scenario.Scenario) { sc.Pose = pose })
}

// UpdateFlow replaces a body's free-stream conditions and notifies
// subscribers.
func (s *BodyStore) UpdateFlow(id string, flow model.FlowConditions) error {
	return s.update(id, func(sc *scenario.Scenario) { sc.Flow = flow.ApplyDefaults() })
}

// RemoveBody deletes a body and notifies subscribers.
func (s *BodyStore) RemoveBody(id string) error {
	s.mu.Lock()
	b, ok := s.bodies[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("remove body %q: %w", id, ErrBodyNotFound)
	}
	delete(s.bodies, id)
	n := len(s.bodies)
	event := Event{Type: EventBodyRemoved, Body: *b}
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	s.recordCount(n)
	notify(subs, event)
	return nil
}

func (s *BodyStore) update(id string, mutate func(*scenario.Scenario)) error {
	s.mu.Lock()
	b, ok := s.bodies[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update body %q: %w", id, ErrBodyNotFound)
	}
	mutate(&b.Scenario)
	b.Revision++
	event := Event{Type: EventBodyUpdated, Body: *b}
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	notify(subs, event)
	return nil
}

// Subscribe registers a callback for store events. Callbacks run on the
// mutating goroutine, outside the lock. It returns an unsubscribe function.
func (s *BodyStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *BodyStore) snapshotSubsLocked() []func(Event) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	return subs
}

func (s *BodyStore) recordCount(n int) {
	if s.counts != nil {
		s.counts.SetBodyCount(n)
	}
}

func notify(subs []func(Event), event Event) {
	for _, sub := range subs {
		sub(event)
	}
}
