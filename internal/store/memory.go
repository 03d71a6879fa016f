// Package store provides the in-memory delivery record store.
//
// Persistence across restarts is out of scope for the engine; the store is a
// process-local map behind the ports.DeliveryStore interface so a durable
// implementation can replace it without touching workflow logic.
package store

import (
	"context"
	"sync"

	"github.com/bft-labs/rollcall/internal/domain"
	"github.com/bft-labs/rollcall/internal/ports"
)

// entry pairs a record with its own lock. All state reads and transitions for
// one record serialize on this lock, so the submit/expire race resolves to
// whichever write lands first; the loser's guard sees a terminal state.
type entry struct {
	mu  sync.Mutex
	rec domain.DeliveryRecord
}

// Memory is a volatile ports.DeliveryStore keeping records in process-local
// maps. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	active  string
	records map[string]map[string]*entry
}

var _ ports.DeliveryStore = (*Memory)(nil)

// NewMemory constructs an empty store with no active cycle.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]map[string]*entry)}
}

// Activate makes cycleID the active cycle and releases the records of the
// previously active one.
func (m *Memory) Activate(_ context.Context, cycleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != "" && m.active != cycleID {
		delete(m.records, m.active)
	}
	m.active = cycleID
	if _, ok := m.records[cycleID]; !ok {
		m.records[cycleID] = make(map[string]*entry)
	}
	return nil
}

// Create inserts a new record, enforcing one record per (cycle, recipient).
func (m *Memory) Create(_ context.Context, rec domain.DeliveryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cycle, ok := m.records[rec.CycleID]
	if !ok {
		cycle = make(map[string]*entry)
		m.records[rec.CycleID] = cycle
	}
	if _, exists := cycle[rec.RecipientID]; exists {
		return domain.ErrDuplicateDelivery
	}
	cycle[rec.RecipientID] = &entry{rec: rec}
	return nil
}

// Get returns the record for the pair.
func (m *Memory) Get(_ context.Context, cycleID, recipientID string) (domain.DeliveryRecord, error) {
	e, err := m.entry(cycleID, recipientID)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneRecord(e.rec), nil
}

// Lookup returns the recipient's record in the active cycle.
func (m *Memory) Lookup(ctx context.Context, recipientID string) (domain.DeliveryRecord, error) {
	m.mu.RLock()
	active := m.active
	m.mu.RUnlock()
	if active == "" {
		return domain.DeliveryRecord{}, domain.ErrUnknownDelivery
	}
	return m.Get(ctx, active, recipientID)
}

// Update runs fn on the record under its lock and persists the result when
// fn returns nil.
func (m *Memory) Update(_ context.Context, cycleID, recipientID string, fn func(*domain.DeliveryRecord) error) (domain.DeliveryRecord, error) {
	e, err := m.entry(cycleID, recipientID)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	work := cloneRecord(e.rec)
	if err := fn(&work); err != nil {
		return cloneRecord(e.rec), err
	}
	e.rec = work
	return cloneRecord(work), nil
}

// List returns a snapshot of the cycle's records.
func (m *Memory) List(_ context.Context, cycleID string) ([]domain.DeliveryRecord, error) {
	m.mu.RLock()
	cycle := m.records[cycleID]
	entries := make([]*entry, 0, len(cycle))
	for _, e := range cycle {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	out := make([]domain.DeliveryRecord, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, cloneRecord(e.rec))
		e.mu.Unlock()
	}
	return out, nil
}

func (m *Memory) entry(cycleID, recipientID string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cycle, ok := m.records[cycleID]
	if !ok {
		return nil, domain.ErrUnknownDelivery
	}
	e, ok := cycle[recipientID]
	if !ok {
		return nil, domain.ErrUnknownDelivery
	}
	return e, nil
}

// cloneRecord copies the record including its payload map so callers cannot
// mutate stored state from outside the lock.
func cloneRecord(rec domain.DeliveryRecord) domain.DeliveryRecord {
	if rec.Payload != nil {
		p := make(map[string]string, len(rec.Payload))
		for k, v := range rec.Payload {
			p[k] = v
		}
		rec.Payload = p
	}
	return rec
}
