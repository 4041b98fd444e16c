package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Record is the counter for one (client, route, window) key.
type Record struct {
	Count     int
	ResetTime time.Time
}

// Store persists window counters. Hit performs the whole read-modify-write for
// one request: a missing or expired record is replaced with Count=1, a record
// at max is left untouched and reported as rejected, anything else is
// incremented.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (rec Record, allowed bool, err error)
	Sweep(ctx context.Context, now time.Time) (int, error)
	Len(ctx context.Context) (int, error)
}

// MemoryStore keeps counters in process memory. Each instance of the service
// has its own counts.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (m *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok || now.After(rec.ResetTime) {
		rec = &Record{Count: 1, ResetTime: now.Add(window)}
		m.records[key] = rec
		return *rec, true, nil
	}

	if rec.Count >= limit {
		return *rec, false, nil
	}

	rec.Count++
	return *rec, true, nil
}

func (m *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, rec := range m.records {
		if now.After(rec.ResetTime) {
			delete(m.records, key)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}
