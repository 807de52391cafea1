package progress

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory with lazy expiry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Load returns a deep copy of the stored record.
func (s *MemoryStore) Load(_ context.Context, requestID string) (Record, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[requestID]
	s.mu.RUnlock()
	if !ok {
		return Record{}, false, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		if current, still := s.entries[requestID]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(s.entries, requestID)
		}
		s.mu.Unlock()
		return Record{}, false, nil
	}
	var record Record
	if err := json.Unmarshal(entry.payload, &record); err != nil {
		return Record{}, false, err
	}
	return record, true, nil
}

// Save stores record until ttl elapses. A non-positive ttl keeps it until deleted.
func (s *MemoryStore) Save(_ context.Context, record Record, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	entry := memoryEntry{payload: payload}
	now := s.now()
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[record.State.RequestID] = entry
	s.sweepLocked(now)
	return nil
}

// Delete removes the record.
func (s *MemoryStore) Delete(_ context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, requestID)
	return nil
}

// Len reports how many records are held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for id, entry := range s.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(s.entries, id)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
