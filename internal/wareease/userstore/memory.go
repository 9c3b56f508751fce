package userstore

import (
	"context"
	"sync"
	"time"

	"github.com/wareease/wareease-web/internal/wareease/signin"
)

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]signin.UserInfo
	retention time.Duration
	now       func() time.Time
}

// NewMemoryStore constructs a MemoryStore. Entries are kept for retention
// past their expiration so callers can still tell "expired" from "absent".
func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]signin.UserInfo),
		retention: retention,
		now:       time.Now,
	}
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, sessionID string, info signin.UserInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	info.Roles = append([]string(nil), info.Roles...)
	m.entries[sessionID] = info
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, sessionID string) (signin.UserInfo, error) {
	m.mu.RLock()
	info, ok := m.entries[sessionID]
	m.mu.RUnlock()
	if !ok {
		return signin.UserInfo{}, ErrNotFound
	}
	if !info.Expiration.IsZero() && m.now().After(info.Expiration.Add(m.retention)) {
		_ = m.Delete(context.Background(), sessionID)
		return signin.UserInfo{}, ErrNotFound
	}
	info.Roles = append([]string(nil), info.Roles...)
	return info, nil
}

// Delete implements Store. Deleting an absent entry is not an error.
func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
