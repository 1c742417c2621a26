package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryHistory is an in-process HistoryStore
type MemoryHistory struct {
	mu      sync.RWMutex
	records []Record
	now     func() time.Time
}

// NewMemoryHistory creates an empty store
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{now: time.Now}
}

// Save stores a copy of rec and returns its id
func (m *MemoryHistory) Save(ctx context.Context, rec Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = uuid.NewString()
	rec.CreatedAt = m.now().UTC()
	m.records = append(m.records, rec)
	return rec.ID, nil
}

// Recent returns up to limit records for userID, newest first
func (m *MemoryHistory) Recent(ctx context.Context, userID string, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// Walk newest first so equal timestamps keep insertion recency
	out := []Record{}
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.UserID != nil && *r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
