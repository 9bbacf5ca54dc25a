// Package pinlog records every CID the service pins, so that pins left
// behind by failed vault creations can be found and released later.
package pinlog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Pin is one uploaded file of a vault creation. CreationID is issued by
// the server for every create call; RequestID is kept for log correlation
// only and may repeat across calls.
type Pin struct {
	CreationID string
	RequestID  string
	Position   int
	CID        string
	Size       int64
	Orphaned   bool
	PinnedAt   time.Time
}

type Journal interface {
	RecordPinned(ctx context.Context, p Pin) error
	// MarkOrphaned flags every pin of creationID and returns them.
	MarkOrphaned(ctx context.Context, creationID string) ([]Pin, error)
	// Orphaned lists orphaned pins whose CID is not also held by a pin
	// that is still live, so releasing them never touches a live vault.
	Orphaned(ctx context.Context) ([]Pin, error)
	Close() error
}

// Memory is the journal used when no database is configured. Records do
// not survive a restart.
type Memory struct {
	mu   sync.Mutex
	pins []Pin
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) RecordPinned(ctx context.Context, p Pin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins = append(m.pins, p)
	return nil
}

func (m *Memory) MarkOrphaned(ctx context.Context, creationID string) ([]Pin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var marked []Pin
	for i := range m.pins {
		if m.pins[i].CreationID == creationID {
			m.pins[i].Orphaned = true
			marked = append(marked, m.pins[i])
		}
	}
	return marked, nil
}

func (m *Memory) Orphaned(ctx context.Context) ([]Pin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := make(map[string]struct{})
	for _, p := range m.pins {
		if !p.Orphaned {
			live[p.CID] = struct{}{}
		}
	}

	var res []Pin
	for _, p := range m.pins {
		if _, held := live[p.CID]; p.Orphaned && !held {
			res = append(res, p)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].CreationID != res[j].CreationID {
			return res[i].PinnedAt.Before(res[j].PinnedAt)
		}
		return res[i].Position < res[j].Position
	})
	return res, nil
}

func (m *Memory) Close() error { return nil }
