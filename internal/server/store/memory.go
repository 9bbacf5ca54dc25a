package store

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Memory keeps content in process memory. It backs development mode and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

func (m *Memory) Upload(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable("memory upload", err)
	}

	c, err := ComputeCID(data)
	if err != nil {
		return "", rejected("memory upload", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[c] = bytes.Clone(data)
	return c, nil
}

func (m *Memory) Fetch(ctx context.Context, cid string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("memory fetch", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[cid]
	if !ok {
		return nil, notFound(cid)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
