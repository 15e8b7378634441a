package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cardsnap/cardsnap/internal/entity"
)

// Memory is an in-process ResultCache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entity.RecognitionResult
	maxAge  time.Duration
}

func NewMemory(maxAge time.Duration) *Memory {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Memory{
		entries: make(map[string]entity.RecognitionResult),
		maxAge:  maxAge,
	}
}

func (m *Memory) Get(_ context.Context, key string) (entity.RecognitionResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.entries[key]
	return res, ok
}

func (m *Memory) Put(_ context.Context, key string, res entity.RecognitionResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = res
}

func (m *Memory) IsValid(res entity.RecognitionResult, engineID string) bool {
	if engineID != "" && res.EngineID != engineID {
		return false
	}
	return time.Since(res.ProcessedAt) <= m.maxAge
}

// Len reports the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
