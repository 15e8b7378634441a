// Package ocr implements the text-recognition stage: pluggable engines, a
// registry with per-engine health, deadline enforcement, and heuristic
// confidence scoring.
package ocr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cardsnap/cardsnap/internal/entity"
)

// EngineOutput is the raw output of one backend run. Lines may carry a
// native per-line confidence in (0,1]; 0 means the backend exposes none and
// the heuristic estimator fills it in.
type EngineOutput struct {
	Lines []entity.TextLine
}

// Engine is a pluggable OCR backend.
type Engine interface {
	ID() string
	Recognize(ctx context.Context, image []byte, opts entity.ProcessingOptions) (EngineOutput, error)
}

// Pinger is an optional probe an engine can implement for explicit health
// checks; engines without it are probed by construction only.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Registry tracks the available engines, the current selection, and the
// last-known health per engine. Health is single-writer-per-engine,
// read-many; readers tolerate eventual consistency.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
	order   []string
	current string
	health  map[string]entity.EngineHealth
}

func NewRegistry(engines ...Engine) (*Registry, error) {
	if len(engines) == 0 {
		return nil, fmt.Errorf("at least one engine is required")
	}
	r := &Registry{
		engines: make(map[string]Engine, len(engines)),
		health:  make(map[string]entity.EngineHealth, len(engines)),
	}
	for _, e := range engines {
		if _, dup := r.engines[e.ID()]; dup {
			return nil, fmt.Errorf("duplicate engine id %q", e.ID())
		}
		r.engines[e.ID()] = e
		r.order = append(r.order, e.ID())
		r.health[e.ID()] = entity.EngineHealth{EngineID: e.ID(), IsHealthy: true, CheckedAt: time.Now().UTC()}
	}
	r.current = engines[0].ID()
	return r, nil
}

// ListEngines returns engine ids in registration order.
func (r *Registry) ListEngines() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SelectEngine switches the current engine.
func (r *Registry) SelectEngine(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.engines[id]; !ok {
		return fmt.Errorf("unknown engine %q", id)
	}
	r.current = id
	return nil
}

// CurrentEngine returns the currently selected engine.
func (r *Registry) CurrentEngine() Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engines[r.current]
}

// Engine looks up an engine by id.
func (r *Registry) Engine(id string) (Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[id]
	return e, ok
}

// Health returns the last-known health snapshot for an engine.
func (r *Registry) Health(id string) (entity.EngineHealth, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.health[id]
	return h, ok
}

func (r *Registry) markHealthy(id string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.health[id] = entity.EngineHealth{
		EngineID:       id,
		IsHealthy:      true,
		ResponseTimeMs: elapsed.Milliseconds(),
		CheckedAt:      time.Now().UTC(),
	}
}

func (r *Registry) markUnhealthy(id string, elapsed time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.health[id] = entity.EngineHealth{
		EngineID:       id,
		IsHealthy:      false,
		LastError:      err.Error(),
		ResponseTimeMs: elapsed.Milliseconds(),
		CheckedAt:      time.Now().UTC(),
	}
}

// HealthCheck actively probes an engine (the current one when id is empty)
// and records the outcome.
func (r *Registry) HealthCheck(ctx context.Context, id string) (entity.EngineHealth, error) {
	r.mu.RLock()
	if id == "" {
		id = r.current
	}
	eng, ok := r.engines[id]
	r.mu.RUnlock()
	if !ok {
		return entity.EngineHealth{}, fmt.Errorf("unknown engine %q", id)
	}

	start := time.Now()
	var err error
	if p, probeable := eng.(Pinger); probeable {
		err = p.Ping(ctx)
	}
	elapsed := time.Since(start)
	if err != nil {
		r.markUnhealthy(id, elapsed, err)
	} else {
		r.markHealthy(id, elapsed)
	}
	h, _ := r.Health(id)
	return h, nil
}
