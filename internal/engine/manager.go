package engine

import (
	"context"
	"sync"

	"github.com/ytget/stream-merger/internal/logger"
)

// Manager owns the process-wide engine instance and loads it on first use.
type Manager struct {
	engine Engine
	logger logger.Logger
	mu     sync.Mutex
}

// NewManager creates a manager for e
func NewManager(e Engine, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{engine: e, logger: log}
}

// Engine returns the managed engine
func (m *Manager) Engine() Engine {
	return m.engine
}

// EnsureLoaded loads the engine unless it already is. A failed load is
// returned as is and not retried; the next call tries again.
func (m *Manager) EnsureLoaded(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.engine.IsLoaded() {
		return nil
	}

	m.logger.Infof("Loading media engine...")
	if err := m.engine.Load(ctx); err != nil {
		m.logger.Errorf("Media engine load failed: %v", err)
		return err
	}
	m.logger.Infof("Media engine loaded")
	return nil
}
