package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ramen-directory/internal/client"
	"ramen-directory/internal/config"
	"ramen-directory/internal/directory"
	"ramen-directory/internal/media"
	"ramen-directory/internal/metrics"
	"ramen-directory/internal/session"
	"ramen-directory/internal/views"
)

// Builder creates the API services of a new workspace bound to its session.
type Builder func(store *session.Store, logger *zap.Logger) (Services, error)

// DirectoryBuilder talks to the ramen API described by cfg.
func DirectoryBuilder(cfg *config.Config) Builder {
	return func(store *session.Store, logger *zap.Logger) (Services, error) {
		c, err := client.NewRamenClient(cfg, store, logger)
		if err != nil {
			return Services{}, fmt.Errorf("failed to create ramen client: %w", err)
		}
		svc := directory.NewService(c, store, logger)
		return Services{
			Auth:       svc,
			Shops:      svc,
			Reviews:    svc,
			Events:     svc,
			Activities: svc,
			Admin:      svc,
		}, nil
	}
}

type Options struct {
	Resolver media.Resolver
	Limits   views.Limits
	// IdleTTL evicts workspaces not used for that long; zero keeps them.
	IdleTTL time.Duration
}

// Manager owns every live workspace.
type Manager struct {
	build  Builder
	opts   Options
	now    func() time.Time
	logger *zap.Logger

	mu     sync.Mutex
	spaces map[string]*Workspace
}

func NewManager(build Builder, opts Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		build:  build,
		opts:   opts,
		now:    time.Now,
		logger: logger,
		spaces: make(map[string]*Workspace),
	}
}

// Get returns the workspace with id and marks it used.
func (m *Manager) Get(id string) (*Workspace, bool) {
	m.mu.Lock()
	w, ok := m.spaces[id]
	m.mu.Unlock()
	if ok {
		w.touch(m.now())
	}
	return w, ok
}

// Create starts a new workspace with a fresh id.
func (m *Manager) Create() (*Workspace, error) {
	id := uuid.NewString()
	logger := m.logger.With(zap.String("workspace", id))
	store := session.NewStore(logger)
	svc, err := m.build(store, logger)
	if err != nil {
		return nil, err
	}
	w := newWorkspace(id, store, svc, m.opts.Resolver, m.opts.Limits, m.now(), logger)

	m.mu.Lock()
	m.spaces[id] = w
	n := len(m.spaces)
	m.mu.Unlock()

	metrics.SetWorkspaces(n)
	logger.Debug("workspace created")
	return w, nil
}

// GetOrCreate returns the workspace with id, or a new one when id is
// unknown or expired. created reports which.
func (m *Manager) GetOrCreate(id string) (w *Workspace, created bool, err error) {
	if id != "" {
		if w, ok := m.Get(id); ok {
			return w, false, nil
		}
	}
	w, err = m.Create()
	return w, err == nil, err
}

// Evict closes and forgets one workspace.
func (m *Manager) Evict(id string) {
	m.mu.Lock()
	w, ok := m.spaces[id]
	delete(m.spaces, id)
	n := len(m.spaces)
	m.mu.Unlock()
	if !ok {
		return
	}
	w.Close()
	metrics.SetWorkspaces(n)
}

// Sweep evicts every workspace idle for longer than the TTL and returns how
// many were evicted.
func (m *Manager) Sweep() int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	var idle []*Workspace
	for id, w := range m.spaces {
		if w.idleSince().Before(cutoff) {
			idle = append(idle, w)
			delete(m.spaces, id)
		}
	}
	n := len(m.spaces)
	m.mu.Unlock()

	for _, w := range idle {
		w.Close()
	}
	if len(idle) > 0 {
		metrics.SetWorkspaces(n)
		m.logger.Info("evicted idle workspaces", zap.Int("count", len(idle)), zap.Int("remaining", n))
	}
	return len(idle)
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	if m.opts.IdleTTL <= 0 {
		return
	}
	interval := max(m.opts.IdleTTL/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spaces)
}

// Close evicts everything.
func (m *Manager) Close() {
	m.mu.Lock()
	spaces := m.spaces
	m.spaces = make(map[string]*Workspace)
	m.mu.Unlock()
	for _, w := range spaces {
		w.Close()
	}
	metrics.SetWorkspaces(0)
}
