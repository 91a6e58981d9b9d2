package board

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"nexusboard/application/ports"
)

// Registry hands out one Store per project, hydrating lazily on first use.
// Each store is the process-wide owner of its project's mirror; sessions
// funnel into it through the message-passing path only.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
	repo   ports.NodeRepository
	logger *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(repo ports.NodeRepository, logger *zap.Logger) *Registry {
	return &Registry{
		stores: make(map[string]*Store),
		repo:   repo,
		logger: logger,
	}
}

// Get returns the store for a project, hydrating it from the document store
// on first access.
func (r *Registry) Get(ctx context.Context, projectID string) (*Store, error) {
	r.mu.Lock()
	store, ok := r.stores[projectID]
	r.mu.Unlock()
	if ok {
		return store, nil
	}

	store = NewStore(r.repo, r.logger.With(zap.String("projectID", projectID)))
	if err := store.SwitchProject(ctx, projectID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.stores[projectID]; ok {
		// Lost a hydration race; the first store wins.
		return existing, nil
	}
	r.stores[projectID] = store
	return store, nil
}

// Peek returns the store if the project is already hydrated.
func (r *Registry) Peek(projectID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[projectID]
	return store, ok
}

// Evict drops a project's mirror, forcing re-hydration on next access.
func (r *Registry) Evict(projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, projectID)
}
