package success

import (
	"context"
	"sync"

	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

// Registry caches loaded models by id in front of a ModelStore so HTTP and
// CLI surfaces share one in-memory copy per artifact.
type Registry struct {
	mu     sync.RWMutex
	store  ModelStore
	models map[string]*Model
	logger logging.Logger
}

// NewRegistry wraps store with an in-memory cache.
func NewRegistry(store ModelStore, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Registry{
		store:  store,
		models: make(map[string]*Model),
		logger: logger.Named("model-registry"),
	}
}

// Get returns the model for id, loading it from the store on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Model, error) {
	r.mu.RLock()
	m, ok := r.models[id]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	if r.store == nil {
		return nil, apperrors.New(apperrors.ErrCodeModelNotTrained, "no model store configured")
	}
	m, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.models[id] = m
	r.mu.Unlock()
	r.logger.Info("model loaded", logging.String("model_id", id), logging.String("version", m.Version))
	return m, nil
}

// Put stores the model under id and refreshes the cache.
func (r *Registry) Put(ctx context.Context, id string, m *Model) error {
	if r.store != nil {
		if err := r.store.Save(ctx, id, m); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.models[id] = m
	r.mu.Unlock()
	return nil
}

// Evict drops the cached copy so the next Get re-reads the store.
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	delete(r.models, id)
	r.mu.Unlock()
}
