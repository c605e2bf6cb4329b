package chemdict

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry caches Providers by configuration fingerprint so each distinct
// configuration is built exactly once per process.
//
// It replaces a hidden singleton: create one Registry near process startup
// and pass it by reference to every consumer. Concurrent first requests for
// the same configuration share a single build; failed builds are not cached
// and will be retried by the next request.
type Registry struct {
	group singleflight.Group

	mu        sync.Mutex
	providers map[string]*Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*Provider),
	}
}

// Provider returns the cached Provider for the given configuration,
// constructing it on first request.
func (r *Registry) Provider(ctx context.Context, opts ...Option) (*Provider, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	key := cfg.fingerprint()

	r.mu.Lock()
	if p, ok := r.providers[key]; ok {
		r.mu.Unlock()
		return p, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(key, func() (any, error) {
		p, err := New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.providers[key] = p
		r.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Provider), nil
}

// Len returns the number of distinct configurations built so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.providers)
}
