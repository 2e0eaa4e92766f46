package chain

import (
	"fmt"
	"sync"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
)

// Registry maps chain kinds to their backends. Backends can be registered
// while the registry is in use.
type Registry struct {
	backends map[domain.ChainKind]ports.ChainBackend
	lock     *sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[domain.ChainKind]ports.ChainBackend),
		lock:     &sync.RWMutex{},
	}
}

// Register replaces any backend previously registered for kind.
func (r *Registry) Register(kind domain.ChainKind, backend ports.ChainBackend) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	if backend == nil {
		return fmt.Errorf("missing backend for chain %s", kind)
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	r.backends[kind] = backend
	return nil
}

func (r *Registry) Backend(kind domain.ChainKind) (ports.ChainBackend, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	backend, ok := r.backends[kind]
	if !ok {
		return nil, ports.ErrBackendNotFound
	}
	return backend, nil
}

// Kinds returns the registered chain kinds.
func (r *Registry) Kinds() []domain.ChainKind {
	r.lock.RLock()
	defer r.lock.RUnlock()

	kinds := make([]domain.ChainKind, 0, len(r.backends))
	for kind := range r.backends {
		kinds = append(kinds, kind)
	}
	return kinds
}
