// Package archive dispatches soft-delete and restore requests to the entity
// repositories that support them. Entities opt in by registering an Archiver
// under their kind; unknown kinds are rejected up front instead of being
// discovered inside a SQL switch.
package archive

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
)

// Archiver soft-deletes and restores one entity kind.
type Archiver interface {
	SoftDelete(ctx context.Context, tenantID, id int64) error
	Restore(ctx context.Context, tenantID, id int64) error
}

// ErrUnknownEntity rejects kinds nothing registered.
var ErrUnknownEntity = fmt.Errorf("%w: entity kind is not archivable", httpx.ErrValidation)

// Registry maps entity kinds to their archivers.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]Archiver
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]Archiver)}
}

// Register binds an archiver to a kind. Registering the same kind twice
// panics; wiring happens once at startup and a silent overwrite would hide a
// wiring bug.
func (r *Registry) Register(kind string, a Archiver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entities[kind]; exists {
		panic(fmt.Sprintf("archive: kind %q registered twice", kind))
	}
	r.entities[kind] = a
}

// Kinds lists the registered entity kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.entities))
	for k := range r.entities {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func (r *Registry) archiver(kind string) (Archiver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.entities[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, kind)
	}
	return a, nil
}

// Archive soft-deletes one record of the given kind.
func (r *Registry) Archive(ctx context.Context, kind string, tenantID, id int64) error {
	a, err := r.archiver(kind)
	if err != nil {
		return err
	}
	return a.SoftDelete(ctx, tenantID, id)
}

// Restore clears the soft-delete mark on one record of the given kind.
func (r *Registry) Restore(ctx context.Context, kind string, tenantID, id int64) error {
	a, err := r.archiver(kind)
	if err != nil {
		return err
	}
	return a.Restore(ctx, tenantID, id)
}
