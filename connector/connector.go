// Package connector defines how the SDK reads and writes DID documents in an
// identity store, and how connector implementations are looked up by type.
package connector

import (
	"context"
	"maps"
	"slices"
	"sync"

	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	"github.com/pilacorp/go-identity-sdk/credential/common/provider"
)

// IdentityConnector reads and writes DID documents in an identity store.
type IdentityConnector interface {
	provider.Resolver

	// ResolveVersioned returns the stored document and its version.
	ResolveVersioned(ctx context.Context, did string) (*model.DIDDocument, string, error)

	// Store writes doc if the stored version still equals expectedVersion and
	// returns the new version. An empty expectedVersion creates the document.
	// A version mismatch returns ErrConflict.
	Store(ctx context.Context, doc *model.DIDDocument, expectedVersion string) (string, error)
}

// Factory creates a connector from string options.
type Factory func(options map[string]string) (IdentityConnector, error)

// Registry maps connector types to their factories.
type Registry struct {
	mutex     sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds the factory of a connector type. A type can be registered once.
func (r *Registry) Register(connectorType string, factory Factory) error {
	if connectorType == "" || factory == nil {
		return sdkerrors.Newf(sdkerrors.ErrGuard, "connector type and factory are required")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.factories[connectorType]; ok {
		return sdkerrors.Newf(sdkerrors.ErrConflict, "connector type %q is already registered", connectorType)
	}

	r.factories[connectorType] = factory

	return nil
}

// New creates a connector of the given type.
func (r *Registry) New(connectorType string, options map[string]string) (IdentityConnector, error) {
	r.mutex.RLock()
	factory, ok := r.factories[connectorType]
	r.mutex.RUnlock()

	if !ok {
		return nil, sdkerrors.Newf(sdkerrors.ErrNotFound, "connector type %q is not registered", connectorType)
	}

	return factory(options)
}

// Types returns the registered connector types in sorted order.
func (r *Registry) Types() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return slices.Sorted(maps.Keys(r.factories))
}
