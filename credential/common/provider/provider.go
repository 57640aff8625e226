package provider

import (
	"context"

	"github.com/pilacorp/go-identity-sdk/credential/common/model"
)

// Resolver resolves a DID into its current DID document. This allows custom
// implementations (ledger connectors, universal resolver, test fixtures) to be
// injected into the verification logic.
//
// Implementations return an error wrapping errors.ErrNotFound when the DID
// does not exist and errors.ErrResolutionFailed for any other failure.
type Resolver interface {
	Resolve(ctx context.Context, did string) (*model.DIDDocument, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, did string) (*model.DIDDocument, error)

// Resolve calls f(ctx, did).
func (f ResolverFunc) Resolve(ctx context.Context, did string) (*model.DIDDocument, error) {
	return f(ctx, did)
}
