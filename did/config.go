package did

import (
	"github.com/pilacorp/go-identity-sdk/credential/revocation"
)

// DefaultMethod is the DID method prefix used when none is configured.
const DefaultMethod = "did:nda"

// DIDConfig holds configuration for DID generation.
type DIDConfig struct {
	// Method is the DID method prefix, e.g. "did:nda".
	Method string
	// KeyType is used when CreateDID leaves it empty.
	KeyType KeyType
	// Controller is written as the document controller. Empty means the DID
	// controls itself.
	Controller string
	// Revocation creates the initial revocation service. Nil disables it.
	Revocation *revocation.Manager
}

// DIDOption is a functional option type for configuring DIDGenerator.
type DIDOption func(*DIDConfig)

// WithMethod sets the DID method prefix.
func WithMethod(method string) DIDOption {
	return func(c *DIDConfig) { c.Method = method }
}

// WithKeyType sets the default key type.
func WithKeyType(keyType KeyType) DIDOption {
	return func(c *DIDConfig) { c.KeyType = keyType }
}

// WithController sets the controller of generated documents.
func WithController(controller string) DIDOption {
	return func(c *DIDConfig) { c.Controller = controller }
}

// WithRevocationManager sets the manager creating the initial revocation service.
func WithRevocationManager(m *revocation.Manager) DIDOption {
	return func(c *DIDConfig) { c.Revocation = m }
}

// WithoutRevocationService generates documents without a revocation service.
func WithoutRevocationService() DIDOption {
	return func(c *DIDConfig) { c.Revocation = nil }
}
