// Package revocation computes revocation updates of DID documents.
//
// Every operation takes a document snapshot and returns a new document; nothing
// is persisted. Callers that revoke concurrently must store the result with a
// compare-and-swap on the snapshot they started from, see connector.UpdateRevocation.
package revocation

import (
	"fmt"

	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/pilacorp/go-identity-sdk/credential/common/config"
	credentialstatus "github.com/pilacorp/go-identity-sdk/credential/common/credential-status"
	"github.com/pilacorp/go-identity-sdk/credential/common/document"
	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	logfields "github.com/pilacorp/go-identity-sdk/internal/log"
)

var logger = log.New("revocation")

// Manager reads and updates the #revocation service of DID documents.
type Manager struct {
	capacity    int
	serviceType string
}

// Option configures a Manager.
type Option func(*Manager)

// WithCapacity sets the bitstring capacity in bits.
func WithCapacity(capacity int) Option {
	return func(m *Manager) {
		m.capacity = capacity
	}
}

// WithServiceType sets the type of revocation services created by AddRevocationService.
func WithServiceType(serviceType string) Option {
	return func(m *Manager) {
		m.serviceType = serviceType
	}
}

// NewManager returns a Manager using the configured capacity and the
// BitstringStatusList service type unless overridden.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		capacity:    config.RevocationCapacity(),
		serviceType: credentialstatus.ServiceTypeBitstringStatusList,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Capacity returns the bitstring capacity in bits.
func (m *Manager) Capacity() int {
	return m.capacity
}

// NewService returns a revocation service for did holding an empty bitstring.
func NewService(did, serviceType string, capacity int) (model.Service, error) {
	if did == "" {
		return model.Service{}, sdkerrors.Newf(sdkerrors.ErrGuard, "DID is empty")
	}

	if !credentialstatus.SupportedServiceType(serviceType) {
		return model.Service{}, sdkerrors.Newf(sdkerrors.ErrInvalidFormat, "unsupported revocation service type %q", serviceType)
	}

	bitstring, err := credentialstatus.New(capacity)
	if err != nil {
		return model.Service{}, err
	}

	endpoint, err := bitstring.Serialize()
	if err != nil {
		return model.Service{}, err
	}

	return model.Service{
		ID:              document.RevocationServiceID(did),
		Type:            serviceType,
		ServiceEndpoint: endpoint,
	}, nil
}

// AddRevocationService returns a copy of doc with an empty revocation service
// appended. It fails if doc already has one.
func (m *Manager) AddRevocationService(doc *model.DIDDocument) (*model.DIDDocument, error) {
	if doc == nil {
		return nil, sdkerrors.Newf(sdkerrors.ErrGuard, "document is nil")
	}

	serviceID := document.RevocationServiceID(doc.ID)

	if document.ServiceIndex(doc, serviceID) >= 0 {
		return nil, sdkerrors.Wrap(sdkerrors.ErrGuard, "", serviceID, fmt.Errorf("revocation service already exists"))
	}

	service, err := NewService(doc.ID, m.serviceType, m.capacity)
	if err != nil {
		return nil, err
	}

	updated := doc.Clone()
	updated.Service = append(updated.Service, service)

	logger.Debug("Added revocation service", logfields.WithDID(doc.ID), logfields.WithServiceType(m.serviceType),
		logfields.WithCapacity(m.capacity))

	return updated, nil
}

// Bitstring decodes the revocation bitstring of doc.
func (m *Manager) Bitstring(doc *model.DIDDocument) (*credentialstatus.Bitstring, error) {
	_, bitstring, err := m.revocationBitstring(doc)
	return bitstring, err
}

// ServiceType returns the type of the revocation service of doc.
func (m *Manager) ServiceType(doc *model.DIDDocument) (string, error) {
	idx, err := revocationService(doc)
	if err != nil {
		return "", err
	}

	return serviceType(doc, idx)
}

// IsRevoked returns the bit at index of the revocation bitstring of doc.
func (m *Manager) IsRevoked(doc *model.DIDDocument, index int) (bool, error) {
	bitstring, err := m.Bitstring(doc)
	if err != nil {
		return false, err
	}

	return bitstring.Get(index)
}

// ApplyRevocation returns a copy of doc whose revocation bitstring has every
// index in indices set to revoked. Only the serviceEndpoint of the revocation
// service differs from doc. All indices are validated before any bit changes,
// so the caller gets either the fully updated document or an error.
func (m *Manager) ApplyRevocation(doc *model.DIDDocument, indices []int, revoked bool) (*model.DIDDocument, error) {
	idx, bitstring, err := m.revocationBitstring(doc)
	if err != nil {
		return nil, err
	}

	if err := bitstring.SetAll(indices, revoked); err != nil {
		return nil, err
	}

	endpoint, err := bitstring.Serialize()
	if err != nil {
		return nil, err
	}

	updated := doc.Clone()
	updated.Service[idx].ServiceEndpoint = endpoint

	logger.Debug("Applied revocation", logfields.WithDID(doc.ID), logfields.WithIndices(indices),
		logfields.WithRevoked(revoked))

	return updated, nil
}

// revocationBitstring returns the position of the revocation service in doc and its decoded bitstring.
func (m *Manager) revocationBitstring(doc *model.DIDDocument) (int, *credentialstatus.Bitstring, error) {
	idx, err := revocationService(doc)
	if err != nil {
		return -1, nil, err
	}

	if _, err := serviceType(doc, idx); err != nil {
		return -1, nil, err
	}

	serviceID := document.RevocationServiceID(doc.ID)

	endpoint, ok := doc.Service[idx].EndpointString()
	if !ok {
		return -1, nil, sdkerrors.Wrap(sdkerrors.ErrFormat, "", serviceID,
			fmt.Errorf("serviceEndpoint must be a data URI string, got %T", doc.Service[idx].ServiceEndpoint))
	}

	bitstring, err := credentialstatus.Deserialize(endpoint, m.capacity)
	if err != nil {
		return -1, nil, fmt.Errorf("failed to decode revocation bitstring of %s: %w", serviceID, err)
	}

	return idx, bitstring, nil
}

func revocationService(doc *model.DIDDocument) (int, error) {
	if doc == nil {
		return -1, sdkerrors.Newf(sdkerrors.ErrGuard, "document is nil")
	}

	serviceID := document.RevocationServiceID(doc.ID)

	idx := document.ServiceIndex(doc, serviceID)
	if idx < 0 {
		return -1, sdkerrors.New(sdkerrors.ErrNotFound, sdkerrors.CodeRevocationServiceNotFound, serviceID)
	}

	return idx, nil
}

// serviceType returns the first supported revocation type of the service at idx.
func serviceType(doc *model.DIDDocument, idx int) (string, error) {
	types := doc.Service[idx].Types()

	for _, t := range types {
		if credentialstatus.SupportedServiceType(t) {
			return t, nil
		}
	}

	return "", sdkerrors.Wrap(sdkerrors.ErrInvalidFormat, "", document.RevocationServiceID(doc.ID),
		fmt.Errorf("unsupported revocation service type %v", types))
}
