// Package entitystorage is an in-memory identity connector. Documents are
// kept in their JSON form, so callers never share state with the store, and
// writes are compare-and-swap on the document hash.
package entitystorage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/pilacorp/go-identity-sdk/connector"
	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	logfields "github.com/pilacorp/go-identity-sdk/internal/log"
)

// Type is the connector type entity storage registers under.
const Type = "entity-storage"

var logger = log.New("entity-storage")

type entity struct {
	raw     []byte
	version string
}

// Connector stores DID documents in memory.
type Connector struct {
	mutex    sync.RWMutex
	entities map[string]*entity
}

var _ connector.IdentityConnector = (*Connector)(nil)

// New returns an empty store.
func New() *Connector {
	return &Connector{entities: make(map[string]*entity)}
}

// Register adds the entity storage factory to r.
func Register(r *connector.Registry) error {
	return r.Register(Type, func(map[string]string) (connector.IdentityConnector, error) {
		return New(), nil
	})
}

// Resolve returns a copy of the stored document.
func (c *Connector) Resolve(ctx context.Context, did string) (*model.DIDDocument, error) {
	doc, _, err := c.ResolveVersioned(ctx, did)

	return doc, err
}

// ResolveVersioned returns a copy of the stored document and its version.
func (c *Connector) ResolveVersioned(_ context.Context, did string) (*model.DIDDocument, string, error) {
	c.mutex.RLock()
	e, ok := c.entities[did]
	c.mutex.RUnlock()

	if !ok {
		return nil, "", sdkerrors.New(sdkerrors.ErrNotFound, sdkerrors.CodeDocumentNotFound, did)
	}

	doc, err := model.ParseDIDDocument(e.raw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read stored document: %w", err)
	}

	return doc, e.version, nil
}

// Store writes doc if the stored version equals expectedVersion. An empty
// expectedVersion only creates documents that do not exist yet.
func (c *Connector) Store(_ context.Context, doc *model.DIDDocument, expectedVersion string) (string, error) {
	if doc == nil || doc.ID == "" {
		return "", sdkerrors.Newf(sdkerrors.ErrGuard, "document with an id is required")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal DID document: %w", err)
	}

	version, err := doc.Hash()
	if err != nil {
		return "", err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	current := ""
	if e, ok := c.entities[doc.ID]; ok {
		current = e.version
	}

	if current != expectedVersion {
		logger.Debug("Version conflict", logfields.WithConnector(Type), logfields.WithDID(doc.ID),
			logfields.WithVersion(expectedVersion))

		return "", sdkerrors.New(sdkerrors.ErrConflict, "", doc.ID)
	}

	c.entities[doc.ID] = &entity{raw: raw, version: version}

	logger.Debug("Document stored", logfields.WithConnector(Type), logfields.WithDID(doc.ID),
		logfields.WithVersion(version))

	return version, nil
}
