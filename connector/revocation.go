package connector

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/trustbloc/logutil-go/pkg/log"

	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	"github.com/pilacorp/go-identity-sdk/credential/revocation"
	logfields "github.com/pilacorp/go-identity-sdk/internal/log"
)

var logger = log.New("connector")

const defaultMaxConflictRetries = 5

type updateOptions struct {
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// UpdateOpt configures UpdateRevocation.
type UpdateOpt func(*updateOptions)

// WithMaxConflictRetries sets how many times a conflicting write is retried.
func WithMaxConflictRetries(n uint64) UpdateOpt {
	return func(o *updateOptions) {
		o.maxRetries = n
	}
}

// WithConflictBackOff sets the back-off policy between conflicting writes.
func WithConflictBackOff(newBackOff func() backoff.BackOff) UpdateOpt {
	return func(o *updateOptions) {
		o.newBackOff = newBackOff
	}
}

// UpdateRevocation sets the revocation bits at indices of did's document to
// revoked. It reads the current document, applies the change and stores it
// with a compare-and-swap on the version it read. A conflicting write restarts
// from a fresh read; any other error is returned at once.
func UpdateRevocation(ctx context.Context, conn IdentityConnector, manager *revocation.Manager, did string,
	indices []int, revoked bool, opts ...UpdateOpt) (*model.DIDDocument, error) {
	options := &updateOptions{
		maxRetries: defaultMaxConflictRetries,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(10*time.Millisecond),
				backoff.WithMaxInterval(500*time.Millisecond),
			)
		},
	}

	for _, opt := range opts {
		opt(options)
	}

	var (
		updated *model.DIDDocument
		attempt int
	)

	err := backoff.RetryNotify(
		func() error {
			attempt++

			doc, version, err := conn.ResolveVersioned(ctx, did)
			if err != nil {
				return backoff.Permanent(err)
			}

			next, err := manager.ApplyRevocation(doc, indices, revoked)
			if err != nil {
				return backoff.Permanent(err)
			}

			newVersion, err := conn.Store(ctx, next, version)
			if err != nil {
				if errors.Is(err, sdkerrors.ErrConflict) {
					return err
				}

				return backoff.Permanent(err)
			}

			logger.Debug("Revocation stored", logfields.WithDID(did), logfields.WithIndices(indices),
				logfields.WithRevoked(revoked), logfields.WithVersion(newVersion))

			updated = next

			return nil
		},
		backoff.WithContext(backoff.WithMaxRetries(options.newBackOff(), options.maxRetries), ctx),
		func(err error, d time.Duration) {
			logger.Debug("Conflicting revocation update. Retrying...", logfields.WithDID(did),
				logfields.WithAttempt(attempt), logfields.WithBackoff(d), log.WithError(err))
		},
	)
	if err != nil {
		return nil, err
	}

	return updated, nil
}
