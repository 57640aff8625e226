package provider

import (
	"context"
	"time"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"

	"github.com/pilacorp/go-identity-sdk/credential/common/config"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	logfields "github.com/pilacorp/go-identity-sdk/internal/log"
)

// CachingResolver decorates a Resolver with an expiring ARC cache shared
// across calls. Concurrent resolutions of the same DID are collapsed into one
// call to the underlying resolver. Failed resolutions are not cached.
//
// Documents are returned as clones, so callers may modify them freely.
type CachingResolver struct {
	next  Resolver
	cache gcache.Cache
	group singleflight.Group
}

// CacheOpt configures a CachingResolver.
type CacheOpt func(*cacheOptions)

type cacheOptions struct {
	size int
	ttl  time.Duration
}

// WithCacheSize sets the maximum number of cached documents.
func WithCacheSize(size int) CacheOpt {
	return func(o *cacheOptions) {
		o.size = size
	}
}

// WithCacheTTL sets how long a document stays cached.
func WithCacheTTL(ttl time.Duration) CacheOpt {
	return func(o *cacheOptions) {
		o.ttl = ttl
	}
}

// NewCachingResolver returns a caching decorator for next.
func NewCachingResolver(next Resolver, opts ...CacheOpt) *CachingResolver {
	options := &cacheOptions{
		size: config.ResolverCacheSize(),
		ttl:  config.ResolverCacheTTL(),
	}

	for _, opt := range opts {
		opt(options)
	}

	logger.Debug("Creating DID document cache", logfields.WithCapacity(options.size))

	return &CachingResolver{
		next:  next,
		cache: gcache.New(options.size).ARC().Expiration(options.ttl).Build(),
	}
}

// Resolve returns the cached document for did, resolving it on a miss.
func (r *CachingResolver) Resolve(ctx context.Context, did string) (*model.DIDDocument, error) {
	if cached, err := r.cache.GetIFPresent(did); err == nil {
		return cached.(*model.DIDDocument).Clone(), nil
	}

	result, err, _ := r.group.Do(did, func() (interface{}, error) {
		doc, err := r.next.Resolve(ctx, did)
		if err != nil {
			return nil, err
		}

		if err := r.cache.Set(did, doc); err != nil {
			logger.Warn("Failed to cache DID document", logfields.WithDID(did), logfields.WithError(err))
		}

		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*model.DIDDocument).Clone(), nil
}

// Invalidate drops did from the cache. Writers call it after updating a document.
func (r *CachingResolver) Invalidate(did string) {
	r.cache.Remove(did)
}
