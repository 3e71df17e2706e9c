// Package keyset maintains the signing keys published by an AWS Cognito user
// pool and serves point lookups by key id.
package keyset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/sync/singleflight"

	"github.com/RoamLabs/go-cognito-middleware/internal/cognito"
)

// ErrUnknownKeyID is returned by ResolveKey when a key id is absent from the
// pool's JWKS even after a refresh. It is the routine signal of key rotation
// lag and callers should treat it as a token problem, not as an outage.
var ErrUnknownKeyID = errors.New("unknown key id")

const defaultMinRefreshInterval = time.Minute

// refreshGroupKey coalesces concurrent fetches through the singleflight group.
const refreshGroupKey = "jwks"

type snapshot struct {
	keys      jwk.Set
	fetchedAt time.Time
}

// KeySet holds the signing keys of one Cognito user pool. Lookups are served
// from an immutable snapshot of the pool's JWKS which is replaced wholesale
// on refresh, so readers are never blocked by an in-flight fetch.
type KeySet struct {
	issuer             string
	jwksURI            string
	client             *http.Client
	minRefreshInterval time.Duration
	lazy               bool

	current atomic.Pointer[snapshot]
	group   singleflight.Group

	mu          sync.Mutex
	lastAttempt time.Time
}

// New builds the KeySet for a user pool and eagerly prefetches its JWKS, so
// the set is usable (or construction fails) before any traffic is served.
// WithLazyPrefetch skips the eager fetch.
func New(ctx context.Context, region, userPoolID string, opts ...Option) (*KeySet, error) {
	endpoints, err := cognito.EndpointsForUserPool(region, userPoolID)
	if err != nil {
		return nil, fmt.Errorf("invalid user pool configuration: %w", err)
	}

	k := &KeySet{
		issuer:             endpoints.Issuer,
		jwksURI:            endpoints.JWKSURI,
		client:             http.DefaultClient,
		minRefreshInterval: defaultMinRefreshInterval,
	}

	for _, opt := range opts {
		if err := opt(k); err != nil {
			return nil, fmt.Errorf("invalid key set option: %w", err)
		}
	}

	if !k.lazy {
		if err := k.Prefetch(ctx); err != nil {
			return nil, err
		}
	}

	return k, nil
}

// Issuer returns the token issuer URL of the user pool.
func (k *KeySet) Issuer() string {
	return k.issuer
}

// Len reports how many keys the current snapshot holds.
func (k *KeySet) Len() int {
	snap := k.current.Load()
	if snap == nil {
		return 0
	}
	return snap.keys.Len()
}

// LastRefreshed returns the time the current snapshot was fetched, or the
// zero time if no fetch has succeeded yet.
func (k *KeySet) LastRefreshed() time.Time {
	snap := k.current.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.fetchedAt
}

// Prefetch fetches the pool's JWKS and swaps it in as the current snapshot.
// Concurrent calls are coalesced into a single upstream request. Unlike the
// refresh triggered by an unknown key id, Prefetch is never rate limited.
func (k *KeySet) Prefetch(ctx context.Context) error {
	_, err, _ := k.group.Do(refreshGroupKey, func() (any, error) {
		return nil, k.fetch(ctx)
	})
	return err
}

// ResolveKey returns the raw public key (for Cognito pools an *rsa.PublicKey)
// for the given key id. A miss triggers one coalesced, rate-limited refresh
// of the whole snapshot before the lookup is retried; a key id that is still
// unknown afterwards yields ErrUnknownKeyID.
func (k *KeySet) ResolveKey(ctx context.Context, kid string) (any, error) {
	if kid == "" {
		return nil, fmt.Errorf("%w: empty key id", ErrUnknownKeyID)
	}

	if key, ok := k.lookup(kid); ok {
		return rawKey(key, kid)
	}

	// The pool may have rotated its keys since the snapshot was taken.
	if err := k.refreshForMiss(ctx); err != nil {
		return nil, err
	}

	if key, ok := k.lookup(kid); ok {
		return rawKey(key, kid)
	}
	if k.current.Load() == nil {
		return nil, fmt.Errorf("no key set available for %q", k.issuer)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownKeyID, kid)
}

func (k *KeySet) lookup(kid string) (jwk.Key, bool) {
	snap := k.current.Load()
	if snap == nil {
		return nil, false
	}
	return snap.keys.LookupKeyID(kid)
}

// refreshForMiss refreshes the snapshot unless a refresh was already
// attempted within the minimum interval. Misses arriving while a fetch is in
// flight share its result instead of issuing their own upstream request.
func (k *KeySet) refreshForMiss(ctx context.Context) error {
	_, err, _ := k.group.Do(refreshGroupKey, func() (any, error) {
		k.mu.Lock()
		throttled := !k.lastAttempt.IsZero() && time.Since(k.lastAttempt) < k.minRefreshInterval
		k.mu.Unlock()

		if throttled {
			return nil, nil
		}
		return nil, k.fetch(ctx)
	})
	return err
}

func (k *KeySet) fetch(ctx context.Context) error {
	k.mu.Lock()
	k.lastAttempt = time.Now()
	k.mu.Unlock()

	keys, err := jwk.Fetch(ctx, k.jwksURI, jwk.WithHTTPClient(k.client))
	if err != nil {
		// The previous snapshot, if any, stays in place.
		return fmt.Errorf("could not fetch JWKS from %q: %w", k.jwksURI, err)
	}

	k.current.Store(&snapshot{keys: keys, fetchedAt: time.Now()})

	return nil
}

func rawKey(key jwk.Key, kid string) (any, error) {
	var raw any
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("could not materialize public key %q: %w", kid, err)
	}
	return raw, nil
}
