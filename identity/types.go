// Package identity resolves on-chain display identity (ENS name/avatar)
// for addresses seen in the replica, with a freshness-windowed cache and
// coalesced concurrent refreshes (spec.md §4.5).
package identity

import (
	"context"
	"time"

	"github.com/opchan/core/replica"
)

// freshnessWindow is how long a cached identity is served without
// triggering a refresh (spec.md §4.5: "5 minutes").
const freshnessWindow = 5 * time.Minute

// NameResolver is the injected external name-lookup collaborator (e.g. an
// ENS resolver). It is the one piece of identity resolution this package
// never implements itself (spec.md §4.5: "backed by an injected
// name-lookup capability").
type NameResolver interface {
	Resolve(ctx context.Context, address string) (ensName string, ensAvatar string, err error)
}

// GetOptions controls a single Get call.
type GetOptions struct {
	// Fresh forces a refresh even if the cached entry is within the
	// freshness window.
	Fresh bool
}
