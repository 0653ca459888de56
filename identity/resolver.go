package identity

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/opchan/core/internal/errs"
	"github.com/opchan/core/message"
	"github.com/opchan/core/replica"
)

// Resolver implements spec.md §4.5: cached, freshness-windowed,
// concurrency-coalesced identity lookups layered over the replica's
// locally-known call_sign/display_preference fields. Grounded on the
// SAGE handshake server's resolver+singleflight shape (pkg/agent — see
// DESIGN.md, C6): a single in-flight lookup per key serves every
// concurrent caller instead of stampeding the name-lookup backend.
type Resolver struct {
	replica  *replica.Replica
	resolver NameResolver
	cache    *cache
	sf       singleflight.Group

	warningListenersMu sync.Mutex
	warningListeners   []func(*errs.Warning)
}

// NewResolver constructs a Resolver over rep, using nameResolver for ENS
// lookups.
func NewResolver(rep *replica.Replica, nameResolver NameResolver) *Resolver {
	return &Resolver{replica: rep, resolver: nameResolver, cache: newCache()}
}

// OnWarning registers a listener for ResolutionFailure warnings (spec.md
// §7), mirroring package replica's OnWarning. It returns an unsubscribe
// handle.
func (r *Resolver) OnWarning(fn func(*errs.Warning)) (unsubscribe func()) {
	r.warningListenersMu.Lock()
	defer r.warningListenersMu.Unlock()
	r.warningListeners = append(r.warningListeners, fn)
	idx := len(r.warningListeners) - 1
	return func() {
		r.warningListenersMu.Lock()
		defer r.warningListenersMu.Unlock()
		if idx < len(r.warningListeners) {
			r.warningListeners[idx] = nil
		}
	}
}

func (r *Resolver) notifyWarning(w *errs.Warning) {
	r.warningListenersMu.Lock()
	listeners := append([]func(*errs.Warning)(nil), r.warningListeners...)
	r.warningListenersMu.Unlock()
	for _, fn := range listeners {
		if fn != nil {
			fn(w)
		}
	}
}

// Get returns address's identity, serving the cache when the entry is
// within the freshness window and opts.Fresh is false. Anonymous (UUIDv4)
// authors bypass name lookup entirely (spec.md §4.5).
func (r *Resolver) Get(ctx context.Context, address string, opts GetOptions) (*replica.UserIdentity, error) {
	// spec.md §3/§9: addresses are compared lowercased; callers may hand
	// us an EIP-55 checksummed form, so normalize before it touches the
	// cache or the replica's (lowercase-keyed) identity map.
	address = strings.ToLower(address)
	if message.IsAnonymousAuthor(address) {
		return &replica.UserIdentity{
			Address:            address,
			DisplayName:        address,
			VerificationStatus: replica.VerificationAnonymous,
		}, nil
	}

	if !opts.Fresh {
		if id, ok := r.cache.get(address); ok {
			return id, nil
		}
	}

	v, err, _ := r.sf.Do(address, func() (interface{}, error) {
		// Re-check inside the singleflight critical section: a
		// concurrent caller may have just completed the refresh we
		// were about to coalesce into.
		if !opts.Fresh {
			if id, ok := r.cache.get(address); ok {
				return id, nil
			}
		}
		return r.refresh(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return v.(*replica.UserIdentity), nil
}

// refresh merges a fresh ENS lookup onto the replica's locally-known
// profile fields and stores the result in the cache. A lookup failure
// (ResolutionFailure, spec.md §7) is not fatal: the ens fields of a
// still-cached entry, if any, are kept and the identity is still returned.
func (r *Resolver) refresh(ctx context.Context, address string) (*replica.UserIdentity, error) {
	var id *replica.UserIdentity
	if known := r.replica.Identity(address); known != nil {
		cp := *known
		id = &cp
	} else {
		id = &replica.UserIdentity{Address: address}
	}

	if ensName, ensAvatar, err := r.resolver.Resolve(ctx, address); err == nil {
		id.EnsName = ensName
		id.EnsAvatar = ensAvatar
	} else {
		if prev, ok := r.cache.get(address); ok {
			id.EnsName = prev.EnsName
			id.EnsAvatar = prev.EnsAvatar
		}
		r.notifyWarning(errs.New(errs.ResolutionFailure, err))
	}

	if id.EnsName != "" {
		id.VerificationStatus = replica.VerificationEnsVerified
	} else {
		id.VerificationStatus = replica.VerificationWalletConnected
	}
	id.DisplayName = deriveDisplayName(id)

	r.cache.put(address, id)
	return id, nil
}

// deriveDisplayName mirrors package replica's private rule (spec.md
// §4.5): call_sign wins when display_preference asks for it, else
// ens_name, else an elided address.
func deriveDisplayName(id *replica.UserIdentity) string {
	if id.DisplayPreference == message.DisplayPreferenceCallSign && id.CallSign != "" {
		return id.CallSign
	}
	if id.EnsName != "" {
		return id.EnsName
	}
	return elideAddress(id.Address)
}

func elideAddress(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
