// Package client is OpChan's facade: it wires the durable store,
// replica, delegation manager, identity resolver, forum actions, and an
// injected transport into one Open/Close lifecycle, grounded on the
// teacher's node.Node / node.Lifecycle shape (node/node_example_test.go
// — see DESIGN.md, C10): construction does the heavy lifting, Start/Stop
// (here Open/Close) only toggles whether the thing is live.
package client

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opchan/core/delegation"
	"github.com/opchan/core/forum"
	"github.com/opchan/core/identity"
	"github.com/opchan/core/internal/errs"
	"github.com/opchan/core/internal/metrics"
	"github.com/opchan/core/replica"
	"github.com/opchan/core/replica/storage"
	"github.com/opchan/core/replica/storage/leveldbstore"
	"github.com/opchan/core/replica/storage/memstore"
	"github.com/opchan/core/transport"
)

// Config is everything Open needs: the file-persisted settings plus the
// runtime collaborators the host program injects (spec.md §1: wallet,
// transport and name-lookup are all external to the core).
type Config struct {
	FileConfig

	// Transport is the pub/sub adapter outgoing messages are sent over
	// and incoming ones are received from. Nil is valid: the client then
	// runs local-only, applying only messages it originates itself.
	Transport transport.Transport

	// NameResolver resolves ENS name/avatar for a wallet address. Nil
	// defaults to a resolver that never finds anything, so identities
	// fall back to elided addresses (spec.md §4.5).
	NameResolver identity.NameResolver

	// OnCacheUpdated is invoked after every local mutation and every
	// accepted remote message (spec.md §4.6/§4.4).
	OnCacheUpdated func()

	// Logger defaults to zap.NewNop() if nil.
	Logger *zap.Logger
}

// Client is an open OpChan session: one durable store, one replica, one
// delegation, shared across the identity/forum facades built over them.
type Client struct {
	db          storage.KeyValueStore
	logger      *zap.Logger
	transport   transport.Transport
	unsubscribe func()

	Replica    *replica.Replica
	Delegation *delegation.Manager
	Identity   *identity.Resolver
	Forum      *forum.Actions

	// DelegationDuration is the config-supplied default lifetime for a
	// new delegation; callers creating one via Delegation pass this
	// explicitly (spec.md §3: delegation creation is its own lifecycle
	// step, not something Open performs on the caller's behalf).
	DelegationDuration time.Duration

	counters *metrics.Counters
	metrics  *metrics.Collector
}

type noopResolver struct{}

func (noopResolver) Resolve(ctx context.Context, address string) (string, string, error) {
	return "", "", nil
}

// Open opens exactly one durable store (LevelDB-backed if StoragePath is
// set, in-memory otherwise per spec.md §4.2's "single durable store"
// requirement) and shares it between the replica and the delegation
// store, then assembles every other facade over them.
func Open(ctx context.Context, cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var db storage.KeyValueStore
	var err error
	if cfg.StoragePath != "" {
		db, err = leveldbstore.Open(cfg.StoragePath)
	} else {
		db = memstore.New()
	}
	if err != nil {
		return nil, fmt.Errorf("client: open storage: %w", err)
	}

	rep, err := replica.Open(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("client: open replica: %w", err)
	}

	delegStore := delegation.NewStore(db)
	delegMgr, err := delegation.NewManager(delegStore, nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("client: open delegation: %w", err)
	}

	nameResolver := cfg.NameResolver
	if nameResolver == nil {
		nameResolver = noopResolver{}
	}
	idResolver := identity.NewResolver(rep, nameResolver)

	rep.OnWarning(func(w *errs.Warning) {
		logger.Warn("replica warning", zap.String("kind", string(w.Kind)), zap.Error(w.Err))
	})
	idResolver.OnWarning(func(w *errs.Warning) {
		logger.Warn("identity warning", zap.String("kind", string(w.Kind)), zap.Error(w.Err))
	})

	verificationOf := func(address string) replica.VerificationStatus {
		id, err := idResolver.Get(context.Background(), address, identity.GetOptions{})
		if err != nil || id == nil {
			return replica.VerificationWalletConnected
		}
		return id.VerificationStatus
	}

	var sender forum.Sender
	if cfg.Transport != nil {
		sender = cfg.Transport
	}
	actions := forum.New(rep, delegMgr, sender, verificationOf, cfg.OnCacheUpdated)

	counters := &metrics.Counters{}
	collector := metrics.NewCollector(cfg.Metrics, counters, logger)
	collector.Start()

	c := &Client{
		db:                 db,
		logger:             logger,
		transport:          cfg.Transport,
		Replica:            rep,
		Delegation:         delegMgr,
		Identity:           idResolver,
		Forum:              actions,
		DelegationDuration: cfg.DeviceDelegationDuration,
		counters:           counters,
		metrics:            collector,
	}

	if cfg.Transport != nil {
		c.unsubscribe = cfg.Transport.OnReceive(func(raw []byte) {
			c.handleIncoming(raw, cfg.OnCacheUpdated)
		})
	}

	return c, nil
}

// handleIncoming applies a transport-observed envelope to the replica,
// the counterpart of forum.Actions.dispatch's local-origin path (spec.md
// §4.4/§4.8: "every accepted message, local or remote, flows through the
// same ApplyMessage pipeline").
func (c *Client) handleIncoming(raw []byte, onCacheUpdated func()) {
	outcome := c.Replica.ApplyMessage(raw, c.Delegation)
	switch outcome.Result {
	case replica.Accepted:
		c.counters.RecordApplied()
		if onCacheUpdated != nil {
			onCacheUpdated()
		}
	case replica.Duplicate:
		c.counters.RecordDuplicate()
	case replica.Rejected:
		c.counters.RecordRejected()
		c.logger.Warn("rejected incoming message",
			zap.Strings("verify_reasons", outcome.VerifyReasons))
	}
}

// Close tears down the receive subscription, stops metrics sampling, and
// closes the shared durable store.
func (c *Client) Close() error {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.metrics.Stop()
	return c.Replica.Close()
}
