package replica

import (
	"sync"

	"github.com/opchan/core/replica/storage"
)

// PendingListener is notified whenever a message's pending status
// changes (spec.md §4.4 "Pending set").
type PendingListener func(messageID string, pending bool)

// Replica is this device's copy of forum state: in-memory indexes
// hydrated from and kept in sync with a durable key-value store. All
// reads are synchronous against the in-memory indexes (spec.md §4.4).
//
// The spec's concurrency model (§5) is single-threaded cooperative; this
// implementation still guards indexes with a mutex the way the teacher's
// own in-memory registries do (agent.Registry, consensus/bft.VotePool),
// since a Go host is free to call ApplyMessage from more than one
// goroutine even when the caller's own event loop is single-threaded.
type Replica struct {
	mu sync.RWMutex
	db storage.KeyValueStore

	cells          map[string]*Cell
	posts          map[string]*Post
	postsByCell    *postsByCellIndex
	comments       map[string]*Comment
	commentsByPost map[string][]string

	votes       map[voteKey]*Vote
	moderations map[modKey]*Moderation
	identities  map[string]*UserIdentity

	bookmarks map[string]*Bookmark
	following map[string]*Following

	seen    *seenSet
	pending map[string]struct{}

	pendingListenersMu sync.Mutex
	pendingListeners   []PendingListener

	warningListenersMu sync.Mutex
	warningListeners   []WarningListener

	lastSyncMs int64
}

// Open hydrates a Replica from db, surfacing every previously accepted
// message (spec.md §4.4).
func Open(db storage.KeyValueStore) (*Replica, error) {
	r := &Replica{
		db:             db,
		cells:          make(map[string]*Cell),
		posts:          make(map[string]*Post),
		postsByCell:    newPostsByCellIndex(),
		comments:       make(map[string]*Comment),
		commentsByPost: make(map[string][]string),
		votes:          make(map[voteKey]*Vote),
		moderations:    make(map[modKey]*Moderation),
		identities:     make(map[string]*UserIdentity),
		bookmarks:      make(map[string]*Bookmark),
		following:      make(map[string]*Following),
		seen:           newSeenSet(),
		pending:        make(map[string]struct{}),
	}
	if err := r.hydrate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the durable store handle.
func (r *Replica) Close() error {
	return r.db.Close()
}

// LastSyncMs returns the greatest timestamp of any message ever applied.
func (r *Replica) LastSyncMs() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSyncMs
}

// Cell returns the cell with id, or nil if absent.
func (r *Replica) Cell(id string) *Cell {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cells[id]
}

// Post returns the post with id, or nil if absent.
func (r *Replica) Post(id string) *Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.posts[id]
}

// Comment returns the comment with id, or nil if absent.
func (r *Replica) Comment(id string) *Comment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.comments[id]
}

// PostsInCell returns the ids of every post in cellID.
func (r *Replica) PostsInCell(cellID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.postsByCell.postIDs(cellID)
}

// CommentsOnPost returns comment ids for postID, ordered by timestamp.
func (r *Replica) CommentsOnPost(postID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.commentsByPost[postID]
	cp := make([]string, len(out))
	copy(cp, out)
	return cp
}

// VotesOnTarget returns every stored vote (one per author) on targetID.
func (r *Replica) VotesOnTarget(targetID string) []*Vote {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Vote
	for k, v := range r.votes {
		if k.targetID == targetID {
			out = append(out, v)
		}
	}
	return out
}

// Moderation returns the effective moderation record for
// (cellID, targetKind, targetID), or nil if none exists.
func (r *Replica) Moderation(cellID string, targetKind string, targetID string) *Moderation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.moderations[modKey{cellID: cellID, targetKind: targetKindOf(targetKind), targetID: targetID}]
}

// Identity returns the locally-known identity fields for address, or nil.
func (r *Replica) Identity(address string) *UserIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.identities[address]
}

// PutIdentity stores/updates the locally-known identity for id.Address
// and persists it. ProfileUpdate messages do not go through here:
// ApplyMessage updates identities directly.
func (r *Replica) PutIdentity(id *UserIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities[id.Address] = id
	return putJSON(r.db, append(append([]byte(nil), prefixIdentity...), []byte(id.Address)...), id)
}

func (r *Replica) insertCommentOrdered(c *Comment) {
	list := r.commentsByPost[c.PostID]
	idx := len(list)
	for i, id := range list {
		if other := r.comments[id]; other != nil && other.TimestampMs > c.TimestampMs {
			idx = i
			break
		}
	}
	list = append(list, "")
	copy(list[idx+1:], list[idx:])
	list[idx] = c.ID
	r.commentsByPost[c.PostID] = list
}
