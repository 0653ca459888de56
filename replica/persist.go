package replica

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/opchan/core/replica/storage"
)

var (
	prefixCell       = []byte("cell:")
	prefixPost       = []byte("post:")
	prefixComment    = []byte("comment:")
	prefixVote       = []byte("vote:")
	prefixModeration = []byte("mod:")
	prefixIdentity   = []byte("identity:")
	prefixBookmark   = []byte("bookmark:")
	prefixFollowing  = []byte("following:")
	keyLastSync      = []byte("meta:last_sync")
)

func putJSON(db storage.KeyValueStore, key []byte, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("replica: encode: %w", err)
	}
	return db.Put(key, raw)
}

// hydrate loads every collection from the durable store into the
// in-memory indexes. Per spec.md §4.4, hydration happens on open() so
// the replica surfaces any previously accepted message.
func (r *Replica) hydrate() error {
	if err := r.hydrateCells(); err != nil {
		return err
	}
	if err := r.hydratePosts(); err != nil {
		return err
	}
	if err := r.hydrateComments(); err != nil {
		return err
	}
	if err := r.hydrateVotes(); err != nil {
		return err
	}
	if err := r.hydrateModerations(); err != nil {
		return err
	}
	if err := r.hydrateIdentities(); err != nil {
		return err
	}
	if err := r.hydrateBookmarks(); err != nil {
		return err
	}
	if err := r.hydrateFollowing(); err != nil {
		return err
	}
	raw, err := r.db.Get(keyLastSync)
	if err == nil {
		if v, perr := strconv.ParseInt(string(raw), 10, 64); perr == nil {
			r.lastSyncMs = v
		}
	} else if err != storage.ErrNotFound {
		return err
	}
	return nil
}

func (r *Replica) hydrateCells() error {
	it := r.db.NewIterator(prefixCell)
	defer it.Release()
	for it.Next() {
		var c Cell
		if err := json.Unmarshal(it.Value(), &c); err != nil {
			return err
		}
		r.cells[c.ID] = &c
	}
	return it.Error()
}

func (r *Replica) hydratePosts() error {
	it := r.db.NewIterator(prefixPost)
	defer it.Release()
	for it.Next() {
		var p Post
		if err := json.Unmarshal(it.Value(), &p); err != nil {
			return err
		}
		r.posts[p.ID] = &p
		r.postsByCell.add(p.CellID, p.ID)
	}
	return it.Error()
}

func (r *Replica) hydrateComments() error {
	it := r.db.NewIterator(prefixComment)
	defer it.Release()
	var loaded []*Comment
	for it.Next() {
		var c Comment
		if err := json.Unmarshal(it.Value(), &c); err != nil {
			return err
		}
		cp := c
		loaded = append(loaded, &cp)
	}
	if err := it.Error(); err != nil {
		return err
	}
	for _, c := range loaded {
		r.comments[c.ID] = c
		r.insertCommentOrdered(c)
	}
	return nil
}

func (r *Replica) hydrateVotes() error {
	it := r.db.NewIterator(prefixVote)
	defer it.Release()
	for it.Next() {
		var v Vote
		if err := json.Unmarshal(it.Value(), &v); err != nil {
			return err
		}
		r.votes[voteKey{targetID: v.TargetID, author: v.Author}] = &v
	}
	return it.Error()
}

func (r *Replica) hydrateModerations() error {
	it := r.db.NewIterator(prefixModeration)
	defer it.Release()
	for it.Next() {
		var m Moderation
		if err := json.Unmarshal(it.Value(), &m); err != nil {
			return err
		}
		r.moderations[modKey{cellID: m.CellID, targetKind: m.TargetKind, targetID: m.TargetID}] = &m
	}
	return it.Error()
}

func (r *Replica) hydrateIdentities() error {
	it := r.db.NewIterator(prefixIdentity)
	defer it.Release()
	for it.Next() {
		var id UserIdentity
		if err := json.Unmarshal(it.Value(), &id); err != nil {
			return err
		}
		r.identities[id.Address] = &id
	}
	return it.Error()
}

func (r *Replica) hydrateBookmarks() error {
	it := r.db.NewIterator(prefixBookmark)
	defer it.Release()
	for it.Next() {
		var b Bookmark
		if err := json.Unmarshal(it.Value(), &b); err != nil {
			return err
		}
		r.bookmarks[b.ID] = &b
	}
	return it.Error()
}

func (r *Replica) hydrateFollowing() error {
	it := r.db.NewIterator(prefixFollowing)
	defer it.Release()
	for it.Next() {
		var f Following
		if err := json.Unmarshal(it.Value(), &f); err != nil {
			return err
		}
		r.following[f.ID] = &f
	}
	return it.Error()
}

func (r *Replica) persistLastSync() error {
	return r.db.Put(keyLastSync, []byte(strconv.FormatInt(r.lastSyncMs, 10)))
}
