package replica

// BookmarkID derives the canonical Bookmark id for a target, per
// spec.md §3: "post:"+target_id or "comment:"+target_id.
func BookmarkID(targetKind, targetID string) string {
	return targetKind + ":" + targetID
}

// FollowingID derives the canonical Following id, per spec.md §3:
// user_id+":"+followed_address.
func FollowingID(userID, followedAddress string) string {
	return userID + ":" + followedAddress
}

// PutBookmark stores/overwrites a local-only bookmark. Never broadcast
// (spec.md §3).
func (r *Replica) PutBookmark(b *Bookmark) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookmarks[b.ID] = b
	return putJSON(r.db, append(append([]byte(nil), prefixBookmark...), []byte(b.ID)...), b)
}

// RemoveBookmark deletes a local-only bookmark by id.
func (r *Replica) RemoveBookmark(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bookmarks, id)
	return r.db.Delete(append(append([]byte(nil), prefixBookmark...), []byte(id)...))
}

// Bookmark returns the bookmark with id, or nil if absent.
func (r *Replica) Bookmark(id string) *Bookmark {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bookmarks[id]
}

// BookmarksByUser lists every bookmark belonging to userID.
func (r *Replica) BookmarksByUser(userID string) []*Bookmark {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Bookmark
	for _, b := range r.bookmarks {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out
}

// PutFollowing stores/overwrites a local-only following record.
func (r *Replica) PutFollowing(f *Following) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.following[f.ID] = f
	return putJSON(r.db, append(append([]byte(nil), prefixFollowing...), []byte(f.ID)...), f)
}

// RemoveFollowing deletes a local-only following record by id.
func (r *Replica) RemoveFollowing(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.following, id)
	return r.db.Delete(append(append([]byte(nil), prefixFollowing...), []byte(id)...))
}

// Following returns the following record with id, or nil if absent.
func (r *Replica) Following(id string) *Following {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.following[id]
}

// FollowingByUser lists every address userID follows.
func (r *Replica) FollowingByUser(userID string) []*Following {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Following
	for _, f := range r.following {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out
}
