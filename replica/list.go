package replica

// Cells returns every known cell, for inspection surfaces that need a
// full listing rather than a single lookup (spec.md has no such
// operation itself; internal/adminapi and cmd/opchan's repl call it).
func (r *Replica) Cells() []*Cell {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Cell, 0, len(r.cells))
	for _, c := range r.cells {
		out = append(out, c)
	}
	return out
}

// Posts returns every known post.
func (r *Replica) Posts() []*Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, p)
	}
	return out
}

// Identities returns every locally-known identity.
func (r *Replica) Identities() []*UserIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*UserIdentity, 0, len(r.identities))
	for _, id := range r.identities {
		out = append(out, id)
	}
	return out
}
