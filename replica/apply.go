package replica

import (
	"github.com/opchan/core/internal/errs"
	"github.com/opchan/core/message"
)

// Verifier is implemented by package delegation's Manager; kept as a
// narrow interface here so the replica can be tested without a real
// delegation manager.
type Verifier interface {
	VerifyWithReason(e *message.Envelope) (ok bool, reasons []string)
}

// ApplyOutcome is the full result of ApplyMessage, including enough
// detail for the caller to build an error-taxonomy response (spec.md §7).
type ApplyOutcome struct {
	Result           ApplyResult
	Envelope         *message.Envelope
	ValidationReport message.ValidationReport
	VerifyReasons    []string
}

// ApplyMessage implements spec.md §4.4's 7-step algorithm: structural
// parse, cryptographic verify, dedup, index update, persist, seen/sync
// bookkeeping.
func (r *Replica) ApplyMessage(raw []byte, verifier Verifier) ApplyOutcome {
	// Step 1: structural parse.
	env, err := message.Unmarshal(raw)
	if err != nil {
		return ApplyOutcome{Result: Rejected}
	}
	report := message.Validate(env)
	if !report.OK {
		return ApplyOutcome{Result: Rejected, Envelope: env, ValidationReport: report}
	}

	// Step 2: cryptographic verify.
	ok, reasons := verifier.VerifyWithReason(env)
	if !ok {
		return ApplyOutcome{Result: Rejected, Envelope: env, ValidationReport: report, VerifyReasons: reasons}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Step 3: dedup.
	if r.seen.Has(env.Kind, env.ID, env.TimestampMs) {
		return ApplyOutcome{Result: Duplicate, Envelope: env, ValidationReport: report}
	}

	// Step 4: update the primary index for the kind.
	if !r.applyIndex(env) {
		// A stale Vote/Moderate upsert is not an error: the message is
		// structurally and cryptographically fine, it simply loses the
		// tie-break. It is still marked seen so redelivery is a no-op.
		r.seen.Add(env.Kind, env.ID, env.TimestampMs)
		return ApplyOutcome{Result: Accepted, Envelope: env, ValidationReport: report}
	}

	// Step 5: persist.
	if perr := r.persistIndex(env); perr != nil {
		// StorageFailure is a warning, not a rejection (spec.md §7): the
		// message is still accepted in memory even if the durable write
		// failed.
		r.notifyWarning(errs.New(errs.StorageFailure, perr))
	}

	// Step 6: seen + last_sync.
	r.seen.Add(env.Kind, env.ID, env.TimestampMs)
	if env.TimestampMs > r.lastSyncMs {
		r.lastSyncMs = env.TimestampMs
		_ = r.persistLastSync()
	}

	// Step 7.
	return ApplyOutcome{Result: Accepted, Envelope: env, ValidationReport: report}
}

// applyIndex updates the in-memory primary index for env's kind,
// implementing the tie-break policy for Vote/Moderate upserts. It
// returns false when the incoming message loses a tie-break (still a
// logically accepted, already-seen message, just not the latest).
func (r *Replica) applyIndex(env *message.Envelope) bool {
	switch env.Kind {
	case message.KindCell:
		if _, exists := r.cells[env.ID]; !exists {
			r.cells[env.ID] = &Cell{
				ID: env.ID, Author: env.Author, TimestampMs: env.TimestampMs,
				Name: env.Cell.Name, Description: env.Cell.Description, Icon: env.Cell.Icon,
			}
		}
		return true
	case message.KindPost:
		if _, exists := r.posts[env.ID]; !exists {
			r.posts[env.ID] = &Post{
				ID: env.ID, Author: env.Author, TimestampMs: env.TimestampMs,
				CellID: env.Post.CellID, Title: env.Post.Title, Body: env.Post.Body,
			}
			r.postsByCell.add(env.Post.CellID, env.ID)
		}
		return true
	case message.KindComment:
		if _, exists := r.comments[env.ID]; !exists {
			c := &Comment{
				ID: env.ID, Author: env.Author, TimestampMs: env.TimestampMs,
				PostID: env.Comment.PostID, Body: env.Comment.Body,
			}
			r.comments[env.ID] = c
			r.insertCommentOrdered(c)
		}
		return true
	case message.KindVote:
		key := voteKey{targetID: env.Vote.TargetID, author: env.Author}
		existing, exists := r.votes[key]
		if exists && loses(existing.TimestampMs, existing.MessageID, env.TimestampMs, env.ID) {
			return false
		}
		r.votes[key] = &Vote{
			MessageID: env.ID, TargetID: env.Vote.TargetID, Author: env.Author,
			TimestampMs: env.TimestampMs, Value: env.Vote.Value,
		}
		return true
	case message.KindModerate:
		key := modKey{cellID: env.Moderate.CellID, targetKind: env.Moderate.TargetKind, targetID: env.Moderate.TargetID}
		existing, exists := r.moderations[key]
		if exists && loses(existing.TimestampMs, existing.MessageID, env.TimestampMs, env.ID) {
			return false
		}
		r.moderations[key] = &Moderation{
			MessageID: env.ID, CellID: env.Moderate.CellID, TargetKind: env.Moderate.TargetKind,
			TargetID: env.Moderate.TargetID, Action: env.Moderate.Action,
			TimestampMs: env.TimestampMs, Reason: env.Moderate.Reason,
		}
		return true
	case message.KindProfileUpdate:
		id, exists := r.identities[env.Author]
		if !exists {
			id = &UserIdentity{Address: env.Author}
			r.identities[env.Author] = id
		}
		id.CallSign = env.ProfileUpdate.CallSign
		id.DisplayPreference = env.ProfileUpdate.DisplayPreference
		id.LastUpdatedMs = env.TimestampMs
		id.DisplayName = deriveDisplayName(id)
		_ = putJSON(r.db, append(append([]byte(nil), prefixIdentity...), []byte(id.Address)...), id)
		return true
	default:
		return false
	}
}

// loses reports whether (existingTs, existingID) should keep its slot
// over the incoming (newTs, newID): greater timestamp wins; ties broken
// by greater lexicographic id (spec.md §4.4 tie-breaking policy).
func loses(existingTs int64, existingID string, newTs int64, newID string) bool {
	if newTs != existingTs {
		return newTs < existingTs
	}
	return newID <= existingID
}

// deriveDisplayName implements spec.md §4.5's rule using only the
// locally-known profile fields; package identity applies the ens_name
// fallback once ENS data is available.
func deriveDisplayName(id *UserIdentity) string {
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

func (r *Replica) persistIndex(env *message.Envelope) error {
	switch env.Kind {
	case message.KindCell:
		return putJSON(r.db, append(append([]byte(nil), prefixCell...), []byte(env.ID)...), r.cells[env.ID])
	case message.KindPost:
		return putJSON(r.db, append(append([]byte(nil), prefixPost...), []byte(env.ID)...), r.posts[env.ID])
	case message.KindComment:
		return putJSON(r.db, append(append([]byte(nil), prefixComment...), []byte(env.ID)...), r.comments[env.ID])
	case message.KindVote:
		key := voteKey{targetID: env.Vote.TargetID, author: env.Author}
		return putJSON(r.db, voteStorageKey(key), r.votes[key])
	case message.KindModerate:
		key := modKey{cellID: env.Moderate.CellID, targetKind: env.Moderate.TargetKind, targetID: env.Moderate.TargetID}
		return putJSON(r.db, modStorageKey(key), r.moderations[key])
	case message.KindProfileUpdate:
		return nil // already persisted in applyIndex
	default:
		return nil
	}
}

func voteStorageKey(k voteKey) []byte {
	return append(append([]byte(nil), prefixVote...), []byte(k.targetID+"|"+k.author)...)
}

func modStorageKey(k modKey) []byte {
	return append(append([]byte(nil), prefixModeration...), []byte(k.cellID+"|"+string(k.targetKind)+"|"+k.targetID)...)
}
