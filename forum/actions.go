// Package forum implements the pre-send permission matrix and the
// "assemble, sign, apply, mark pending, send, notify" action pipeline of
// spec.md §4.6.
package forum

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opchan/core/identity"
	"github.com/opchan/core/message"
	"github.com/opchan/core/replica"
)

// Signer is the narrow slice of delegation.Manager an action needs.
type Signer interface {
	Sign(e *message.Envelope) (*message.Envelope, error)
	VerifyWithReason(e *message.Envelope) (bool, []string)
}

// Sender is the narrow slice of a transport an action needs.
type Sender interface {
	Send(ctx context.Context, raw []byte) error
}

// CurrentUser is the calling session's identity, supplied by the caller
// on every action (spec.md §4.6: each action is "a function of (inputs,
// current_user, is_authenticated)").
type CurrentUser struct {
	Address       string
	Authenticated bool
}

// VerificationOf resolves an address's verification status for the
// createCell permission check; normally backed by identity.Resolver.Get.
type VerificationOf func(address string) replica.VerificationStatus

// Actions implements spec.md §4.6. Grounded on staking/actions.go's
// "validate preconditions against the authoritative store, mutate it,
// touch auxiliary bookkeeping" shape (see DESIGN.md, C7), adapted from
// StateDB mutation to replica mutation plus transport send.
type Actions struct {
	rep            *replica.Replica
	signer         Signer
	sender         Sender
	verificationOf VerificationOf
	onCacheUpdated func()
}

// New constructs Actions. onCacheUpdated may be nil; it is invoked after
// every successful mutation, local or local-only (spec.md §4.6).
func New(rep *replica.Replica, signer Signer, sender Sender, verificationOf VerificationOf, onCacheUpdated func()) *Actions {
	return &Actions{rep: rep, signer: signer, sender: sender, verificationOf: verificationOf, onCacheUpdated: onCacheUpdated}
}

// dispatch assembles (fresh id + timestamp), signs, applies locally,
// marks pending, sends, and notifies — the shared action pipeline of
// spec.md §4.6, second paragraph.
func (a *Actions) dispatch(ctx context.Context, env *message.Envelope) (*message.Envelope, error) {
	env.ID = uuid.New().String()
	env.TimestampMs = time.Now().UnixMilli()

	signed, err := a.signer.Sign(env)
	if err != nil {
		return nil, fmt.Errorf("forum: sign: %w", err)
	}

	raw, err := message.Marshal(signed)
	if err != nil {
		return nil, fmt.Errorf("forum: marshal: %w", err)
	}

	outcome := a.rep.ApplyMessage(raw, a.signer)
	if outcome.Result == replica.Rejected {
		return nil, fmt.Errorf("forum: local apply rejected: %v", outcome.ValidationReport.Errors)
	}

	a.rep.MarkPending(signed.ID)

	if a.sender != nil {
		if err := a.sender.Send(ctx, raw); err != nil {
			return nil, fmt.Errorf("forum: send: %w", err)
		}
	}

	a.notify()
	return signed, nil
}

func (a *Actions) notify() {
	if a.onCacheUpdated != nil {
		a.onCacheUpdated()
	}
}

// CreateCell requires the author to be EnsVerified (spec.md §4.6).
func (a *Actions) CreateCell(ctx context.Context, user CurrentUser, name, description, icon string) (*message.Envelope, error) {
	user.Address = strings.ToLower(user.Address)
	if a.verificationOf(user.Address) != replica.VerificationEnsVerified {
		return nil, ErrNotVerified
	}
	env := &message.Envelope{
		Kind:   message.KindCell,
		Author: user.Address,
		Cell:   &message.CellPayload{Name: name, Description: description, Icon: icon},
	}
	return a.dispatch(ctx, env)
}

// CreatePost requires an authenticated session (wallet or anonymous).
func (a *Actions) CreatePost(ctx context.Context, user CurrentUser, cellID, title, body string) (*message.Envelope, error) {
	user.Address = strings.ToLower(user.Address)
	if !user.Authenticated {
		return nil, ErrNotAuthenticated
	}
	env := &message.Envelope{
		Kind:   message.KindPost,
		Author: user.Address,
		Post:   &message.PostPayload{CellID: cellID, Title: title, Body: body},
	}
	return a.dispatch(ctx, env)
}

// CreateComment requires an authenticated session.
func (a *Actions) CreateComment(ctx context.Context, user CurrentUser, postID, body string) (*message.Envelope, error) {
	user.Address = strings.ToLower(user.Address)
	if !user.Authenticated {
		return nil, ErrNotAuthenticated
	}
	env := &message.Envelope{
		Kind:    message.KindComment,
		Author:  user.Address,
		Comment: &message.CommentPayload{PostID: postID, Body: body},
	}
	return a.dispatch(ctx, env)
}

// Vote requires an authenticated session and a target that already
// resolves to a known Post or Comment.
func (a *Actions) Vote(ctx context.Context, user CurrentUser, targetID string, value int) (*message.Envelope, error) {
	user.Address = strings.ToLower(user.Address)
	if !user.Authenticated {
		return nil, ErrNotAuthenticated
	}
	if a.rep.Post(targetID) == nil && a.rep.Comment(targetID) == nil {
		return nil, ErrInvalidTarget
	}
	env := &message.Envelope{
		Kind:   message.KindVote,
		Author: user.Address,
		Vote:   &message.VotePayload{TargetID: targetID, Value: value},
	}
	return a.dispatch(ctx, env)
}

// Moderate requires current_user.address to equal the named cell's
// author (spec.md §4.6).
func (a *Actions) Moderate(ctx context.Context, user CurrentUser, cellID string, targetKind message.TargetKind, targetID, reason string) (*message.Envelope, error) {
	return a.moderate(ctx, user, cellID, targetKind, targetID, message.ModerateActionModerate, reason)
}

// Unmoderate is subject to the same permission check as Moderate.
func (a *Actions) Unmoderate(ctx context.Context, user CurrentUser, cellID string, targetKind message.TargetKind, targetID, reason string) (*message.Envelope, error) {
	return a.moderate(ctx, user, cellID, targetKind, targetID, message.ModerateActionUnmoderate, reason)
}

func (a *Actions) moderate(ctx context.Context, user CurrentUser, cellID string, targetKind message.TargetKind, targetID string, action message.ModerateAction, reason string) (*message.Envelope, error) {
	user.Address = strings.ToLower(user.Address)
	cell := a.rep.Cell(cellID)
	if cell == nil {
		return nil, ErrInvalidTarget
	}
	// cell.Author is always lowercase (delegation.Manager.Sign stamps it
	// from the signer's AuthorID), so user.Address must be too — spec.md
	// §3/§9: addresses are compared lowercased.
	if cell.Author != user.Address {
		return nil, ErrNotCellOwner
	}
	env := &message.Envelope{
		Kind:   message.KindModerate,
		Author: user.Address,
		Moderate: &message.ModeratePayload{
			Action: action, TargetKind: targetKind, TargetID: targetID, CellID: cellID, Reason: reason,
		},
	}
	return a.dispatch(ctx, env)
}

// UpdateProfile requires an authenticated session. It delegates the
// assemble/sign/apply/send pipeline to package identity, which owns
// display_name derivation, then applies forum's own pending/notify steps.
func (a *Actions) UpdateProfile(ctx context.Context, user CurrentUser, callSign string, pref message.DisplayPreference) (*message.Envelope, error) {
	if !user.Authenticated {
		return nil, ErrNotAuthenticated
	}
	env, err := identity.UpdateProfile(ctx, a.rep, a.signer, a.sender, callSign, pref)
	if err != nil {
		return nil, err
	}
	a.rep.MarkPending(env.ID)
	a.notify()
	return env, nil
}
