// Package replica implements the local-first forum state: in-memory
// indexes backed by a durable key-value store, merged from signed
// messages observed on the transport or produced locally. It is the
// single source of truth reads are served from (spec.md §4.4).
package replica

import "github.com/opchan/core/message"

// Cell is a topic-bounded container of posts.
type Cell struct {
	ID          string
	Author      string
	TimestampMs int64
	Name        string
	Description string
	Icon        string
}

// Post is a top-level submission within a Cell.
type Post struct {
	ID          string
	Author      string
	TimestampMs int64
	CellID      string
	Title       string
	Body        string
}

// Comment is a reply to a Post.
type Comment struct {
	ID          string
	Author      string
	TimestampMs int64
	PostID      string
	Body        string
}

// Vote is the latest vote a single author has cast on a single target.
type Vote struct {
	MessageID   string
	TargetID    string
	Author      string
	TimestampMs int64
	Value       int
}

// Moderation is the effective moderation state for a single target
// within a cell: whichever Moderate/Unmoderate message has the latest
// (timestamp, id).
type Moderation struct {
	MessageID   string
	CellID      string
	TargetKind  message.TargetKind
	TargetID    string
	Action      message.ModerateAction
	TimestampMs int64
	Reason      string
}

// VerificationStatus is computed, never stored on a message.
type VerificationStatus string

const (
	VerificationAnonymous        VerificationStatus = "Anonymous"
	VerificationWalletUnconnected VerificationStatus = "WalletUnconnected"
	VerificationWalletConnected  VerificationStatus = "WalletConnected"
	VerificationEnsVerified      VerificationStatus = "EnsVerified"
)

// UserIdentity is the locally-known profile for an address: the
// call_sign/display_preference fields a ProfileUpdate message sets,
// merged (by package identity) with ENS lookup results.
type UserIdentity struct {
	Address           string
	EnsName           string
	EnsAvatar         string
	CallSign          string
	DisplayPreference message.DisplayPreference
	DisplayName       string
	VerificationStatus VerificationStatus
	LastUpdatedMs     int64
}

// Bookmark is a local-only saved reference to a Post or Comment; never
// broadcast (spec.md §3).
type Bookmark struct {
	ID          string
	UserID      string
	CreatedAtMs int64
	TargetKind  string // "post" or "comment"
	TargetID    string
	Title       string
	Author      string
	CellID      string
	PostID      string
}

// Following is a local-only record that UserID follows FollowedAddress;
// never broadcast (spec.md §3).
type Following struct {
	ID              string
	UserID          string
	FollowedAddress string
	FollowedAtMs    int64
}

// ApplyResult is the outcome of ApplyMessage.
type ApplyResult int

const (
	Rejected ApplyResult = iota
	Duplicate
	Accepted
)

func (r ApplyResult) String() string {
	switch r {
	case Rejected:
		return "rejected"
	case Duplicate:
		return "duplicate"
	case Accepted:
		return "accepted"
	default:
		return "unknown"
	}
}

func targetKindOf(s string) message.TargetKind {
	return message.TargetKind(s)
}

type voteKey struct {
	targetID string
	author   string
}

type modKey struct {
	cellID     string
	targetKind message.TargetKind
	targetID   string
}
