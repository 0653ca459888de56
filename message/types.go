// Package message defines the wire envelope for the six signed message
// kinds OpChan exchanges over the transport, the canonical encoding used
// for signing, and structural validation of each kind's payload.
package message

// Kind is the tagged-union discriminant for a signed message.
type Kind string

const (
	KindCell          Kind = "Cell"
	KindPost          Kind = "Post"
	KindComment       Kind = "Comment"
	KindVote          Kind = "Vote"
	KindModerate      Kind = "Moderate"
	KindProfileUpdate Kind = "ProfileUpdate"
)

// ModerateAction is the action a Moderate message applies.
type ModerateAction string

const (
	ModerateActionModerate   ModerateAction = "Moderate"
	ModerateActionUnmoderate ModerateAction = "Unmoderate"
)

// TargetKind names what a Moderate message targets.
type TargetKind string

const (
	TargetKindPost    TargetKind = "Post"
	TargetKindComment TargetKind = "Comment"
	TargetKindUser    TargetKind = "User"
)

// DisplayPreference controls how a ProfileUpdate author wants to be shown.
type DisplayPreference string

const (
	DisplayPreferenceCallSign DisplayPreference = "CallSign"
	DisplayPreferenceAddress  DisplayPreference = "Address"
)

// DelegationProof binds an ephemeral device key to a wallet address.
type DelegationProof struct {
	AuthMessage       string `json:"auth_message"`
	WalletSignature   []byte `json:"wallet_signature"`
	ExpiryTimestampMs int64  `json:"expiry_timestamp_ms"`
	WalletAddress     string `json:"wallet_address"`
}

// CellPayload is the Cell kind's payload.
type CellPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
}

// PostPayload is the Post kind's payload.
type PostPayload struct {
	CellID string `json:"cell_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// CommentPayload is the Comment kind's payload.
type CommentPayload struct {
	PostID string `json:"post_id"`
	Body   string `json:"body"`
}

// VotePayload is the Vote kind's payload.
type VotePayload struct {
	TargetID string `json:"target_id"`
	Value    int    `json:"value"`
}

// ModeratePayload is the Moderate kind's payload.
type ModeratePayload struct {
	Action     ModerateAction `json:"action"`
	TargetKind TargetKind     `json:"target_kind"`
	TargetID   string         `json:"target_id"`
	CellID     string         `json:"cell_id"`
	Reason     string         `json:"reason,omitempty"`
}

// ProfileUpdatePayload is the ProfileUpdate kind's payload.
type ProfileUpdatePayload struct {
	CallSign          string            `json:"call_sign,omitempty"`
	DisplayPreference DisplayPreference `json:"display_preference"`
}

// Envelope is common to every signed message, carrying exactly one
// kind-specific payload selected by Kind.
type Envelope struct {
	Kind            Kind             `json:"kind"`
	ID              string           `json:"id"`
	TimestampMs     int64            `json:"timestamp"`
	Author          string           `json:"author"`
	Signature       []byte           `json:"signature,omitempty"`
	DevicePubKey    []byte           `json:"device_pub_key,omitempty"`
	DelegationProof *DelegationProof `json:"delegation_proof,omitempty"`

	Cell          *CellPayload          `json:"cell,omitempty"`
	Post          *PostPayload          `json:"post,omitempty"`
	Comment       *CommentPayload       `json:"comment,omitempty"`
	Vote          *VotePayload          `json:"vote,omitempty"`
	Moderate      *ModeratePayload      `json:"moderate,omitempty"`
	ProfileUpdate *ProfileUpdatePayload `json:"profile_update,omitempty"`
}

// IsAnonymousAuthor reports whether author is the UUIDv4 textual form
// used by anonymous sessions, rather than a 20-byte hex wallet address.
func IsAnonymousAuthor(author string) bool {
	return isUUIDv4(author)
}
