package message

import "strings"

const (
	maxTitleLen = 300
	maxBodyLen  = 10000

	// minTimestampMs / maxTimestampMs bound "a sensible range" (spec.md
	// §4.3): any positive millisecond value, not absurdly far in the
	// future.
	minTimestampMs int64 = 1
	maxTimestampMs int64 = 4102444800000 // 2100-01-01T00:00:00Z
)

// ValidationReport is the structural-validation diagnostic returned by
// Validate. SignatureOK is left false here; callers that also perform
// cryptographic verification (package delegation) set it.
type ValidationReport struct {
	OK            bool
	MissingFields []string
	InvalidFields []string
	SignatureOK   bool
	Errors        []string
	Warnings      []string
}

func (r *ValidationReport) addMissing(field string) {
	r.MissingFields = append(r.MissingFields, field)
	r.Errors = append(r.Errors, "missing field: "+field)
}

func (r *ValidationReport) addInvalid(field, reason string) {
	r.InvalidFields = append(r.InvalidFields, field)
	r.Errors = append(r.Errors, "invalid field "+field+": "+reason)
}

func (r *ValidationReport) addWarning(w string) {
	r.Warnings = append(r.Warnings, w)
}

func isWalletAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, c := range s[2:] {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// Validate performs the structural checks of spec.md §4.3: required
// fields present, timestamp within range, author matches a wallet
// address or UUIDv4, string length limits, and enum domains. It does not
// perform cryptographic verification.
func Validate(e *Envelope) ValidationReport {
	var r ValidationReport

	if e.ID == "" {
		r.addMissing("id")
	}
	if e.TimestampMs <= 0 {
		r.addInvalid("timestamp", "must be a positive integer")
	} else if e.TimestampMs < minTimestampMs || e.TimestampMs > maxTimestampMs {
		r.addInvalid("timestamp", "out of sensible range")
	}
	if e.Author == "" {
		r.addMissing("author")
	} else if !isWalletAddress(e.Author) && !isUUIDv4(e.Author) {
		r.addInvalid("author", "must be a 20-byte hex address or a UUIDv4")
	}

	switch e.Kind {
	case KindCell:
		validateCell(e, &r)
	case KindPost:
		validatePost(e, &r)
	case KindComment:
		validateComment(e, &r)
	case KindVote:
		validateVote(e, &r)
	case KindModerate:
		validateModerate(e, &r)
	case KindProfileUpdate:
		validateProfileUpdate(e, &r)
	default:
		r.addInvalid("kind", "unknown kind")
	}

	r.OK = len(r.Errors) == 0
	return r
}

func validateCell(e *Envelope, r *ValidationReport) {
	if e.Cell == nil {
		r.addMissing("cell")
		return
	}
	if e.Cell.Name == "" {
		r.addMissing("cell.name")
	}
	if e.Cell.Description == "" {
		r.addMissing("cell.description")
	}
}

func validatePost(e *Envelope, r *ValidationReport) {
	if e.Post == nil {
		r.addMissing("post")
		return
	}
	if e.Post.CellID == "" {
		r.addMissing("post.cell_id")
	}
	validateTextField(e.Post.Title, "post.title", r)
	validateBodyField(e.Post.Body, "post.body", r)
}

func validateComment(e *Envelope, r *ValidationReport) {
	if e.Comment == nil {
		r.addMissing("comment")
		return
	}
	if e.Comment.PostID == "" {
		r.addMissing("comment.post_id")
	}
	validateBodyField(e.Comment.Body, "comment.body", r)
}

func validateVote(e *Envelope, r *ValidationReport) {
	if e.Vote == nil {
		r.addMissing("vote")
		return
	}
	if e.Vote.TargetID == "" {
		r.addMissing("vote.target_id")
	}
	if e.Vote.Value != 1 && e.Vote.Value != -1 {
		r.addInvalid("vote.value", "must be +1 or -1")
	}
}

func validateModerate(e *Envelope, r *ValidationReport) {
	if e.Moderate == nil {
		r.addMissing("moderate")
		return
	}
	switch e.Moderate.Action {
	case ModerateActionModerate, ModerateActionUnmoderate:
	default:
		r.addInvalid("moderate.action", "must be Moderate or Unmoderate")
	}
	switch e.Moderate.TargetKind {
	case TargetKindPost, TargetKindComment, TargetKindUser:
	default:
		r.addInvalid("moderate.target_kind", "must be Post, Comment, or User")
	}
	if e.Moderate.TargetID == "" {
		r.addMissing("moderate.target_id")
	}
	if e.Moderate.CellID == "" {
		r.addMissing("moderate.cell_id")
	}
}

func validateProfileUpdate(e *Envelope, r *ValidationReport) {
	if e.ProfileUpdate == nil {
		r.addMissing("profile_update")
		return
	}
	switch e.ProfileUpdate.DisplayPreference {
	case DisplayPreferenceCallSign, DisplayPreferenceAddress:
	default:
		r.addInvalid("profile_update.display_preference", "must be CallSign or Address")
	}
	// Open Question resolved (spec.md §9 / SPEC_FULL.md §9): empty
	// call_sign with DisplayPreference=CallSign is accepted with a
	// warning, not rejected.
	if e.ProfileUpdate.DisplayPreference == DisplayPreferenceCallSign && e.ProfileUpdate.CallSign == "" {
		r.addWarning("profile_update.call_sign is empty but display_preference is CallSign")
	}
}

func validateTextField(v, name string, r *ValidationReport) {
	if v == "" {
		r.addMissing(name)
		return
	}
	if len(v) > maxTitleLen {
		r.addInvalid(name, "exceeds max length")
	}
}

func validateBodyField(v, name string, r *ValidationReport) {
	if v == "" {
		r.addMissing(name)
		return
	}
	if len(v) > maxBodyLen {
		r.addInvalid(name, "exceeds max length")
	}
}
