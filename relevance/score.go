// Package relevance implements the deterministic, auditable relevance
// scoring function used to rank posts (spec.md §4.7), plus an optional
// structured filter for listing views.
package relevance

import "math"

// halfLifeDays is the exponential decay half-life.
const halfLifeDays = 7.0

// Input is every signal Score needs, gathered by the caller (typically
// package replica's view-materialization code) from the replica's
// indexes. now is passed explicitly so the function stays pure and
// testable, per spec.md §4.7.
type Input struct {
	AuthorVerified          bool
	UpvoteCount             int
	CommentCount            int
	VerifiedUpvoterCount    int
	VerifiedCommenterCount  int
	PostTimestampMs         int64
	EffectiveModerationIsModerate bool
}

// Score implements spec.md §4.7's formula exactly:
//
//	base        = 100
//	engagement  = 10 * #upvotes + 3 * #comments
//	author_v    = 20 if author is EnsVerified else 0
//	upvoter_v   = 5  * verified upvoter count
//	commenter_v = 10 * distinct verified commenter count
//	decay       = exp(-ln(2) * days_old / 7)
//	mod_factor  = 0.5 if moderated else 1.0
//	score       = max(0, (base+engagement+author_v+upvoter_v+commenter_v) * decay * mod_factor)
func Score(in Input, nowMs int64) float64 {
	base := 100.0
	engagement := 10*float64(in.UpvoteCount) + 3*float64(in.CommentCount)
	authorV := 0.0
	if in.AuthorVerified {
		authorV = 20
	}
	upvoterV := 5 * float64(in.VerifiedUpvoterCount)
	commenterV := 10 * float64(in.VerifiedCommenterCount)

	daysOld := float64(nowMs-in.PostTimestampMs) / 86_400_000.0
	decay := math.Exp(-math.Ln2 * daysOld / halfLifeDays)

	modFactor := 1.0
	if in.EffectiveModerationIsModerate {
		modFactor = 0.5
	}

	score := (base + engagement + authorV + upvoterV + commenterV) * decay * modFactor
	if score < 0 {
		return 0
	}
	return score
}
