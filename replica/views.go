package replica

import (
	"github.com/opchan/core/message"
	"github.com/opchan/core/relevance"
)

// VerificationFunc reports whether address is currently EnsVerified;
// supplied by package identity (or a test double), never computed here.
type VerificationFunc func(address string) bool

// EnhancedPost is Post plus materialized votes/comments/moderation/score
// (spec.md §3 "Derived entities"). Built on demand and thrown away, per
// spec.md §9's guidance against object graphs with back-pointers.
type EnhancedPost struct {
	Post                *Post
	UpvoteIDs           []string
	DownvoteIDs         []string
	CommentIDs          []string
	Moderated           bool
	Score               float64
	VerifiedUpvoterCount int
	VerifiedCommenters  []string
}

// EnhancedPostView builds an EnhancedPost for postID as of nowMs.
func (r *Replica) EnhancedPostView(postID string, verified VerificationFunc, nowMs int64) *EnhancedPost {
	r.mu.RLock()
	post, ok := r.posts[postID]
	if !ok {
		r.mu.RUnlock()
		return nil
	}
	var votes []*Vote
	for k, v := range r.votes {
		if k.targetID == postID {
			votes = append(votes, v)
		}
	}
	commentIDs := append([]string(nil), r.commentsByPost[postID]...)
	mod := r.moderations[modKey{cellID: post.CellID, targetKind: message.TargetKindPost, targetID: postID}]
	r.mu.RUnlock()

	ep := &EnhancedPost{Post: post, CommentIDs: commentIDs}
	verifiedCommenterSet := make(map[string]struct{})
	for _, id := range commentIDs {
		c := r.Comment(id)
		if c == nil {
			continue
		}
		if verified != nil && verified(c.Author) {
			verifiedCommenterSet[c.Author] = struct{}{}
		}
	}
	for author := range verifiedCommenterSet {
		ep.VerifiedCommenters = append(ep.VerifiedCommenters, author)
	}

	for _, v := range votes {
		if v.Value > 0 {
			ep.UpvoteIDs = append(ep.UpvoteIDs, v.MessageID)
			if verified != nil && verified(v.Author) {
				ep.VerifiedUpvoterCount++
			}
		} else {
			ep.DownvoteIDs = append(ep.DownvoteIDs, v.MessageID)
		}
	}

	ep.Moderated = mod != nil && mod.Action == message.ModerateActionModerate

	authorVerified := verified != nil && verified(post.Author)
	ep.Score = relevance.Score(relevance.Input{
		AuthorVerified:                authorVerified,
		UpvoteCount:                   len(ep.UpvoteIDs),
		CommentCount:                  len(ep.CommentIDs),
		VerifiedUpvoterCount:          ep.VerifiedUpvoterCount,
		VerifiedCommenterCount:        len(ep.VerifiedCommenters),
		PostTimestampMs:               post.TimestampMs,
		EffectiveModerationIsModerate: ep.Moderated,
	}, nowMs)

	return ep
}

// EnhancedCell is Cell plus post count / active-author count /
// recent-activity count (7-day window), per spec.md §3.
type EnhancedCell struct {
	Cell                 *Cell
	PostCount            int
	ActiveAuthorCount    int
	RecentActivityCount  int
}

const recentActivityWindowMs = 7 * 24 * 60 * 60 * 1000

// EnhancedCellView builds an EnhancedCell for cellID as of nowMs.
func (r *Replica) EnhancedCellView(cellID string, nowMs int64) *EnhancedCell {
	r.mu.RLock()
	cell, ok := r.cells[cellID]
	if !ok {
		r.mu.RUnlock()
		return nil
	}
	postIDs := r.postsByCell.postIDs(cellID)
	authors := make(map[string]struct{})
	recent := 0
	for _, id := range postIDs {
		p := r.posts[id]
		if p == nil {
			continue
		}
		authors[p.Author] = struct{}{}
		if nowMs-p.TimestampMs <= recentActivityWindowMs {
			recent++
		}
	}
	r.mu.RUnlock()

	return &EnhancedCell{
		Cell:                cell,
		PostCount:           len(postIDs),
		ActiveAuthorCount:   len(authors),
		RecentActivityCount: recent,
	}
}
