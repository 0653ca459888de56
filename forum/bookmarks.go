package forum

import (
	"strings"
	"time"

	"github.com/opchan/core/replica"
)

// Bookmark/Follow are local-only mutations (spec.md §3: "never
// broadcast"): no signing, no dispatch pipeline, just a replica write
// plus the same onCacheUpdated notification every other action gives.

// Bookmark saves a reference to a Post ("post") or Comment ("comment").
func (a *Actions) Bookmark(user CurrentUser, targetKind, targetID string) (*replica.Bookmark, error) {
	if !user.Authenticated {
		return nil, ErrNotAuthenticated
	}
	user.Address = strings.ToLower(user.Address)
	b := &replica.Bookmark{
		ID:          replica.BookmarkID(targetKind, targetID),
		UserID:      user.Address,
		CreatedAtMs: time.Now().UnixMilli(),
		TargetKind:  targetKind,
		TargetID:    targetID,
	}
	switch targetKind {
	case "post":
		p := a.rep.Post(targetID)
		if p == nil {
			return nil, ErrInvalidTarget
		}
		b.Title, b.Author, b.CellID, b.PostID = p.Title, p.Author, p.CellID, p.ID
	case "comment":
		c := a.rep.Comment(targetID)
		if c == nil {
			return nil, ErrInvalidTarget
		}
		b.Author, b.PostID = c.Author, c.PostID
	default:
		return nil, ErrInvalidTarget
	}

	if err := a.rep.PutBookmark(b); err != nil {
		return nil, err
	}
	a.notify()
	return b, nil
}

// RemoveBookmark deletes a previously-created bookmark.
func (a *Actions) RemoveBookmark(user CurrentUser, bookmarkID string) error {
	if !user.Authenticated {
		return ErrNotAuthenticated
	}
	if err := a.rep.RemoveBookmark(bookmarkID); err != nil {
		return err
	}
	a.notify()
	return nil
}
