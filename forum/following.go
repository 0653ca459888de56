package forum

import (
	"strings"
	"time"

	"github.com/opchan/core/replica"
)

// Follow records that user now follows followedAddress. Local-only,
// never broadcast (spec.md §3).
func (a *Actions) Follow(user CurrentUser, followedAddress string) (*replica.Following, error) {
	if !user.Authenticated {
		return nil, ErrNotAuthenticated
	}
	user.Address = strings.ToLower(user.Address)
	followedAddress = strings.ToLower(followedAddress)
	f := &replica.Following{
		ID:              replica.FollowingID(user.Address, followedAddress),
		UserID:          user.Address,
		FollowedAddress: followedAddress,
		FollowedAtMs:    time.Now().UnixMilli(),
	}
	if err := a.rep.PutFollowing(f); err != nil {
		return nil, err
	}
	a.notify()
	return f, nil
}

// Unfollow removes a previously-created following record.
func (a *Actions) Unfollow(user CurrentUser, followingID string) error {
	if !user.Authenticated {
		return ErrNotAuthenticated
	}
	if err := a.rep.RemoveFollowing(followingID); err != nil {
		return err
	}
	a.notify()
	return nil
}
