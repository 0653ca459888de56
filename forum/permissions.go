package forum

import "errors"

// Errors returned when an action fails the pre-send permission check of
// spec.md §4.6:
//
//	createCell             requires verification_status = EnsVerified
//	createPost             requires authenticated
//	createComment          requires authenticated
//	vote                   requires authenticated; target must be a known Post or Comment
//	moderate / unmoderate  requires current_user.address == cell.author
//	profile update         requires authenticated
var (
	ErrNotAuthenticated = errors.New("forum: not authenticated")
	ErrNotVerified      = errors.New("forum: author is not EnsVerified")
	ErrNotCellOwner     = errors.New("forum: current user does not own the cell")
	ErrInvalidTarget    = errors.New("forum: target does not resolve to a known entity")
)
