// Package ledger holds the per-actor mutation rules for post votes, event
// RSVPs and business/resource reviews. The functions here operate on loaded
// documents; the stores apply the same rules as single conditional writes.
package ledger

import (
	apperrors "github.com/phillip/community-platform-go/apperrors"
)

var (
	ErrInvalidVoteType   = apperrors.Validation("Invalid vote type")
	ErrInvalidRSVPStatus = apperrors.Validation("Invalid RSVP status")
	ErrEventPrivate      = apperrors.Forbidden("Cannot RSVP to private event")
	ErrEventClosed       = apperrors.Validation("Event is not open for RSVP")
	ErrEventFull         = apperrors.Conflict("Event is full")
	ErrInvalidRating     = apperrors.Validation("Rating must be between 1 and 5")
	ErrDuplicateReview   = apperrors.Conflict("You have already reviewed this item")
)
