package invitations

import (
	"context"
	"time"
)

// Store persists collaboration requests. Get returns ErrInvitationNotFound
// for unknown ids. MarkAccepted and MarkRejected only transition pending
// requests and return ErrNotPending otherwise.
type Store interface {
	Create(ctx context.Context, req *CollaborationRequest) error
	Get(ctx context.Context, id string) (*CollaborationRequest, error)

	// BindEmail sets user_id and clears invite_email on every pending,
	// unexpired, email-only request whose email matches case-insensitively.
	BindEmail(ctx context.Context, email, userID string, now time.Time) (int, error)

	// MarkAccepted binds the request to userID, clears the invite email,
	// sets status accepted and adds userID to the project as a collaborator
	// attributed to the inviter. Membership and the transition commit
	// together: a request that is no longer pending grants nothing, and a
	// failed membership write leaves the request pending.
	MarkAccepted(ctx context.Context, id, userID string, now time.Time) error
	MarkRejected(ctx context.Context, id string, now time.Time) error

	// ListForUser returns pending requests bound to userID or addressed to
	// email with no bound user, newest first.
	ListForUser(ctx context.Context, userID, email string) ([]*CollaborationRequest, error)
}
