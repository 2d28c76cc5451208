package invitations

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
)

// Status of a collaboration request. Once a request leaves pending it is
// never reopened.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// DefaultTTL is how long an invitation stays acceptable
const DefaultTTL = 7 * 24 * time.Hour

var (
	ErrInvitationNotFound = fmt.Errorf("invitation not found: %w", auth.ErrNotFound)
	ErrNotInvitee         = fmt.Errorf("invitation is not addressed to caller: %w", auth.ErrForbidden)
	ErrNotPending         = fmt.Errorf("invitation is no longer pending: %w", auth.ErrConflict)
	ErrInvitationExpired  = fmt.Errorf("invitation expired: %w", auth.ErrExpired)
	ErrTokenMismatch      = fmt.Errorf("invitation token does not match: %w", auth.ErrForbidden)
	ErrSelfInvite         = fmt.Errorf("cannot invite yourself: %w", auth.ErrValidation)
	ErrInviteeRequired    = fmt.Errorf("invitee email or user id is required: %w", auth.ErrValidation)
	ErrProjectRequired    = fmt.Errorf("project id is required: %w", auth.ErrValidation)
)

// CollaborationRequest is an invitation to collaborate on a project.
// Exactly one of UserID and InviteEmail is set: an email-only invite is
// rebound to the account id once the invitee registers or accepts.
type CollaborationRequest struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	UserID      *string    `json:"user_id,omitempty"`
	InviteEmail *string    `json:"invite_email,omitempty"`
	InvitedBy   string     `json:"invited_by"`
	Status      Status     `json:"status"`
	TokenHash   string     `json:"-"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Expired reports whether the request has an expiry in the past
func (c *CollaborationRequest) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// AddressedTo reports whether the principal may accept the request: the
// bound user id matches, or no user is bound and the invite email matches
// case-insensitively.
func (c *CollaborationRequest) AddressedTo(p *auth.Principal) bool {
	if p == nil {
		return false
	}
	if c.UserID != nil {
		return *c.UserID == p.ID
	}
	return c.InviteEmail != nil && strings.EqualFold(*c.InviteEmail, p.Email)
}

// BoundTo reports an exact user id binding. Reject only honours this form.
func (c *CollaborationRequest) BoundTo(userID string) bool {
	return c.UserID != nil && *c.UserID == userID
}

// InviteRequest names the invitee by account id or by email
type InviteRequest struct {
	ProjectID string `json:"-"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Invitation is returned by Invite. Token is the raw one-time token and is
// only available at creation time.
type Invitation struct {
	Request *CollaborationRequest `json:"request"`
	Token   string                `json:"token"`
}
