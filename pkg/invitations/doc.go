// Package invitations implements project collaboration invites.
//
// # State machine
//
// A CollaborationRequest starts pending and moves exactly once, to accepted
// or to rejected. It is addressed either to a registered account (UserID)
// or to an email address (InviteEmail); an email invite is rebound to the
// account id when the invitee registers (BindPendingEmail, wired into
// auth.Service) or accepts.
//
// # Accept
//
// Guards are evaluated in this order:
//
//  1. the request exists (ErrInvitationNotFound)
//  2. the caller is the bound user, or no user is bound and the invite
//     email matches the caller's email case-insensitively (ErrNotInvitee)
//  3. the request is pending (ErrNotPending)
//  4. the expiry has not passed (ErrInvitationExpired, wraps auth.ErrExpired)
//  5. a supplied raw token verifies against the stored hash (ErrTokenMismatch)
//
// Store.MarkAccepted then re-checks the status under lock, marks the request
// accepted and adds the caller to project_collaborators, attributed to the
// inviter, in one transaction. A concurrent Reject that commits first leaves
// Accept with ErrNotPending and no membership.
//
// # Reject
//
// Reject only authorizes an exact UserID match. An email-only request cannot
// be rejected until it has been rebound, which differs from Accept.
//
// # Usage Example
//
//	svc, _ := invitations.NewService(invitations.ServiceConfig{
//		Store:    invitations.NewPostgresStore(db),
//		Accounts: accounts,
//		Hasher:   hasher,
//	})
//	inv, err := svc.Invite(ctx, inviter, invitations.InviteRequest{ProjectID: pid, Email: "sam@example.com"})
//	// deliver inv.Token out of band
//	err = svc.Accept(ctx, inv.Request.ID, invitee, inv.Token)
package invitations
