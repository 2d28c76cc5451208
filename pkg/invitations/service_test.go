package invitations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/invitations"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	svc        *invitations.Service
	store      *memory.InvitationStore
	membership *memory.Membership
	accounts   *memory.AccountStore
	hasher     auth.Hasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	membership := memory.NewMembership()
	env := &testEnv{
		store:      memory.NewInvitationStore(membership),
		membership: membership,
		accounts:   memory.NewAccountStore(),
		hasher:     auth.NewArgon2Hasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}),
	}
	svc, err := invitations.NewService(invitations.ServiceConfig{
		Store:    env.store,
		Accounts: env.accounts,
		Hasher:   env.hasher,
	})
	require.NoError(t, err)
	env.svc = svc
	return env
}

func (e *testEnv) addAccount(t *testing.T, id, email string) *auth.Principal {
	t.Helper()
	a := &auth.Account{ID: id, Email: email, Name: id, Role: auth.RoleUser, Status: auth.StatusActive}
	require.NoError(t, e.accounts.Create(context.Background(), a))
	return a.Principal()
}

func ptr(s string) *string { return &s }

var (
	inviter = &auth.Principal{ID: "inviter-1", Email: "pm@example.com", Role: auth.RoleConsultant, Kind: auth.KindUser}
	ctx     = context.Background()
)

func TestNewService_Validation(t *testing.T) {
	_, err := invitations.NewService(invitations.ServiceConfig{})
	assert.Error(t, err)
}

func TestInvite_RegisteredUserIsBoundByID(t *testing.T) {
	env := newTestEnv(t)
	invitee := env.addAccount(t, "user-1", "Sam@Example.com")

	inv, err := env.svc.Invite(ctx, inviter, invitations.InviteRequest{ProjectID: "proj-1", Email: "sam@example.com"})
	require.NoError(t, err)

	require.NotNil(t, inv.Request.UserID)
	assert.Equal(t, invitee.ID, *inv.Request.UserID)
	assert.Nil(t, inv.Request.InviteEmail)
	assert.Equal(t, invitations.StatusPending, inv.Request.Status)
	assert.Equal(t, inviter.ID, inv.Request.InvitedBy)
	require.NotNil(t, inv.Request.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(invitations.DefaultTTL), *inv.Request.ExpiresAt, time.Minute)

	assert.NotEmpty(t, inv.Token)
	assert.NotEqual(t, inv.Token, inv.Request.TokenHash)
	ok, err := env.hasher.Verify(inv.Token, inv.Request.TokenHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInvite_UnknownEmailIsEmailBound(t *testing.T) {
	env := newTestEnv(t)

	inv, err := env.svc.Invite(ctx, inviter, invitations.InviteRequest{ProjectID: "proj-1", Email: "new@example.com"})
	require.NoError(t, err)

	assert.Nil(t, inv.Request.UserID)
	require.NotNil(t, inv.Request.InviteEmail)
	assert.Equal(t, "new@example.com", *inv.Request.InviteEmail)
}

func TestInvite_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.addAccount(t, inviter.ID, inviter.Email)

	tests := []struct {
		name string
		req  invitations.InviteRequest
		want error
	}{
		{"missing project", invitations.InviteRequest{Email: "a@example.com"}, auth.ErrValidation},
		{"missing invitee", invitations.InviteRequest{ProjectID: "p"}, auth.ErrValidation},
		{"bad email", invitations.InviteRequest{ProjectID: "p", Email: "not-an-email"}, auth.ErrValidation},
		{"self invite", invitations.InviteRequest{ProjectID: "p", Email: inviter.Email}, invitations.ErrSelfInvite},
		{"unknown user id", invitations.InviteRequest{ProjectID: "p", UserID: "ghost"}, auth.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Invite(ctx, inviter, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAccept_BoundUser(t *testing.T) {
	env := newTestEnv(t)
	invitee := env.addAccount(t, "user-1", "sam@example.com")
	inv, err := env.svc.Invite(ctx, inviter, invitations.InviteRequest{ProjectID: "proj-1", UserID: invitee.ID})
	require.NoError(t, err)

	require.NoError(t, env.svc.Accept(ctx, inv.Request.ID, invitee, inv.Token))

	got, err := env.store.Get(ctx, inv.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, invitations.StatusAccepted, got.Status)

	c, ok := env.membership.Collaborator("proj-1", invitee.ID)
	require.True(t, ok)
	assert.Equal(t, inviter.ID, c.AddedBy)
}

func TestAccept_EmailBoundBindsOnce(t *testing.T) {
	env := newTestEnv(t)
	inv, err := env.svc.Invite(ctx, inviter, invitations.InviteRequest{ProjectID: "proj-1", Email: "late@example.com"})
	require.NoError(t, err)

	caller := &auth.Principal{ID: "user-9", Email: "LATE@example.com", Role: auth.RoleUser, Kind: auth.KindUser}
	require.NoError(t, env.svc.Accept(ctx, inv.Request.ID, caller, ""))

	got, err := env.store.Get(ctx, inv.Request.ID)
	require.NoError(t, err)
	require.NotNil(t, got.UserID)
	assert.Equal(t, caller.ID, *got.UserID)
	assert.Nil(t, got.InviteEmail)

	err = env.svc.Accept(ctx, inv.Request.ID, caller, "")
	assert.ErrorIs(t, err, invitations.ErrNotPending)
}

func TestAccept_GuardOrder(t *testing.T) {
	env := newTestEnv(t)
	past := time.Now().Add(-time.Hour)
	hash, err := env.hasher.Hash("boqinv_right")
	require.NoError(t, err)

	owner := &auth.Principal{ID: "user-1", Email: "owner@example.com"}
	stranger := &auth.Principal{ID: "user-2", Email: "stranger@example.com"}

	seed := func(id string, status invitations.Status, expires *time.Time) {
		require.NoError(t, env.store.Create(ctx, &invitations.CollaborationRequest{
			ID: id, ProjectID: "proj-1", UserID: ptr(owner.ID), InvitedBy: inviter.ID,
			Status: status, TokenHash: hash, ExpiresAt: expires, CreatedAt: time.Now(),
		}))
	}
	seed("expired-and-rejected", invitations.StatusRejected, &past)
	seed("expired", invitations.StatusPending, &past)
	seed("no-expiry", invitations.StatusPending, nil)

	tests := []struct {
		name   string
		id     string
		caller *auth.Principal
		token  string
		want   error
	}{
		{"missing request", "nope", owner, "", auth.ErrNotFound},
		{"stranger before status", "expired-and-rejected", stranger, "", auth.ErrForbidden},
		{"status before expiry", "expired-and-rejected", owner, "", invitations.ErrNotPending},
		{"expired before token", "expired", owner, "boqinv_wrong", auth.ErrExpired},
		{"token mismatch", "no-expiry", owner, "boqinv_wrong", invitations.ErrTokenMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.svc.Accept(ctx, tt.id, tt.caller, tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, added := env.membership.Collaborator("proj-1", owner.ID)
	assert.False(t, added)
}

func TestAccept_ExpiredIsNotForbidden(t *testing.T) {
	env := newTestEnv(t)
	past := time.Now().Add(-time.Minute)
	owner := &auth.Principal{ID: "user-1", Email: "owner@example.com"}
	require.NoError(t, env.store.Create(ctx, &invitations.CollaborationRequest{
		ID: "r1", ProjectID: "p", UserID: ptr(owner.ID), InvitedBy: inviter.ID,
		Status: invitations.StatusPending, ExpiresAt: &past,
	}))

	err := env.svc.Accept(ctx, "r1", owner, "")
	assert.ErrorIs(t, err, auth.ErrExpired)
	assert.False(t, errors.Is(err, auth.ErrForbidden))
}

func TestAccept_TokenIgnoredWithoutStoredHash(t *testing.T) {
	env := newTestEnv(t)
	owner := &auth.Principal{ID: "user-1", Email: "owner@example.com"}
	require.NoError(t, env.store.Create(ctx, &invitations.CollaborationRequest{
		ID: "r1", ProjectID: "p", UserID: ptr(owner.ID), InvitedBy: inviter.ID,
		Status: invitations.StatusPending,
	}))

	assert.NoError(t, env.svc.Accept(ctx, "r1", owner, "anything"))
}

func TestReject(t *testing.T) {
	env := newTestEnv(t)
	invitee := env.addAccount(t, "user-1", "sam@example.com")
	inv, err := env.svc.Invite(ctx, inviter, invitations.InviteRequest{ProjectID: "proj-1", UserID: invitee.ID})
	require.NoError(t, err)

	other := &auth.Principal{ID: "user-2", Email: "other@example.com"}
	assert.ErrorIs(t, env.svc.Reject(ctx, inv.Request.ID, other), auth.ErrForbidden)

	require.NoError(t, env.svc.Reject(ctx, inv.Request.ID, invitee))
	got, err := env.store.Get(ctx, inv.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, invitations.StatusRejected, got.Status)

	assert.ErrorIs(t, env.svc.Reject(ctx, inv.Request.ID, invitee), invitations.ErrNotPending)
	assert.ErrorIs(t, env.svc.Accept(ctx, inv.Request.ID, invitee, ""), invitations.ErrNotPending)
}

func TestReject_EmailOnlyBindingIsNotEnough(t *testing.T) {
	env := newTestEnv(t)
	inv, err := env.svc.Invite(ctx, inviter, invitations.InviteRequest{ProjectID: "proj-1", Email: "late@example.com"})
	require.NoError(t, err)

	caller := &auth.Principal{ID: "user-9", Email: "late@example.com"}
	assert.ErrorIs(t, env.svc.Reject(ctx, inv.Request.ID, caller), auth.ErrForbidden)

	n, err := env.svc.BindPendingEmail(ctx, caller.Email, caller.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, env.svc.Reject(ctx, inv.Request.ID, caller))
}

func TestBindPendingEmail(t *testing.T) {
	env := newTestEnv(t)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	for _, r := range []*invitations.CollaborationRequest{
		{ID: "live", InviteEmail: ptr("Mixed@Example.com"), Status: invitations.StatusPending, ExpiresAt: &future},
		{ID: "no-expiry", InviteEmail: ptr("mixed@example.com"), Status: invitations.StatusPending},
		{ID: "expired", InviteEmail: ptr("mixed@example.com"), Status: invitations.StatusPending, ExpiresAt: &past},
		{ID: "rejected", InviteEmail: ptr("mixed@example.com"), Status: invitations.StatusRejected},
		{ID: "other", InviteEmail: ptr("other@example.com"), Status: invitations.StatusPending},
	} {
		r.ProjectID, r.InvitedBy = "p", inviter.ID
		require.NoError(t, env.store.Create(ctx, r))
	}

	n, err := env.svc.BindPendingEmail(ctx, "MIXED@example.com", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for id, bound := range map[string]bool{"live": true, "no-expiry": true, "expired": false, "rejected": false, "other": false} {
		got, err := env.store.Get(ctx, id)
		require.NoError(t, err)
		if bound {
			require.NotNil(t, got.UserID, id)
			assert.Equal(t, "user-1", *got.UserID)
			assert.Nil(t, got.InviteEmail, id)
		} else {
			assert.Nil(t, got.UserID, id)
			assert.NotNil(t, got.InviteEmail, id)
		}
	}
}

func TestRegisterRebindsInvitations(t *testing.T) {
	env := newTestEnv(t)
	inv, err := env.svc.Invite(ctx, inviter, invitations.InviteRequest{ProjectID: "proj-1", Email: "late@example.com"})
	require.NoError(t, err)

	codec, err := auth.NewTokenCodec(auth.CodecConfig{
		AccessSecret:  []byte("access-secret-access-secret-0123"),
		RefreshSecret: []byte("refresh-secret-refresh-secret-01"),
	})
	require.NoError(t, err)
	authSvc, err := auth.NewService(auth.ServiceConfig{
		Accounts:    env.accounts,
		Admins:      memory.NewAdminStore(),
		Codec:       codec,
		Hasher:      env.hasher,
		Invitations: env.svc,
	})
	require.NoError(t, err)

	pair, err := authSvc.Register(ctx, auth.RegisterRequest{Email: "Late@Example.com", Password: "password123", Name: "Late"})
	require.NoError(t, err)

	got, err := env.store.Get(ctx, inv.Request.ID)
	require.NoError(t, err)
	require.NotNil(t, got.UserID)
	assert.Equal(t, pair.User.ID, *got.UserID)
	assert.Nil(t, got.InviteEmail)
}

func TestListForUser(t *testing.T) {
	env := newTestEnv(t)
	invitee := env.addAccount(t, "user-1", "sam@example.com")

	_, err := env.svc.Invite(ctx, inviter, invitations.InviteRequest{ProjectID: "p1", UserID: invitee.ID})
	require.NoError(t, err)
	_, err = env.svc.Invite(ctx, inviter, invitations.InviteRequest{ProjectID: "p2", Email: "unregistered@example.com"})
	require.NoError(t, err)

	list, err := env.svc.ListForUser(ctx, invitee)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ProjectID)

	_, err = env.svc.ListForUser(ctx, nil)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

// rejectFirstStore lets a Reject commit between Accept's read and its
// transition
type rejectFirstStore struct {
	invitations.Store
	svc    *invitations.Service
	caller *auth.Principal
}

func (s *rejectFirstStore) MarkAccepted(ctx context.Context, id, userID string, now time.Time) error {
	if err := s.svc.Reject(ctx, id, s.caller); err != nil {
		return err
	}
	return s.Store.MarkAccepted(ctx, id, userID, now)
}

func TestAccept_ConcurrentRejectGrantsNoMembership(t *testing.T) {
	env := newTestEnv(t)
	invitee := env.addAccount(t, "user-1", "sam@example.com")
	inv, err := env.svc.Invite(ctx, inviter, invitations.InviteRequest{ProjectID: "proj-1", UserID: invitee.ID})
	require.NoError(t, err)

	racing := &rejectFirstStore{Store: env.store, caller: invitee}
	svc, err := invitations.NewService(invitations.ServiceConfig{
		Store:    racing,
		Accounts: env.accounts,
		Hasher:   env.hasher,
	})
	require.NoError(t, err)
	racing.svc = env.svc

	err = svc.Accept(ctx, inv.Request.ID, invitee, "")
	assert.ErrorIs(t, err, invitations.ErrNotPending)

	got, err := env.store.Get(ctx, inv.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, invitations.StatusRejected, got.Status)

	_, added := env.membership.Collaborator("proj-1", invitee.ID)
	assert.False(t, added, "rejected invitation left a collaborator row")
}
