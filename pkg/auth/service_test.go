package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	mu   sync.Mutex
	byID map[string]*Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: make(map[string]*Account)}
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeAccounts) Create(_ context.Context, account *Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Email == account.Email {
			return ErrConflict
		}
	}
	cp := *account
	f.byID[account.ID] = &cp
	return nil
}

type fakeAdmins struct {
	byID map[string]*AdminAccount
}

func (f *fakeAdmins) GetByID(_ context.Context, id string) (*AdminAccount, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, ErrNotFound
}

func (f *fakeAdmins) GetByEmail(_ context.Context, email string) (*AdminAccount, error) {
	for _, a := range f.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeAdmins) Create(_ context.Context, admin *AdminAccount) error {
	f.byID[admin.ID] = admin
	return nil
}

type fakeBinder struct {
	email, userID string
	err           error
}

func (f *fakeBinder) BindPendingEmail(_ context.Context, email, userID string) (int, error) {
	f.email, f.userID = email, userID
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.EventType
}

func (r *recordingAudit) Log(_ context.Context, e *audit.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.EventType)
	return nil
}

func (r *recordingAudit) LogAuthentication(ctx context.Context, t audit.EventType, userID, email string, s audit.EventStatus, m string) error {
	return r.Log(ctx, &audit.AuditEvent{EventType: t})
}

func (r *recordingAudit) LogAuthorization(ctx context.Context, t audit.EventType, userID string, rt audit.ResourceType, id string, s audit.EventStatus, m string) error {
	return r.Log(ctx, &audit.AuditEvent{EventType: t})
}

func (r *recordingAudit) Close() error { return nil }

type testEnv struct {
	svc      *Service
	accounts *fakeAccounts
	admins   *fakeAdmins
	binder   *fakeBinder
	revoked  *MemoryRevocationStore
	codec    *TokenCodec
	hasher   Hasher
}

func newTestEnv(t *testing.T, threshold int) *testEnv {
	t.Helper()
	env := &testEnv{
		accounts: newFakeAccounts(),
		admins:   &fakeAdmins{byID: make(map[string]*AdminAccount)},
		binder:   &fakeBinder{},
		revoked:  NewMemoryRevocationStore(),
		codec:    newTestCodec(t),
		hasher:   fastArgon2(),
	}

	svc, err := NewService(ServiceConfig{
		Accounts:       env.accounts,
		Admins:         env.admins,
		Codec:          env.codec,
		Hasher:         env.hasher,
		Invitations:    env.binder,
		Revocations:    env.revoked,
		SweepThreshold: threshold,
	})
	require.NoError(t, err)
	env.svc = svc
	return env
}

func (e *testEnv) register(t *testing.T, email string) *TokenPair {
	t.Helper()
	pair, err := e.svc.Register(context.Background(), RegisterRequest{Email: email, Password: "password123", Name: "Test User"})
	require.NoError(t, err)
	return pair
}

func (e *testEnv) addAdmin(t *testing.T, id, email, password string) {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)
	e.admins.Create(context.Background(), &AdminAccount{ID: id, Email: email, PasswordHash: hash, Name: "Admin", Status: StatusActive})
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	assert.Error(t, err)

	_, err = NewService(ServiceConfig{Accounts: newFakeAccounts(), Admins: &fakeAdmins{}})
	assert.ErrorContains(t, err, "codec")
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	pair := env.register(t, "  alice@example.com ")

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "alice@example.com", pair.User.Email)
	assert.Equal(t, RoleUser, pair.User.Role)

	principal, err := env.svc.ValidateToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, pair.User.ID, principal.ID)
	assert.Equal(t, KindUser, principal.Kind)

	stored, err := env.accounts.GetByID(ctx, pair.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.Equal(t, StatusActive, stored.Status)

	assert.Equal(t, "alice@example.com", env.binder.email)
	assert.Equal(t, pair.User.ID, env.binder.userID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	first := env.register(t, "alice@example.com")
	before, err := env.accounts.GetByID(ctx, first.User.ID)
	require.NoError(t, err)

	_, err = env.svc.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "another-password", Name: "Mallory"})
	assert.ErrorIs(t, err, ErrConflict)

	after, err := env.accounts.GetByID(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, env.accounts.byID, 1)
}

func TestRegister_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, 0)

	tests := []struct {
		name string
		req  RegisterRequest
		msg  string
	}{
		{"missing email", RegisterRequest{Password: "password123", Name: "x"}, "email is required"},
		{"bad email", RegisterRequest{Email: "nope", Password: "password123", Name: "x"}, "email is invalid"},
		{"short password", RegisterRequest{Email: "a@b.c", Password: "short", Name: "x"}, "at least 8"},
		{"missing name", RegisterRequest{Email: "a@b.c", Password: "password123", Name: "  "}, "name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
	assert.Empty(t, env.accounts.byID)
}

func TestRegister_BindFailureDoesNotFail(t *testing.T) {
	env := newTestEnv(t, 0)
	env.binder.err = errors.New("db down")

	pair, err := env.svc.Register(context.Background(), RegisterRequest{Email: "bob@example.com", Password: "password123", Name: "Bob"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	registered := env.register(t, "alice@example.com")

	pair, err := env.svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, pair.User.ID)
	assert.NotEmpty(t, pair.RefreshToken)

	_, wrongPassword := env.svc.Login(ctx, "alice@example.com", "wrong-password")
	_, unknownEmail := env.svc.Login(ctx, "nobody@example.com", "password123")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogin_SuspendedAccount(t *testing.T) {
	env := newTestEnv(t, 0)
	registered := env.register(t, "alice@example.com")
	env.accounts.byID[registered.User.ID].Status = StatusSuspended

	_, err := env.svc.Login(context.Background(), "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_AuditTrail(t *testing.T) {
	env := newTestEnv(t, 0)
	rec := &recordingAudit{}
	ctx := audit.WithLogger(context.Background(), rec)

	env.svc.Login(ctx, "nobody@example.com", "password123")

	assert.Equal(t, []audit.EventType{audit.EventTypeAuthLoginFailed}, rec.events)
}

func TestAdminLogin_RoleFromClaim(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	env.addAdmin(t, "admin-1", "root@example.com", "admin-password")

	pair, err := env.svc.AdminLogin(ctx, "root@example.com", "admin-password")
	require.NoError(t, err)
	assert.Empty(t, pair.RefreshToken)
	assert.Equal(t, RoleAdmin, pair.User.Role)

	claims, err := env.codec.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)

	principal, err := env.svc.ValidateToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, KindAdmin, principal.Kind)
	assert.Equal(t, RoleAdmin, principal.Role)
	assert.True(t, principal.HasRole(RoleAdmin))

	_, err = env.svc.AdminLogin(ctx, "root@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Admin credentials do not work on the user login.
	_, err = env.svc.Login(ctx, "root@example.com", "admin-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_AdminRoleOverlayIsTokenDriven(t *testing.T) {
	env := newTestEnv(t, 0)
	env.addAdmin(t, "admin-1", "root@example.com", "admin-password")

	token, err := env.codec.Issue(TokenAccess, "admin-1", "root@example.com", RoleFinance)
	require.NoError(t, err)

	principal, err := env.svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, RoleFinance, principal.Role)
}

func TestValidateToken_Failures(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	pair := env.register(t, "alice@example.com")

	orphan, err := env.codec.Issue(TokenAccess, "ghost", "ghost@example.com", "")
	require.NoError(t, err)

	issuedAt := time.Now()
	env.codec.now = func() time.Time { return issuedAt.Add(-time.Hour) }
	stale, err := env.codec.Issue(TokenAccess, pair.User.ID, pair.User.Email, "")
	require.NoError(t, err)
	env.codec.now = time.Now

	tests := map[string]string{
		"garbage":       "garbage",
		"refresh token": pair.RefreshToken,
		"unknown user":  orphan,
		"expired":       stale,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := env.svc.ValidateToken(ctx, token)
			assert.Same(t, ErrInvalidToken, err)
		})
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	pair := env.register(t, "alice@example.com")

	require.NoError(t, env.svc.Logout(ctx, pair.AccessToken))

	_, err := env.svc.ValidateToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A new login yields a different, valid token.
	again, err := env.svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	_, err = env.svc.ValidateToken(ctx, again.AccessToken)
	assert.NoError(t, err)
}

func TestLogout_RejectsGarbage(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	pair := env.register(t, "alice@example.com")

	assert.ErrorIs(t, env.svc.Logout(ctx, "garbage"), ErrInvalidToken)
	assert.ErrorIs(t, env.svc.Logout(ctx, pair.RefreshToken), ErrInvalidToken)

	n, err := env.revoked.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLogout_AcceptsExpiredToken(t *testing.T) {
	env := newTestEnv(t, 0)
	pair := env.register(t, "alice@example.com")

	env.codec.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.NoError(t, env.svc.Logout(context.Background(), pair.AccessToken))
}

func TestLogout_SweepsOnGrowth(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()
	pair := env.register(t, "alice@example.com")

	base := time.Now()
	env.codec.now = func() time.Time { return base.Add(-time.Hour) }
	old1, err := env.codec.Issue(TokenAccess, pair.User.ID, pair.User.Email, "")
	require.NoError(t, err)
	old2, err := env.codec.Issue(TokenAccess, pair.User.ID, pair.User.Email, "")
	require.NoError(t, err)
	env.codec.now = func() time.Time { return base }

	require.NoError(t, env.svc.Logout(ctx, old1))
	require.NoError(t, env.svc.Logout(ctx, old2))

	n, err := env.revoked.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "threshold not exceeded yet")

	require.NoError(t, env.svc.Logout(ctx, pair.AccessToken))

	n, err = env.revoked.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "expired entries swept, live one kept")

	_, err = env.svc.ValidateToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	pair := env.register(t, "alice@example.com")

	access, err := env.svc.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, access)

	principal, err := env.svc.ValidateToken(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, pair.User.ID, principal.ID)

	// The refresh token is not rotated and keeps working.
	_, err = env.svc.RefreshToken(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshToken_Rejections(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	pair := env.register(t, "alice@example.com")
	env.addAdmin(t, "admin-1", "root@example.com", "admin-password")

	_, err := env.svc.RefreshToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = env.svc.RefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	adminRefresh, err := env.codec.Issue(TokenRefresh, "admin-1", "root@example.com", RoleAdmin)
	require.NoError(t, err)
	_, err = env.svc.RefreshToken(ctx, adminRefresh)
	assert.ErrorIs(t, err, ErrNotFound)

	env.codec.now = func() time.Time { return time.Now().Add(DefaultRefreshTTL + time.Minute) }
	_, err = env.svc.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolvePrincipal_StoreErrorsPropagate(t *testing.T) {
	env := newTestEnv(t, 0)

	_, err := env.svc.ResolvePrincipal(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, strings.Contains(err.Error(), "invalid token"))
}
