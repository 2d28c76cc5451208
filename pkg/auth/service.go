package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/audit"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/contextkeys"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ServiceConfig wires the authentication service
type ServiceConfig struct {
	Accounts AccountStore
	Admins   AdminStore
	Codec    *TokenCodec
	Hasher   Hasher

	// Invitations is optional. When set, Register rebinds pending email
	// invitations to the new account.
	Invitations InvitationBinder

	// Revocations defaults to a MemoryRevocationStore
	Revocations    RevocationStore
	SweepThreshold int

	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// Service orchestrates registration, login, token verification, refresh
// and logout for both principal kinds.
type Service struct {
	accounts    AccountStore
	admins      AdminStore
	codec       *TokenCodec
	hasher      Hasher
	invitations InvitationBinder
	revocations RevocationStore
	threshold   int
	logger      *observability.Logger
	metrics     *observability.Metrics
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewService validates cfg and builds the service
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Accounts == nil || cfg.Admins == nil {
		return nil, errors.New("account and admin stores are required")
	}
	if cfg.Codec == nil {
		return nil, errors.New("token codec is required")
	}
	if cfg.Hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if cfg.Revocations == nil {
		cfg.Revocations = NewMemoryRevocationStore()
	}
	if cfg.SweepThreshold <= 0 {
		cfg.SweepThreshold = DefaultSweepThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NewLogger(observability.InfoLevel, io.Discard)
	}

	return &Service{
		accounts:    cfg.Accounts,
		admins:      cfg.Admins,
		codec:       cfg.Codec,
		hasher:      cfg.Hasher,
		invitations: cfg.Invitations,
		revocations: cfg.Revocations,
		threshold:   cfg.SweepThreshold,
		logger:      cfg.Logger.WithField("component", "auth"),
		metrics:     cfg.Metrics,
		now:         time.Now,
	}, nil
}

// AccessTTL is the lifetime of issued access tokens, used for cookie max-age
func (s *Service) AccessTTL() time.Duration {
	return s.codec.AccessTTL()
}

// Register creates an account with the default role and returns a fresh
// token pair. A taken email yields ErrConflict.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*TokenPair, error) {
	ctx, span := observability.Tracer().Start(ctx, "auth.Register")
	defer span.End()
	start := time.Now()

	pair, err := s.register(ctx, req)
	s.finish(span, "register", start, err)
	if err != nil {
		s.auditAuth(ctx, audit.EventTypeAuthRegister, "", req.Email, audit.EventStatusFailure, err.Error())
		return nil, err
	}
	s.auditAuth(ctx, audit.EventTypeAuthRegister, pair.User.ID, pair.User.Email, audit.EventStatusSuccess, "account registered")
	return pair, nil
}

func (s *Service) register(ctx context.Context, req RegisterRequest) (*TokenPair, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	if _, err := s.accounts.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	account := &Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Phone:        strings.TrimSpace(req.Phone),
		Company:      strings.TrimSpace(req.Company),
		Role:         DefaultRole,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.bindInvitations(ctx, account)

	return s.issuePair(account)
}

// bindInvitations failures are logged, never returned: the account already exists.
func (s *Service) bindInvitations(ctx context.Context, account *Account) {
	if s.invitations == nil {
		return
	}
	n, err := s.invitations.BindPendingEmail(ctx, account.Email, account.ID)
	if err != nil {
		s.log(ctx).WithError(err).WithField("user_id", account.ID).Error("failed to bind pending invitations")
		return
	}
	if n > 0 {
		s.log(ctx).WithFields(map[string]interface{}{
			"user_id": account.ID,
			"count":   n,
		}).Info("bound pending invitations to new account")
	}
}

func validateRegistration(req RegisterRequest) error {
	switch {
	case req.Email == "":
		return validationError("email is required")
	case !strings.Contains(req.Email, "@"):
		return validationError("email is invalid")
	case len(req.Password) < MinPasswordLength:
		return validationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case req.Name == "":
		return validationError("name is required")
	}
	return nil
}

// Login verifies credentials and returns a fresh token pair. Unknown
// email, wrong password and inactive accounts all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	ctx, span := observability.Tracer().Start(ctx, "auth.Login")
	defer span.End()
	start := time.Now()

	email = strings.TrimSpace(email)
	pair, err := s.login(ctx, email, password)
	s.finish(span, "login", start, err)
	if err != nil {
		s.auditAuth(ctx, audit.EventTypeAuthLoginFailed, "", email, audit.EventStatusFailure, "login failed")
		return nil, err
	}
	s.auditAuth(ctx, audit.EventTypeAuthLogin, pair.User.ID, pair.User.Email, audit.EventStatusSuccess, "login succeeded")
	return pair, nil
}

func (s *Service) login(ctx context.Context, email, password string) (*TokenPair, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.burnVerify(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		s.log(ctx).WithError(err).WithField("user_id", account.ID).Warn("stored password hash is unreadable")
		return nil, ErrInvalidCredentials
	}
	if !ok || account.Status != StatusActive {
		return nil, ErrInvalidCredentials
	}

	return s.issuePair(account)
}

// AdminLogin verifies administrator credentials. Only an access token is
// issued, stamped with role=admin since the admin record has no role.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*TokenPair, error) {
	ctx, span := observability.Tracer().Start(ctx, "auth.AdminLogin")
	defer span.End()
	start := time.Now()

	email = strings.TrimSpace(email)
	pair, err := s.adminLogin(ctx, email, password)
	s.finish(span, "admin_login", start, err)
	if err != nil {
		s.auditAuth(ctx, audit.EventTypeAuthAdminLoginFailed, "", email, audit.EventStatusFailure, "admin login failed")
		return nil, err
	}
	s.auditAuth(ctx, audit.EventTypeAuthAdminLogin, pair.User.ID, pair.User.Email, audit.EventStatusSuccess, "admin login succeeded")
	return pair, nil
}

func (s *Service) adminLogin(ctx context.Context, email, password string) (*TokenPair, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.burnVerify(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	ok, err := s.hasher.Verify(password, admin.PasswordHash)
	if err != nil || !ok || admin.Status != StatusActive {
		return nil, ErrInvalidCredentials
	}

	access, err := s.codec.Issue(TokenAccess, admin.ID, admin.Email, RoleAdmin)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken: access,
		User: PublicProfile{
			ID:        admin.ID,
			Email:     admin.Email,
			Name:      admin.Name,
			Role:      RoleAdmin,
			CreatedAt: admin.CreatedAt,
		},
	}, nil
}

// ValidateToken resolves an access token to a principal. It checks the
// revocation registry, then the signature and expiry, then the account
// store, then the admin store. Every failure is ErrInvalidToken.
func (s *Service) ValidateToken(ctx context.Context, token string) (*Principal, error) {
	ctx, span := observability.Tracer().Start(ctx, "auth.ValidateToken")
	defer span.End()

	principal, err := s.validate(ctx, token)
	if err != nil {
		s.metrics.ObserveTokenValidation("invalid")
		span.SetStatus(codes.Error, "invalid token")
		s.log(ctx).WithError(err).Debug("token rejected")
		return nil, ErrInvalidToken
	}

	s.metrics.ObserveTokenValidation(string(principal.Kind))
	span.SetAttributes(attribute.String("principal.kind", string(principal.Kind)))
	return principal, nil
}

func (s *Service) validate(ctx context.Context, token string) (*Principal, error) {
	revoked, err := s.revocations.IsRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, errors.New("token revoked")
	}

	claims, err := s.codec.ParseAccess(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenAccess {
		return nil, errors.New("not an access token")
	}
	if s.codec.Expired(claims) {
		return nil, errors.New("token expired")
	}

	return s.ResolvePrincipal(ctx, claims.Subject, claims.Role)
}

// ResolvePrincipal looks subject up in the account store, then the admin
// store. Admins take their role from roleClaim: the token, not the record,
// is the source of admin authority.
func (s *Service) ResolvePrincipal(ctx context.Context, subject string, roleClaim Role) (*Principal, error) {
	account, err := s.accounts.GetByID(ctx, subject)
	if err == nil {
		return account.Principal(), nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	admin, err := s.admins.GetByID(ctx, subject)
	if err != nil {
		return nil, err
	}
	return &Principal{
		ID:    admin.ID,
		Email: admin.Email,
		Name:  admin.Name,
		Role:  roleClaim,
		Kind:  KindAdmin,
	}, nil
}

// RefreshToken mints a new access token from a refresh token. Only user
// sessions refresh, and the refresh token itself is not rotated.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "auth.RefreshToken")
	defer span.End()
	start := time.Now()

	access, userID, err := s.refresh(ctx, refreshToken)
	s.finish(span, "refresh", start, err)
	if err != nil {
		s.auditAuth(ctx, audit.EventTypeAuthTokenRefresh, userID, "", audit.EventStatusFailure, "refresh rejected")
		return "", err
	}
	s.auditAuth(ctx, audit.EventTypeAuthTokenRefresh, userID, "", audit.EventStatusSuccess, "access token refreshed")
	return access, nil
}

func (s *Service) refresh(ctx context.Context, refreshToken string) (string, string, error) {
	claims, err := s.codec.ParseRefresh(refreshToken)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	if claims.Type != TokenRefresh || s.codec.Expired(claims) {
		return "", claims.Subject, ErrInvalidToken
	}

	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", claims.Subject, fmt.Errorf("account no longer exists: %w", ErrNotFound)
		}
		return "", claims.Subject, fmt.Errorf("failed to look up account: %w", err)
	}

	access, err := s.codec.Issue(TokenAccess, account.ID, account.Email, "")
	if err != nil {
		return "", account.ID, err
	}
	return access, account.ID, nil
}

// Logout revokes an access token. The token must carry a valid signature
// but may already be expired. When the registry grows past the threshold,
// expired and undecodable entries are swept before Logout returns.
func (s *Service) Logout(ctx context.Context, token string) error {
	ctx, span := observability.Tracer().Start(ctx, "auth.Logout")
	defer span.End()
	start := time.Now()

	claims, err := s.codec.DecodeAccess(token)
	if err != nil {
		s.finish(span, "logout", start, ErrInvalidToken)
		return ErrInvalidToken
	}

	size, err := s.revocations.Revoke(ctx, token)
	if err != nil {
		s.finish(span, "logout", start, err)
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	if size > s.threshold {
		size = s.sweep(ctx, size)
	}
	s.metrics.SetRevocationSize(size)
	span.SetAttributes(attribute.Int("revocation.size", size))

	s.finish(span, "logout", start, nil)
	s.auditAuth(ctx, audit.EventTypeAuthLogout, claims.Subject, claims.Email, audit.EventStatusSuccess, "token revoked")
	return nil
}

func (s *Service) sweep(ctx context.Context, size int) int {
	removed, err := s.revocations.Sweep(ctx, func(token string) bool {
		claims, err := s.codec.DecodeAccess(token)
		return err == nil && !s.codec.Expired(claims)
	})
	if err != nil {
		s.log(ctx).WithError(err).Error("revocation sweep failed")
		return size
	}

	s.metrics.ObserveSweep(removed)
	remaining, err := s.revocations.Len(ctx)
	if err != nil {
		remaining = size - removed
	}
	s.log(ctx).WithFields(map[string]interface{}{
		"removed":   removed,
		"remaining": remaining,
	}).Info("swept revocation registry")
	return remaining
}

func (s *Service) issuePair(account *Account) (*TokenPair, error) {
	access, err := s.codec.Issue(TokenAccess, account.ID, account.Email, "")
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Issue(TokenRefresh, account.ID, account.Email, "")
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, User: account.Profile()}, nil
}

// burnVerify spends one hash verification so unknown emails cost the
// same as wrong passwords.
func (s *Service) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("boq-timing-equaliser")
	})
	if s.dummyHash != "" {
		s.hasher.Verify(password, s.dummyHash)
	}
}

func (s *Service) finish(span trace.Span, op string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "failure"
		span.SetStatus(codes.Error, op+" failed")
	}
	s.metrics.ObserveAuth(op, result, time.Since(start))
}

func (s *Service) log(ctx context.Context) *observability.Logger {
	if id := contextkeys.GetRequestID(ctx); id != "" {
		return s.logger.WithField("request_id", id)
	}
	return s.logger
}

func (s *Service) auditAuth(ctx context.Context, eventType audit.EventType, userID, email string, status audit.EventStatus, message string) {
	if err := audit.FromContext(ctx).LogAuthentication(ctx, eventType, userID, email, status, message); err != nil {
		s.log(ctx).WithError(err).Warn("failed to write audit event")
	}
}
