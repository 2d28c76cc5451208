package invitations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/audit"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/contextkeys"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AccountFinder resolves invitees to registered accounts
type AccountFinder interface {
	GetByID(ctx context.Context, id string) (*auth.Account, error)
	GetByEmail(ctx context.Context, email string) (*auth.Account, error)
}

// ServiceConfig wires the invitation service
type ServiceConfig struct {
	Store    Store
	Accounts AccountFinder
	Hasher   auth.Hasher

	// TTL defaults to DefaultTTL
	TTL time.Duration

	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// Service runs the collaboration invitation protocol
type Service struct {
	store    Store
	accounts AccountFinder
	hasher   auth.Hasher
	ttl      time.Duration
	logger   *observability.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

var _ auth.InvitationBinder = (*Service)(nil)

// NewService validates cfg and builds the service
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("invitation store is required")
	}
	if cfg.Accounts == nil {
		return nil, errors.New("account finder is required")
	}
	if cfg.Hasher == nil {
		return nil, errors.New("hasher is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NewLogger(observability.InfoLevel, io.Discard)
	}

	return &Service{
		store:    cfg.Store,
		accounts: cfg.Accounts,
		hasher:   cfg.Hasher,
		ttl:      cfg.TTL,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      time.Now,
	}, nil
}

// Invite creates a pending request from inviter. A registered invitee is
// bound by id; otherwise the request is email-bound until the invitee
// registers. The raw token is returned once and only its hash is stored.
func (s *Service) Invite(ctx context.Context, inviter *auth.Principal, req InviteRequest) (*Invitation, error) {
	ctx, span := observability.Tracer().Start(ctx, "invitations.Invite",
		trace.WithAttributes(attribute.String("project_id", req.ProjectID)))
	defer span.End()

	inv, err := s.invite(ctx, inviter, req)
	s.finish(ctx, span, "create", inviter, resourceID(inv), audit.EventTypeInvitationCreate, err)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) invite(ctx context.Context, inviter *auth.Principal, req InviteRequest) (*Invitation, error) {
	if inviter == nil {
		return nil, auth.ErrUnauthorized
	}
	req.ProjectID = strings.TrimSpace(req.ProjectID)
	req.UserID = strings.TrimSpace(req.UserID)
	req.Email = strings.TrimSpace(req.Email)
	if req.ProjectID == "" {
		return nil, ErrProjectRequired
	}

	var userID, email *string
	switch {
	case req.UserID != "":
		account, err := s.accounts.GetByID(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				return nil, fmt.Errorf("invitee does not exist: %w", auth.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to look up invitee: %w", err)
		}
		userID = &account.ID
	case req.Email != "":
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return nil, fmt.Errorf("invalid invitee email: %w", auth.ErrValidation)
		}
		account, err := s.accounts.GetByEmail(ctx, req.Email)
		switch {
		case err == nil:
			userID = &account.ID
		case errors.Is(err, auth.ErrNotFound):
			email = &req.Email
		default:
			return nil, fmt.Errorf("failed to look up invitee: %w", err)
		}
	default:
		return nil, ErrInviteeRequired
	}
	if userID != nil && *userID == inviter.ID {
		return nil, ErrSelfInvite
	}

	raw, err := auth.NewInviteToken()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to hash invitation token: %w", err)
	}

	now := s.now().UTC()
	expires := now.Add(s.ttl)
	cr := &CollaborationRequest{
		ID:          uuid.NewString(),
		ProjectID:   req.ProjectID,
		UserID:      userID,
		InviteEmail: email,
		InvitedBy:   inviter.ID,
		Status:      StatusPending,
		TokenHash:   hash,
		ExpiresAt:   &expires,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, cr); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	return &Invitation{Request: cr, Token: raw}, nil
}

// Accept consumes a pending request on behalf of caller. Guards run in a
// fixed order: existence, addressee, pending, expiry, then the optional
// raw token. On success the caller is added to the project as a
// collaborator attributed to the inviter, atomically with the transition.
func (s *Service) Accept(ctx context.Context, id string, caller *auth.Principal, rawToken string) error {
	ctx, span := observability.Tracer().Start(ctx, "invitations.Accept",
		trace.WithAttributes(attribute.String("invitation_id", id)))
	defer span.End()

	err := s.accept(ctx, id, caller, rawToken)
	s.finish(ctx, span, "accept", caller, id, audit.EventTypeInvitationAccept, err)
	return err
}

func (s *Service) accept(ctx context.Context, id string, caller *auth.Principal, rawToken string) error {
	if caller == nil {
		return auth.ErrUnauthorized
	}

	req, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !req.AddressedTo(caller) {
		return ErrNotInvitee
	}
	if req.Status != StatusPending {
		return ErrNotPending
	}
	if req.Expired(s.now()) {
		return ErrInvitationExpired
	}
	if rawToken != "" && req.TokenHash != "" {
		ok, err := s.hasher.Verify(rawToken, req.TokenHash)
		if err != nil || !ok {
			return ErrTokenMismatch
		}
	}

	// The checks above read a snapshot; MarkAccepted re-checks pending and
	// writes the membership under the same lock.
	return s.store.MarkAccepted(ctx, req.ID, caller.ID, s.now().UTC())
}

// Reject declines a pending request. Unlike Accept, only an exact user id
// binding authorizes the caller; an email-only request must be rebound
// first.
func (s *Service) Reject(ctx context.Context, id string, caller *auth.Principal) error {
	ctx, span := observability.Tracer().Start(ctx, "invitations.Reject",
		trace.WithAttributes(attribute.String("invitation_id", id)))
	defer span.End()

	err := s.reject(ctx, id, caller)
	s.finish(ctx, span, "reject", caller, id, audit.EventTypeInvitationReject, err)
	return err
}

func (s *Service) reject(ctx context.Context, id string, caller *auth.Principal) error {
	if caller == nil {
		return auth.ErrUnauthorized
	}

	req, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !req.BoundTo(caller.ID) {
		return ErrNotInvitee
	}
	if req.Status != StatusPending {
		return ErrNotPending
	}
	return s.store.MarkRejected(ctx, req.ID, s.now().UTC())
}

// BindPendingEmail rebinds pending, unexpired email invitations to a newly
// registered account.
func (s *Service) BindPendingEmail(ctx context.Context, email, userID string) (int, error) {
	ctx, span := observability.Tracer().Start(ctx, "invitations.BindPendingEmail")
	defer span.End()

	n, err := s.store.BindEmail(ctx, strings.TrimSpace(email), userID, s.now().UTC())
	if err != nil {
		span.SetStatus(codes.Error, "bind failed")
		s.metrics.ObserveInvitation("rebind", "failure")
		return 0, fmt.Errorf("failed to bind invitations: %w", err)
	}
	span.SetAttributes(attribute.Int("bound", n))
	s.metrics.ObserveInvitation("rebind", "success")
	if n > 0 {
		s.audit(ctx, audit.EventTypeInvitationRebind, userID, "", audit.EventStatusSuccess,
			fmt.Sprintf("bound %d pending invitations", n))
	}
	return n, nil
}

// ListForUser returns the pending invitations visible to p
func (s *Service) ListForUser(ctx context.Context, p *auth.Principal) ([]*CollaborationRequest, error) {
	if p == nil {
		return nil, auth.ErrUnauthorized
	}
	reqs, err := s.store.ListForUser(ctx, p.ID, p.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return reqs, nil
}

func (s *Service) finish(ctx context.Context, span trace.Span, transition string, actor *auth.Principal, id string, eventType audit.EventType, err error) {
	var userID string
	if actor != nil {
		userID = actor.ID
	}

	if err == nil {
		s.metrics.ObserveInvitation(transition, "success")
		s.audit(ctx, eventType, userID, id, audit.EventStatusSuccess, "invitation "+transition+" succeeded")
		return
	}

	span.SetStatus(codes.Error, transition+" failed")
	result, status := "failure", audit.EventStatusFailure
	if errors.Is(err, auth.ErrForbidden) {
		result, status = "denied", audit.EventStatusDenied
	} else if errors.Is(err, auth.ErrExpired) {
		result = "expired"
	}
	s.metrics.ObserveInvitation(transition, result)
	s.audit(ctx, eventType, userID, id, status, err.Error())

	if !isClientError(err) {
		s.log(ctx).WithError(err).WithField("invitation_id", id).Error("invitation " + transition + " failed")
	}
}

func (s *Service) audit(ctx context.Context, eventType audit.EventType, userID, id string, status audit.EventStatus, message string) {
	err := audit.FromContext(ctx).LogAuthorization(ctx, eventType, userID, audit.ResourceTypeCollaborationRequest, id, status, message)
	if err != nil {
		s.log(ctx).WithError(err).Warn("failed to write audit event")
	}
}

func (s *Service) log(ctx context.Context) *observability.Logger {
	if id := contextkeys.GetRequestID(ctx); id != "" {
		return s.logger.WithField("request_id", id)
	}
	return s.logger
}

func isClientError(err error) bool {
	for _, target := range []error{auth.ErrUnauthorized, auth.ErrForbidden, auth.ErrConflict, auth.ErrExpired, auth.ErrNotFound, auth.ErrValidation} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func resourceID(inv *Invitation) string {
	if inv == nil || inv.Request == nil {
		return ""
	}
	return inv.Request.ID
}
