package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/invitations"
)

// InvitationStore is an in-memory invitations.Store. Accepting a request
// records the collaborator in members while the store lock is held.
type InvitationStore struct {
	mu      sync.Mutex
	reqs    map[string]*invitations.CollaborationRequest
	members *Membership
}

// NewInvitationStore creates an empty invitation store writing accepted
// collaborators to members
func NewInvitationStore(members *Membership) *InvitationStore {
	return &InvitationStore{
		reqs:    make(map[string]*invitations.CollaborationRequest),
		members: members,
	}
}

func (s *InvitationStore) Create(_ context.Context, req *invitations.CollaborationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reqs[req.ID] = cloneRequest(req)
	return nil
}

func (s *InvitationStore) Get(_ context.Context, id string) (*invitations.CollaborationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.reqs[id]
	if !ok {
		return nil, invitations.ErrInvitationNotFound
	}
	return cloneRequest(req), nil
}

func (s *InvitationStore) BindEmail(_ context.Context, email, userID string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, req := range s.reqs {
		if req.UserID != nil || req.InviteEmail == nil || !strings.EqualFold(*req.InviteEmail, email) {
			continue
		}
		if req.Status != invitations.StatusPending || req.Expired(now) {
			continue
		}
		id := userID
		req.UserID = &id
		req.InviteEmail = nil
		req.UpdatedAt = now
		n++
	}
	return n, nil
}

func (s *InvitationStore) MarkAccepted(ctx context.Context, id, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.pending(id)
	if err != nil {
		return err
	}
	if err := s.members.AddCollaborator(ctx, req.ProjectID, userID, req.InvitedBy); err != nil {
		return err
	}
	uid := userID
	req.UserID = &uid
	req.InviteEmail = nil
	req.Status = invitations.StatusAccepted
	req.UpdatedAt = now
	return nil
}

func (s *InvitationStore) MarkRejected(_ context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.pending(id)
	if err != nil {
		return err
	}
	req.Status = invitations.StatusRejected
	req.UpdatedAt = now
	return nil
}

func (s *InvitationStore) ListForUser(_ context.Context, userID, email string) ([]*invitations.CollaborationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*invitations.CollaborationRequest
	for _, req := range s.reqs {
		if req.Status != invitations.StatusPending {
			continue
		}
		bound := req.UserID != nil && *req.UserID == userID
		byEmail := req.UserID == nil && req.InviteEmail != nil && strings.EqualFold(*req.InviteEmail, email)
		if bound || byEmail {
			out = append(out, cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// caller holds s.mu
func (s *InvitationStore) pending(id string) (*invitations.CollaborationRequest, error) {
	req, ok := s.reqs[id]
	if !ok {
		return nil, invitations.ErrInvitationNotFound
	}
	if req.Status != invitations.StatusPending {
		return nil, invitations.ErrNotPending
	}
	return req, nil
}

func cloneRequest(req *invitations.CollaborationRequest) *invitations.CollaborationRequest {
	cp := *req
	if req.UserID != nil {
		v := *req.UserID
		cp.UserID = &v
	}
	if req.InviteEmail != nil {
		v := *req.InviteEmail
		cp.InviteEmail = &v
	}
	if req.ExpiresAt != nil {
		v := *req.ExpiresAt
		cp.ExpiresAt = &v
	}
	return &cp
}
