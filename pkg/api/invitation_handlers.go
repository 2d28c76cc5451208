package api

import (
	"net/http"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/httputil"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/invitations"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/middleware"
	"github.com/gorilla/mux"
)

// InvitationHandlers serves the collaboration request endpoints
type InvitationHandlers struct {
	service *invitations.Service
}

// NewInvitationHandlers creates the handlers
func NewInvitationHandlers(service *invitations.Service) *InvitationHandlers {
	return &InvitationHandlers{service: service}
}

// RegisterRoutes mounts the handlers. Every route requires authentication.
func (h *InvitationHandlers) RegisterRoutes(routes *middleware.RouteTable, router *mux.Router) {
	projects := routes.Group(router, "/projects")
	projects.HandleFunc(http.MethodPost, "/{projectID}/invitations", h.create,
		middleware.Roles(auth.RoleConsultant, auth.RoleContractor, auth.RoleAdmin))

	invites := routes.Group(router, "/invitations")
	invites.HandleFunc(http.MethodGet, "", h.list)
	invites.HandleFunc(http.MethodPost, "/{id}/accept", h.accept)
	invites.HandleFunc(http.MethodPost, "/{id}/reject", h.reject)
}

// AcceptRequest optionally carries the one-time token from the invite link
type AcceptRequest struct {
	Token string `json:"token,omitempty"`
}

// create handles POST /projects/{projectID}/invitations
func (h *InvitationHandlers) create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathStringOrError(w, r, "projectID")
	if !ok {
		return
	}

	var req invitations.InviteRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.ProjectID = projectID

	inv, err := h.service.Invite(r.Context(), middleware.GetPrincipal(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteCreated(w, inv)
}

// list handles GET /invitations
func (h *InvitationHandlers) list(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.ListForUser(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if reqs == nil {
		reqs = []*invitations.CollaborationRequest{}
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"invitations": reqs,
		"count":       len(reqs),
	})
}

// accept handles POST /invitations/{id}/accept. The body is optional.
func (h *InvitationHandlers) accept(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	var req AcceptRequest
	if r.ContentLength > 0 && !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := h.service.Accept(r.Context(), id, middleware.GetPrincipal(r.Context()), req.Token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"id": id, "status": string(invitations.StatusAccepted)})
}

// reject handles POST /invitations/{id}/reject
func (h *InvitationHandlers) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Reject(r.Context(), id, middleware.GetPrincipal(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"id": id, "status": string(invitations.StatusRejected)})
}
