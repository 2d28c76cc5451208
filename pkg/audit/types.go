package audit

import (
	"encoding/json"
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Authentication events
	EventTypeAuthRegister          EventType = "auth.register"
	EventTypeAuthLogin             EventType = "auth.login"
	EventTypeAuthLoginFailed       EventType = "auth.login_failed"
	EventTypeAuthAdminLogin        EventType = "auth.admin_login"
	EventTypeAuthAdminLoginFailed  EventType = "auth.admin_login_failed"
	EventTypeAuthLogout            EventType = "auth.logout"
	EventTypeAuthTokenRefresh      EventType = "auth.token_refresh"
	EventTypeAuthTokenValidateFail EventType = "auth.token_validate_fail"
	EventTypeAuthRateLimited       EventType = "auth.rate_limited"

	// Authorization events
	EventTypeAuthzAccessDenied EventType = "authz.access_denied"

	// Invitation events
	EventTypeInvitationCreate EventType = "invitation.create"
	EventTypeInvitationAccept EventType = "invitation.accept"
	EventTypeInvitationReject EventType = "invitation.reject"
	EventTypeInvitationRebind EventType = "invitation.rebind"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// ResourceType represents the type of resource being accessed
type ResourceType string

const (
	ResourceTypeAccount              ResourceType = "account"
	ResourceTypeToken                ResourceType = "token"
	ResourceTypeRoute                ResourceType = "route"
	ResourceTypeCollaborationRequest ResourceType = "collaboration_request"
	ResourceTypeProject              ResourceType = "project"
)

// AuditEvent represents a single audit log entry
type AuditEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`

	ResourceType ResourceType `json:"resource_type,omitempty"`
	ResourceID   string       `json:"resource_id,omitempty"`

	// Request context
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`

	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToJSON converts the audit event to JSON
func (e *AuditEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an audit event from JSON
func FromJSON(data []byte) (*AuditEvent, error) {
	var event AuditEvent
	err := json.Unmarshal(data, &event)
	return &event, err
}
