package memory

import (
	"context"
	"sync"
)

// Collaborator is one project membership row
type Collaborator struct {
	ProjectID string
	UserID    string
	AddedBy   string
}

// Membership is the in-memory project_collaborators table
type Membership struct {
	mu      sync.RWMutex
	members map[string]map[string]Collaborator
}

// NewMembership creates an empty membership table
func NewMembership() *Membership {
	return &Membership{members: make(map[string]map[string]Collaborator)}
}

// AddCollaborator records userID on projectID. The first insert wins.
func (m *Membership) AddCollaborator(_ context.Context, projectID, userID, addedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	project, ok := m.members[projectID]
	if !ok {
		project = make(map[string]Collaborator)
		m.members[projectID] = project
	}
	if _, exists := project[userID]; !exists {
		project[userID] = Collaborator{ProjectID: projectID, UserID: userID, AddedBy: addedBy}
	}
	return nil
}

// Collaborator looks up a membership row
func (m *Membership) Collaborator(projectID, userID string) (Collaborator, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.members[projectID][userID]
	return c, ok
}
