package middleware

import (
	"net/http"
	"sync"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/gorilla/mux"
)

// policy is the access metadata declared for a group or a single handler
type policy struct {
	public    bool
	publicSet bool
	roles     []auth.Role
}

// Option declares access metadata on a group or handler
type Option func(*policy)

// Public exempts the group or handler from the auth gate
func Public() Option {
	return func(p *policy) {
		p.public = true
		p.publicSet = true
	}
}

// Protected reverses a group level Public() for one handler
func Protected() Option {
	return func(p *policy) {
		p.public = false
		p.publicSet = true
	}
}

// Roles restricts the group or handler to principals holding one of roles
func Roles(roles ...auth.Role) Option {
	return func(p *policy) {
		p.roles = append([]auth.Role(nil), roles...)
	}
}

func newPolicy(opts []Option) *policy {
	p := &policy{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type routeEntry struct {
	group   *policy
	handler *policy
}

// RouteTable records the access policy of every route registered through
// a Group. gorilla/mux carries no route metadata, so the gates look the
// matched *mux.Route up here.
type RouteTable struct {
	mu     sync.RWMutex
	routes map[*mux.Route]routeEntry
}

// NewRouteTable creates an empty table
func NewRouteTable() *RouteTable {
	return &RouteTable{routes: make(map[*mux.Route]routeEntry)}
}

// Group is a path prefix sharing one policy
type Group struct {
	table  *RouteTable
	router *mux.Router
	policy *policy
}

// Group mounts a subrouter at prefix under parent
func (t *RouteTable) Group(parent *mux.Router, prefix string, opts ...Option) *Group {
	return &Group{
		table:  t,
		router: parent.PathPrefix(prefix).Subrouter(),
		policy: newPolicy(opts),
	}
}

// Router exposes the group's subrouter
func (g *Group) Router() *mux.Router {
	return g.router
}

// Handle registers h for method and path within the group
func (g *Group) Handle(method, path string, h http.Handler, opts ...Option) *mux.Route {
	route := g.router.Handle(path, h).Methods(method)

	g.table.mu.Lock()
	g.table.routes[route] = routeEntry{group: g.policy, handler: newPolicy(opts)}
	g.table.mu.Unlock()

	return route
}

// HandleFunc registers f for method and path within the group
func (g *Group) HandleFunc(method, path string, f http.HandlerFunc, opts ...Option) *mux.Route {
	return g.Handle(method, path, f, opts...)
}

// IsPublic reports whether route is exempt from authentication. A handler
// level declaration wins over its group. Unknown routes are protected.
func (t *RouteTable) IsPublic(route *mux.Route) bool {
	entry, ok := t.lookup(route)
	if !ok {
		return false
	}
	if entry.handler.publicSet {
		return entry.handler.public
	}
	return entry.group.public
}

// RequiredRoles returns the handler's roles, else the group's, else nil
func (t *RouteTable) RequiredRoles(route *mux.Route) []auth.Role {
	entry, ok := t.lookup(route)
	if !ok {
		return nil
	}
	if len(entry.handler.roles) > 0 {
		return entry.handler.roles
	}
	return entry.group.roles
}

func (t *RouteTable) lookup(route *mux.Route) (routeEntry, bool) {
	if t == nil || route == nil {
		return routeEntry{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.routes[route]
	return entry, ok
}
