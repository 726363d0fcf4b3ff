// Package guard decides whether a navigation may proceed based on session
// presence. It is the route-boundary companion of the API client: protected
// routes bounce unauthenticated visitors to login, and the login route
// bounces authenticated visitors to the default landing route.
package guard

import (
	"sync"

	"github.com/userdeck/userdeck/pkg/session"
)

// State is the authentication state derived from the session store
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

// String returns the state name
func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Action is the outcome kind of a navigation decision
type Action int

const (
	// Proceed lets the navigation continue unchanged
	Proceed Action = iota

	// Redirect cancels the navigation in favor of Target
	Redirect
)

// Decision is the outcome of resolving one navigation attempt
type Decision struct {
	Action Action
	Target string
}

// Guard evaluates navigation attempts against the session store. The state
// is derived from the store on every call, never cached, so a credential
// cleared elsewhere (a 401, a logout) takes effect on the next navigation.
type Guard struct {
	store      session.Store
	loginRoute string
	homeRoute  string

	mu        sync.RWMutex
	protected map[string]bool
}

// New creates a guard around the given store. loginRoute is the
// authentication boundary, homeRoute the default authenticated landing.
func New(store session.Store, loginRoute, homeRoute string) *Guard {
	return &Guard{
		store:      store,
		loginRoute: loginRoute,
		homeRoute:  homeRoute,
		protected:  make(map[string]bool),
	}
}

// Protect marks routes as requiring a session
func (g *Guard) Protect(routes ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range routes {
		g.protected[r] = true
	}
}

// State derives the current authentication state from the store
func (g *Guard) State() State {
	if g.store.HasCredential() {
		return Authenticated
	}
	return Unauthenticated
}

// Resolve decides one navigation attempt. The login route is never treated
// as protected, whatever was registered.
func (g *Guard) Resolve(route string) Decision {
	authenticated := g.store.HasCredential()

	if route == g.loginRoute {
		if authenticated {
			return Decision{Action: Redirect, Target: g.homeRoute}
		}
		return Decision{Action: Proceed}
	}

	g.mu.RLock()
	requiresSession := g.protected[route]
	g.mu.RUnlock()

	if requiresSession && !authenticated {
		return Decision{Action: Redirect, Target: g.loginRoute}
	}
	return Decision{Action: Proceed}
}
