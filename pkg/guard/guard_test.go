package guard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/userdeck/userdeck/pkg/session"
)

func newTestGuard() (*Guard, *session.MemoryStore) {
	store := session.NewMemoryStore()
	g := New(store, "/login", "/dashboard")
	g.Protect("/dashboard", "/users")
	return g, store
}

func TestResolve(t *testing.T) {
	t.Run("ProtectedRouteWhileUnauthenticated", func(t *testing.T) {
		g, _ := newTestGuard()

		decision := g.Resolve("/users")
		assert.Equal(t, Redirect, decision.Action)
		assert.Equal(t, "/login", decision.Target)
	})

	t.Run("ProtectedRouteWhileAuthenticated", func(t *testing.T) {
		g, store := newTestGuard()
		store.SetCredential("tok")

		decision := g.Resolve("/users")
		assert.Equal(t, Proceed, decision.Action)
	})

	t.Run("LoginRouteWhileAuthenticated", func(t *testing.T) {
		g, store := newTestGuard()
		store.SetCredential("tok")

		decision := g.Resolve("/login")
		assert.Equal(t, Redirect, decision.Action)
		assert.Equal(t, "/dashboard", decision.Target)
	})

	t.Run("LoginRouteWhileUnauthenticated", func(t *testing.T) {
		g, _ := newTestGuard()

		decision := g.Resolve("/login")
		assert.Equal(t, Proceed, decision.Action)
	})

	t.Run("PublicRouteProceedsEitherWay", func(t *testing.T) {
		g, store := newTestGuard()

		assert.Equal(t, Proceed, g.Resolve("/about").Action)

		store.SetCredential("tok")
		assert.Equal(t, Proceed, g.Resolve("/about").Action)
	})

	t.Run("ProtectedLoginRouteIsIgnored", func(t *testing.T) {
		g, _ := newTestGuard()
		g.Protect("/login")

		// The login route never requires a session, even if registered
		decision := g.Resolve("/login")
		assert.Equal(t, Proceed, decision.Action)
	})
}

func TestStateIsDerivedFresh(t *testing.T) {
	g, store := newTestGuard()

	assert.Equal(t, Unauthenticated, g.State())
	assert.Equal(t, "unauthenticated", g.State().String())

	// A credential set after construction flips the very next evaluation
	store.SetCredential("tok")
	assert.Equal(t, Authenticated, g.State())
	assert.Equal(t, Proceed, g.Resolve("/users").Action)

	// A clear (e.g. a 401 handled by the client) flips it back
	store.ClearCredential()
	assert.Equal(t, Unauthenticated, g.State())
	assert.Equal(t, Redirect, g.Resolve("/users").Action)
}

func TestRepeatedEvaluation(t *testing.T) {
	g, store := newTestGuard()
	store.SetCredential("tok")

	// No terminal state: the same navigation resolves consistently on every
	// attempt
	for i := 0; i < 3; i++ {
		assert.Equal(t, Proceed, g.Resolve("/users").Action)
		assert.Equal(t, Redirect, g.Resolve("/login").Action)
	}
}

func TestConcurrentProtectAndResolve(t *testing.T) {
	g, _ := newTestGuard()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				g.Protect("/settings")
				_ = g.Resolve("/settings")
				_ = g.Resolve("/users")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, Redirect, g.Resolve("/settings").Action)
}
