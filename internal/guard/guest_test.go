package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/publiccircle/access-gateway/internal/models"
)

func TestGuest_Evaluate(t *testing.T) {
	t.Run("loading shows spinner", func(t *testing.T) {
		nav := new(NavigatorMock)
		g := NewGuest("/app/dashboard", nav)

		got := g.Evaluate(models.AuthState{Loading: true, Authenticated: true})
		assert.Equal(t, models.DecisionLoading, got.Decision)
		nav.AssertNotCalled(t, "Replace", mock.Anything)
	})

	t.Run("anonymous sees the page", func(t *testing.T) {
		nav := new(NavigatorMock)
		g := NewGuest("/app/dashboard", nav)

		got := g.Evaluate(models.Anonymous())
		assert.Equal(t, models.DecisionAllowed, got.Decision)
		nav.AssertNotCalled(t, "Replace", mock.Anything)
	})

	t.Run("authenticated is redirected once", func(t *testing.T) {
		nav := new(NavigatorMock)
		nav.On("Replace", "/app/dashboard").Once()
		g := NewGuest("/app/dashboard", nav)

		first := g.Evaluate(authed())
		second := g.Evaluate(authed())

		assert.Equal(t, models.DecisionRedirecting, first.Decision)
		assert.Equal(t, "/app/dashboard", first.RedirectTo)
		assert.Equal(t, models.DecisionRedirecting, second.Decision)
		nav.AssertNumberOfCalls(t, "Replace", 1)
	})

	t.Run("sign out then sign in redirects again", func(t *testing.T) {
		nav := new(NavigatorMock)
		nav.On("Replace", "/app/dashboard").Twice()
		g := NewGuest("/app/dashboard", nav)

		g.Evaluate(authed())
		g.Evaluate(models.Anonymous())
		g.Evaluate(authed())

		nav.AssertNumberOfCalls(t, "Replace", 2)
	})
}
