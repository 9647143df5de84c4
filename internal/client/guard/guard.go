// Package guard decides whether a protected page may be shown.
package guard

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

// Outcome is what the front end should do with a protected page.
type Outcome int

const (
	// Loading: the session is still being checked. Show a neutral
	// indicator and navigate nowhere.
	Loading Outcome = iota
	// Redirect to the login page, replacing the current entry.
	Redirect
	// Render the protected content unchanged.
	Render
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	}
	return "invalid"
}

// Decision is the guard's answer. Navigation is set only for Redirect.
type Decision struct {
	Outcome    Outcome
	Navigation services.Navigation
}

// StateSource is the part of the session manager the guard reads.
type StateSource interface {
	State() services.State
	Ready() <-chan struct{}
}

// Decide maps a manager state to a decision.
func Decide(state services.State) Decision {
	switch state {
	case services.StateAuthenticated:
		return Decision{Outcome: Render}
	case services.StateAnonymous:
		return Decision{
			Outcome:    Redirect,
			Navigation: services.Navigation{Path: services.RouteLogin, Replace: true},
		}
	default:
		return Decision{Outcome: Loading}
	}
}

// Check decides from the source's current state without waiting.
func Check(src StateSource) Decision {
	return Decide(src.State())
}

// Await blocks until the source has finished its startup check, then
// decides. If ctx ends first it returns Loading and ctx's error.
func Await(ctx context.Context, src StateSource) (Decision, error) {
	select {
	case <-src.Ready():
		return Decide(src.State()), nil
	case <-ctx.Done():
		return Decision{Outcome: Loading}, ctx.Err()
	}
}
