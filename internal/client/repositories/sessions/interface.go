// Package sessions persists the client's session record. There are two
// storage scopes: durable (survives restarts, chosen by "remember me") and
// session-scoped (lives as long as the current process or browser session).
// Each scope holds at most one record.
package sessions

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// Scope names a storage scope.
type Scope string

const (
	ScopeDurable Scope = "durable"
	ScopeSession Scope = "session"
)

var (
	// ErrNoSession is returned by Load when the scope holds no record.
	ErrNoSession = errors.New("no stored session")

	// ErrCorrupt is returned by Load when a record exists but cannot be
	// decoded. Callers should Clear the scope.
	ErrCorrupt = errors.New("stored session is corrupt")
)

// Store is one storage scope.
type Store interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}

// Pair bundles the two scopes handed to a session manager.
type Pair struct {
	Durable Store
	Session Store
}

// For returns the scope selected by the remember flag.
func (p Pair) For(remember bool) Store {
	if remember {
		return p.Durable
	}
	return p.Session
}

// Other returns the scope not selected by the remember flag.
func (p Pair) Other(remember bool) Store {
	return p.For(!remember)
}

// ClearAll clears both scopes. Both are attempted even when the first fails;
// the errors are joined.
func (p Pair) ClearAll(ctx context.Context) error {
	return errors.Join(p.Durable.Clear(ctx), p.Session.Clear(ctx))
}
