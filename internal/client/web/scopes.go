package web

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/sessions"
)

const (
	// DurableCookie names the persistent cookie of the durable scope.
	DurableCookie = "gophauth_sid"
	// SessionCookie names the browser-session cookie of the session scope.
	SessionCookie = "gophauth_tsid"

	durablePrefix = "durable:"
	sessionPrefix = "session:"

	// sessionScopeTTL bounds how long an abandoned session-scope record
	// lingers in the KV backend. The cookie itself dies with the browser.
	sessionScopeTTL = 24 * time.Hour
)

// cookieStore is one storage scope bound to a browser: the cookie holds a
// random id, the record lives in the KV backend under prefix+id.
type cookieStore struct {
	c      fiber.Ctx
	kv     sessions.KV
	cookie string
	prefix string
	ttl    time.Duration
	// persistent cookies get Max-Age = ttl; others are browser-session cookies
	persistent bool
	secure     bool
}

func (s *cookieStore) store(id string) *sessions.KVStore {
	return sessions.NewKVStore(s.kv, s.prefix+id, s.ttl)
}

func (s *cookieStore) id() (string, bool) {
	id := s.c.Cookies(s.cookie)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func (s *cookieStore) Load(ctx context.Context) (*models.Session, error) {
	id, ok := s.id()
	if !ok {
		return nil, sessions.ErrNoSession
	}
	return s.store(id).Load(ctx)
}

func (s *cookieStore) Save(ctx context.Context, rec *models.Session) error {
	// every sign-in gets a fresh id; an id the browser already carried may
	// have been planted, so it never names the new session
	if old, ok := s.id(); ok {
		if err := s.store(old).Clear(ctx); err != nil && !errors.Is(err, sessions.ErrKeyNotFound) {
			return err
		}
	}
	id := uuid.NewString()
	if err := s.store(id).Save(ctx, rec); err != nil {
		return err
	}
	cookie := &fiber.Cookie{
		Name:     s.cookie,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if s.persistent {
		cookie.MaxAge = int(s.ttl.Seconds())
	} else {
		cookie.SessionOnly = true
	}
	s.c.Cookie(cookie)
	return nil
}

func (s *cookieStore) Clear(ctx context.Context) error {
	id, ok := s.id()
	if !ok {
		return nil
	}
	err := s.store(id).Clear(ctx)
	s.c.Cookie(&fiber.Cookie{
		Name:     s.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	if err != nil && !errors.Is(err, sessions.ErrKeyNotFound) {
		return err
	}
	return nil
}

// bindStores returns the two scopes for the browser behind c.
func (s *Server) bindStores(c fiber.Ctx) sessions.Pair {
	return sessions.Pair{
		Durable: &cookieStore{
			c: c, kv: s.kv, cookie: DurableCookie, prefix: durablePrefix,
			ttl: s.opts.RememberTTL, persistent: true, secure: s.opts.CookieSecure,
		},
		Session: &cookieStore{
			c: c, kv: s.kv, cookie: SessionCookie, prefix: sessionPrefix,
			ttl: sessionScopeTTL, secure: s.opts.CookieSecure,
		},
	}
}
