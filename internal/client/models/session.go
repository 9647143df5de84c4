package models

import "time"

// Session is the client-held record of an authenticated identity plus its
// bearer token. It is the only thing persisted by the client.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`

	// TokenType is the scheme reported by the backend, normally "Bearer".
	TokenType string `json:"tokenType,omitempty"`

	// Remember selects the durable storage scope when true and the
	// session-scoped one otherwise.
	Remember bool `json:"rememberMe"`

	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy of s, so callers cannot mutate manager state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.User.Roles != nil {
		c.User.Roles = append([]string(nil), s.User.Roles...)
	}
	return &c
}
