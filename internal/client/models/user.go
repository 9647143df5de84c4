// Package models defines the data exchanged with the auth backend and the
// session record kept by the client.
package models

// User is the identity returned by the backend on sign-in.
type User struct {
	// ID is the backend's numeric user id; zero when the backend omits it.
	ID int64 `json:"id,omitempty"`

	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles,omitempty"`

	// EmailVerified reports whether the address has been confirmed.
	EmailVerified bool `json:"emailVerified,omitempty"`

	// OAuthProvider and OAuthProviderID link the account to an external
	// identity provider, when any.
	OAuthProvider   string `json:"oauthProvider,omitempty"`
	OAuthProviderID string `json:"oauthProviderId,omitempty"`

	HasTwoFactorEnabled bool `json:"hasTwoFactorEnabled,omitempty"`
}

// DisplayName returns the username, or the email when no username is set.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
