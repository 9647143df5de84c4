package models

// LoginRequest is the sign-in form. RememberMe chooses the storage scope;
// TOTPCode is only sent when the backend asked for a second factor.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe,omitempty"`
	TOTPCode   string `json:"totpCode,omitempty"`
}

// RegisterRequest is the sign-up form. ConfirmPassword and ChallengeToken
// are checked locally and never sent to the backend.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	ChallengeToken  string `json:"-"`
}

// PasswordResetRequest asks the backend to mail a reset link.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordReset sets a new password using the token from a reset link.
type PasswordReset struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"-"`
}

// VerifyEmailRequest confirms an address using the token from a
// verification link.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// AuthResponse is the sign-in success payload.
type AuthResponse struct {
	AccessToken       string `json:"accessToken"`
	TokenType         string `json:"tokenType"`
	User              User   `json:"user"`
	RequiresTwoFactor bool   `json:"requiresTwoFactor,omitempty"`
}

// APIError is the error payload the backend sends with non-2xx responses.
type APIError struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}
