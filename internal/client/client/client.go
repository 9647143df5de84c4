package client

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// Client is the transport-agnostic contract with the auth backend. Every
// method performs exactly one request and honours ctx cancellation.
type Client interface {
	// ValidateToken asks the backend whether token is still accepted.
	ValidateToken(ctx context.Context, token string) error
	SignIn(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	SignUp(ctx context.Context, req models.RegisterRequest) error
	ForgotPassword(ctx context.Context, req models.PasswordResetRequest) error
	VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) error
	ResetPassword(ctx context.Context, req models.PasswordReset) error
}
