package guard

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// unauthorized rejects every token.
type unauthorized struct{}

func (unauthorized) ValidateToken(context.Context, string) error {
	return &client.StatusError{Op: "validate-token", Status: 401}
}

func (unauthorized) SignIn(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
	return nil, client.ErrUnauthorized
}

func (unauthorized) SignUp(context.Context, models.RegisterRequest) error { return nil }

func (unauthorized) ForgotPassword(context.Context, models.PasswordResetRequest) error {
	return nil
}

func (unauthorized) VerifyEmail(context.Context, models.VerifyEmailRequest) error { return nil }

func (unauthorized) ResetPassword(context.Context, models.PasswordReset) error { return nil }
