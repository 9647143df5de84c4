package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// fakeClient implements client.Client for manager tests. Unset hooks
// succeed.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	validate       func(ctx context.Context, token string) error
	signIn         func(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	signUp         func(ctx context.Context, req models.RegisterRequest) error
	forgotPassword func(ctx context.Context, req models.PasswordResetRequest) error
	verifyEmail    func(ctx context.Context, req models.VerifyEmailRequest) error
	resetPassword  func(ctx context.Context, req models.PasswordReset) error
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) ValidateToken(ctx context.Context, token string) error {
	f.record("validate")
	if f.validate != nil {
		return f.validate(ctx, token)
	}
	return nil
}

func (f *fakeClient) SignIn(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	f.record("signin")
	if f.signIn != nil {
		return f.signIn(ctx, req)
	}
	return &models.AuthResponse{AccessToken: "tok", TokenType: "Bearer", User: models.User{Username: "u"}}, nil
}

func (f *fakeClient) SignUp(ctx context.Context, req models.RegisterRequest) error {
	f.record("signup")
	if f.signUp != nil {
		return f.signUp(ctx, req)
	}
	return nil
}

func (f *fakeClient) ForgotPassword(ctx context.Context, req models.PasswordResetRequest) error {
	f.record("forgot")
	if f.forgotPassword != nil {
		return f.forgotPassword(ctx, req)
	}
	return nil
}

func (f *fakeClient) VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) error {
	f.record("verify")
	if f.verifyEmail != nil {
		return f.verifyEmail(ctx, req)
	}
	return nil
}

func (f *fakeClient) ResetPassword(ctx context.Context, req models.PasswordReset) error {
	f.record("reset")
	if f.resetPassword != nil {
		return f.resetPassword(ctx, req)
	}
	return nil
}
