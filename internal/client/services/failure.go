package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
)

// Op names a session manager verb.
type Op string

const (
	OpInitialize     Op = "initialize"
	OpLogin          Op = "login"
	OpRegister       Op = "register"
	OpLogout         Op = "logout"
	OpForgotPassword Op = "forgot_password"
	OpVerifyEmail    Op = "verify_email"
	OpResetPassword  Op = "reset_password"
)

// Kind classifies a failed verb.
type Kind string

const (
	// KindOK is only used as a metrics label for successful verbs.
	KindOK Kind = "ok"

	NetworkFailure       Kind = "network_failure"
	RejectedByServer     Kind = "rejected_by_server"
	InvalidLocalToken    Kind = "invalid_local_token"
	Busy                 Kind = "busy"
	Canceled             Kind = "canceled"
	SecondFactorRequired Kind = "second_factor_required"
)

// Default messages shown when the backend gives none.
const (
	MsgLoginFailed          = "Failed to login"
	MsgRegisterFailed       = "Registration failed"
	MsgForgotPasswordFailed = "Password reset request failed"
	MsgVerifyEmailFailed    = "Email verification failed"
	MsgResetPasswordFailed  = "Password reset failed"
	MsgSessionExpired       = "Session expired, please sign in again"
	MsgInvalidLocalToken    = "Stored session is invalid"
	MsgBusy                 = "Another request is in progress"
	MsgCanceled             = "Request canceled"
	MsgSecondFactor         = "Two-factor authentication code required"
)

const (
	MsgLoginOK          = "Login successful!"
	MsgRegisterOK       = "Registration successful! Please check your email for verification."
	MsgLogoutOK         = "Logged out successfully"
	MsgForgotPasswordOK = "Password reset email sent! Please check your inbox."
	MsgVerifyEmailOK    = "Email verified successfully! You can now log in."
	MsgResetPasswordOK  = "Password reset successful! You can now log in with your new password."
)

// Failure is the error every manager verb returns when it does not succeed.
// Message is ready to show to the user.
type Failure struct {
	Op      Op
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s: %s (%d): %s", f.Op, f.Kind, f.Status, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.Op, f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// Succeeded reports whether a verb's result is a success.
func Succeeded(err error) bool { return err == nil }

// AsFailure extracts the *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// KindOf returns the failure kind of err, KindOK for nil and NetworkFailure
// for errors that did not come from the manager.
func KindOf(err error) Kind {
	if err == nil {
		return KindOK
	}
	if f, ok := AsFailure(err); ok {
		return f.Kind
	}
	return NetworkFailure
}

// classify turns a transport error into a Failure.
func classify(op Op, err error, defaultMsg string) *Failure {
	if errors.Is(err, context.Canceled) {
		return &Failure{Op: op, Kind: Canceled, Message: MsgCanceled, Err: err}
	}
	var se *client.StatusError
	if errors.As(err, &se) {
		msg := se.Message
		if msg == "" {
			msg = defaultMsg
		}
		return &Failure{Op: op, Kind: RejectedByServer, Status: se.Status, Message: msg, Err: err}
	}
	return &Failure{Op: op, Kind: NetworkFailure, Message: defaultMsg, Err: err}
}
