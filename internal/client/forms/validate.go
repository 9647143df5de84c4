// Package forms holds the synchronous checks every credential form runs
// before the session manager is called, plus the password strength meter.
package forms

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

const (
	MinPasswordLength = 8
	MinUsernameLength = 3
	MaxUsernameLength = 20

	// PasswordSymbols are the only non-alphanumeric characters a new
	// password may contain, and at least one of them is required.
	PasswordSymbols = "@$!%*?&"
)

// Field names, shared with the front ends that render the errors.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldNewPassword     = "newPassword"
	FieldConfirmPassword = "confirmPassword"
	FieldToken           = "token"
)

const (
	MsgEmail            = "Please enter a valid email address"
	MsgPasswordLength   = "Password must be at least 8 characters"
	MsgUsernameShort    = "Username must be at least 3 characters"
	MsgUsernameLong     = "Username must not exceed 20 characters"
	MsgPasswordStrength = "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character"
	MsgPasswordMismatch = "Passwords don't match"
	MsgTokenMissing     = "Token is missing"
)

// ErrChallengeRequired is returned by ValidateRegister when the bot
// challenge has not been completed. The form must not be submitted.
var ErrChallengeRequired = errors.New("please verify that you are not a robot")

// FieldError is one failed check.
type FieldError struct {
	Field   string
	Message string
}

// Errors lists failed checks in form field order. At most one error is
// reported per field.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Get returns the message for field, or "".
func (e Errors) Get(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Map returns the errors keyed by field, for templates.
func (e Errors) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, fe := range e {
		m[fe.Field] = fe.Message
	}
	return m
}

func (e *Errors) add(field, msg string) {
	if msg != "" {
		*e = append(*e, FieldError{Field: field, Message: msg})
	}
}

func (e Errors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// AsErrors extracts field errors from err.
func AsErrors(err error) (Errors, bool) {
	var fe Errors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func ValidateLogin(req models.LoginRequest) error {
	var errs Errors
	errs.add(FieldEmail, checkEmail(req.Email))
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		errs.add(FieldPassword, MsgPasswordLength)
	}
	return errs.err()
}

// ValidateRegister checks the sign-up form. Field errors take precedence
// over a missing challenge.
func ValidateRegister(req models.RegisterRequest) error {
	var errs Errors
	errs.add(FieldUsername, checkUsername(req.Username))
	errs.add(FieldEmail, checkEmail(req.Email))
	errs.add(FieldPassword, checkNewPassword(req.Password))
	if req.Password != req.ConfirmPassword {
		errs.add(FieldConfirmPassword, MsgPasswordMismatch)
	}
	if err := errs.err(); err != nil {
		return err
	}
	if strings.TrimSpace(req.ChallengeToken) == "" {
		return ErrChallengeRequired
	}
	return nil
}

func ValidateForgotPassword(req models.PasswordResetRequest) error {
	var errs Errors
	errs.add(FieldEmail, checkEmail(req.Email))
	return errs.err()
}

func ValidateResetPassword(req models.PasswordReset) error {
	var errs Errors
	if strings.TrimSpace(req.Token) == "" {
		errs.add(FieldToken, MsgTokenMissing)
	}
	errs.add(FieldNewPassword, checkNewPassword(req.NewPassword))
	if req.NewPassword != req.ConfirmPassword {
		errs.add(FieldConfirmPassword, MsgPasswordMismatch)
	}
	return errs.err()
}

func ValidateVerifyEmail(req models.VerifyEmailRequest) error {
	var errs Errors
	if strings.TrimSpace(req.Token) == "" {
		errs.add(FieldToken, MsgTokenMissing)
	}
	return errs.err()
}

func checkEmail(s string) string {
	if s == "" || strings.TrimSpace(s) != s {
		return MsgEmail
	}
	addr, err := mail.ParseAddress(s)
	// ParseAddress also accepts "Name <a@b>"; only a bare address is valid.
	if err != nil || addr.Address != s || addr.Name != "" {
		return MsgEmail
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return MsgEmail
	}
	return ""
}

func checkUsername(s string) string {
	n := utf8.RuneCountInString(s)
	switch {
	case n < MinUsernameLength:
		return MsgUsernameShort
	case n > MaxUsernameLength:
		return MsgUsernameLong
	}
	return ""
}

func checkNewPassword(s string) string {
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return MsgPasswordLength
	}
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		default:
			return MsgPasswordStrength
		}
	}
	if !lower || !upper || !digit || !symbol {
		return MsgPasswordStrength
	}
	return ""
}
