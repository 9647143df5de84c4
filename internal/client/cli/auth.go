package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/forms"
	"github.com/dmitrijs2005/gophauth/internal/client/guard"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Input indirections used to facilitate testing. They point to interactive
// input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getYesNo      = GetYesNo
)

// printFieldErrors reports local validation failures, one per line.
func (a *App) printFieldErrors(err error) {
	if fe, ok := forms.AsErrors(err); ok {
		for _, e := range fe {
			fmt.Fprintf(a.out, "  %s: %s\n", e.Field, e.Message)
		}
		return
	}
	fmt.Fprintln(a.out, "  "+err.Error())
}

// readNewPassword asks for a password twice and shows its strength.
func (a *App) readNewPassword() (pw, confirm []byte, err error) {
	pw, err = getPassword(a.out, "New password")
	if err != nil {
		return nil, nil, err
	}
	fmt.Fprintln(a.out, "Strength: "+forms.Measure(string(pw)).Bar())
	confirm, err = getPassword(a.out, "Confirm password")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, nil, err
	}
	return pw, confirm, nil
}

// Login prompts for credentials and signs in. When the backend asks for a
// second factor the user is prompted for a TOTP code and the sign-in is
// retried once.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	remember, err := getYesNo(a.reader, "Remember me", a.out)
	if err != nil {
		return err
	}

	req := models.LoginRequest{Email: email, Password: string(password), RememberMe: remember}
	if err := forms.ValidateLogin(req); err != nil {
		a.printFieldErrors(err)
		return err
	}

	err = a.manager.Login(ctx, req)
	if services.KindOf(err) == services.SecondFactorRequired {
		code, inErr := getSimpleText(a.reader, "Two-factor code", a.out)
		if inErr != nil {
			return inErr
		}
		req.TOTPCode = code
		err = a.manager.Login(ctx, req)
	}
	a.reportBusy(err)
	return err
}

// Register prompts for the sign-up form, including a bot challenge, and
// creates the account.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	pw, confirm, err := a.readNewPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	defer common.WipeByteArray(confirm)

	ch := a.challenger.Issue()
	answer, err := getSimpleText(a.reader, ch.Question, a.out)
	if err != nil {
		return err
	}
	token, chErr := a.challenger.Solve(ch.ID, answer)
	if chErr != nil {
		a.log.Debug(ctx, "challenge not solved", "error", chErr)
	}

	req := models.RegisterRequest{
		Username:        username,
		Email:           email,
		Password:        string(pw),
		ConfirmPassword: string(confirm),
		ChallengeToken:  token,
	}
	if err := forms.ValidateRegister(req); err != nil {
		if errors.Is(err, forms.ErrChallengeRequired) {
			fmt.Fprintln(a.out, "[error] Please verify that you are not a robot")
		} else {
			a.printFieldErrors(err)
		}
		return err
	}

	err = a.manager.Register(ctx, req)
	a.reportBusy(err)
	return err
}

// ForgotPassword asks the backend to mail a reset link.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	req := models.PasswordResetRequest{Email: email}
	if err := forms.ValidateForgotPassword(req); err != nil {
		a.printFieldErrors(err)
		return err
	}
	err = a.manager.ForgotPassword(ctx, req)
	a.reportBusy(err)
	return err
}

// VerifyEmail confirms an address with the token from the mailed link.
func (a *App) VerifyEmail(ctx context.Context, token string) error {
	req := models.VerifyEmailRequest{Token: token}
	if err := forms.ValidateVerifyEmail(req); err != nil {
		a.printFieldErrors(err)
		return err
	}
	err := a.manager.VerifyEmail(ctx, req)
	if err == nil {
		fmt.Fprintln(a.out, "Type 'login' to sign in.")
	}
	a.reportBusy(err)
	return err
}

// ResetPassword sets a new password with the token from the mailed link.
func (a *App) ResetPassword(ctx context.Context, token string) error {
	pw, confirm, err := a.readNewPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	defer common.WipeByteArray(confirm)

	req := models.PasswordReset{Token: token, NewPassword: string(pw), ConfirmPassword: string(confirm)}
	if err := forms.ValidateResetPassword(req); err != nil {
		a.printFieldErrors(err)
		return err
	}
	err = a.manager.ResetPassword(ctx, req)
	if err == nil {
		fmt.Fprintln(a.out, "Type 'login' to sign in.")
	}
	a.reportBusy(err)
	return err
}

// Logout forgets the local session.
func (a *App) Logout(ctx context.Context) error {
	return a.manager.Logout(ctx)
}

// Dashboard is the protected page. It waits for the startup session check,
// then shows the account or sends the user to login.
func (a *App) Dashboard(ctx context.Context) error {
	d := guard.Check(a.manager)
	if d.Outcome == guard.Loading {
		fmt.Fprintln(a.out, "Checking session...")
		var err error
		if d, err = guard.Await(ctx, a.manager); err != nil {
			return err
		}
	}

	switch d.Outcome {
	case guard.Redirect:
		a.Navigate(d.Navigation)
		return nil
	case guard.Render:
		s := a.manager.Session()
		if s == nil {
			return nil
		}
		a.printAccount(a.out, s.User)
	}
	return nil
}

// Whoami prints the signed-in user's name, or that nobody is signed in.
func (a *App) Whoami(ctx context.Context) error {
	if s := a.manager.Session(); s != nil {
		fmt.Fprintln(a.out, s.User.DisplayName())
		return nil
	}
	fmt.Fprintln(a.out, "Not signed in.")
	return nil
}

func (a *App) printAccount(w io.Writer, u models.User) {
	verified := "Not Verified"
	if u.EmailVerified {
		verified = "Verified"
	}
	fmt.Fprintf(w, "Welcome, %s!\n", u.Username)
	fmt.Fprintln(w, "Account Information")
	fmt.Fprintf(w, "  Username: %s\n", u.Username)
	fmt.Fprintf(w, "  Email:    %s (%s)\n", u.Email, verified)
	if len(u.Roles) > 0 {
		fmt.Fprintf(w, "  Roles:    %s\n", strings.Join(u.Roles, ", "))
	}
	if u.OAuthProvider != "" {
		fmt.Fprintf(w, "  Linked:   %s\n", u.OAuthProvider)
	}
	if !u.HasTwoFactorEnabled {
		fmt.Fprintln(w, "Tip: enable two-factor authentication for an extra layer of security.")
	}
}

// reportBusy tells the user why nothing happened when a verb was refused.
// Other failures were already shown by the notifier.
func (a *App) reportBusy(err error) {
	if services.KindOf(err) == services.Busy {
		fmt.Fprintln(a.out, "[error] "+services.MsgBusy)
	}
}
