package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/dmitrijs2005/gophauth/internal/client/forms"
	"github.com/dmitrijs2005/gophauth/internal/client/guard"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

const msgChallengeRequired = "Please verify that you are not a robot"

// session restores and validates this browser's session. The returned
// manager is closed by the caller.
func (s *Server) session(c fiber.Ctx) (*services.Manager, *services.Recorder) {
	rec := &services.Recorder{}
	m := s.newManager(c, rec)
	_ = m.Initialize(c.Context())
	return m, rec
}

func (s *Server) base(c fiber.Ctx, m *services.Manager, title string) pageData {
	d := pageData{Title: title, Flash: s.takeFlash(c)}
	if sess := m.Session(); sess != nil {
		u := sess.User
		d.LoggedIn, d.User = true, &u
	}
	return d
}

// follow turns the manager's last navigation into a 303 redirect carrying
// its notices as flash messages.
func (s *Server) follow(c fiber.Ctx, rec *services.Recorder) (bool, error) {
	nav, ok := rec.LastNavigation()
	if !ok {
		return false, nil
	}
	s.setFlash(c, rec.Notices())
	to := nav.Path
	if nav.RegistrationSuccess {
		to += "?registered=1"
	}
	return true, c.Redirect().Status(fiber.StatusSeeOther).To(to)
}

func (s *Server) index(c fiber.Ctx) error {
	m, _ := s.session(c)
	defer m.Close()
	return s.render(c, fiber.StatusOK, "index", s.base(c, m, "Home"))
}

func (s *Server) loginPage(c fiber.Ctx) error {
	m, _ := s.session(c)
	defer m.Close()
	if m.State() == services.StateAuthenticated {
		return c.Redirect().Status(fiber.StatusSeeOther).To(services.RouteDashboard)
	}
	d := s.base(c, m, "Sign in")
	d.RegistrationSuccess = c.Query("registered") == "1"
	return s.render(c, fiber.StatusOK, "login", d)
}

func (s *Server) login(c fiber.Ctx) error {
	m, rec := s.session(c)
	defer m.Close()

	req := models.LoginRequest{
		Email:      c.FormValue("email"),
		Password:   c.FormValue("password"),
		RememberMe: c.FormValue("rememberMe") == "on",
		TOTPCode:   c.FormValue("totpCode"),
	}
	d := s.base(c, m, "Sign in")
	d.Form = map[string]string{"email": req.Email}
	d.Remember = req.RememberMe

	if err := forms.ValidateLogin(req); err != nil {
		fe, _ := forms.AsErrors(err)
		d.Errors = fe.Map()
		return s.render(c, fiber.StatusUnprocessableEntity, "login", d)
	}

	err := m.Login(c.Context(), req)
	if done, rerr := s.follow(c, rec); done {
		return rerr
	}
	d.Flash = append(d.Flash, rec.Notices()...)
	switch services.KindOf(err) {
	case services.SecondFactorRequired:
		d.TwoFactor = true
		d.Flash = append(d.Flash, services.Notice{Message: services.MsgSecondFactor})
		return s.render(c, fiber.StatusOK, "login", d)
	case services.Busy, services.Canceled:
		if f, ok := services.AsFailure(err); ok {
			d.Flash = append(d.Flash, services.Notice{Message: f.Message})
		}
		return s.render(c, fiber.StatusConflict, "login", d)
	case services.RejectedByServer:
		return s.render(c, fiber.StatusUnauthorized, "login", d)
	default:
		return s.render(c, fiber.StatusBadGateway, "login", d)
	}
}

func (s *Server) registerPage(c fiber.Ctx) error {
	m, _ := s.session(c)
	defer m.Close()
	return s.render(c, fiber.StatusOK, "register", s.registerData(c, m))
}

func (s *Server) registerData(c fiber.Ctx, m *services.Manager) pageData {
	d := s.base(c, m, "Register")
	d.CaptchaSiteKey = s.opts.CaptchaSiteKey
	if d.CaptchaSiteKey == "" {
		d.Challenge = s.challenger.Issue()
	}
	return d
}

// challengeToken returns the bot-challenge token of the submitted form, or
// "" when the challenge was not completed.
func (s *Server) challengeToken(c fiber.Ctx) string {
	if s.opts.CaptchaSiteKey != "" {
		return c.FormValue("g-recaptcha-response")
	}
	token, err := s.challenger.Solve(c.FormValue("challengeId"), c.FormValue("challengeAnswer"))
	if err != nil {
		return ""
	}
	return token
}

func (s *Server) register(c fiber.Ctx) error {
	m, rec := s.session(c)
	defer m.Close()

	req := models.RegisterRequest{
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirmPassword"),
		ChallengeToken:  s.challengeToken(c),
	}
	d := s.registerData(c, m)
	d.Form = map[string]string{"username": req.Username, "email": req.Email}

	if err := forms.ValidateRegister(req); err != nil {
		if errors.Is(err, forms.ErrChallengeRequired) {
			d.Errors = map[string]string{"challenge": msgChallengeRequired}
		} else {
			fe, _ := forms.AsErrors(err)
			d.Errors = fe.Map()
		}
		return s.render(c, fiber.StatusUnprocessableEntity, "register", d)
	}

	err := m.Register(c.Context(), req)
	if done, rerr := s.follow(c, rec); done {
		return rerr
	}
	d.Flash = append(d.Flash, rec.Notices()...)
	return s.render(c, failureStatus(err), "register", d)
}

func (s *Server) forgotPage(c fiber.Ctx) error {
	m, _ := s.session(c)
	defer m.Close()
	return s.render(c, fiber.StatusOK, "forgot", s.base(c, m, "Forgot password"))
}

func (s *Server) forgot(c fiber.Ctx) error {
	m, rec := s.session(c)
	defer m.Close()

	req := models.PasswordResetRequest{Email: c.FormValue("email")}
	d := s.base(c, m, "Forgot password")
	d.Form = map[string]string{"email": req.Email}
	if err := forms.ValidateForgotPassword(req); err != nil {
		fe, _ := forms.AsErrors(err)
		d.Errors = fe.Map()
		return s.render(c, fiber.StatusUnprocessableEntity, "forgot", d)
	}

	err := m.ForgotPassword(c.Context(), req)
	d.Flash = append(d.Flash, rec.Notices()...)
	d.Done = err == nil
	return s.render(c, failureStatus(err), "forgot", d)
}

func (s *Server) resetPage(c fiber.Ctx) error {
	m, _ := s.session(c)
	defer m.Close()
	d := s.base(c, m, "Reset password")
	d.Token = c.Params("token")
	return s.render(c, fiber.StatusOK, "reset", d)
}

func (s *Server) reset(c fiber.Ctx) error {
	m, rec := s.session(c)
	defer m.Close()

	req := models.PasswordReset{
		Token:           c.Params("token"),
		NewPassword:     c.FormValue("newPassword"),
		ConfirmPassword: c.FormValue("confirmPassword"),
	}
	d := s.base(c, m, "Reset password")
	d.Token = req.Token
	if err := forms.ValidateResetPassword(req); err != nil {
		fe, _ := forms.AsErrors(err)
		d.Errors = fe.Map()
		return s.render(c, fiber.StatusUnprocessableEntity, "reset", d)
	}

	err := m.ResetPassword(c.Context(), req)
	d.Flash = append(d.Flash, rec.Notices()...)
	d.Done = err == nil
	return s.render(c, failureStatus(err), "reset", d)
}

func (s *Server) verify(c fiber.Ctx) error {
	m, rec := s.session(c)
	defer m.Close()

	req := models.VerifyEmailRequest{Token: c.Params("token")}
	d := s.base(c, m, "Verify email")
	if err := forms.ValidateVerifyEmail(req); err != nil {
		return s.render(c, fiber.StatusUnprocessableEntity, "verify", d)
	}

	err := m.VerifyEmail(c.Context(), req)
	d.Flash = append(d.Flash, rec.Notices()...)
	d.Done = err == nil
	return s.render(c, failureStatus(err), "verify", d)
}

func (s *Server) dashboard(c fiber.Ctx) error {
	m, _ := s.session(c)
	defer m.Close()

	d := guard.Check(m)
	switch d.Outcome {
	case guard.Render:
		return s.render(c, fiber.StatusOK, "dashboard", s.base(c, m, "Dashboard"))
	case guard.Redirect:
		return c.Redirect().Status(fiber.StatusSeeOther).To(d.Navigation.Path)
	default:
		// Initialize has returned, so this only happens on a canceled request.
		return fiber.ErrServiceUnavailable
	}
}

func (s *Server) logout(c fiber.Ctx) error {
	rec := &services.Recorder{}
	m := s.newManager(c, rec)
	defer m.Close()

	_ = m.Logout(c.Context())
	if done, err := s.follow(c, rec); done {
		return err
	}
	return c.Redirect().Status(fiber.StatusSeeOther).To(services.RouteLogin)
}

func (s *Server) strength(c fiber.Ctx) error {
	st := forms.Measure(c.FormValue("password"))
	return c.JSON(fiber.Map{"score": st.Score, "label": st.Label, "color": st.Color})
}

// failureStatus maps a verb result to the status of the re-rendered page.
func failureStatus(err error) int {
	switch services.KindOf(err) {
	case services.KindOK:
		return fiber.StatusOK
	case services.RejectedByServer:
		return fiber.StatusBadRequest
	case services.Busy, services.Canceled:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadGateway
	}
}
