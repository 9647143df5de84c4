package web

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

const flashCookie = "gophauth_flash"

// setFlash carries notices across a redirect in a short-lived cookie.
func (s *Server) setFlash(c fiber.Ctx, notices []services.Notice) {
	if len(notices) == 0 {
		return
	}
	raw, err := json.Marshal(notices)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HTTPOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// takeFlash reads and clears the flash cookie.
func (s *Server) takeFlash(c fiber.Ctx) []services.Notice {
	v := c.Cookies(flashCookie)
	if v == "" {
		return nil
	}
	c.Cookie(&fiber.Cookie{
		Name:    flashCookie,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
	raw, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil
	}
	var notices []services.Notice
	if err := json.Unmarshal(raw, &notices); err != nil {
		return nil
	}
	return notices
}
