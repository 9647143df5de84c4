package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v3"

	"github.com/dmitrijs2005/gophauth/internal/client/forms"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"index", "login", "register", "forgot", "reset", "verify", "dashboard",
}

type pages struct {
	byName map[string]*template.Template
}

func loadPages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		p.byName[name] = t
	}
	return p, nil
}

// pageData is what every template receives.
type pageData struct {
	Title    string
	Flash    []services.Notice
	LoggedIn bool
	User     *models.User

	Form   map[string]string
	Errors map[string]string

	// register
	Challenge      forms.Challenge
	CaptchaSiteKey string

	// login
	RegistrationSuccess bool
	TwoFactor           bool
	Remember            bool

	// reset, verify, forgot
	Token string
	Done  bool
}

func (s *Server) render(c fiber.Ctx, status int, name string, data pageData) error {
	t, ok := s.pages.byName[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}
