// Package web is the browser front end: a fiber server rendering the auth
// pages. Each request gets its own session manager bound to that browser's
// cookie-backed storage scopes.
package web

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/forms"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/metrics"
)

// Options configures a Server. Client and KV are required.
type Options struct {
	Client client.Client
	KV     sessions.KV
	Logger logging.Logger

	// Registry receives the server's metrics and is served on /metrics.
	// A fresh registry is used when nil.
	Registry *prometheus.Registry

	RememberTTL    time.Duration
	CookieSecure   bool
	CaptchaSiteKey string

	// ChallengeKey signs the built-in register challenge.
	ChallengeKey []byte
}

type Server struct {
	opts       Options
	app        *fiber.App
	kv         sessions.KV
	log        logging.Logger
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	challenger *forms.Challenger
	pages      *pages
}

func New(opts Options) (*Server, error) {
	if opts.Client == nil || opts.KV == nil {
		return nil, errors.New("web: client and kv are required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.RememberTTL <= 0 {
		opts.RememberTTL = 30 * 24 * time.Hour
	}
	pg, err := loadPages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:       opts,
		kv:         opts.KV,
		log:        opts.Logger,
		metrics:    metrics.New(opts.Registry),
		registry:   opts.Registry,
		challenger: forms.NewChallenger(opts.ChallengeKey),
		pages:      pg,
	}
	s.app = fiber.New(fiber.Config{
		AppName:      "gophauth",
		ErrorHandler: s.handleError,
	})
	s.routes()
	return s, nil
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) routes() {
	s.app.Use(recoverer.New())
	s.app.Use(s.observe)

	s.app.Get("/", s.index)
	s.app.Get("/login", s.loginPage)
	s.app.Post("/login", s.login)
	s.app.Get("/register", s.registerPage)
	s.app.Post("/register", s.register)
	s.app.Get("/forgot-password", s.forgotPage)
	s.app.Post("/forgot-password", s.forgot)
	s.app.Get("/reset-password/:token", s.resetPage)
	s.app.Post("/reset-password/:token", s.reset)
	s.app.Get("/verify-email/:token", s.verify)
	s.app.Get("/dashboard", s.dashboard)
	s.app.Post("/logout", s.logout)
	s.app.Post("/password-strength", s.strength)

	s.app.Get("/healthz", s.healthz)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

// observe logs and counts every request.
func (s *Server) observe(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	route := c.Route().Path
	s.metrics.RecordRequest(c.Method(), route, status)
	s.log.Debug(c.Context(), "request",
		"method", c.Method(), "route", route, "status", status, "elapsed", time.Since(start))
	return err
}

func (s *Server) handleError(c fiber.Ctx, err error) error {
	code, msg := fiber.StatusInternalServerError, fiber.ErrInternalServerError.Message
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, msg = fe.Code, fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		s.log.Error(c.Context(), "request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).SendString(msg)
}

// Listen serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	s.log.Info(ctx, "web server started", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	s.log.Info(ctx, "web server stopped")
	return nil
}

// newManager builds the per-request session manager. The caller must Close
// it when the request ends.
func (s *Server) newManager(c fiber.Ctx, rec *services.Recorder) *services.Manager {
	return services.NewManager(services.Options{
		Client:    s.opts.Client,
		Stores:    s.bindStores(c),
		Notifier:  rec,
		Navigator: rec,
		Logger:    s.log.With("component", "session"),
		Observer:  s.metrics,
	})
}

// pinger is implemented by KV backends that can report reachability.
type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) healthz(c fiber.Ctx) error {
	if p, ok := s.kv.(pinger); ok {
		if err := p.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
