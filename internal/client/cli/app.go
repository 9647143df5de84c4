package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/forms"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/filex"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// fallbackStorageSecret is used when no storage secret is configured. The
// database then only resists casual reading.
const fallbackStorageSecret = "gophauth-local"

// sessionManager is the part of services.Manager the terminal uses.
type sessionManager interface {
	Initialize(ctx context.Context) error
	Login(ctx context.Context, req models.LoginRequest) error
	Register(ctx context.Context, req models.RegisterRequest) error
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, req models.PasswordResetRequest) error
	VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) error
	ResetPassword(ctx context.Context, req models.PasswordReset) error
	State() services.State
	Session() *models.Session
	Ready() <-chan struct{}
}

type App struct {
	config     *config.Config
	manager    sessionManager
	challenger *forms.Challenger
	log        logging.Logger
	db         *sql.DB
	reader     *bufio.Reader
	out        io.Writer

	mu   sync.Mutex
	page string
}

// NewApp opens the local database, builds the session stores and the API
// client, and wires them into a session manager that reports to the
// terminal.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if err := filex.EnsureParentDir(c.DBPath); err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DBPath, "error", err)
		return nil, err
	}

	secret := c.StorageSecret
	if secret == "" {
		log.Warn(ctx, "no storage secret configured, using the built-in one")
		secret = fallbackStorageSecret
	}
	// salt creation must not race with another client process on the same file
	var sealer *cryptox.Sealer
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		sealer, err = sessions.OpenSealer(ctx, metadata.NewSQLiteRepository(tx), []byte(secret))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	apiClient, err := client.NewHTTPClient(c.APIBaseURL, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	challengeKey := common.GenerateRandByteArray(32)
	a := &App{
		config:     c,
		challenger: forms.NewChallenger(challengeKey),
		log:        log,
		db:         db,
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		page:       services.RouteHome,
	}
	a.manager = services.NewManager(services.Options{
		Client: apiClient,
		Stores: sessions.Pair{
			Durable: sessions.NewSQLiteStore(db, sealer, sessions.ScopeDurable),
			Session: sessions.NewMemoryStore(),
		},
		Notifier:  a,
		Navigator: a,
		Logger:    log.With("component", "session"),
	})
	return a, nil
}

// Run revalidates the stored session in the background and runs the REPL
// until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer a.Close()
	// the startup check may still be using the database; stop it first
	defer func() {
		cancel()
		<-a.manager.Ready()
	}()

	go func() {
		_ = a.manager.Initialize(ctx)
	}()

	fmt.Fprintln(a.out, "Welcome to gophauth (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.manager.State() == services.StateAuthenticated
}

func (a *App) getStatus() string {
	switch a.manager.State() {
	case services.StateAuthenticated:
		if s := a.manager.Session(); s != nil {
			return s.User.DisplayName()
		}
		return "signed in"
	case services.StateAnonymous:
		return "anonymous"
	default:
		return "checking session"
	}
}

// Page returns the page the last navigation pointed to.
func (a *App) Page() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page
}
