// Package services contains the client's session manager: the single owner
// of "who is signed in", shared by the terminal and browser front ends.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// State is the manager's authentication state.
type State int

const (
	StateUnknown State = iota
	StateValidating
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateValidating:
		return "validating"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "invalid"
}

// Resolved reports whether the startup check has finished.
func (s State) Resolved() bool {
	return s == StateAuthenticated || s == StateAnonymous
}

// Observer receives the outcome of every verb.
type Observer interface {
	Observe(op Op, kind Kind, elapsed time.Duration)
}

// Options configures a Manager. Client and Stores are required.
type Options struct {
	Client    client.Client
	Stores    sessions.Pair
	Notifier  Notifier
	Navigator Navigator
	Logger    logging.Logger
	Observer  Observer

	// Now is the clock used for local token checks.
	Now func() time.Time
}

// Manager owns the session. Verbs may be called from any goroutine; at most
// one network verb runs at a time and overlapping calls fail with Busy.
type Manager struct {
	client    client.Client
	stores    sessions.Pair
	notifier  Notifier
	navigator Navigator
	log       logging.Logger
	observer  Observer
	now       func() time.Time

	// flight is a one-slot semaphore held for the duration of a network verb.
	flight chan struct{}

	mu      sync.Mutex
	state   State
	session *models.Session
	epoch   uint64
	closed  bool

	initOnce sync.Once
	initErr  error
	ready    chan struct{}
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		client:    opts.Client,
		stores:    opts.Stores,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		log:       opts.Logger,
		observer:  opts.Observer,
		now:       opts.Now,
		flight:    make(chan struct{}, 1),
		ready:     make(chan struct{}),
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	if m.navigator == nil {
		m.navigator = nopNavigator{}
	}
	if m.log == nil {
		m.log = logging.Discard()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a copy of the current session, or nil when not
// authenticated.
func (m *Manager) Session() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return nil
	}
	return m.session.Clone()
}

// Ready is closed once Initialize has finished.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Busy reports whether a network verb is in flight.
func (m *Manager) Busy() bool {
	return len(m.flight) == 1
}

// Close detaches the manager. Completions of verbs still in flight are
// discarded.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.epoch++
}

func (m *Manager) tryAcquire(op Op) error {
	select {
	case m.flight <- struct{}{}:
		return nil
	default:
		return &Failure{Op: op, Kind: Busy, Message: MsgBusy}
	}
}

func (m *Manager) release() { <-m.flight }

func (m *Manager) currentEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// liveLocked reports whether a completion started at epoch may still be
// applied. Callers hold mu.
func (m *Manager) liveLocked(ctx context.Context, epoch uint64) bool {
	return !m.closed && m.epoch == epoch && ctx.Err() == nil
}

func (m *Manager) finish(ctx context.Context, op Op, start time.Time, err error) error {
	kind := KindOf(err)
	if m.observer != nil {
		m.observer.Observe(op, kind, m.now().Sub(start))
	}
	args := []any{"op", string(op), "kind", string(kind)}
	if f, ok := AsFailure(err); ok && f.Status != 0 {
		args = append(args, "status", f.Status)
	}
	switch kind {
	case KindOK:
		m.log.Info(ctx, "session verb finished", args...)
	case Busy, Canceled:
		m.log.Debug(ctx, "session verb finished", args...)
	default:
		m.log.Warn(ctx, "session verb finished", args...)
	}
	return err
}

func canceled(op Op, err error) *Failure {
	if err == nil {
		err = context.Canceled
	}
	return &Failure{Op: op, Kind: Canceled, Message: MsgCanceled, Err: err}
}

// Initialize restores a persisted session and confirms it with the backend.
// It runs once; later calls wait for and return the first result. Ready is
// closed when it returns.
func (m *Manager) Initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		defer close(m.ready)
		m.initErr = m.initialize(ctx)
	})
	<-m.ready
	return m.initErr
}

func (m *Manager) initialize(ctx context.Context) (err error) {
	start := m.now()
	defer func() { err = m.finish(ctx, OpInitialize, start, err) }()

	// Initialize waits for a verb that started before it instead of failing.
	select {
	case m.flight <- struct{}{}:
	case <-ctx.Done():
		m.resolveAnonymous()
		return canceled(OpInitialize, ctx.Err())
	}
	defer m.release()

	m.mu.Lock()
	if m.state == StateAuthenticated || m.state == StateAnonymous {
		// a login or logout already settled the state
		m.mu.Unlock()
		return nil
	}
	m.state = StateValidating
	epoch := m.epoch
	m.mu.Unlock()

	stored, loadErr := m.loadStored(ctx)
	if stored == nil && loadErr == nil {
		m.resolveAnonymous()
		return nil
	}
	if loadErr == nil {
		loadErr = checkLocalSession(stored, m.now())
	}
	if loadErr != nil && ctx.Err() != nil {
		// a read cut short by cancellation says nothing about the record
		m.resolveAnonymous()
		return canceled(OpInitialize, ctx.Err())
	}
	if loadErr != nil {
		m.log.Warn(ctx, "dropping stored session", "error", loadErr)
		m.mu.Lock()
		defer m.mu.Unlock()
		m.clearStoresLocked(ctx)
		m.setAnonymousLocked()
		return &Failure{Op: OpInitialize, Kind: InvalidLocalToken, Message: MsgInvalidLocalToken, Err: loadErr}
	}

	callErr := m.client.ValidateToken(ctx, stored.Token)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.liveLocked(ctx, epoch) {
		// Logout may have resolved the state already; a plain cancel must
		// still let the guard leave the loading state.
		if m.state == StateValidating {
			m.setAnonymousLocked()
		}
		return canceled(OpInitialize, ctx.Err())
	}
	if callErr != nil {
		m.clearStoresLocked(ctx)
		m.setAnonymousLocked()
		return classify(OpInitialize, callErr, MsgSessionExpired)
	}
	m.state = StateAuthenticated
	m.session = stored
	return nil
}

// loadStored reads the durable scope first, then the session scope. It
// returns (nil, nil) when neither holds a record.
func (m *Manager) loadStored(ctx context.Context) (*models.Session, error) {
	for _, remember := range []bool{true, false} {
		s, err := m.stores.For(remember).Load(ctx)
		if errors.Is(err, sessions.ErrNoSession) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.Remember = remember
		return s, nil
	}
	return nil, nil
}

func (m *Manager) resolveAnonymous() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Resolved() {
		m.setAnonymousLocked()
	}
}

func (m *Manager) setAnonymousLocked() {
	m.state = StateAnonymous
	m.session = nil
}

func (m *Manager) clearStoresLocked(ctx context.Context) {
	// clearing must not be skipped because the caller's ctx is done
	if err := m.stores.ClearAll(context.WithoutCancel(ctx)); err != nil {
		m.log.Error(ctx, "failed to clear stored sessions", "error", err)
	}
}

// Login signs in and, on success, persists the session in the scope
// selected by RememberMe and removes it from the other one. A failed login
// leaves any existing session untouched.
func (m *Manager) Login(ctx context.Context, req models.LoginRequest) (err error) {
	start := m.now()
	defer func() { err = m.finish(ctx, OpLogin, start, err) }()

	if err := m.tryAcquire(OpLogin); err != nil {
		return err
	}
	defer m.release()
	epoch := m.currentEpoch()

	resp, callErr := m.client.SignIn(ctx, req)

	if callErr == nil && resp.RequiresTwoFactor && resp.AccessToken == "" {
		return &Failure{Op: OpLogin, Kind: SecondFactorRequired, Message: MsgSecondFactor}
	}
	if callErr == nil && resp.AccessToken == "" {
		callErr = client.ErrUnavailable
	}

	m.mu.Lock()
	if !m.liveLocked(ctx, epoch) {
		m.mu.Unlock()
		return canceled(OpLogin, ctx.Err())
	}
	if callErr != nil {
		m.mu.Unlock()
		f := classify(OpLogin, callErr, MsgLoginFailed)
		m.notifier.Failure(f.Message)
		return f
	}

	s := &models.Session{
		User:      resp.User,
		Token:     resp.AccessToken,
		TokenType: resp.TokenType,
		Remember:  req.RememberMe,
		CreatedAt: m.now(),
	}
	if err := m.stores.For(s.Remember).Save(ctx, s); err != nil {
		m.log.Error(ctx, "failed to persist session", "error", err)
	}
	if err := m.stores.Other(s.Remember).Clear(ctx); err != nil {
		m.log.Error(ctx, "failed to clear other session scope", "error", err)
	}
	m.state = StateAuthenticated
	m.session = s
	m.mu.Unlock()

	m.notifier.Success(MsgLoginOK)
	m.navigator.Navigate(Navigation{Path: RouteDashboard})
	return nil
}

// Register creates an account. It does not sign in.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (err error) {
	start := m.now()
	defer func() { err = m.finish(ctx, OpRegister, start, err) }()

	err = m.simpleCall(ctx, OpRegister, MsgRegisterFailed, MsgRegisterOK, func() error {
		return m.client.SignUp(ctx, req)
	})
	if err == nil {
		m.navigator.Navigate(Navigation{Path: RouteLogin, RegistrationSuccess: true})
	}
	return err
}

// ForgotPassword asks the backend to mail a reset link.
func (m *Manager) ForgotPassword(ctx context.Context, req models.PasswordResetRequest) (err error) {
	start := m.now()
	defer func() { err = m.finish(ctx, OpForgotPassword, start, err) }()

	return m.simpleCall(ctx, OpForgotPassword, MsgForgotPasswordFailed, MsgForgotPasswordOK, func() error {
		return m.client.ForgotPassword(ctx, req)
	})
}

// VerifyEmail confirms an address with the token from the mailed link.
func (m *Manager) VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) (err error) {
	start := m.now()
	defer func() { err = m.finish(ctx, OpVerifyEmail, start, err) }()

	return m.simpleCall(ctx, OpVerifyEmail, MsgVerifyEmailFailed, MsgVerifyEmailOK, func() error {
		return m.client.VerifyEmail(ctx, req)
	})
}

// ResetPassword sets a new password with the token from the mailed link.
func (m *Manager) ResetPassword(ctx context.Context, req models.PasswordReset) (err error) {
	start := m.now()
	defer func() { err = m.finish(ctx, OpResetPassword, start, err) }()

	return m.simpleCall(ctx, OpResetPassword, MsgResetPasswordFailed, MsgResetPasswordOK, func() error {
		return m.client.ResetPassword(ctx, req)
	})
}

// simpleCall runs a verb that touches no session state: one request, then
// a notification.
func (m *Manager) simpleCall(ctx context.Context, op Op, failMsg, okMsg string, call func() error) error {
	if err := m.tryAcquire(op); err != nil {
		return err
	}
	defer m.release()
	epoch := m.currentEpoch()

	callErr := call()

	m.mu.Lock()
	live := m.liveLocked(ctx, epoch)
	m.mu.Unlock()
	if !live {
		return canceled(op, ctx.Err())
	}
	if callErr != nil {
		f := classify(op, callErr, failMsg)
		m.notifier.Failure(f.Message)
		return f
	}
	m.notifier.Success(okMsg)
	return nil
}

// Logout forgets the session locally. It makes no network call and may run
// while another verb is in flight; that verb's completion is then discarded.
func (m *Manager) Logout(ctx context.Context) (err error) {
	start := m.now()
	defer func() { err = m.finish(ctx, OpLogout, start, err) }()

	m.mu.Lock()
	m.epoch++
	m.clearStoresLocked(ctx)
	m.setAnonymousLocked()
	m.mu.Unlock()

	m.notifier.Success(MsgLogoutOK)
	m.navigator.Navigate(Navigation{Path: RouteLogin})
	return nil
}
