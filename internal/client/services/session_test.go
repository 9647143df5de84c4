package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/sessions"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	client *fakeClient
	stores sessions.Pair
	rec    *Recorder
	m      *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		client: &fakeClient{},
		stores: sessions.Pair{Durable: sessions.NewMemoryStore(), Session: sessions.NewMemoryStore()},
		rec:    &Recorder{},
	}
	f.m = NewManager(Options{
		Client:    f.client,
		Stores:    f.stores,
		Notifier:  f.rec,
		Navigator: f.rec,
	})
	return f
}

func (f *fixture) stored(t *testing.T, remember bool) *models.Session {
	t.Helper()
	s, err := f.stores.For(remember).Load(context.Background())
	if errors.Is(err, sessions.ErrNoSession) {
		return nil
	}
	require.NoError(t, err)
	return s
}

func (f *fixture) lastNotice(t *testing.T) Notice {
	t.Helper()
	n := f.rec.Notices()
	require.NotEmpty(t, n)
	return n[len(n)-1]
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "a",
		"exp": exp.Unix(),
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return tok
}

func TestInitialize_NoStoredSession(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, StateUnknown, f.m.State())

	require.NoError(t, f.m.Initialize(context.Background()))
	assert.Equal(t, StateAnonymous, f.m.State())
	assert.Empty(t, f.client.Calls())

	select {
	case <-f.m.Ready():
	default:
		t.Fatal("Ready not closed")
	}
}

func TestInitialize_ValidStoredSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.stores.Durable.Save(ctx, &models.Session{Token: "abc", User: models.User{Username: "a"}}))

	var gotToken string
	f.client.validate = func(_ context.Context, token string) error {
		gotToken = token
		return nil
	}

	require.NoError(t, f.m.Initialize(ctx))
	assert.Equal(t, "abc", gotToken)
	assert.Equal(t, StateAuthenticated, f.m.State())
	require.NotNil(t, f.m.Session())
	assert.True(t, f.m.Session().Remember)
}

func TestInitialize_SessionScopeReadAfterDurable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.stores.Session.Save(ctx, &models.Session{Token: "tab"}))

	require.NoError(t, f.m.Initialize(ctx))
	assert.Equal(t, StateAuthenticated, f.m.State())
	assert.Equal(t, "tab", f.m.Session().Token)
	assert.False(t, f.m.Session().Remember)
}

func TestInitialize_RejectedClearsBothScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.stores.Durable.Save(ctx, &models.Session{Token: "abc"}))
	require.NoError(t, f.stores.Session.Save(ctx, &models.Session{Token: "stale"}))
	f.client.validate = func(context.Context, string) error {
		return &client.StatusError{Op: "validate", Status: 401}
	}

	err := f.m.Initialize(ctx)
	require.Error(t, err)
	assert.Equal(t, RejectedByServer, KindOf(err))
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	fl, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, OpInitialize, fl.Op)
	assert.Equal(t, MsgSessionExpired, fl.Message)

	assert.Equal(t, StateAnonymous, f.m.State())
	assert.Nil(t, f.stored(t, true))
	assert.Nil(t, f.stored(t, false))
	assert.Empty(t, f.rec.Notices())
}

func TestInitialize_NetworkFailureClearsStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.stores.Durable.Save(ctx, &models.Session{Token: "abc"}))
	f.client.validate = func(context.Context, string) error { return client.ErrUnavailable }

	err := f.m.Initialize(ctx)
	assert.Equal(t, NetworkFailure, KindOf(err))
	fl, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, MsgSessionExpired, fl.Message)
	assert.Equal(t, StateAnonymous, f.m.State())
	assert.Nil(t, f.stored(t, true))
}

// ctxStore fails reads once the caller's context is done, like a database.
type ctxStore struct {
	*sessions.MemoryStore
}

func (s ctxStore) Load(ctx context.Context) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.MemoryStore.Load(ctx)
}

func TestInitialize_CanceledReadKeepsStorage(t *testing.T) {
	durable := sessions.NewMemoryStore()
	require.NoError(t, durable.Save(context.Background(), &models.Session{Token: "abc"}))
	fc := &fakeClient{}
	m := NewManager(Options{
		Client: fc,
		Stores: sessions.Pair{Durable: ctxStore{durable}, Session: sessions.NewMemoryStore()},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Initialize(ctx)

	assert.Equal(t, Canceled, KindOf(err))
	assert.Equal(t, StateAnonymous, m.State())
	stored, err := durable.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", stored.Token)
}

func TestInitialize_InvalidLocalToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		token string
	}{
		{"empty", "  "},
		{"malformed jwt", "not.a.jwt"},
		{"expired jwt", signedToken(t, now.Add(-time.Minute))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.m.now = func() time.Time { return now }
			ctx := context.Background()
			require.NoError(t, f.stores.Durable.Save(ctx, &models.Session{Token: tt.token}))

			err := f.m.Initialize(ctx)
			assert.Equal(t, InvalidLocalToken, KindOf(err))
			assert.Equal(t, StateAnonymous, f.m.State())
			assert.Nil(t, f.stored(t, true))
			assert.Empty(t, f.client.Calls(), "no network call for a bad local token")
		})
	}
}

func TestInitialize_UnexpiredJWTIsValidated(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t)
	f.m.now = func() time.Time { return now }
	ctx := context.Background()
	require.NoError(t, f.stores.Durable.Save(ctx, &models.Session{Token: signedToken(t, now.Add(time.Hour))}))

	require.NoError(t, f.m.Initialize(ctx))
	assert.Equal(t, []string{"validate"}, f.client.Calls())
	assert.Equal(t, StateAuthenticated, f.m.State())
}

func TestInitialize_RunsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.stores.Durable.Save(ctx, &models.Session{Token: "abc"}))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.m.Initialize(ctx)
		}()
	}
	wg.Wait()
	assert.Equal(t, []string{"validate"}, f.client.Calls())
}

func TestLogin_RememberMeSelectsScope(t *testing.T) {
	for _, remember := range []bool{true, false} {
		f := newFixture(t)
		ctx := context.Background()
		// a leftover record in the other scope must be removed
		require.NoError(t, f.stores.Other(remember).Save(ctx, &models.Session{Token: "old"}))

		require.NoError(t, f.m.Login(ctx, models.LoginRequest{Email: "a@b.com", Password: "Password1!", RememberMe: remember}))

		assert.Equal(t, "tok", f.stored(t, remember).Token)
		assert.Nil(t, f.stored(t, !remember))
	}
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var sent models.LoginRequest
	f.client.signIn = func(_ context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
		sent = req
		return &models.AuthResponse{AccessToken: "tok123", User: models.User{Username: "a"}}, nil
	}
	require.NoError(t, f.m.Initialize(ctx))

	req := models.LoginRequest{Email: "a@b.com", Password: "Password1!", RememberMe: true}
	err := f.m.Login(ctx, req)
	require.NoError(t, err)
	assert.True(t, Succeeded(err))
	assert.Equal(t, req, sent)

	assert.Equal(t, StateAuthenticated, f.m.State())
	assert.Equal(t, "a", f.m.Session().User.Username)
	assert.Equal(t, "tok123", f.stored(t, true).Token)
	assert.Nil(t, f.stored(t, false))

	assert.Equal(t, Notice{OK: true, Message: MsgLoginOK}, f.lastNotice(t))
	nav, ok := f.rec.LastNavigation()
	require.True(t, ok)
	assert.Equal(t, RouteDashboard, nav.Path)
}

func TestLogin_FailureMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    Kind
		message string
	}{
		{"server message", &client.StatusError{Status: 401, Message: "Bad credentials"}, RejectedByServer, "Bad credentials"},
		{"no body message", &client.StatusError{Status: 500}, RejectedByServer, MsgLoginFailed},
		{"network", client.ErrUnavailable, NetworkFailure, MsgLoginFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.client.signIn = func(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
				return nil, tt.err
			}
			err := f.m.Login(context.Background(), models.LoginRequest{Email: "a@b.com", Password: "x"})
			fl, ok := AsFailure(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, fl.Kind)
			assert.Equal(t, OpLogin, fl.Op)
			assert.Equal(t, tt.message, fl.Message)
			assert.Equal(t, Notice{OK: false, Message: tt.message}, f.lastNotice(t))
			_, navigated := f.rec.LastNavigation()
			assert.False(t, navigated)
		})
	}
}

func TestLogin_EmptyTokenIsNetworkFailure(t *testing.T) {
	f := newFixture(t)
	f.client.signIn = func(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
		return &models.AuthResponse{}, nil
	}
	err := f.m.Login(context.Background(), models.LoginRequest{})
	assert.Equal(t, NetworkFailure, KindOf(err))
	assert.ErrorIs(t, err, client.ErrUnavailable)
}

func TestLogin_FailureKeepsExistingSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.m.Login(ctx, models.LoginRequest{RememberMe: true}))

	f.client.signIn = func(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
		return nil, &client.StatusError{Status: 401}
	}
	require.Error(t, f.m.Login(ctx, models.LoginRequest{}))
	assert.Equal(t, StateAuthenticated, f.m.State())
	assert.Equal(t, "tok", f.stored(t, true).Token)
}

func TestLogin_SecondFactorRequired(t *testing.T) {
	f := newFixture(t)
	f.client.signIn = func(_ context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
		if req.TOTPCode == "" {
			return &models.AuthResponse{RequiresTwoFactor: true}, nil
		}
		return &models.AuthResponse{AccessToken: "tok2"}, nil
	}
	ctx := context.Background()

	err := f.m.Login(ctx, models.LoginRequest{Email: "a@b.com"})
	assert.Equal(t, SecondFactorRequired, KindOf(err))
	assert.NotEqual(t, StateAuthenticated, f.m.State())

	require.NoError(t, f.m.Login(ctx, models.LoginRequest{Email: "a@b.com", TOTPCode: "123456"}))
	assert.Equal(t, "tok2", f.m.Session().Token)
}

func TestLogout_ClearsBothScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.m.Login(ctx, models.LoginRequest{RememberMe: false}))
	require.NoError(t, f.stores.Durable.Save(ctx, &models.Session{Token: "other"}))
	calls := len(f.client.Calls())

	require.NoError(t, f.m.Logout(ctx))
	assert.Equal(t, StateAnonymous, f.m.State())
	assert.Nil(t, f.m.Session())
	assert.Nil(t, f.stored(t, true))
	assert.Nil(t, f.stored(t, false))
	assert.Len(t, f.client.Calls(), calls, "logout makes no network call")

	assert.Equal(t, Notice{OK: true, Message: MsgLogoutOK}, f.lastNotice(t))
	nav, _ := f.rec.LastNavigation()
	assert.Equal(t, RouteLogin, nav.Path)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.m.Register(ctx, models.RegisterRequest{Username: "alice"}))
	assert.NotEqual(t, StateAuthenticated, f.m.State())
	assert.Equal(t, Notice{OK: true, Message: MsgRegisterOK}, f.lastNotice(t))
	nav, _ := f.rec.LastNavigation()
	assert.Equal(t, Navigation{Path: RouteLogin, RegistrationSuccess: true}, nav)

	f.client.signUp = func(context.Context, models.RegisterRequest) error {
		return &client.StatusError{Status: 400, Message: "Username is already taken!"}
	}
	err := f.m.Register(ctx, models.RegisterRequest{})
	assert.Equal(t, RejectedByServer, KindOf(err))
	assert.Equal(t, Notice{OK: false, Message: "Username is already taken!"}, f.lastNotice(t))
}

func TestSimpleVerbs(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		setFail func(*fakeClient, error)
		call    func(*Manager) error
		okMsg   string
		failMsg string
	}{
		{
			"forgot",
			func(c *fakeClient, err error) {
				c.forgotPassword = func(context.Context, models.PasswordResetRequest) error { return err }
			},
			func(m *Manager) error { return m.ForgotPassword(ctx, models.PasswordResetRequest{Email: "a@b.com"}) },
			MsgForgotPasswordOK, MsgForgotPasswordFailed,
		},
		{
			"verify",
			func(c *fakeClient, err error) {
				c.verifyEmail = func(context.Context, models.VerifyEmailRequest) error { return err }
			},
			func(m *Manager) error { return m.VerifyEmail(ctx, models.VerifyEmailRequest{Token: "t"}) },
			MsgVerifyEmailOK, MsgVerifyEmailFailed,
		},
		{
			"reset",
			func(c *fakeClient, err error) {
				c.resetPassword = func(context.Context, models.PasswordReset) error { return err }
			},
			func(m *Manager) error { return m.ResetPassword(ctx, models.PasswordReset{Token: "t"}) },
			MsgResetPasswordOK, MsgResetPasswordFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, tt.call(f.m))
			assert.Equal(t, Notice{OK: true, Message: tt.okMsg}, f.lastNotice(t))

			tt.setFail(f.client, &client.StatusError{Status: 400})
			err := tt.call(f.m)
			assert.Equal(t, RejectedByServer, KindOf(err))
			assert.Equal(t, Notice{OK: false, Message: tt.failMsg}, f.lastNotice(t))

			tt.setFail(f.client, client.ErrUnavailable)
			assert.Equal(t, NetworkFailure, KindOf(tt.call(f.m)))

			_, navigated := f.rec.LastNavigation()
			assert.False(t, navigated)
		})
	}
}

func TestOverlappingVerbsAreBusy(t *testing.T) {
	f := newFixture(t)
	entered := make(chan struct{})
	unblock := make(chan struct{})
	f.client.signIn = func(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
		close(entered)
		<-unblock
		return &models.AuthResponse{AccessToken: "first"}, nil
	}
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- f.m.Login(ctx, models.LoginRequest{RememberMe: true}) }()
	<-entered
	assert.True(t, f.m.Busy())

	err := f.m.ForgotPassword(ctx, models.PasswordResetRequest{Email: "a@b.com"})
	assert.Equal(t, Busy, KindOf(err))
	err = f.m.Login(ctx, models.LoginRequest{})
	assert.Equal(t, Busy, KindOf(err))
	assert.Equal(t, []string{"signin"}, f.client.Calls())
	assert.Empty(t, f.rec.Notices())

	close(unblock)
	require.NoError(t, <-done)
	assert.False(t, f.m.Busy())
	assert.Equal(t, "first", f.m.Session().Token)
}

func TestCanceledLoginAppliesNothing(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.client.signIn = func(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
		cancel()
		return &models.AuthResponse{AccessToken: "late"}, nil
	}

	err := f.m.Login(ctx, models.LoginRequest{RememberMe: true})
	assert.Equal(t, Canceled, KindOf(err))
	assert.NotEqual(t, StateAuthenticated, f.m.State())
	assert.Nil(t, f.stored(t, true))
	assert.Empty(t, f.rec.Notices())
}

func TestLogoutDuringLoginDiscardsCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entered := make(chan struct{})
	unblock := make(chan struct{})
	f.client.signIn = func(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
		close(entered)
		<-unblock
		return &models.AuthResponse{AccessToken: "late"}, nil
	}

	done := make(chan error, 1)
	go func() { done <- f.m.Login(ctx, models.LoginRequest{RememberMe: true}) }()
	<-entered
	require.NoError(t, f.m.Logout(ctx))
	close(unblock)

	assert.Equal(t, Canceled, KindOf(<-done))
	assert.Equal(t, StateAnonymous, f.m.State())
	assert.Nil(t, f.stored(t, true))
}

func TestCloseDiscardsInitializeCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.stores.Durable.Save(ctx, &models.Session{Token: "abc"}))
	f.client.validate = func(context.Context, string) error {
		f.m.Close()
		return nil
	}

	err := f.m.Initialize(ctx)
	assert.Equal(t, Canceled, KindOf(err))
	assert.NotEqual(t, StateAuthenticated, f.m.State())
	assert.True(t, f.m.State().Resolved())
}

type countingObserver struct {
	mu    sync.Mutex
	kinds map[Op][]Kind
}

func (o *countingObserver) Observe(op Op, kind Kind, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.kinds == nil {
		o.kinds = map[Op][]Kind{}
	}
	o.kinds[op] = append(o.kinds[op], kind)
}

func TestObserverSeesEveryVerb(t *testing.T) {
	obs := &countingObserver{}
	fc := &fakeClient{}
	m := NewManager(Options{
		Client:   fc,
		Stores:   sessions.Pair{Durable: sessions.NewMemoryStore(), Session: sessions.NewMemoryStore()},
		Observer: obs,
	})
	ctx := context.Background()

	require.NoError(t, m.Initialize(ctx))
	require.NoError(t, m.Login(ctx, models.LoginRequest{}))
	fc.verifyEmail = func(context.Context, models.VerifyEmailRequest) error { return client.ErrUnavailable }
	require.Error(t, m.VerifyEmail(ctx, models.VerifyEmailRequest{}))
	require.NoError(t, m.Logout(ctx))

	assert.Equal(t, map[Op][]Kind{
		OpInitialize:  {KindOK},
		OpLogin:       {KindOK},
		OpVerifyEmail: {NetworkFailure},
		OpLogout:      {KindOK},
	}, obs.kinds)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unknown", StateUnknown.String())
	assert.Equal(t, "validating", StateValidating.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "anonymous", StateAnonymous.String())
	assert.False(t, StateValidating.Resolved())
}
