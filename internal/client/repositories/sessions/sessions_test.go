package sessions

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
)

func sampleSession(remember bool) *models.Session {
	return &models.Session{
		User: models.User{
			ID:       7,
			Username: "alice",
			Email:    "alice@example.com",
			Roles:    []string{"USER"},
		},
		Token:     "tok-123",
		TokenType: "Bearer",
		Remember:  remember,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// exerciseStore runs the common Store contract against s.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession)

	want := sampleSession(true)
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, want.User, got.User)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

	next := sampleSession(true)
	next.Token = "tok-456"
	require.NoError(t, s.Save(ctx, next))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-456", got.Token)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession)

	// clearing an empty scope is fine
	require.NoError(t, s.Clear(ctx))
}

func TestMemoryStore_Contract(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	orig := sampleSession(false)
	require.NoError(t, s.Save(ctx, orig))

	orig.User.Roles[0] = "ADMIN"
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"USER"}, got.User.Roles)

	got.Token = "changed"
	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", again.Token)
}

func newSQLiteStores(t *testing.T, secret string) (durable, session *SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sealer, err := OpenSealer(ctx, metadata.NewSQLiteRepository(db), []byte(secret))
	require.NoError(t, err)
	return NewSQLiteStore(db, sealer, ScopeDurable), NewSQLiteStore(db, sealer, ScopeSession)
}

func TestSQLiteStore_Contract(t *testing.T) {
	durable, _ := newSQLiteStores(t, "s3cret")
	exerciseStore(t, durable)
}

func TestSQLiteStore_ScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	durable, session := newSQLiteStores(t, "s3cret")

	require.NoError(t, durable.Save(ctx, sampleSession(true)))
	_, err := session.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, session.Clear(ctx))
	_, err = durable.Load(ctx)
	require.NoError(t, err)
}

func TestSQLiteStore_TokenNotStoredInPlaintext(t *testing.T) {
	ctx := context.Background()
	durable, _ := newSQLiteStores(t, "s3cret")
	require.NoError(t, durable.Save(ctx, sampleSession(true)))

	var ciphertext []byte
	require.NoError(t, durable.db.QueryRowContext(ctx,
		`SELECT ciphertext FROM sessions WHERE scope = ?`, string(ScopeDurable)).Scan(&ciphertext))
	assert.NotContains(t, string(ciphertext), "tok-123")
}

func TestSQLiteStore_WrongSecretIsCorrupt(t *testing.T) {
	ctx := context.Background()
	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	meta := metadata.NewSQLiteRepository(db)

	good, err := OpenSealer(ctx, meta, []byte("right"))
	require.NoError(t, err)
	require.NoError(t, NewSQLiteStore(db, good, ScopeDurable).Save(ctx, sampleSession(true)))

	bad, err := OpenSealer(ctx, meta, []byte("wrong"))
	require.NoError(t, err)
	_, err = NewSQLiteStore(db, bad, ScopeDurable).Load(ctx)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestOpenSealer_ReusesSalt(t *testing.T) {
	ctx := context.Background()
	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	meta := metadata.NewSQLiteRepository(db)

	first, err := OpenSealer(ctx, meta, []byte("k"))
	require.NoError(t, err)
	require.NoError(t, NewSQLiteStore(db, first, ScopeDurable).Save(ctx, sampleSession(true)))

	// a restart derives the same key from the stored salt
	second, err := OpenSealer(ctx, meta, []byte("k"))
	require.NoError(t, err)
	got, err := NewSQLiteStore(db, second, ScopeDurable).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", got.Token)
}

func TestPair_ForOtherClearAll(t *testing.T) {
	ctx := context.Background()
	p := Pair{Durable: NewMemoryStore(), Session: NewMemoryStore()}

	assert.Same(t, p.Durable, p.For(true))
	assert.Same(t, p.Session, p.For(false))
	assert.Same(t, p.Session, p.Other(true))

	require.NoError(t, p.Durable.Save(ctx, sampleSession(true)))
	require.NoError(t, p.Session.Save(ctx, sampleSession(false)))
	require.NoError(t, p.ClearAll(ctx))

	_, err := p.Durable.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = p.Session.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestKVStore_MemoryContract(t *testing.T) {
	exerciseStore(t, NewKVStore(NewMemoryKV(), "durable:abc", time.Hour))
}

func TestMemoryKV_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kv := NewMemoryKV()
	kv.now = func() time.Time { return now }

	require.NoError(t, kv.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, kv.Set(ctx, "b", []byte("2"), 0))

	now = now.Add(59 * time.Second)
	v, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	now = now.Add(time.Second)
	_, err = kv.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	now = now.Add(24 * time.Hour)
	v, err = kv.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestKVStore_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, "k", []byte("{not json"), 0))

	_, err := NewKVStore(kv, "k", 0).Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func newRedisKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisKV(rdb, "gophauth:"), mr
}

func TestRedisKV_Contract(t *testing.T) {
	kv, _ := newRedisKV(t)
	require.NoError(t, kv.Ping(context.Background()))
	exerciseStore(t, NewKVStore(kv, "session:abc", 0))
}

func TestRedisKV_PrefixAndTTL(t *testing.T) {
	ctx := context.Background()
	kv, mr := newRedisKV(t)

	require.NoError(t, NewKVStore(kv, "durable:xyz", time.Hour).Save(ctx, sampleSession(true)))
	assert.True(t, mr.Exists("gophauth:durable:xyz"))
	assert.Equal(t, time.Hour, mr.TTL("gophauth:durable:xyz"))

	mr.FastForward(time.Hour)
	_, err := NewKVStore(kv, "durable:xyz", time.Hour).Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}
