package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// ErrKeyNotFound is returned by KV.Get for a missing or expired key.
var ErrKeyNotFound = errors.New("key not found")

// KV is the small key-value surface the web front end stores sessions in.
// A zero ttl means the key does not expire.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// KVStore adapts one KV key to the Store interface. Records are stored as
// JSON.
type KVStore struct {
	kv  KV
	key string
	ttl time.Duration
}

func NewKVStore(kv KV, key string, ttl time.Duration) *KVStore {
	return &KVStore{kv: kv, key: key, ttl: ttl}
}

func (s *KVStore) Load(ctx context.Context) (*models.Session, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", s.key, err)
	}
	var rec models.Session
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("session %q: %w: %w", s.key, ErrCorrupt, err)
	}
	return &rec, nil
}

func (s *KVStore) Save(ctx context.Context, rec *models.Session) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, raw, s.ttl); err != nil {
		return fmt.Errorf("failed to save session %q: %w", s.key, err)
	}
	return nil
}

func (s *KVStore) Clear(ctx context.Context) error {
	if err := s.kv.Del(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear session %q: %w", s.key, err)
	}
	return nil
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryKV is an in-process KV with expiry, used when no redis address is
// configured. Expired keys are dropped lazily on access.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, key)
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *MemoryKV) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
