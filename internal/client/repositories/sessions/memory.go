package sessions

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// MemoryStore keeps the record in process memory. It backs the
// session-scoped storage of the terminal client.
type MemoryStore struct {
	mu      sync.Mutex
	session *models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, ErrNoSession
	}
	return m.session.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s.Clone()
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
