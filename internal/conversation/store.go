package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kiranshivaraju/testopsbot/internal/cache"
)

// Key identifies one user's session in one chat.
type Key struct {
	ChatID int64
	UserID int64
}

// Store persists session state between chat events.
// Loading a session that has never been saved yields Idle.
type Store interface {
	Load(ctx context.Context, key Key) (State, error)
	Save(ctx context.Context, key Key, s State) error
	Clear(ctx context.Context, key Key) error
}

// MemoryStore keeps encoded sessions in process memory.
// States are stored encoded so callers never share maps with the store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[Key][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[Key][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key Key) (State, error) {
	m.mu.Lock()
	b, ok := m.sessions[key]
	m.mu.Unlock()
	if !ok {
		return Idle{}, nil
	}
	return Decode(b)
}

func (m *MemoryStore) Save(ctx context.Context, key Key, s State) error {
	if s == nil || s.Phase() == PhaseIdle {
		return m.Clear(ctx, key)
	}
	b, err := Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[key] = b
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, key Key) error {
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
	return nil
}

// CacheStore keeps sessions in the shared cache so they survive restarts.
// Every save refreshes the session TTL.
type CacheStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewCacheStore(c cache.Cache, ttl time.Duration) *CacheStore {
	return &CacheStore{cache: c, ttl: ttl}
}

func (s *CacheStore) Load(ctx context.Context, key Key) (State, error) {
	b, found, err := s.cache.Get(ctx, cache.ConversationKey(key.ChatID, key.UserID))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return Idle{}, nil
	}
	return Decode(b)
}

func (s *CacheStore) Save(ctx context.Context, key Key, st State) error {
	if st == nil || st.Phase() == PhaseIdle {
		return s.Clear(ctx, key)
	}
	b, err := Encode(st)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, cache.ConversationKey(key.ChatID, key.UserID), b, s.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *CacheStore) Clear(ctx context.Context, key Key) error {
	if err := s.cache.Delete(ctx, cache.ConversationKey(key.ChatID, key.UserID)); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*CacheStore)(nil)
)
