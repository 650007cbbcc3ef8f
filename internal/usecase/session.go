package usecase

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"docrag/internal/domain"
)

// Session is one user's conversation: its history, persona and backend
// selection. Requests on the same session run one at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	reqMu     sync.Mutex // held for the duration of one pipeline run
	mu        sync.RWMutex
	history   []domain.ConversationTurn
	persona   domain.PersonaStyle
	selection *Selection
}

func NewSession(registry *Registry) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		persona:   domain.PersonaProfessional,
		selection: NewSelection(registry),
	}
}

// History returns a copy of the conversation so far.
func (s *Session) History() []domain.ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ConversationTurn, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) Append(turn domain.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, turn)
}

// ResetHistory replaces the conversation, e.g. with one supplied by a caller.
func (s *Session) ResetHistory(turns []domain.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]domain.ConversationTurn(nil), turns...)
}

func (s *Session) Persona() domain.PersonaStyle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persona
}

func (s *Session) SetPersona(p domain.PersonaStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persona = p
}

func (s *Session) Selection() *Selection {
	return s.selection
}

// SessionManager keeps live sessions in a TTL cache. Every Get slides the
// session's expiry forward.
type SessionManager struct {
	cache    *cache.Cache
	registry *Registry
	ttl      time.Duration
}

var ErrSessionNotFound = errors.New("session not found")

func NewSessionManager(registry *Registry, ttl, cleanupInterval time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &SessionManager{
		cache:    cache.New(ttl, cleanupInterval),
		registry: registry,
		ttl:      ttl,
	}
}

// Create starts a session with the given persona and, when backend is not
// empty, selects it. An unknown backend fails without creating anything.
func (m *SessionManager) Create(persona domain.PersonaStyle, backend string) (*Session, error) {
	s := NewSession(m.registry)
	s.SetPersona(persona)
	if backend != "" {
		if err := s.Selection().Select(backend); err != nil {
			return nil, err
		}
	}
	m.cache.Set(s.ID, s, cache.DefaultExpiration)
	return s, nil
}

func (m *SessionManager) Get(id string) (*Session, error) {
	x, found := m.cache.Get(id)
	if !found {
		return nil, ErrSessionNotFound
	}
	s := x.(*Session)
	// Replace fails if a Delete got in after the lookup.
	if err := m.cache.Replace(id, s, cache.DefaultExpiration); err != nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *SessionManager) Delete(id string) {
	m.cache.Delete(id)
}

func (m *SessionManager) Count() int {
	return m.cache.ItemCount()
}
