package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

// Session is the conversational container for one invocation.
type Session struct {
	id        string
	appName   string
	userID    string
	createdAt time.Time

	mu     sync.RWMutex
	events []Event
}

// ID returns the unique identifier associated with the session.
func (s *Session) ID() string { return s.id }

func (s *Session) AppName() string { return s.appName }

func (s *Session) UserID() string { return s.userID }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Events returns a copy of the recorded events.
func (s *Session) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// InMemoryService keeps sessions in process memory. Nothing survives Close.
type InMemoryService struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewInMemoryService() *InMemoryService {
	return &InMemoryService{sessions: make(map[string]*Session)}
}

func sessionKey(appName, userID, sessionID string) string {
	return appName + "/" + userID + "/" + sessionID
}

// Create provisions a session. If sessionID is empty a unique identifier is generated.
func (m *InMemoryService) Create(_ context.Context, appName, userID, sessionID string) (*Session, error) {
	appName = strings.TrimSpace(appName)
	userID = strings.TrimSpace(userID)
	if appName == "" || userID == "" {
		return nil, errors.New("session requires app name and user id")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	key := sessionKey(appName, userID, sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = make(map[string]*Session)
	}
	if _, ok := m.sessions[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
	}
	s := &Session{
		id:        sessionID,
		appName:   appName,
		userID:    userID,
		createdAt: time.Now().UTC(),
	}
	m.sessions[key] = s
	return s, nil
}

// Get retrieves an active session.
func (m *InMemoryService) Get(_ context.Context, appName, userID, sessionID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionKey(appName, userID, strings.TrimSpace(sessionID))]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s, nil
}

// AppendEvent records an event on the session.
func (m *InMemoryService) AppendEvent(_ context.Context, s *Session, ev Event) error {
	if s == nil {
		return errors.New("append event: nil session")
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return nil
}

// Delete removes a session. Deleting an unknown session is a no-op.
func (m *InMemoryService) Delete(_ context.Context, appName, userID, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionKey(appName, userID, strings.TrimSpace(sessionID)))
	m.mu.Unlock()
	return nil
}

// List returns the sorted session IDs for a user of an app.
func (m *InMemoryService) List(_ context.Context, appName, userID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.appName == appName && s.userID == userID {
			ids = append(ids, s.id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Close drops every session.
func (m *InMemoryService) Close() error {
	m.mu.Lock()
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	return nil
}
