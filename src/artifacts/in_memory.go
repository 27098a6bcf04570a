// Package artifacts stores named, versioned binary payloads scoped to a session.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// Artifact is a binary payload tagged with its content type.
type Artifact struct {
	Name     string
	MIMEType string
	Data     []byte
}

// SessionInfo scopes artifact operations.
type SessionInfo struct {
	AppName   string
	UserID    string
	SessionID string
}

func (i SessionInfo) prefix() string {
	return i.AppName + "/" + i.UserID + "/" + i.SessionID + "/"
}

// InMemoryService implements artifact storage for tests and single-process runs.
type InMemoryService struct {
	mu       sync.RWMutex
	versions map[string][]Artifact
}

func NewInMemoryService() *InMemoryService {
	return &InMemoryService{versions: make(map[string][]Artifact)}
}

// Save stores a copy of the artifact under name and returns its version, starting at 0.
func (s *InMemoryService) Save(_ context.Context, info SessionInfo, name string, art Artifact) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("artifact name is empty")
	}
	art.Name = name
	art.Data = append([]byte(nil), art.Data...)

	key := info.prefix() + name

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versions == nil {
		s.versions = make(map[string][]Artifact)
	}
	s.versions[key] = append(s.versions[key], art)
	return len(s.versions[key]) - 1, nil
}

// Load returns a copy of the requested version. A negative version selects the latest.
func (s *InMemoryService) Load(_ context.Context, info SessionInfo, name string, version int) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.versions[info.prefix()+strings.TrimSpace(name)]
	if len(versions) == 0 {
		return Artifact{}, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
	}
	if version < 0 {
		version = len(versions) - 1
	}
	if version >= len(versions) {
		return Artifact{}, fmt.Errorf("%w: %s version %d", ErrArtifactNotFound, name, version)
	}
	art := versions[version]
	art.Data = append([]byte(nil), art.Data...)
	return art, nil
}

// ListKeys returns the sorted artifact names stored for the session.
func (s *InMemoryService) ListKeys(_ context.Context, info SessionInfo) ([]string, error) {
	prefix := info.prefix()

	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0)
	for key := range s.versions {
		if name, ok := strings.CutPrefix(key, prefix); ok {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// DeleteSession removes every artifact stored for the session.
func (s *InMemoryService) DeleteSession(_ context.Context, info SessionInfo) error {
	prefix := info.prefix()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.versions {
		if strings.HasPrefix(key, prefix) {
			delete(s.versions, key)
		}
	}
	return nil
}

// Close drops all artifacts.
func (s *InMemoryService) Close() error {
	s.mu.Lock()
	s.versions = make(map[string][]Artifact)
	s.mu.Unlock()
	return nil
}
