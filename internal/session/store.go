package session

import (
	"sync"

	"github.com/wingera/schematic-material-viewer/internal/protocol"
)

// Store maps a filename to its DocumentSession. It is the sole owner of
// session objects; the Coordinator is the sole writer of their contents.
// Existence and lazy creation live here so handlers never probe the map
// themselves.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*DocumentSession
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*DocumentSession)}
}

// GetOrCreate returns the session for filename, creating an empty one on
// first use. There is never more than one session per filename.
func (s *Store) GetOrCreate(filename string) *DocumentSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[filename]; ok {
		return sess
	}
	sess := &DocumentSession{
		Filename: filename,
		Rows:     []protocol.Row{},
	}
	s.sessions[filename] = sess
	return sess
}

// Get is a read-only lookup.
func (s *Store) Get(filename string) (*DocumentSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[filename]
	return sess, ok
}

// Remove deletes the session. Called only when membership hits zero.
func (s *Store) Remove(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, filename)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
