package session

import (
	"time"

	"github.com/wingera/schematic-material-viewer/internal/protocol"
)

// DefaultUsername is the sentinel shown until a client announces itself.
const DefaultUsername = "未登录用户"

// Connection is one live transport connection. The Registry is the only
// writer; readers get copies.
type Connection struct {
	ID          string
	Username    string
	CurrentFile string // empty means no file open
	JoinedAt    time.Time
}

// Member pairs a connection with the display name it joined under.
type Member struct {
	ConnID   string
	Username string
}

// DocumentSession is the single authoritative in-memory copy of one open
// file plus its current viewers. Members keep insertion order.
type DocumentSession struct {
	Filename string
	Rows     []protocol.Row
	Members  []Member
}

// Usernames returns the member display names in insertion order.
func (s *DocumentSession) Usernames() []string {
	names := make([]string, len(s.Members))
	for i, m := range s.Members {
		names[i] = m.Username
	}
	return names
}

func (s *DocumentSession) hasMember(connID string) bool {
	for _, m := range s.Members {
		if m.ConnID == connID {
			return true
		}
	}
	return false
}

func (s *DocumentSession) removeMember(connID string) (Member, bool) {
	for i, m := range s.Members {
		if m.ConnID == connID {
			s.Members = append(s.Members[:i], s.Members[i+1:]...)
			return m, true
		}
	}
	return Member{}, false
}
