package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetOrCreateReturnsSameSession(t *testing.T) {
	s := NewStore()

	first := s.GetOrCreate("boxA.sti")
	second := s.GetOrCreate("boxA.sti")

	assert.Same(t, first, second, "one authoritative session per filename")
	assert.Equal(t, 1, s.Len())
	assert.NotNil(t, first.Rows)
	assert.Empty(t, first.Members)
}

func TestStoreGetDoesNotCreate(t *testing.T) {
	s := NewStore()

	_, ok := s.Get("boxA.sti")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStoreRemove(t *testing.T) {
	s := NewStore()
	s.GetOrCreate("boxA.sti")

	s.Remove("boxA.sti")
	_, ok := s.Get("boxA.sti")
	assert.False(t, ok)

	// removing again is a no-op
	assert.NotPanics(t, func() { s.Remove("boxA.sti") })
}

func TestSessionMemberHelpers(t *testing.T) {
	sess := &DocumentSession{Filename: "boxA.sti"}
	sess.Members = append(sess.Members,
		Member{ConnID: "a", Username: "alice"},
		Member{ConnID: "b", Username: "bob"},
		Member{ConnID: "c", Username: "carol"},
	)

	assert.True(t, sess.hasMember("b"))
	assert.False(t, sess.hasMember("z"))
	assert.Equal(t, []string{"alice", "bob", "carol"}, sess.Usernames())

	m, ok := sess.removeMember("b")
	require.True(t, ok)
	assert.Equal(t, "bob", m.Username)
	assert.Equal(t, []string{"alice", "carol"}, sess.Usernames())

	_, ok = sess.removeMember("b")
	assert.False(t, ok)
}
