package session

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wingera/schematic-material-viewer/internal/logutil"
	"github.com/wingera/schematic-material-viewer/internal/protocol"
)

var (
	ErrUnknownDocument = errors.New("no active session for file")
	ErrRowIndex        = errors.New("row index out of range")
)

// Broadcaster is the transport adapter the coordinator fans out through.
// Rooms are named after filenames; exclusion of the sender is a transport
// capability, not something the coordinator filters by hand.
type Broadcaster interface {
	JoinRoom(room, connID string)
	LeaveRoom(room, connID string)
	ToConn(connID, event string, payload any)
	ToRoom(room, event string, payload any)
	ToRoomExcept(room, exceptID, event string, payload any)
}

// Coordinator is the protocol engine: join/leave, full-state delivery on
// join, cell updates, bulk sync, and the fan-out for each. All state it
// touches is owned here and in the injected registry/store; there are no
// package-level globals.
//
// Every operation runs under one mutex, so handlers execute one at a time
// in arrival order and the registry/store never see interleaved writes.
type Coordinator struct {
	mu    sync.Mutex
	reg   *Registry
	store *Store
	bc    Broadcaster
	log   *zap.Logger
}

func NewCoordinator(reg *Registry, store *Store, bc Broadcaster, log *zap.Logger) *Coordinator {
	return &Coordinator{reg: reg, store: store, bc: bc, log: log}
}

// Connect registers a fresh connection and acks it with the live count.
func (c *Coordinator) Connect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := c.reg.Add(connID)
	c.log.Info("client connected", zap.String("sid", connID), zap.Int("userCount", count))
	c.bc.ToConn(connID, protocol.EventConnectionEstablished, protocol.ConnectionEstablished{
		MessageText: "连接成功",
		UserCount:   count,
		SID:         connID,
	})
}

// Disconnect tears a connection down, leaving its current file first.
// Unknown connections are a logged no-op.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.reg.Remove(connID)
	if !ok {
		c.log.Info("disconnect for unregistered connection", zap.String("sid", connID))
		return
	}
	if conn.CurrentFile != "" {
		c.leave(conn.CurrentFile, connID)
	}
	c.log.Info("client disconnected",
		zap.String("sid", connID), zap.String("username", conn.Username))
}

// Join attaches a connection to a file's session. Joining a different
// file implicitly leaves the old one; re-joining the same file is
// idempotent for membership.
func (c *Coordinator) Join(filename, connID, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.reg.Get(connID)
	if !ok {
		c.log.Warn("join from unregistered connection",
			zap.String("sid", connID), zap.String("filename", filename))
		return
	}
	if conn.CurrentFile != "" && conn.CurrentFile != filename {
		c.leave(conn.CurrentFile, connID)
	}
	c.reg.SetIdentity(connID, username)
	c.reg.SetCurrentFile(connID, filename)

	sess := c.store.GetOrCreate(filename)
	if !sess.hasMember(connID) {
		sess.Members = append(sess.Members, Member{ConnID: connID, Username: username})
	}
	c.bc.JoinRoom(filename, connID)

	c.log.Info("user joined file", logutil.Values(
		zap.String("username", username),
		zap.String("filename", filename),
		zap.Int("userCount", len(sess.Members)),
	))

	if len(sess.Rows) > 0 {
		c.bc.ToConn(connID, protocol.EventFileData, protocol.FileData{
			Filename: filename,
			Data:     protocol.CloneRows(sess.Rows),
		})
	}
	c.bc.ToRoom(filename, protocol.EventUserJoined, protocol.UserJoined{
		Username:  username,
		UserCount: len(sess.Members),
		Users:     sess.Usernames(),
	})
}

// Leave detaches a connection from a file's session.
func (c *Coordinator) Leave(filename, connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leave(filename, connID)
	c.reg.SetCurrentFile(connID, "")
}

// leave runs under c.mu. Vacating the last member drops the session and
// its rows; any durable save must already have happened elsewhere.
func (c *Coordinator) leave(filename, connID string) {
	sess, ok := c.store.Get(filename)
	if !ok {
		return
	}
	member, removed := sess.removeMember(connID)
	if !removed {
		return
	}
	c.bc.LeaveRoom(filename, connID)

	if len(sess.Members) == 0 {
		c.store.Remove(filename)
		c.log.Info("last viewer left, dropping session", zap.String("filename", filename))
		return
	}
	c.bc.ToRoom(filename, protocol.EventUserLeft, protocol.UserLeft{
		Username:  member.Username,
		UserCount: len(sess.Members),
	})
}

// LoadData overwrites the session's rows without any fan-out. It seeds
// state for a client that just parsed an upload, creating the session if
// nobody has joined yet.
func (c *Coordinator) LoadData(filename string, rows []protocol.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess := c.store.GetOrCreate(filename)
	sess.Rows = protocol.CloneRows(rows)
	c.log.Info("file data loaded",
		zap.String("filename", filename), zap.Int("rows", len(rows)))
}

// SyncData overwrites the session's rows and pushes the full set to every
// other room member, forcing server and peers into agreement.
func (c *Coordinator) SyncData(filename, senderID string, rows []protocol.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess := c.store.GetOrCreate(filename)
	sess.Rows = protocol.CloneRows(rows)
	c.bc.ToRoomExcept(filename, senderID, protocol.EventFileDataUpdated, protocol.FileData{
		Filename: filename,
		Data:     protocol.CloneRows(rows),
	})
	c.log.Info("file data synced",
		zap.String("filename", filename), zap.Int("rows", len(rows)))
}

// UpdateCell sets one row's status and fans the change out to everyone in
// the room except the sender, who already has it locally. The write is
// last-writer-wins; no version numbers are attached. A failed update
// mutates and broadcasts nothing.
func (c *Coordinator) UpdateCell(filename string, rowIndex int, status, username, senderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.store.Get(filename)
	if !ok {
		c.log.Warn("update for inactive file",
			zap.String("filename", filename), zap.Int("rowIndex", rowIndex))
		return fmt.Errorf("%w: %s", ErrUnknownDocument, filename)
	}
	if rowIndex < 0 || rowIndex >= len(sess.Rows) {
		c.log.Warn("update row index out of range", logutil.Values(
			zap.String("filename", filename),
			zap.Int("rowIndex", rowIndex),
			zap.Int("rows", len(sess.Rows)),
		))
		return fmt.Errorf("%w: %d of %d", ErrRowIndex, rowIndex, len(sess.Rows))
	}

	sess.Rows[rowIndex].Status = status
	c.bc.ToRoomExcept(filename, senderID, protocol.EventItemUpdated, protocol.ItemUpdated{
		RowIndex: rowIndex,
		Status:   status,
		Filename: filename,
		Username: username,
	})
	c.log.Info("item updated", logutil.Values(
		zap.String("filename", filename),
		zap.Int("rowIndex", rowIndex),
		zap.String("status", status),
		zap.String("username", username),
	))
	return nil
}

// UserCount reports the number of live connections.
func (c *Coordinator) UserCount() int {
	return c.reg.Count()
}
