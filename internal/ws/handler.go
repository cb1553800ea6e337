package ws

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wingera/schematic-material-viewer/internal/protocol"
	"github.com/wingera/schematic-material-viewer/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades connections and drives the session coordinator from
// inbound frames.
type Handler struct {
	Hub   *Hub
	Coord *session.Coordinator
	Log   *zap.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	cl := newClient(id, conn, h.Log)
	h.Hub.register(cl)
	go cl.writePump()

	h.Coord.Connect(id)
	cl.readPump(func(raw []byte) { h.dispatch(id, raw) })

	h.Coord.Disconnect(id)
	h.Hub.unregister(id)
	close(cl.done)
}

// dispatch routes one frame to the coordinator. Malformed payloads are a
// logged no-op; nothing on this path may take the process down.
func (h *Handler) dispatch(connID string, raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		h.Log.Warn("undecodable frame", zap.String("sid", connID), zap.Error(err))
		return
	}

	switch msg.Type {
	case protocol.EventJoinFile:
		var req protocol.JoinFile
		if err := json.Unmarshal(raw, &req); err != nil || req.Filename == "" {
			h.Log.Warn("bad join_file frame", zap.String("sid", connID), zap.Error(err))
			return
		}
		if req.Username == "" {
			req.Username = session.DefaultUsername
		}
		h.Coord.Join(req.Filename, connID, req.Username)

	case protocol.EventFileLoaded:
		var req protocol.FileLoaded
		if err := json.Unmarshal(raw, &req); err != nil || req.Filename == "" {
			h.Log.Warn("bad file_loaded frame", zap.String("sid", connID), zap.Error(err))
			return
		}
		h.Coord.LoadData(req.Filename, req.Data)

	case protocol.EventSyncFileData:
		var req protocol.FileLoaded
		if err := json.Unmarshal(raw, &req); err != nil || req.Filename == "" {
			h.Log.Warn("bad sync_file_data frame", zap.String("sid", connID), zap.Error(err))
			return
		}
		h.Coord.SyncData(req.Filename, connID, req.Data)

	case protocol.EventItemUpdated:
		var req protocol.ItemUpdate
		if err := json.Unmarshal(raw, &req); err != nil || req.Filename == "" {
			h.Log.Warn("bad item_updated frame", zap.String("sid", connID), zap.Error(err))
			return
		}
		if req.Username == "" {
			req.Username = session.DefaultUsername
		}
		if err := h.Coord.UpdateCell(req.Filename, req.RowIndex, req.Status, req.Username, connID); err != nil {
			h.Hub.ToConn(connID, protocol.EventUpdateRejected, protocol.UpdateRejected{
				Filename: req.Filename,
				RowIndex: req.RowIndex,
				Reason:   err.Error(),
			})
		}

	default:
		h.Log.Warn("unknown frame type",
			zap.String("sid", connID), zap.String("messageType", msg.Type))
	}
}
