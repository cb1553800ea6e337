package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub owns the live socket connections and the room membership used for
// fan-out. It implements session.Broadcaster: rooms are named after
// filenames and exclusion of the sender is handled here, not by callers
// filtering member lists.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Client
	rooms map[string]map[string]struct{}
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns: make(map[string]*Client),
		rooms: make(map[string]map[string]struct{}),
		log:   log,
	}
}

func (h *Hub) register(cl *Client) {
	h.mu.Lock()
	h.conns[cl.id] = cl
	h.mu.Unlock()
}

// unregister drops the connection and scrubs it from every room. Room
// cleanup normally happens through the coordinator's leave path; this
// covers connections that died mid-join.
func (h *Hub) unregister(id string) {
	h.mu.Lock()
	delete(h.conns, id)
	for room, members := range h.rooms {
		delete(members, id)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) JoinRoom(room, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	members[connID] = struct{}{}
}

func (h *Hub) LeaveRoom(room, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) ToConn(connID, event string, payload any) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		h.log.Error("encode frame", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	cl := h.conns[connID]
	h.mu.RUnlock()
	if cl != nil {
		cl.enqueue(frame)
	}
}

func (h *Hub) ToRoom(room, event string, payload any) {
	h.broadcast(room, "", event, payload)
}

func (h *Hub) ToRoomExcept(room, exceptID, event string, payload any) {
	h.broadcast(room, exceptID, event, payload)
}

func (h *Hub) broadcast(room, exceptID, event string, payload any) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		h.log.Error("encode frame", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		if id == exceptID {
			continue
		}
		if cl, ok := h.conns[id]; ok {
			targets = append(targets, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range targets {
		cl.enqueue(frame)
	}
}

// encodeFrame flattens the payload fields next to the type discriminator,
// matching the shape clients send inbound.
func encodeFrame(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	typ, _ := json.Marshal(event)
	fields["type"] = typ
	return json.Marshal(fields)
}
