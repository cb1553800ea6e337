package protocol

import "encoding/json"

// Event names as the browser clients know them. The inherited frontend
// speaks these verbatim, so they are wire-stable.
const (
	EventConnectionEstablished = "connection_established"
	EventJoinFile              = "join_file"
	EventFileData              = "file_data"
	EventUserJoined            = "user_joined"
	EventUserLeft              = "user_left"
	EventFileLoaded            = "file_loaded"
	EventItemUpdated           = "item_updated"
	EventSyncFileData          = "sync_file_data"
	EventFileDataUpdated       = "file_data_updated"
	EventUpdateRejected        = "update_rejected"
)

// Message carries the type discriminator of every frame.
type Message struct {
	Type string `json:"type"`
}

// JoinFile asks to start viewing a file.
type JoinFile struct {
	Message
	Filename string `json:"filename"`
	Username string `json:"username"`
}

// FileLoaded seeds server-side state after a client parsed an upload.
// A sync_file_data frame has the same shape but additionally fans out
// to peers.
type FileLoaded struct {
	Message
	Filename string `json:"filename"`
	Data     []Row  `json:"data"`
}

// ItemUpdate is a single-cell status change from a client.
type ItemUpdate struct {
	Message
	Filename string `json:"filename"`
	RowIndex int    `json:"rowIndex"`
	Status   string `json:"status"`
	Username string `json:"username"`
}

// ConnectionEstablished acknowledges a fresh connection.
type ConnectionEstablished struct {
	MessageText string `json:"message"`
	UserCount   int    `json:"userCount"`
	SID         string `json:"sid"`
}

// FileData delivers the full authoritative row set to one client.
type FileData struct {
	Filename string `json:"filename"`
	Data     []Row  `json:"data"`
}

// UserJoined notifies a room of a membership change.
type UserJoined struct {
	Username  string   `json:"username"`
	UserCount int      `json:"userCount"`
	Users     []string `json:"users"`
}

// UserLeft notifies a room that a member disconnected or moved on.
type UserLeft struct {
	Username  string `json:"username"`
	UserCount int    `json:"userCount"`
}

// ItemUpdated fans a cell change out to everyone else in the room.
type ItemUpdated struct {
	RowIndex int    `json:"rowIndex"`
	Status   string `json:"status"`
	Filename string `json:"filename"`
	Username string `json:"username"`
}

// UpdateRejected tells the sender an update was dropped. The original
// system swallowed bad updates silently; the explicit ack is a
// deliberate improvement, peers still see nothing.
type UpdateRejected struct {
	Filename string `json:"filename"`
	RowIndex int    `json:"rowIndex"`
	Reason   string `json:"reason"`
}

// Decode peels the type discriminator off a raw frame.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	return msg, nil
}
