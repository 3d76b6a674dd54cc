package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeCreateSession MessageType = "create_session"
	MessageTypeJoinSession   MessageType = "join_session"
	MessageTypeLeaveSession  MessageType = "leave_session"
	MessageTypeListSessions  MessageType = "list_sessions"
	MessageTypeCommand       MessageType = "command"

	// Server to client messages
	MessageTypeError          MessageType = "error"
	MessageTypeSessionJoined  MessageType = "session_joined"
	MessageTypeSessionLeft    MessageType = "session_left"
	MessageTypeSessionList    MessageType = "session_list"
	MessageTypeSessionState   MessageType = "session_state"
	MessageTypeCommandApplied MessageType = "command_applied"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
