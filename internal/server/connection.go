package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	sessionID string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	server    *Server
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, server *Server) *Connection {
	ctx, cancel := context.WithCancel(server.ctx)

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
		server: server,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.cancel()
		close(c.send)
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client. A full buffer closes the
// connection.
func (c *Connection) SendMessage(msg *Message) error {
	c.mu.RLock()
	if c.ctx.Err() != nil {
		c.mu.RUnlock()
		return ErrConnectionClosed
	}
	select {
	case c.send <- msg:
		c.mu.RUnlock()
		return nil
	default:
		c.mu.RUnlock()
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetSession associates this connection with a session
func (c *Connection) SetSession(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

// GetSession returns the associated session id
func (c *Connection) GetSession() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = errors.New("connection closed")

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "session", c.GetSession())

	switch msg.Type {
	case MessageTypeCreateSession:
		var data CreateSessionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse create session data")
			return
		}
		c.handleCreateSession(msg, data)

	case MessageTypeJoinSession:
		var data JoinSessionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse join session data")
			return
		}
		c.handleJoinSession(msg, data.SessionID)

	case MessageTypeLeaveSession:
		c.handleLeaveSession(msg)

	case MessageTypeListSessions:
		c.reply(msg, MessageTypeSessionList, SessionListData{Sessions: c.server.sessions.List()})

	case MessageTypeCommand:
		var data CommandData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse command data")
			return
		}
		c.handleCommand(msg, data)

	default:
		c.sendError(msg, "unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// reply sends data back to the client, echoing the request id of req
func (c *Connection) reply(req *Message, messageType MessageType, data any) {
	out, err := NewMessage(messageType, data, c.server.sessions.clock.Now())
	if err != nil {
		c.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	if req != nil {
		out.RequestID = req.RequestID
	}
	_ = c.SendMessage(out)
}

// sendError sends an error message to the client
func (c *Connection) sendError(req *Message, code, message string) {
	c.reply(req, MessageTypeError, ErrorData{Code: code, Message: message})
}

func (c *Connection) handleCreateSession(msg *Message, data CreateSessionData) {
	c.logger.Info("Create session request", "ruleset", data.Ruleset, "players", data.Names)

	sess, err := c.server.sessions.Create(c.ctx, data)
	if err != nil {
		c.sendError(msg, "create_failed", err.Error())
		return
	}
	c.handleJoinSession(msg, sess.ID())
}

func (c *Connection) handleJoinSession(msg *Message, id string) {
	c.leaveCurrent()
	sess, err := c.server.sessions.Join(c.ctx, id, c)
	if errors.Is(err, ErrSessionNotFound) {
		c.sendError(msg, "session_not_found", err.Error())
		return
	}
	if err != nil {
		c.sendError(msg, "join_failed", err.Error())
		return
	}
	c.SetSession(id)

	snapshot, err := sess.Snapshot()
	if err != nil {
		c.sendError(msg, "join_failed", err.Error())
		return
	}
	c.reply(msg, MessageTypeSessionJoined, sess.info())
	c.reply(nil, MessageTypeSessionState, SessionStateData{SessionID: id, Game: snapshot})
}

func (c *Connection) handleLeaveSession(msg *Message) {
	id := c.GetSession()
	if id == "" {
		c.sendError(msg, "not_in_session", "Not watching a session")
		return
	}
	c.leaveCurrent()
	c.reply(msg, MessageTypeSessionLeft, SessionLeftData{SessionID: id})
}

// leaveCurrent detaches from the watched session, if any
func (c *Connection) leaveCurrent() {
	id := c.GetSession()
	if id == "" {
		return
	}
	if sess, ok := c.server.sessions.live(id); ok {
		sess.detach(c, c.server.sessions.clock.Now())
	}
	c.SetSession("")
}

func (c *Connection) handleCommand(msg *Message, data CommandData) {
	id := data.SessionID
	if id == "" {
		id = c.GetSession()
	}
	if id == "" {
		c.sendError(msg, "not_in_session", "Join a session before sending commands")
		return
	}

	applied, snapshot, err := c.server.sessions.Apply(c.ctx, id, data.Line)
	if errors.Is(err, ErrSessionNotFound) {
		c.sendError(msg, "session_not_found", err.Error())
		return
	}
	if err != nil {
		c.sendError(msg, "command_failed", err.Error())
		return
	}

	c.reply(msg, MessageTypeCommandApplied, CommandAppliedData{SessionID: id, Command: applied})
	c.server.BroadcastState(id, snapshot)
}
