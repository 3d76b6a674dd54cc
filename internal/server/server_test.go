package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/seat"
	"github.com/lox/riichibook/internal/store"
)

func startTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	sessions := NewSessions(store.NewMemoryStore(), testLogger)
	srv := NewServer("127.0.0.1:0", sessions, testLogger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		_ = srv.Stop()
		ts.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, requestID string, mt MessageType, data any) {
	t.Helper()
	msg, err := NewMessage(mt, data, time.Now())
	require.NoError(t, err)
	msg.RequestID = requestID
	require.NoError(t, conn.WriteJSON(msg))
}

func receive(t *testing.T, conn *websocket.Conn, want MessageType) *Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, want, msg.Type, "payload: %s", msg.Data)
	return &msg
}

func decode[T any](t *testing.T, msg *Message) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(msg.Data, &out))
	return out
}

func receiveGame(t *testing.T, conn *websocket.Conn) (string, *game.Game) {
	t.Helper()
	state := decode[SessionStateData](t, receive(t, conn, MessageTypeSessionState))
	g, err := game.Unmarshal(state.Game)
	require.NoError(t, err)
	return state.SessionID, g
}

func TestServerHealth(t *testing.T) {
	t.Parallel()
	srv := NewServer("", NewSessions(store.NewMemoryStore(), testLogger), testLogger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestCreateAndPlayOverWebSocket(t *testing.T) {
	t.Parallel()
	_, ts := startTestServer(t)

	recorder := dial(t, ts)
	send(t, recorder, "req-1", MessageTypeCreateSession, CreateSessionData{Names: fourNames})
	joined := receive(t, recorder, MessageTypeSessionJoined)
	assert.Equal(t, "req-1", joined.RequestID)
	info := decode[SessionInfo](t, joined)
	assert.Equal(t, fourNames, info.Players)
	assert.Equal(t, 1, info.Watchers)
	id, g := receiveGame(t, recorder)
	assert.Equal(t, info.ID, id)
	assert.True(t, g.IsNotStarted())

	watcher := dial(t, ts)
	send(t, watcher, "", MessageTypeJoinSession, JoinSessionData{SessionID: id})
	assert.Equal(t, 2, decode[SessionInfo](t, receive(t, watcher, MessageTypeSessionJoined)).Watchers)
	receiveGame(t, watcher)

	for _, line := range []string{"start", "deal", "tsumo dan mangan"} {
		send(t, recorder, line, MessageTypeCommand, CommandData{Line: line})
		applied := receive(t, recorder, MessageTypeCommandApplied)
		assert.Equal(t, line, applied.RequestID)
		assert.True(t, strings.EqualFold(line, decode[CommandAppliedData](t, applied).Command))
		receiveGame(t, recorder)
		receiveGame(t, watcher)
	}

	_, g = receiveGameAfter(t, watcher, recorder, "next")
	assert.Equal(t, "E2-0", g.CurrentHand().Signature())
	assert.Equal(t, 25000-4000, g.PlayerPoints(seat.East))
	assert.Equal(t, 25000-2000, g.PlayerPoints(seat.South))
	assert.Equal(t, 25000+8000, g.PlayerPoints(seat.North))
}

// receiveGameAfter sends line from the recorder and returns the state seen by the watcher.
func receiveGameAfter(t *testing.T, watcher, recorder *websocket.Conn, line string) (string, *game.Game) {
	t.Helper()
	send(t, recorder, "", MessageTypeCommand, CommandData{Line: line})
	receive(t, recorder, MessageTypeCommandApplied)
	receiveGame(t, recorder)
	return receiveGame(t, watcher)
}

func TestCommandErrors(t *testing.T) {
	t.Parallel()
	_, ts := startTestServer(t)
	conn := dial(t, ts)

	send(t, conn, "early", MessageTypeCommand, CommandData{Line: "start"})
	errMsg := receive(t, conn, MessageTypeError)
	assert.Equal(t, "early", errMsg.RequestID)
	assert.Equal(t, "not_in_session", decode[ErrorData](t, errMsg).Code)

	send(t, conn, "", MessageTypeJoinSession, JoinSessionData{SessionID: "missing"})
	assert.Equal(t, "session_not_found", decode[ErrorData](t, receive(t, conn, MessageTypeError)).Code)

	send(t, conn, "", MessageTypeCreateSession, CreateSessionData{Names: []string{"solo"}})
	assert.Equal(t, "create_failed", decode[ErrorData](t, receive(t, conn, MessageTypeError)).Code)

	send(t, conn, "", MessageTypeCreateSession, CreateSessionData{Names: fourNames})
	receive(t, conn, MessageTypeSessionJoined)
	receiveGame(t, conn)

	send(t, conn, "", MessageTypeCommand, CommandData{Line: "deal"})
	failed := decode[ErrorData](t, receive(t, conn, MessageTypeError))
	assert.Equal(t, "command_failed", failed.Code)
	assert.Contains(t, failed.Message, "illegal state transition")

	send(t, conn, "", MessageType("shuffle"), nil)
	assert.Equal(t, "unknown_message_type", decode[ErrorData](t, receive(t, conn, MessageTypeError)).Code)
}

func TestListAndLeaveSessions(t *testing.T) {
	t.Parallel()
	srv, ts := startTestServer(t)
	conn := dial(t, ts)

	send(t, conn, "", MessageTypeCreateSession, CreateSessionData{Names: fourNames})
	info := decode[SessionInfo](t, receive(t, conn, MessageTypeSessionJoined))
	receiveGame(t, conn)

	send(t, conn, "", MessageTypeListSessions, nil)
	list := decode[SessionListData](t, receive(t, conn, MessageTypeSessionList))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, info.ID, list.Sessions[0].ID)
	assert.Equal(t, game.NotStarted, list.Sessions[0].State)

	send(t, conn, "", MessageTypeLeaveSession, nil)
	assert.Equal(t, info.ID, decode[SessionLeftData](t, receive(t, conn, MessageTypeSessionLeft)).SessionID)
	assert.Equal(t, 0, srv.sessions.List()[0].Watchers)

	send(t, conn, "", MessageTypeLeaveSession, nil)
	receive(t, conn, MessageTypeError)

	resp, err := http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Live sessions: 1")
	assert.Contains(t, string(body), info.ID+" mleague not_started E1-0 watchers=0")
}

func TestDisconnectDetachesWatcher(t *testing.T) {
	t.Parallel()
	srv, ts := startTestServer(t)
	conn := dial(t, ts)

	send(t, conn, "", MessageTypeCreateSession, CreateSessionData{Names: fourNames})
	receive(t, conn, MessageTypeSessionJoined)
	receiveGame(t, conn)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		infos := srv.sessions.List()
		return len(infos) == 1 && infos[0].Watchers == 0
	}, 2*time.Second, 10*time.Millisecond)
}
