package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voting-game/internal/game"
)

type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dialRoom(t *testing.T, ts *httptest.Server, user testUser, code string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rooms/" + code + "?token=" + user.Token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Skipf("skipping test; websocket dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readWSFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame wsFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

// readWSMessageType reads frames until one of the wanted type arrives.
func readWSMessageType(t *testing.T, conn *websocket.Conn, want string) wsFrame {
	t.Helper()
	for i := 0; i < 20; i++ {
		frame := readWSFrame(t, conn)
		if frame.Type == want {
			return frame
		}
	}
	t.Fatalf("no %s message received", want)
	return wsFrame{}
}

func expectNoWSMessage(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("unexpected message: %s", data)
	}
}

func TestSocketSendsSnapshotOnConnect(t *testing.T) {
	app := newTestApp(t, testConfig())
	host := registerUser(t, app.ts, "host@example.com", "hosty")
	code := createRoom(t, app.ts, host, 4, 2)

	conn := dialRoom(t, app.ts, host, code)
	frame := readWSFrame(t, conn)
	require.Equal(t, EventRoomSnapshot, frame.Type)
	var snapshot game.Snapshot
	require.NoError(t, json.Unmarshal(frame.Data, &snapshot))
	assert.Equal(t, code, snapshot.Code)
	assert.Equal(t, game.StatusWaiting, snapshot.Status)
	assert.Equal(t, 1, app.hub.Subscribers(code))
	expectNoWSMessage(t, conn)
}

func TestSocketRejectsOutsiders(t *testing.T) {
	app := newTestApp(t, testConfig())
	host := registerUser(t, app.ts, "host@example.com", "hosty")
	outsider := registerUser(t, app.ts, "out@example.com", "outsider")
	code := createRoom(t, app.ts, host, 4, 2)

	wsURL := "ws" + strings.TrimPrefix(app.ts.URL, "http") + "/ws/rooms/" + code + "?token=" + outsider.Token
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	if resp == nil {
		t.Skip("skipping test; no handshake response")
	}
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(strings.Replace(wsURL, outsider.Token, "", 1), nil)
	require.Error(t, err)
	if resp != nil {
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestSocketReceivesRoomEvents(t *testing.T) {
	app := newTestApp(t, testConfig())
	host := registerUser(t, app.ts, "host@example.com", "hosty")
	bob := registerUser(t, app.ts, "bob@example.com", "bobby")
	code := createRoom(t, app.ts, host, 4, 1)

	conn := dialRoom(t, app.ts, host, code)
	readWSMessageType(t, conn, EventRoomSnapshot)

	joinRoom(t, app.ts, bob, code)
	frame := readWSMessageType(t, conn, game.EventParticipantChanged)
	var changed game.ParticipantChanged
	require.NoError(t, json.Unmarshal(frame.Data, &changed))
	assert.Equal(t, "joined", changed.Action)
	assert.Equal(t, bob.ID, changed.UserID)
	assert.Equal(t, 2, changed.Count)

	roundID := startGame(t, app.ts, host, code)
	frame = readWSMessageType(t, conn, game.EventGameStarted)
	var started game.GameStarted
	require.NoError(t, json.Unmarshal(frame.Data, &started))
	assert.Equal(t, roundID, started.RoundID)
	assert.Equal(t, 1, started.TotalRounds)
	readWSMessageType(t, conn, game.EventRoundStarted)

	submitAnswer(t, app.ts, bob, code, roundID, "a secret answer")
	frame = readWSMessageType(t, conn, game.EventAnswerSubmitted)
	var submitted game.AnswerSubmitted
	require.NoError(t, json.Unmarshal(frame.Data, &submitted))
	assert.Equal(t, 1, submitted.SubmittedCount)
	assert.NotContains(t, string(frame.Data), "a secret answer")
}

func TestSocketCommandsAreAcked(t *testing.T) {
	app := newTestApp(t, testConfig())
	host := registerUser(t, app.ts, "host@example.com", "hosty")
	bob := registerUser(t, app.ts, "bob@example.com", "bobby")
	code := createRoom(t, app.ts, host, 4, 1)
	joinRoom(t, app.ts, bob, code)

	hostConn := dialRoom(t, app.ts, host, code)
	readWSMessageType(t, hostConn, EventRoomSnapshot)
	bobConn := dialRoom(t, app.ts, bob, code)
	readWSMessageType(t, bobConn, EventRoomSnapshot)

	send := func(conn *websocket.Conn, cmd map[string]any) wsAck {
		t.Helper()
		require.NoError(t, conn.WriteJSON(cmd))
		frame := readWSMessageType(t, conn, "ack")
		var ack wsAck
		require.NoError(t, json.Unmarshal(frame.Data, &ack))
		return ack
	}

	ack := send(bobConn, map[string]any{"type": "ping", "request_id": "r1"})
	assert.True(t, ack.OK)
	assert.Equal(t, "r1", ack.RequestID)

	ack = send(bobConn, map[string]any{"type": "start_game", "request_id": "r2"})
	assert.False(t, ack.OK)
	assert.Equal(t, string(game.KindForbidden), ack.Error)

	ack = send(bobConn, map[string]any{"type": "dance"})
	assert.False(t, ack.OK)
	assert.Equal(t, string(game.KindValidation), ack.Error)

	ack = send(hostConn, map[string]any{"type": "start_game", "request_id": "r3"})
	require.True(t, ack.OK, ack.Message)
	session, err := app.registry.Lookup(code)
	require.NoError(t, err)
	current, ok := session.CurrentRound()
	require.True(t, ok)

	ack = send(bobConn, map[string]any{
		"type": "submit_answer",
		"data": map[string]string{"round_id": current.ID, "content": "over the socket"},
	})
	require.True(t, ack.OK, ack.Message)
	readWSMessageType(t, hostConn, game.EventAnswerSubmitted)

	ack = send(bobConn, map[string]any{
		"type": "submit_answer",
		"data": map[string]string{"round_id": current.ID, "content": "twice"},
	})
	assert.Equal(t, string(game.KindDuplicateSubmission), ack.Error)
}

func TestSweeperClosesRoomSockets(t *testing.T) {
	cfg := testConfig()
	cfg.RoomGraceSeconds = 0
	app := newTestApp(t, cfg)
	host := registerUser(t, app.ts, "host@example.com", "hosty")
	keep := createRoom(t, app.ts, host, 4, 1)
	code := createRoom(t, app.ts, host, 4, 1)

	conn := dialRoom(t, app.ts, host, code)
	readWSMessageType(t, conn, EventRoomSnapshot)

	resp := doRequest(t, app.ts, host.Token, http.MethodDelete, "/api/rooms/"+code+"/leave", nil)
	expectStatus(t, resp, http.StatusOK)

	removed := app.srv.sweep(time.Now())
	assert.Equal(t, []string{code}, removed)
	assert.Equal(t, 0, app.hub.Subscribers(code))
	_, err := app.registry.Lookup(keep)
	assert.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
