package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"voting-game/internal/auth"
	"voting-game/internal/game"
)

// wsCommand is a client-to-server frame. Every command is answered with an
// "ack" frame sent to the caller only.
type wsCommand struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

type wsAck struct {
	RequestID string `json:"request_id,omitempty"`
	Command   string `json:"command"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Result    any    `json:"result,omitempty"`
}

type roundCommand struct {
	RoundID  string `json:"round_id"`
	Content  string `json:"content"`
	AnswerID string `json:"answer_id"`
	Target   string `json:"target"`
}

func (s *Server) newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if slices.Contains(s.cfg.AllowedOrigins, origin) {
				return true
			}
			parsed, err := url.Parse(origin)
			return err == nil && strings.EqualFold(parsed.Host, r.Host)
		},
	}
}

func (s *Server) handleRoomSocket(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	session, err := s.registry.Lookup(uri.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	user := currentUser(c)
	if !session.IsMember(user.ID) {
		writeKind(c, game.KindForbidden, "join the room before subscribing to it")
		return
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logFrom(c).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &wsClient{room: session.Code(), userID: user.ID, send: make(chan []byte, sendBuffer)}
	s.hub.add(client)
	s.hub.sendTo(client, EventRoomSnapshot, session.Snapshot())
	log.Info().Str("module", "server.ws").Str("room_code", client.room).Str("user_id", user.ID).Msg("ws connected")

	go s.hub.writePump(conn, client)
	go s.readPump(conn, client, user)
}

func (s *Server) readPump(conn *websocket.Conn, client *wsClient, user auth.User) {
	defer func() {
		s.hub.remove(client)
		_ = conn.Close()
		log.Info().Str("module", "server.ws").Str("room_code", client.room).Str("user_id", user.ID).Msg("ws disconnected")
	}()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("module", "server.ws").Str("room_code", client.room).Msg("ws read failed")
			}
			return
		}
		var cmd wsCommand
		if err := json.Unmarshal(payload, &cmd); err != nil || cmd.Type == "" {
			s.hub.sendTo(client, "ack", wsAck{Command: cmd.Type, Error: string(game.KindValidation), Message: "malformed command"})
			continue
		}
		s.hub.sendTo(client, "ack", s.dispatch(client.room, user, cmd))
	}
}

// dispatch runs one websocket command through the same session operations
// the HTTP handlers use.
func (s *Server) dispatch(roomCode string, user auth.User, cmd wsCommand) wsAck {
	ack := wsAck{RequestID: cmd.RequestID, Command: cmd.Type}
	var args roundCommand
	if len(cmd.Data) > 0 {
		if err := json.Unmarshal(cmd.Data, &args); err != nil {
			ack.Error, ack.Message = string(game.KindValidation), "malformed command data"
			return ack
		}
	}
	session, err := s.registry.Lookup(roomCode)
	if err != nil {
		return failAck(ack, err)
	}

	var result any
	switch cmd.Type {
	case "ping":
		result = gin.H{"pong": true}
	case "leave_room":
		err = session.Leave(user.ID)
	case "start_game":
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.QuestionTimeout()+5*time.Second)
		result, err = session.StartGame(ctx, user.ID)
		cancel()
	case "submit_answer":
		result, err = session.SubmitAnswer(args.RoundID, user.ID, args.Content)
	case "start_voting":
		result, err = session.StartVoting(user.ID, args.RoundID)
	case "submit_vote":
		result, err = session.SubmitVote(args.RoundID, user.ID, args.AnswerID)
	case "end_round":
		result, err = session.EndRound(user.ID, args.RoundID)
	case "next_round":
		result, err = session.NextRound(user.ID)
	case "advance":
		result, err = session.AdvancePhase(user.ID, args.RoundID, game.RoundPhase(strings.ToLower(args.Target)))
	default:
		ack.Error, ack.Message = string(game.KindValidation), "unknown command "+cmd.Type
		return ack
	}
	if err != nil {
		return failAck(ack, err)
	}
	ack.OK = true
	ack.Result = result
	return ack
}

func failAck(ack wsAck, err error) wsAck {
	kind, message := classify(err)
	if kind == "" {
		kind = "internal"
	}
	ack.Error, ack.Message = string(kind), message
	return ack
}
