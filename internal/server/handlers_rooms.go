package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voting-game/internal/game"
)

type roomURI struct {
	Code string `uri:"code" binding:"required"`
}

type createRoomRequest struct {
	MaxPlayers  int `json:"max_players" binding:"omitempty,min=2,max=20"`
	TotalRounds int `json:"total_rounds" binding:"omitempty,min=1,max=10"`
}

type joinRoomRequest struct {
	Code string `json:"code" binding:"required,roomcode"`
}

type roomDetail struct {
	game.Snapshot
	ParticipantCount int `json:"participant_count"`
}

var createRoomMessages = bindMessages{
	"MaxPlayers":  {"min": "max_players must be between 2 and 20", "max": "max_players must be between 2 and 20"},
	"TotalRounds": {"min": "total_rounds must be between 1 and 10", "max": "total_rounds must be between 1 and 10"},
}

var joinRoomMessages = bindMessages{
	"Code": {"required": "code is required", "roomcode": "code must be 6 to 10 letters or digits"},
}

func (s *Server) lookupSession(c *gin.Context, code string) (*game.Session, bool) {
	session, err := s.registry.Lookup(code)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return session, true
}

func detail(session *game.Session) roomDetail {
	snapshot := session.Snapshot()
	return roomDetail{Snapshot: snapshot, ParticipantCount: len(snapshot.Participants)}
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if !bindJSON(c, &req, createRoomMessages, "invalid room settings") {
		return
	}
	if req.MaxPlayers == 0 {
		req.MaxPlayers = s.cfg.DefaultMaxPlayers
	}
	if req.TotalRounds == 0 {
		req.TotalRounds = s.cfg.DefaultRounds
	}
	user := currentUser(c)
	session, err := s.registry.Create(user.Identity(), req.MaxPlayers, req.TotalRounds)
	if err != nil {
		writeError(c, err)
		return
	}
	s.metrics.roomsCreated.Inc()
	c.JSON(http.StatusCreated, detail(session))
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if !bindJSON(c, &req, joinRoomMessages, "invalid join request") {
		return
	}
	session, ok := s.lookupSession(c, req.Code)
	if !ok {
		return
	}
	if _, err := session.Join(currentUser(c).Identity()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail(session))
}

func (s *Server) handleListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": s.registry.List()})
}

func (s *Server) handleGetRoom(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	session, ok := s.lookupSession(c, uri.Code)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, detail(session))
}

func (s *Server) handleLeaveRoom(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	session, ok := s.lookupSession(c, uri.Code)
	if !ok {
		return
	}
	if err := session.Leave(currentUser(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left room successfully"})
}
