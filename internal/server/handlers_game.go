package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"voting-game/internal/game"
)

type roundURI struct {
	Code    string `uri:"code" binding:"required"`
	RoundID string `uri:"round_id" binding:"required"`
}

type answerRequest struct {
	Content string `json:"content" binding:"required,answer"`
}

type voteRequest struct {
	AnswerID string `json:"answer_id" binding:"required"`
}

type advanceRequest struct {
	RoundID string `json:"round_id" binding:"required"`
	Target  string `json:"target" binding:"required,phase"`
}

var answerMessages = bindMessages{
	"Content": {"required": "answer content is required", "answer": "answer must be 1 to 500 characters"},
}

var advanceMessages = bindMessages{
	"RoundID": {"required": "round_id is required"},
	"Target":  {"required": "target is required", "phase": "target is not a round phase"},
}

func (s *Server) roomFromURI(c *gin.Context) (*game.Session, bool) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return nil, false
	}
	return s.lookupSession(c, uri.Code)
}

func (s *Server) roundFromURI(c *gin.Context) (*game.Session, string, bool) {
	var uri roundURI
	if !bindURI(c, &uri) {
		return nil, "", false
	}
	session, ok := s.lookupSession(c, uri.Code)
	return session, uri.RoundID, ok
}

func (s *Server) handleStartGame(c *gin.Context) {
	session, ok := s.roomFromURI(c)
	if !ok {
		return
	}
	// The question source gets its own deadline inside StartGame; this one
	// only guards against a client that went away.
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.QuestionTimeout()+5*time.Second)
	defer cancel()
	round, err := session.StartGame(ctx, currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Game started", "room_code": session.Code(), "round": round})
}

func (s *Server) handleNextRound(c *gin.Context) {
	session, ok := s.roomFromURI(c)
	if !ok {
		return
	}
	round, err := session.NextRound(currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

func (s *Server) handleAdvance(c *gin.Context) {
	session, ok := s.roomFromURI(c)
	if !ok {
		return
	}
	var req advanceRequest
	if !bindJSON(c, &req, advanceMessages, "invalid advance request") {
		return
	}
	round, err := session.AdvancePhase(currentUser(c).ID, req.RoundID, game.RoundPhase(strings.ToLower(req.Target)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	session, ok := s.roomFromURI(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": session.Leaderboard()})
}

func (s *Server) handleCurrentRound(c *gin.Context) {
	session, ok := s.roomFromURI(c)
	if !ok {
		return
	}
	round, found := session.CurrentRound()
	if !found {
		writeKind(c, game.KindNotFound, "no round has started")
		return
	}
	c.JSON(http.StatusOK, round)
}

func (s *Server) handleSubmitAnswer(c *gin.Context) {
	session, roundID, ok := s.roundFromURI(c)
	if !ok {
		return
	}
	var req answerRequest
	if !bindJSON(c, &req, answerMessages, "invalid answer") {
		return
	}
	answer, err := session.SubmitAnswer(roundID, currentUser(c).ID, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, game.BallotEntry{AnswerID: answer.ID, Content: answer.Content, IsOwnAnswer: true})
}

func (s *Server) handleAnswers(c *gin.Context) {
	session, roundID, ok := s.roundFromURI(c)
	if !ok {
		return
	}
	ballot, err := session.Ballot(roundID, currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ballot)
}

func (s *Server) handleStartVoting(c *gin.Context) {
	session, roundID, ok := s.roundFromURI(c)
	if !ok {
		return
	}
	round, err := session.StartVoting(currentUser(c).ID, roundID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

func (s *Server) handleSubmitVote(c *gin.Context) {
	session, roundID, ok := s.roundFromURI(c)
	if !ok {
		return
	}
	var req voteRequest
	if !bindJSON(c, &req, bindMessages{"AnswerID": {"required": "answer_id is required"}}, "invalid vote") {
		return
	}
	vote, err := session.SubmitVote(roundID, currentUser(c).ID, req.AnswerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Vote submitted", "vote_id": vote.ID})
}

func (s *Server) handleEndRound(c *gin.Context) {
	session, roundID, ok := s.roundFromURI(c)
	if !ok {
		return
	}
	round, err := session.EndRound(currentUser(c).ID, roundID)
	if err != nil {
		writeError(c, err)
		return
	}
	results, err := session.Results(roundID, currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"round":       round,
		"results":     results,
		"leaderboard": session.Leaderboard(),
		"is_final":    round.Number == session.Snapshot().TotalRounds,
	})
}

func (s *Server) handleResults(c *gin.Context) {
	session, roundID, ok := s.roundFromURI(c)
	if !ok {
		return
	}
	results, err := session.Results(roundID, currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"round_id": roundID, "results": results})
}
