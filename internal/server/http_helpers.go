package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"voting-game/internal/auth"
	"voting-game/internal/game"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusForKind(kind game.Kind) int {
	switch kind {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindForbidden:
		return http.StatusForbidden
	case game.KindUnauthorized:
		return http.StatusUnauthorized
	case game.KindInvalidPhase, game.KindCapacityExceeded, game.KindSelfVote, game.KindValidation:
		return http.StatusBadRequest
	case game.KindConflict, game.KindDuplicateSubmission:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// classify maps any error a handler sees onto the game error taxonomy.
func classify(err error) (game.Kind, string) {
	if kind := game.KindOf(err); kind != "" {
		return kind, err.Error()
	}
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		return game.KindConflict, "email already registered"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return game.KindUnauthorized, "incorrect email or password"
	case errors.Is(err, auth.ErrInvalidToken):
		return game.KindUnauthorized, "could not validate credentials"
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrWeakPassword):
		return game.KindValidation, err.Error()
	default:
		return "", "internal server error"
	}
}

func writeError(c *gin.Context, err error) {
	kind, message := classify(err)
	if kind == "" {
		logFrom(c).Error().Err(err).Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal", Message: message})
		return
	}
	c.AbortWithStatusJSON(statusForKind(kind), errorBody{Error: string(kind), Message: message})
}

func writeKind(c *gin.Context, kind game.Kind, message string) {
	c.AbortWithStatusJSON(statusForKind(kind), errorBody{Error: string(kind), Message: message})
}
