package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"voting-game/internal/auth"
	"voting-game/internal/game"
)

const (
	accessTokenCookie = "access_token"
	userKey           = "user"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	User        auth.User `json:"user"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Message     string    `json:"message"`
}

var registerMessages = bindMessages{
	"Email":    {"required": "email is required", "email": "email is invalid"},
	"Username": {"required": "username is required", "min": "username must be at least 3 characters", "max": "username must be at most 100 characters"},
	"Password": {"required": "password is required", "min": "password must be at least 6 characters"},
}

// requestToken finds the access token in the cookie, the Authorization
// header or, for websocket handshakes, the token query parameter.
func requestToken(c *gin.Context) string {
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return c.Query("token")
}

func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := requestToken(c)
		if token == "" {
			writeKind(c, game.KindUnauthorized, "not authenticated")
			return
		}
		user, err := s.auth.Resolve(c.Request.Context(), token)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) auth.User {
	if value, ok := c.Get(userKey); ok {
		if user, ok := value.(auth.User); ok {
			return user
		}
	}
	return auth.User{}
}

func (s *Server) setTokenCookie(c *gin.Context, token string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, token, maxAge, "/", "", s.cfg.CookieSecure, true)
}

func (s *Server) issue(c *gin.Context, user auth.User, status int, message string) {
	token, err := s.auth.IssueToken(user)
	if err != nil {
		writeError(c, err)
		return
	}
	s.setTokenCookie(c, token, int(s.cfg.TokenTTL().Seconds()))
	c.JSON(status, authResponse{User: user, AccessToken: token, TokenType: "bearer", Message: message})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req, registerMessages, "invalid registration") {
		return
	}
	user, err := s.auth.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	s.issue(c, user, http.StatusCreated, "Registration successful")
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, nil, "email and password are required") {
		return
	}
	user, err := s.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	s.issue(c, user, http.StatusOK, "Login successful")
}

func (s *Server) handleLogout(c *gin.Context) {
	s.setTokenCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}
