package server

import (
	"bytes"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"voting-game/internal/auth"
	"voting-game/internal/config"
	"voting-game/internal/game"
	"voting-game/internal/web"
)

// Deps are the collaborators a Server routes requests to. Hub and Metrics
// are optional.
type Deps struct {
	Config   config.Config
	Registry *game.Registry
	Auth     *auth.Service
	Hub      *Hub
	Metrics  *Metrics
}

type Server struct {
	cfg      config.Config
	registry *game.Registry
	auth     *auth.Service
	hub      *Hub
	metrics  *Metrics
	limiter  *rateLimiter
	upgrader websocket.Upgrader
	engine   *gin.Engine
}

func New(deps Deps) *Server {
	registerValidators()
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	hub := deps.Hub
	if hub == nil {
		hub = NewHub(metrics)
	}
	s := &Server{
		cfg:      deps.Config,
		registry: deps.Registry,
		auth:     deps.Auth,
		hub:      hub,
		metrics:  metrics,
		limiter:  newRateLimiter(deps.Config.RateLimitPerSecond, deps.Config.RateLimitBurst),
	}
	s.upgrader = s.newUpgrader()
	metrics.trackRegistry(deps.Registry)
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), s.metrics.middleware())
	corsConfig := cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Origin"},
		AllowCredentials: true,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOriginFunc = func(string) bool { return false }
	}
	r.Use(cors.New(corsConfig))

	r.GET("/", s.handleHome)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "rooms": s.registry.Len()})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.handler()))

	authGroup := r.Group("/api/auth")
	authGroup.POST("/register", s.limiter.middleware("register"), s.handleRegister)
	authGroup.POST("/login", s.limiter.middleware("login"), s.handleLogin)
	authGroup.POST("/logout", s.handleLogout)
	authGroup.GET("/me", s.requireUser(), s.handleMe)

	rooms := r.Group("/api/rooms", s.requireUser())
	rooms.GET("", s.handleListRooms)
	rooms.POST("", s.limiter.middleware("create"), s.handleCreateRoom)
	rooms.POST("/join", s.limiter.middleware("join"), s.handleJoinRoom)
	rooms.GET("/:code", s.handleGetRoom)
	rooms.DELETE("/:code/leave", s.handleLeaveRoom)

	games := r.Group("/api/game/:code", s.requireUser())
	games.POST("/start", s.handleStartGame)
	games.POST("/next", s.handleNextRound)
	games.POST("/advance", s.handleAdvance)
	games.GET("/leaderboard", s.handleLeaderboard)
	games.GET("/rounds/current", s.handleCurrentRound)
	games.POST("/rounds/:round_id/answer", s.handleSubmitAnswer)
	games.GET("/rounds/:round_id/answers", s.handleAnswers)
	games.POST("/rounds/:round_id/voting", s.handleStartVoting)
	games.POST("/rounds/:round_id/vote", s.handleSubmitVote)
	games.POST("/rounds/:round_id/end", s.handleEndRound)
	games.GET("/rounds/:round_id/results", s.handleResults)

	r.GET("/ws/rooms/:code", s.requireUser(), s.handleRoomSocket)
	return r
}

func (s *Server) handleHome(c *gin.Context) {
	cards := lo.Map(s.registry.List(), func(summary game.Summary, _ int) web.RoomCard {
		return web.RoomCard{
			Code:         summary.Code,
			Status:       string(summary.Status),
			Players:      summary.Players,
			MaxPlayers:   summary.Capacity,
			CurrentRound: summary.CurrentRound,
			TotalRounds:  summary.TotalRounds,
		}
	})
	var buf bytes.Buffer
	if err := web.Home(cards).Render(c.Request.Context(), &buf); err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
