package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const loggerKey = "logger"

// requestLogger attaches a request-scoped logger and logs each request once
// it completes.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		logger := log.With().Str("module", "server").Str("request_id", requestID).Logger()
		c.Set(loggerKey, &logger)
		c.Header("X-Request-ID", requestID)

		c.Next()

		event := logger.Info()
		if c.Writer.Status() >= 500 {
			event = logger.Error()
		}
		event.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

func logFrom(c *gin.Context) *zerolog.Logger {
	if value, ok := c.Get(loggerKey); ok {
		if logger, ok := value.(*zerolog.Logger); ok {
			return logger
		}
	}
	logger := log.With().Str("module", "server").Logger()
	return &logger
}
