package server

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunSweeper removes rooms that have stayed terminal for the configured
// grace period and disconnects their websocket clients. It returns when ctx
// is cancelled.
func (s *Server) RunSweeper(ctx context.Context) error {
	interval := s.cfg.SweepInterval()
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *Server) sweep(now time.Time) []string {
	removed := s.registry.Sweep(s.cfg.RoomGrace())
	for _, code := range removed {
		s.hub.CloseRoom(code)
	}
	s.limiter.prune(now, 10*time.Minute)
	if len(removed) > 0 {
		log.Info().Str("module", "server.sweeper").Int("removed", len(removed)).Msg("sweep finished")
	}
	return removed
}
