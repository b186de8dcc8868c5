package game

import (
	"time"

	"github.com/rs/zerolog/log"
)

// scheduleLocked arms the auto-advance timer for r's current phase. It is a
// no-op unless auto-advance is enabled.
func (s *Session) scheduleLocked(r *round) {
	if !s.opts.AutoAdvance || s.closed {
		return
	}
	s.stopTimerLocked()
	wait := r.deadline.Sub(s.opts.Now())
	if wait < 0 {
		wait = 0
	}
	roundID, expected := r.id, r.phase
	s.timer = time.AfterFunc(wait, func() {
		s.autoAdvance(roundID, expected)
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// autoAdvance acts as the host once a deadline passes. It goes through the
// same operations a host request would, so a phase the host already moved
// past is rejected as usual.
func (s *Session) autoAdvance(roundID string, expected RoundPhase) {
	s.mu.Lock()
	host := s.hostID
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	var err error
	switch expected {
	case PhaseAnswering:
		_, err = s.StartVoting(host, roundID)
	case PhaseVoting:
		_, err = s.EndRound(host, roundID)
	default:
		return
	}
	if err != nil {
		log.Debug().Err(err).Str("module", "game.timers").Str("room_code", s.code).Str("round_id", roundID).
			Str("phase", expected.String()).Msg("auto-advance skipped")
		return
	}
	log.Info().Str("module", "game.timers").Str("room_code", s.code).Str("round_id", roundID).
		Str("from", expected.String()).Msg("round auto-advanced")
}
