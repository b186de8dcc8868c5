package game

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type member struct {
	Identity
	order   int
	present bool
}

// Session is the authority for one room. Every state change runs under mu;
// events and records are handed off only after mu is released.
type Session struct {
	mu          sync.Mutex
	// pubMu is taken before mu is released so effects leave in commit order.
	pubMu       sync.Mutex
	opts        *Options
	code        string
	hostID      string
	capacity    int
	totalRounds int
	status      RoomStatus
	createdAt   time.Time
	idleSince   time.Time
	members     []*member
	byUser      map[string]*member
	prompts     []string
	rounds      []*round
	ledger      *Ledger
	timer       *time.Timer
	closed      bool
}

func newSession(code string, host Identity, capacity, totalRounds int, opts *Options) *Session {
	now := opts.Now()
	s := &Session{
		opts:        opts,
		code:        code,
		hostID:      host.ID,
		capacity:    capacity,
		totalRounds: totalRounds,
		status:      StatusWaiting,
		createdAt:   now,
		byUser:      make(map[string]*member),
		ledger:      NewLedger(),
	}
	s.addMemberLocked(host)
	return s
}

func (s *Session) Code() string {
	return s.code
}

func (s *Session) HostID() string {
	return s.hostID
}

// apply runs fn under the session lock and, when it succeeds, publishes
// whatever fn queued. Records and notices of one session are handed off in
// the order their operations committed.
func (s *Session) apply(fn func(fx *effects) error) error {
	var fx effects
	s.mu.Lock()
	if err := fn(&fx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pubMu.Lock()
	s.mu.Unlock()
	s.flush(fx)
	s.pubMu.Unlock()

	for _, roundID := range fx.opened {
		s.openAnswering(roundID)
	}
	return nil
}

// flush must run with pubMu held.
func (s *Session) flush(fx effects) {
	for _, rec := range fx.records {
		s.opts.Recorder.Record(rec)
	}
	for _, n := range fx.notices {
		s.publish(n)
	}
}

func (s *Session) publish(n notice) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "game.session").Str("room_code", s.code).Str("event", n.event).
				Interface("panic", r).Msg("publisher panicked")
		}
	}()
	if err := s.opts.Publisher.Publish(s.code, n.event, n.payload); err != nil {
		log.Warn().Err(err).Str("module", "game.session").Str("room_code", s.code).Str("event", n.event).
			Msg("publish failed")
	}
}

func (s *Session) addMemberLocked(user Identity) *member {
	m := &member{Identity: user, order: len(s.members), present: true}
	s.members = append(s.members, m)
	s.byUser[user.ID] = m
	return m
}

func (s *Session) presentCountLocked() int {
	count := 0
	for _, m := range s.members {
		if m.present {
			count++
		}
	}
	return count
}

func (s *Session) participantsLocked() []Participant {
	participants := make([]Participant, 0, len(s.members))
	for _, m := range s.members {
		if !m.present {
			continue
		}
		participants = append(participants, s.participantLocked(m))
	}
	return participants
}

func (s *Session) participantLocked(m *member) Participant {
	return Participant{
		UserID:      m.ID,
		DisplayName: m.DisplayName,
		IsHost:      m.ID == s.hostID,
		JoinOrder:   m.order,
	}
}

func (s *Session) rosterLocked() Roster {
	participants := s.participantsLocked()
	return Roster{
		Code:         s.code,
		Participants: participants,
		Count:        len(participants),
		Capacity:     s.capacity,
	}
}

func (s *Session) displayNameLocked(userID string) string {
	if m, ok := s.byUser[userID]; ok {
		return m.DisplayName
	}
	return ""
}

func (s *Session) currentRoundLocked() *round {
	if len(s.rounds) == 0 {
		return nil
	}
	return s.rounds[len(s.rounds)-1]
}

func (s *Session) roundLocked(roundID string) (*round, error) {
	for _, r := range s.rounds {
		if r.id == roundID {
			return r, nil
		}
	}
	return nil, newError(KindNotFound, "round not found")
}

func (s *Session) requireHostLocked(by string) error {
	if by == "" || by != s.hostID {
		return newError(KindForbidden, "only the host can perform this action")
	}
	return nil
}

func (s *Session) requirePresentLocked(userID string) error {
	if m, ok := s.byUser[userID]; ok && m.present {
		return nil
	}
	return newError(KindForbidden, "not a participant in this room")
}

func (s *Session) roomRecordLocked() RoomRecord {
	prompts := make([]string, len(s.prompts))
	copy(prompts, s.prompts)
	return RoomRecord{
		Code:         s.code,
		HostID:       s.hostID,
		Capacity:     s.capacity,
		TotalRounds:  s.totalRounds,
		Status:       s.status,
		CurrentRound: len(s.rounds),
		Prompts:      prompts,
		At:           s.opts.Now(),
	}
}

func (s *Session) setStatusLocked(next RoomStatus, fx *effects) error {
	if !s.status.CanTransitionTo(next) {
		return newError(KindInvalidPhase, "room cannot move from %s to %s", s.status, next)
	}
	s.status = next
	if next.Terminal() && s.idleSince.IsZero() {
		s.idleSince = s.opts.Now()
	}
	fx.record(s.roomRecordLocked())
	return nil
}

// Join adds user to the roster. Joining twice returns the current roster
// unchanged. Once the game is running only departed members may come back.
func (s *Session) Join(user Identity) (Roster, error) {
	if strings.TrimSpace(user.ID) == "" {
		return Roster{}, newError(KindValidation, "user id is required")
	}
	var roster Roster
	err := s.apply(func(fx *effects) error {
		m, known := s.byUser[user.ID]
		if known && m.present {
			roster = s.rosterLocked()
			return nil
		}
		switch s.status {
		case StatusWaiting:
		case StatusActive:
			if !known {
				return newError(KindConflict, "room is not accepting new players")
			}
		case StatusFinished:
			return newError(KindConflict, "game has finished")
		}
		if s.presentCountLocked() >= s.capacity {
			return newError(KindCapacityExceeded, "room is full")
		}
		if known {
			m.present = true
			if user.DisplayName != "" {
				m.DisplayName = user.DisplayName
			}
		} else {
			m = s.addMemberLocked(user)
		}
		if !s.status.Terminal() {
			s.idleSince = time.Time{}
		}
		roster = s.rosterLocked()
		fx.record(MemberRecord{Code: s.code, UserID: m.ID, DisplayName: m.DisplayName, Present: true, At: s.opts.Now()})
		fx.emit(EventParticipantChanged, ParticipantChanged{
			Action:       "joined",
			UserID:       m.ID,
			DisplayName:  m.DisplayName,
			Participants: roster.Participants,
			Count:        roster.Count,
		})
		return nil
	})
	if err != nil {
		return Roster{}, err
	}
	return roster, nil
}

// Leave removes userID from the roster. Answers, votes and points stay.
func (s *Session) Leave(userID string) error {
	return s.apply(func(fx *effects) error {
		m, ok := s.byUser[userID]
		if !ok || !m.present {
			return nil
		}
		m.present = false
		roster := s.rosterLocked()
		if roster.Count == 0 && s.idleSince.IsZero() {
			s.idleSince = s.opts.Now()
		}
		fx.record(MemberRecord{Code: s.code, UserID: m.ID, DisplayName: m.DisplayName, Present: false, At: s.opts.Now()})
		fx.emit(EventParticipantChanged, ParticipantChanged{
			Action:       "left",
			UserID:       m.ID,
			DisplayName:  m.DisplayName,
			Participants: roster.Participants,
			Count:        roster.Count,
		})
		return nil
	})
}

// StartGame draws every prompt for the game, moves the room to ACTIVE and
// starts round 1. The draw happens outside the lock; the commit re-checks
// the status so concurrent starts cannot both succeed.
func (s *Session) StartGame(ctx context.Context, by string) (Round, error) {
	s.mu.Lock()
	err := s.canStartLocked(by)
	count := s.totalRounds
	s.mu.Unlock()
	if err != nil {
		return Round{}, err
	}

	prompts := s.drawPrompts(ctx, count)

	var started Round
	err = s.apply(func(fx *effects) error {
		if err := s.canStartLocked(by); err != nil {
			return err
		}
		s.prompts = prompts
		if err := s.setStatusLocked(StatusActive, fx); err != nil {
			return err
		}
		r := s.beginRoundLocked(fx)
		started = r.view()
		fx.emit(EventGameStarted, GameStarted{
			RoundID:     r.id,
			RoundNumber: r.number,
			Question:    r.prompt,
			Deadline:    r.deadline,
			TimeLimit:   int(s.opts.AnswerDuration / time.Second),
			TotalRounds: s.totalRounds,
			Status:      s.status,
		})
		s.announceRoundLocked(r, fx)
		return nil
	})
	if err != nil {
		return Round{}, err
	}
	log.Info().Str("module", "game.session").Str("room_code", s.code).Int("rounds", count).Msg("game started")
	return s.Round(started.ID)
}

func (s *Session) canStartLocked(by string) error {
	if err := s.requireHostLocked(by); err != nil {
		return err
	}
	if s.status != StatusWaiting {
		return newError(KindInvalidPhase, "game already started or finished")
	}
	return nil
}

func (s *Session) drawPrompts(ctx context.Context, count int) []string {
	if s.opts.Questions == nil {
		return padPrompts(nil, count)
	}
	if s.opts.QuestionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.QuestionTimeout)
		defer cancel()
	}
	drawn, err := s.opts.Questions.Draw(ctx, count, s.opts.Category)
	if err != nil {
		log.Warn().Err(err).Str("module", "game.session").Str("room_code", s.code).Msg("question source failed, using reserve prompts")
		drawn = nil
	}
	return padPrompts(drawn, count)
}

// beginRoundLocked creates the next round in QUESTION. The answering window
// opens after the round-started notice is published.
func (s *Session) beginRoundLocked(fx *effects) *round {
	number := len(s.rounds) + 1
	r := startRound(number, s.prompts[number-1], s.opts.Now(), s.opts.AnswerDuration)
	s.rounds = append(s.rounds, r)
	fx.record(s.roomRecordLocked())
	fx.record(RoundRecord{Code: s.code, Round: r.view()})
	return r
}

func (s *Session) announceRoundLocked(r *round, fx *effects) {
	fx.emit(EventRoundStarted, RoundStarted{
		RoundID:     r.id,
		RoundNumber: r.number,
		Question:    r.prompt,
		Deadline:    r.deadline,
		TimeLimit:   int(s.opts.AnswerDuration / time.Second),
	})
	fx.openAfter(r.id)
}

func (s *Session) openAnswering(roundID string) {
	err := s.apply(func(fx *effects) error {
		r, err := s.roundLocked(roundID)
		if err != nil {
			return err
		}
		if r.phase != PhaseQuestion {
			return nil
		}
		if err := r.advance(PhaseAnswering); err != nil {
			return err
		}
		fx.record(RoundRecord{Code: s.code, Round: r.view()})
		s.scheduleLocked(r)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "game.session").Str("room_code", s.code).Str("round_id", roundID).Msg("open answering failed")
	}
}

func (s *Session) SubmitAnswer(roundID, userID, content string) (Answer, error) {
	var answer Answer
	err := s.apply(func(fx *effects) error {
		if err := s.requirePresentLocked(userID); err != nil {
			return err
		}
		r, err := s.roundLocked(roundID)
		if err != nil {
			return err
		}
		answer, err = r.submitAnswer(userID, content, s.opts.Now())
		if err != nil {
			return err
		}
		fx.record(AnswerRecord{Code: s.code, Answer: answer})
		fx.emit(EventAnswerSubmitted, AnswerSubmitted{RoundID: r.id, SubmittedCount: len(r.answers)})
		return nil
	})
	if err != nil {
		return Answer{}, err
	}
	return answer, nil
}

// StartVoting closes answering and opens the anonymized ballot. A round
// with no answers may still be voted on.
func (s *Session) StartVoting(by, roundID string) (Round, error) {
	var view Round
	err := s.apply(func(fx *effects) error {
		if err := s.requireHostLocked(by); err != nil {
			return err
		}
		r, err := s.roundLocked(roundID)
		if err != nil {
			return err
		}
		if err := r.startVoting(s.opts.Now(), s.opts.VoteDuration); err != nil {
			return err
		}
		view = r.view()
		fx.record(RoundRecord{Code: s.code, Round: view})
		fx.emit(EventVotingStarted, VotingStarted{
			RoundID:   r.id,
			Answers:   r.ballot(""),
			Deadline:  r.deadline,
			TimeLimit: int(s.opts.VoteDuration / time.Second),
		})
		s.scheduleLocked(r)
		return nil
	})
	if err != nil {
		return Round{}, err
	}
	return view, nil
}

func (s *Session) SubmitVote(roundID, voterID, answerID string) (Vote, error) {
	var vote Vote
	err := s.apply(func(fx *effects) error {
		if err := s.requirePresentLocked(voterID); err != nil {
			return err
		}
		r, err := s.roundLocked(roundID)
		if err != nil {
			return err
		}
		var answer Answer
		vote, answer, err = r.submitVote(voterID, answerID, s.opts.Now())
		if err != nil {
			return err
		}
		s.ledger.Award(answer.AuthorID, r.number, 1)
		fx.record(VoteRecord{Code: s.code, Vote: vote, AuthorID: answer.AuthorID, RoundNumber: r.number})
		fx.emit(EventVoteUpdate, VoteUpdate{RoundID: r.id, AnswerID: answer.ID, VoteCount: r.voteCount(answer.ID)})
		return nil
	})
	if err != nil {
		return Vote{}, err
	}
	return vote, nil
}

// EndRound reveals results and completes the round. Completing the last
// round finishes the game.
func (s *Session) EndRound(by, roundID string) (Round, error) {
	var view Round
	err := s.apply(func(fx *effects) error {
		if err := s.requireHostLocked(by); err != nil {
			return err
		}
		r, err := s.roundLocked(roundID)
		if err != nil {
			return err
		}
		if r.phase != PhaseVoting {
			return newError(KindInvalidPhase, "round %d is not in voting", r.number)
		}
		if err := r.advance(PhaseResults); err != nil {
			return err
		}
		final := r.number == s.totalRounds
		fx.emit(EventRoundEnded, RoundEnded{
			RoundID:     r.id,
			RoundNumber: r.number,
			Results:     r.results(s.displayNameLocked),
			Leaderboard: s.leaderboardLocked(),
			IsFinal:     final,
		})
		if err := r.advance(PhaseCompleted); err != nil {
			return err
		}
		s.stopTimerLocked()
		view = r.view()
		fx.record(RoundRecord{Code: s.code, Round: view})
		if final {
			if err := s.setStatusLocked(StatusFinished, fx); err != nil {
				return err
			}
			fx.emit(EventGameEnded, GameEnded{FinalLeaderboard: s.leaderboardLocked()})
		}
		return nil
	})
	if err != nil {
		return Round{}, err
	}
	if view.Number == s.totalRounds {
		log.Info().Str("module", "game.session").Str("room_code", s.code).Msg("game finished")
	}
	return view, nil
}

// NextRound starts the following round with its pre-drawn prompt.
func (s *Session) NextRound(by string) (Round, error) {
	var started Round
	err := s.apply(func(fx *effects) error {
		if err := s.requireHostLocked(by); err != nil {
			return err
		}
		if s.status != StatusActive {
			return newError(KindInvalidPhase, "game is not active")
		}
		if current := s.currentRoundLocked(); current != nil && current.phase.Open() {
			return newError(KindInvalidPhase, "round %d is still in progress", current.number)
		}
		if len(s.rounds) >= s.totalRounds {
			return newError(KindInvalidPhase, "no rounds left")
		}
		r := s.beginRoundLocked(fx)
		started = r.view()
		s.announceRoundLocked(r, fx)
		return nil
	})
	if err != nil {
		return Round{}, err
	}
	return s.Round(started.ID)
}

// AdvancePhase moves the game toward target on the host's behalf. roundID
// names the round the host is looking at; it must be the current round.
func (s *Session) AdvancePhase(by, roundID string, target RoundPhase) (Round, error) {
	s.mu.Lock()
	current := s.currentRoundLocked()
	s.mu.Unlock()
	if current == nil {
		return Round{}, newError(KindInvalidPhase, "game has not started")
	}
	if roundID != "" && roundID != current.id {
		return Round{}, newError(KindConflict, "round %s is not the current round", roundID)
	}
	switch target {
	case PhaseVoting:
		return s.StartVoting(by, current.id)
	case PhaseResults, PhaseCompleted:
		return s.EndRound(by, current.id)
	case PhaseAnswering:
		return s.NextRound(by)
	case PhaseQuestion:
		return Round{}, newError(KindInvalidPhase, "rounds cannot return to question")
	default:
		return Round{}, newError(KindValidation, "unknown phase %q", target)
	}
}

func (s *Session) leaderboardLocked() []LeaderboardEntry {
	candidates := make([]Participant, 0, len(s.members))
	for _, m := range s.members {
		if m.present || s.ledger.Total(m.ID) > 0 {
			candidates = append(candidates, s.participantLocked(m))
		}
	}
	return s.ledger.Leaderboard(candidates, len(s.rounds))
}

// Leaderboard ranks members by points, highest first, ties by join order.
// Departed members stay listed while they hold points.
func (s *Session) Leaderboard() []LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboardLocked()
}

// TotalAwarded is the sum of every point the ledger holds.
func (s *Session) TotalAwarded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Sum()
}

func (s *Session) Roster() Roster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterLocked()
}

func (s *Session) IsMember(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byUser[userID]
	return ok && m.present
}

func (s *Session) Status() RoomStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Code:         s.code,
		HostID:       s.hostID,
		Status:       s.status,
		Capacity:     s.capacity,
		TotalRounds:  s.totalRounds,
		CurrentRound: len(s.rounds),
		Participants: s.participantsLocked(),
		CreatedAt:    s.createdAt,
	}
	if r := s.currentRoundLocked(); r != nil {
		view := r.view()
		snap.Round = &view
	}
	return snap
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		Code:         s.code,
		Status:       s.status,
		Players:      s.presentCountLocked(),
		Capacity:     s.capacity,
		CurrentRound: len(s.rounds),
		TotalRounds:  s.totalRounds,
	}
}

func (s *Session) Round(roundID string) (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.roundLocked(roundID)
	if err != nil {
		return Round{}, err
	}
	return r.view(), nil
}

func (s *Session) CurrentRound() (Round, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.currentRoundLocked()
	if r == nil {
		return Round{}, false
	}
	return r.view(), true
}

func (s *Session) VoteCount(roundID, answerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.roundLocked(roundID)
	if err != nil {
		return 0, err
	}
	if _, ok := r.answerByID[answerID]; !ok {
		return 0, newError(KindNotFound, "answer not found")
	}
	return r.voteCount(answerID), nil
}

// Ballot lists a round's answers for viewerID without revealing authors.
func (s *Session) Ballot(roundID, viewerID string) ([]BallotEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUser[viewerID]; !ok {
		return nil, newError(KindForbidden, "not a participant in this room")
	}
	r, err := s.roundLocked(roundID)
	if err != nil {
		return nil, err
	}
	return r.ballot(viewerID), nil
}

// Results lists answers with their authors once the round has been revealed.
// Only members of the room, past or present, may read them.
func (s *Session) Results(roundID, viewerID string) ([]ResultEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUser[viewerID]; !ok {
		return nil, newError(KindForbidden, "not a participant in this room")
	}
	r, err := s.roundLocked(roundID)
	if err != nil {
		return nil, err
	}
	if !r.phase.Revealed() {
		return nil, newError(KindInvalidPhase, "results are not available until the round ends")
	}
	return r.results(s.displayNameLocked), nil
}

// IsTerminal reports whether the room is finished or has nobody left in it.
func (s *Session) IsTerminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminalLocked()
}

func (s *Session) terminalLocked() bool {
	return s.status.Terminal() || s.presentCountLocked() == 0
}

func (s *Session) expired(now time.Time, grace time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.terminalLocked() || s.idleSince.IsZero() {
		return false
	}
	return now.Sub(s.idleSince) >= grace
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}
