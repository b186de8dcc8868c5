package game

import (
	"errors"
	"time"
)

const (
	EventParticipantChanged = "participant-changed"
	EventGameStarted        = "game-started"
	EventRoundStarted       = "round-started"
	EventAnswerSubmitted    = "answer-submitted"
	EventVotingStarted      = "voting-started"
	EventVoteUpdate         = "vote-update"
	EventRoundEnded         = "round-ended"
	EventGameEnded          = "game-ended"
)

// Publisher delivers room events to subscribers. Delivery is best effort:
// a session never retries and never rolls back when Publish fails.
type Publisher interface {
	Publish(roomCode, event string, payload any) error
}

type PublisherFunc func(roomCode, event string, payload any) error

func (f PublisherFunc) Publish(roomCode, event string, payload any) error {
	return f(roomCode, event, payload)
}

// Publishers fans one event out to several publishers.
type Publishers []Publisher

func (p Publishers) Publish(roomCode, event string, payload any) error {
	var errs []error
	for _, publisher := range p {
		if publisher == nil {
			continue
		}
		if err := publisher.Publish(roomCode, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, any) error { return nil }

type ParticipantChanged struct {
	Action       string        `json:"action"`
	UserID       string        `json:"user_id"`
	DisplayName  string        `json:"username"`
	Participants []Participant `json:"participants"`
	Count        int           `json:"participant_count"`
}

type GameStarted struct {
	RoundID     string     `json:"round_id"`
	RoundNumber int        `json:"round_number"`
	Question    string     `json:"question"`
	Deadline    time.Time  `json:"ends_at"`
	TimeLimit   int        `json:"time_limit"`
	TotalRounds int        `json:"total_rounds"`
	Status      RoomStatus `json:"status"`
}

type RoundStarted struct {
	RoundID     string    `json:"round_id"`
	RoundNumber int       `json:"round_number"`
	Question    string    `json:"question"`
	Deadline    time.Time `json:"ends_at"`
	TimeLimit   int       `json:"time_limit"`
}

type AnswerSubmitted struct {
	RoundID        string `json:"round_id"`
	SubmittedCount int    `json:"submitted_count"`
}

type VotingStarted struct {
	RoundID   string        `json:"round_id"`
	Answers   []BallotEntry `json:"answers"`
	Deadline  time.Time     `json:"ends_at"`
	TimeLimit int           `json:"time_limit"`
}

type VoteUpdate struct {
	RoundID   string `json:"round_id"`
	AnswerID  string `json:"answer_id"`
	VoteCount int    `json:"vote_count"`
}

type RoundEnded struct {
	RoundID     string             `json:"round_id"`
	RoundNumber int                `json:"round_number"`
	Results     []ResultEntry      `json:"results"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	IsFinal     bool               `json:"is_final"`
}

type GameEnded struct {
	FinalLeaderboard []LeaderboardEntry `json:"final_leaderboard"`
}

type notice struct {
	event   string
	payload any
}

// effects collects what a committed operation must announce once the
// session lock is released.
type effects struct {
	notices []notice
	records []Record
	opened  []string
}

func (fx *effects) emit(event string, payload any) {
	fx.notices = append(fx.notices, notice{event: event, payload: payload})
}

func (fx *effects) record(rec Record) {
	fx.records = append(fx.records, rec)
}

// openAfter marks a round whose answering window opens once the
// round-started notice has gone out.
func (fx *effects) openAfter(roundID string) {
	fx.opened = append(fx.opened, roundID)
}
