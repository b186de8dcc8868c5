package game

import "time"

const (
	MinCapacity     = 2
	MaxCapacity     = 20
	MinRounds       = 1
	MaxRounds       = 10
	MaxAnswerLength = 500
)

// Identity is the resolved caller of a session operation.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type Participant struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	IsHost      bool   `json:"is_host"`
	JoinOrder   int    `json:"-"`
}

type Roster struct {
	Code         string        `json:"room_code"`
	Participants []Participant `json:"participants"`
	Count        int           `json:"count"`
	Capacity     int           `json:"capacity"`
}

// Round is a read-only view of one round.
type Round struct {
	ID          string     `json:"id"`
	Number      int        `json:"round_number"`
	Prompt      string     `json:"question"`
	Phase       RoundPhase `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	Deadline    time.Time  `json:"ends_at"`
	AnswerCount int        `json:"answer_count"`
	VoteCount   int        `json:"vote_count"`
}

type Answer struct {
	ID        string    `json:"id"`
	RoundID   string    `json:"round_id"`
	AuthorID  string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Vote struct {
	ID        string    `json:"id"`
	RoundID   string    `json:"round_id"`
	VoterID   string    `json:"voter_id"`
	AnswerID  string    `json:"answer_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BallotEntry is an answer as shown to voters. It never carries the author.
type BallotEntry struct {
	AnswerID    string `json:"id"`
	Content     string `json:"content"`
	VoteCount   int    `json:"vote_count"`
	IsOwnAnswer bool   `json:"is_own_answer"`
}

// ResultEntry is an answer with its author, available once a round is revealed.
type ResultEntry struct {
	AnswerID   string `json:"id"`
	Content    string `json:"content"`
	AuthorID   string `json:"user_id"`
	AuthorName string `json:"username"`
	VoteCount  int    `json:"vote_count"`
}

type LeaderboardEntry struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"username"`
	TotalPoints int    `json:"total_points"`
	RoundPoints int    `json:"round_points"`
}

type Snapshot struct {
	Code         string        `json:"room_code"`
	HostID       string        `json:"host_id"`
	Status       RoomStatus    `json:"status"`
	Capacity     int           `json:"max_players"`
	TotalRounds  int           `json:"rounds"`
	CurrentRound int           `json:"current_round"`
	Participants []Participant `json:"participants"`
	Round        *Round        `json:"round,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

type Summary struct {
	Code         string     `json:"room_code"`
	Status       RoomStatus `json:"status"`
	Players      int        `json:"players"`
	Capacity     int        `json:"max_players"`
	CurrentRound int        `json:"current_round"`
	TotalRounds  int        `json:"rounds"`
}
