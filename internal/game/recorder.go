package game

import "time"

// Recorder mirrors committed session state to durable storage. It is
// write-behind: implementations must not block and must not fail the caller.
type Recorder interface {
	Record(rec Record)
}

// Record is one committed change. The concrete types below are the only
// implementations.
type Record interface {
	RoomCode() string
}

type RoomRecord struct {
	Code         string
	HostID       string
	Capacity     int
	TotalRounds  int
	Status       RoomStatus
	CurrentRound int
	Prompts      []string
	At           time.Time
}

type MemberRecord struct {
	Code        string
	UserID      string
	DisplayName string
	Present     bool
	At          time.Time
}

type RoundRecord struct {
	Code  string
	Round Round
}

type AnswerRecord struct {
	Code   string
	Answer Answer
}

type VoteRecord struct {
	Code        string
	Vote        Vote
	AuthorID    string
	RoundNumber int
}

func (r RoomRecord) RoomCode() string   { return r.Code }
func (r MemberRecord) RoomCode() string { return r.Code }
func (r RoundRecord) RoomCode() string  { return r.Code }
func (r AnswerRecord) RoomCode() string { return r.Code }
func (r VoteRecord) RoomCode() string   { return r.Code }

type RecorderFunc func(rec Record)

func (f RecorderFunc) Record(rec Record) { f(rec) }

type nopRecorder struct{}

func (nopRecorder) Record(Record) {}
