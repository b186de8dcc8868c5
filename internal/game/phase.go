package game

// RoomStatus is the lifecycle state of a room.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusActive   RoomStatus = "active"
	StatusFinished RoomStatus = "finished"
)

var roomTransitions = map[RoomStatus][]RoomStatus{
	StatusWaiting:  {StatusActive},
	StatusActive:   {StatusFinished},
	StatusFinished: {},
}

func (s RoomStatus) String() string {
	return string(s)
}

func (s RoomStatus) Valid() bool {
	_, ok := roomTransitions[s]
	return ok
}

// CanTransitionTo reports whether the move from s to target is in the table.
func (s RoomStatus) CanTransitionTo(target RoomStatus) bool {
	for _, next := range roomTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s RoomStatus) Terminal() bool {
	switch s {
	case StatusFinished:
		return true
	case StatusWaiting, StatusActive:
		return false
	default:
		return false
	}
}

// RoundPhase is the lifecycle state of a single round.
type RoundPhase string

const (
	PhaseQuestion  RoundPhase = "question"  // prompt announced, answers not yet accepted
	PhaseAnswering RoundPhase = "answering" // answers accepted
	PhaseVoting    RoundPhase = "voting"    // anonymized ballot, votes accepted
	PhaseResults   RoundPhase = "results"   // authors revealed
	PhaseCompleted RoundPhase = "completed"
)

var roundTransitions = map[RoundPhase][]RoundPhase{
	PhaseQuestion:  {PhaseAnswering},
	PhaseAnswering: {PhaseVoting},
	PhaseVoting:    {PhaseResults},
	PhaseResults:   {PhaseCompleted},
	PhaseCompleted: {},
}

func (p RoundPhase) String() string {
	return string(p)
}

func (p RoundPhase) Valid() bool {
	_, ok := roundTransitions[p]
	return ok
}

func (p RoundPhase) CanTransitionTo(target RoundPhase) bool {
	for _, next := range roundTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// Open reports whether the round still counts as the room's current round.
func (p RoundPhase) Open() bool {
	switch p {
	case PhaseCompleted:
		return false
	case PhaseQuestion, PhaseAnswering, PhaseVoting, PhaseResults:
		return true
	default:
		return false
	}
}

// Revealed reports whether answer authorship may be shown.
func (p RoundPhase) Revealed() bool {
	switch p {
	case PhaseResults, PhaseCompleted:
		return true
	case PhaseQuestion, PhaseAnswering, PhaseVoting:
		return false
	default:
		return false
	}
}
