package game

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// round holds one round's answers and votes. All methods assume the owning
// session's lock is held.
type round struct {
	id        string
	number    int
	prompt    string
	phase     RoundPhase
	startedAt time.Time
	deadline  time.Time

	answers        []*Answer
	answerByID     map[string]*Answer
	answerByAuthor map[string]*Answer
	votes          []*Vote
	voteByVoter    map[string]*Vote
}

func startRound(number int, prompt string, now time.Time, answerLimit time.Duration) *round {
	return &round{
		id:             uuid.NewString(),
		number:         number,
		prompt:         prompt,
		phase:          PhaseQuestion,
		startedAt:      now,
		deadline:       now.Add(answerLimit),
		answerByID:     make(map[string]*Answer),
		answerByAuthor: make(map[string]*Answer),
		voteByVoter:    make(map[string]*Vote),
	}
}

func (r *round) advance(target RoundPhase) error {
	if !r.phase.CanTransitionTo(target) {
		return newError(KindInvalidPhase, "round %d cannot move from %s to %s", r.number, r.phase, target)
	}
	r.phase = target
	return nil
}

func normalizeAnswer(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", newError(KindValidation, "answer content is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxAnswerLength {
		return "", newError(KindValidation, "answer must be %d characters or fewer", MaxAnswerLength)
	}
	return trimmed, nil
}

func (r *round) submitAnswer(userID, content string, now time.Time) (Answer, error) {
	if r.phase != PhaseAnswering {
		return Answer{}, newError(KindInvalidPhase, "not accepting answers at this time")
	}
	if _, exists := r.answerByAuthor[userID]; exists {
		return Answer{}, newError(KindDuplicateSubmission, "already submitted an answer for this round")
	}
	text, err := normalizeAnswer(content)
	if err != nil {
		return Answer{}, err
	}
	answer := &Answer{
		ID:        uuid.NewString(),
		RoundID:   r.id,
		AuthorID:  userID,
		Content:   text,
		CreatedAt: now,
	}
	r.answers = append(r.answers, answer)
	r.answerByID[answer.ID] = answer
	r.answerByAuthor[userID] = answer
	return *answer, nil
}

func (r *round) startVoting(now time.Time, voteLimit time.Duration) error {
	if r.phase != PhaseAnswering {
		return newError(KindInvalidPhase, "round %d is not accepting answers", r.number)
	}
	if err := r.advance(PhaseVoting); err != nil {
		return err
	}
	r.deadline = now.Add(voteLimit)
	return nil
}

// submitVote returns the stored vote and the answer it was cast for.
func (r *round) submitVote(voterID, answerID string, now time.Time) (Vote, Answer, error) {
	if r.phase != PhaseVoting {
		return Vote{}, Answer{}, newError(KindInvalidPhase, "not accepting votes at this time")
	}
	answer, ok := r.answerByID[answerID]
	if !ok {
		return Vote{}, Answer{}, newError(KindNotFound, "answer not found")
	}
	if answer.AuthorID == voterID {
		return Vote{}, Answer{}, newError(KindSelfVote, "cannot vote for your own answer")
	}
	if _, exists := r.voteByVoter[voterID]; exists {
		return Vote{}, Answer{}, newError(KindDuplicateSubmission, "already voted in this round")
	}
	vote := &Vote{
		ID:        uuid.NewString(),
		RoundID:   r.id,
		VoterID:   voterID,
		AnswerID:  answerID,
		CreatedAt: now,
	}
	r.votes = append(r.votes, vote)
	r.voteByVoter[voterID] = vote
	return *vote, *answer, nil
}

func (r *round) voteCount(answerID string) int {
	count := 0
	for _, vote := range r.votes {
		if vote.AnswerID == answerID {
			count++
		}
	}
	return count
}

func (r *round) view() Round {
	return Round{
		ID:          r.id,
		Number:      r.number,
		Prompt:      r.prompt,
		Phase:       r.phase,
		StartedAt:   r.startedAt,
		Deadline:    r.deadline,
		AnswerCount: len(r.answers),
		VoteCount:   len(r.votes),
	}
}

// ballot lists answers without authors. Before voting opens a viewer only
// sees their own answer.
func (r *round) ballot(viewerID string) []BallotEntry {
	entries := make([]BallotEntry, 0, len(r.answers))
	hidden := r.phase == PhaseQuestion || r.phase == PhaseAnswering
	for _, answer := range r.answers {
		own := viewerID != "" && answer.AuthorID == viewerID
		if hidden && !own {
			continue
		}
		entries = append(entries, BallotEntry{
			AnswerID:    answer.ID,
			Content:     answer.Content,
			VoteCount:   r.voteCount(answer.ID),
			IsOwnAnswer: own,
		})
	}
	return entries
}

func (r *round) results(nameOf func(userID string) string) []ResultEntry {
	entries := make([]ResultEntry, 0, len(r.answers))
	for _, answer := range r.answers {
		entries = append(entries, ResultEntry{
			AnswerID:   answer.ID,
			Content:    answer.Content,
			AuthorID:   answer.AuthorID,
			AuthorName: nameOf(answer.AuthorID),
			VoteCount:  r.voteCount(answer.ID),
		})
	}
	return entries
}
