package game

import "sort"

type scoreKey struct {
	userID string
	round  int
}

// Ledger accumulates points per (user, round). Points only ever increase.
type Ledger struct {
	points map[scoreKey]int
	totals map[string]int
}

func NewLedger() *Ledger {
	return &Ledger{
		points: make(map[scoreKey]int),
		totals: make(map[string]int),
	}
}

// Award adds points for userID in the given round. Non-positive amounts are ignored.
func (l *Ledger) Award(userID string, round, points int) {
	if points <= 0 || userID == "" {
		return
	}
	l.points[scoreKey{userID: userID, round: round}] += points
	l.totals[userID] += points
}

func (l *Ledger) Total(userID string) int {
	return l.totals[userID]
}

func (l *Ledger) RoundPoints(userID string, round int) int {
	return l.points[scoreKey{userID: userID, round: round}]
}

// Sum is the total of every award in the ledger.
func (l *Ledger) Sum() int {
	sum := 0
	for _, total := range l.totals {
		sum += total
	}
	return sum
}

// Leaderboard ranks the given participants by total points, highest first.
// Ties keep the participants' join order.
func (l *Ledger) Leaderboard(participants []Participant, round int) []LeaderboardEntry {
	ordered := make([]Participant, len(participants))
	copy(ordered, participants)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].JoinOrder < ordered[j].JoinOrder
	})
	entries := make([]LeaderboardEntry, 0, len(ordered))
	for _, participant := range ordered {
		entries = append(entries, LeaderboardEntry{
			UserID:      participant.UserID,
			DisplayName: participant.DisplayName,
			TotalPoints: l.Total(participant.UserID),
			RoundPoints: l.RoundPoints(participant.UserID, round),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPoints > entries[j].TotalPoints
	})
	return entries
}
