package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerTotalsAcrossRounds(t *testing.T) {
	ledger := NewLedger()
	ledger.Award("a", 1, 1)
	ledger.Award("a", 1, 1)
	ledger.Award("a", 2, 1)
	ledger.Award("b", 2, 1)
	ledger.Award("b", 2, 0)
	ledger.Award("b", 2, -3)

	assert.Equal(t, 3, ledger.Total("a"))
	assert.Equal(t, 2, ledger.RoundPoints("a", 1))
	assert.Equal(t, 1, ledger.Total("b"))
	assert.Equal(t, 0, ledger.Total("nobody"))
	assert.Equal(t, 4, ledger.Sum())
}

func TestLedgerLeaderboardTieBreak(t *testing.T) {
	ledger := NewLedger()
	ledger.Award("late", 1, 2)
	ledger.Award("early", 1, 2)
	ledger.Award("middle", 1, 1)

	board := ledger.Leaderboard([]Participant{
		{UserID: "late", JoinOrder: 5},
		{UserID: "middle", JoinOrder: 3},
		{UserID: "early", JoinOrder: 1},
		{UserID: "zero", JoinOrder: 0},
	}, 1)

	ids := make([]string, 0, len(board))
	for _, entry := range board {
		ids = append(ids, entry.UserID)
	}
	assert.Equal(t, []string{"early", "late", "middle", "zero"}, ids)
}
