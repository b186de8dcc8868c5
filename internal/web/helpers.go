package web

import (
	"strconv"
	"strings"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

func statusLabel(status string) string {
	switch status {
	case "waiting":
		return "Waiting for players"
	case "active":
		return "In progress"
	case "finished":
		return "Finished"
	default:
		return strings.TrimSpace(status)
	}
}

func roundLabel(card RoomCard) string {
	if card.CurrentRound == 0 {
		return itoa(card.TotalRounds) + " rounds"
	}
	return "Round " + itoa(card.CurrentRound) + " of " + itoa(card.TotalRounds)
}
