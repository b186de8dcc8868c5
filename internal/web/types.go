package web

// RoomCard is one open room as listed on the home page.
type RoomCard struct {
	Code         string
	Status       string
	Players      int
	MaxPlayers   int
	CurrentRound int
	TotalRounds  int
}
