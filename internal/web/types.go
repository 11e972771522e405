package web

// RoomSummary is one row of the admin room list.
type RoomSummary struct {
	Code         string
	Category     string
	State        string
	CurrentRound int
	Rounds       int
	Players      []RoomPlayer
}

type RoomPlayer struct {
	Name   string
	Score  int
	IsHost bool
}
