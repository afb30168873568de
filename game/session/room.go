package session

import (
	"time"

	"github.com/wricardo/partyhost/game/engine"
)

// MaxSeats is the number of marks a tic-tac-toe room hands out.
const MaxSeats = 2

// Room is one tic-tac-toe table addressed by a short numeric code.
type Room struct {
	Code      string
	Game      *engine.Game
	Seats     map[string]engine.Mark
	CreatedAt time.Time
}

// Seating is what a creator or joiner learns about the room they sat down in.
type Seating struct {
	Code    string
	Mark    engine.Mark
	Board   engine.Board
	XNext   bool
	Players int
}

// Update is the room state after an accepted move or a reset.
type Update struct {
	Code   string
	Board  engine.Board
	XNext  bool
	Winner engine.Mark
}

// Departure describes the room a connection just left.
type Departure struct {
	Code      string
	Remaining int
	Closed    bool
}

// Room statuses reported by read views.
const (
	StatusWaiting   = "waiting"
	StatusPlaying   = "playing"
	StatusWon       = "won"
	StatusFullBoard = "full_board"
)

// RoomInfo is a read-only snapshot of a room.
type RoomInfo struct {
	Code      string       `json:"code"`
	Players   int          `json:"players"`
	Board     engine.Board `json:"board"`
	XNext     bool         `json:"isXNext"`
	Winner    engine.Mark  `json:"winner"`
	Moves     int          `json:"moves"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

func (r *Room) seating(mark engine.Mark) Seating {
	return Seating{
		Code:    r.Code,
		Mark:    mark,
		Board:   r.Game.Board,
		XNext:   r.Game.XNext,
		Players: len(r.Seats),
	}
}

func (r *Room) update() Update {
	return Update{
		Code:   r.Code,
		Board:  r.Game.Board,
		XNext:  r.Game.XNext,
		Winner: r.Game.Winner(),
	}
}

func (r *Room) info() RoomInfo {
	info := RoomInfo{
		Code:      r.Code,
		Players:   len(r.Seats),
		Board:     r.Game.Board,
		XNext:     r.Game.XNext,
		Winner:    r.Game.Winner(),
		Moves:     r.Game.Board.Filled(),
		CreatedAt: r.CreatedAt,
	}

	switch {
	case info.Winner != engine.NoMark:
		info.Status = StatusWon
	case r.Game.Board.Full():
		info.Status = StatusFullBoard
	case info.Players < MaxSeats:
		info.Status = StatusWaiting
	default:
		info.Status = StatusPlaying
	}
	return info
}
