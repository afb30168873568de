package service

import (
	"encoding/json"

	"github.com/wricardo/partyhost/game/engine"
	"github.com/wricardo/partyhost/game/minefield"
)

// Wire names of the room and minefield events.
const (
	EventCreateRoom  = "tictactoe:createRoom"
	EventRoomCreated = "tictactoe:roomCreated"
	EventJoinRoom    = "tictactoe:joinRoom"
	EventJoined      = "tictactoe:joined"
	EventPlayerCount = "tictactoe:playerCount"
	EventMove        = "tictactoe:move"
	EventUpdate      = "tictactoe:update"
	EventResetRoom   = "tictactoe:reset"
	EventRoomError   = "tictactoe:error"

	EventFieldUpdate = "minesweeper:update"
	EventReveal      = "minesweeper:reveal"
	EventFlag        = "minesweeper:flag"
	EventResetField  = "minesweeper:reset"
)

// Transport delivers named events to connections. Implementations must finish
// encoding data before returning, because callers keep mutating the values
// they pass in.
type Transport interface {
	SendTo(connID, event string, data any)
	SendToRoom(code, event string, data any)
	SendToRoomExcept(code, exceptID, event string, data any)
	Broadcast(event string, data any)
	BroadcastExcept(exceptID, event string, data any)

	// Join and Leave tag and untag a connection with a room code.
	Join(connID, code string)
	Leave(connID, code string)
}

// PresetCatalog loads minefield presets.
type PresetCatalog interface {
	LoadPreset(name string) (*minefield.Preset, error)
	ListPresets() ([]*PresetInfo, error)
	GetDefault() *minefield.Preset
	SavePreset(name string, p *minefield.Preset) error
	RefreshCache()
}

// PresetInfo describes a preset file.
type PresetInfo struct {
	Filename    string  `json:"filename"`
	PresetID    string  `json:"preset_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Rows        int     `json:"rows"`
	Cols        int     `json:"cols"`
	Mines       int     `json:"mines"`
	Density     float64 `json:"density"`
}

// SeatPayload answers createRoom and joinRoom.
type SeatPayload struct {
	Code   string       `json:"code"`
	Symbol engine.Mark  `json:"symbol"`
	Board  engine.Board `json:"board"`
	XNext  bool         `json:"isXNext"`
}

// UpdatePayload is broadcast to a room after a move or reset. Winner encodes
// as null when nobody has a line, including on a full board.
type UpdatePayload struct {
	Board  engine.Board `json:"board"`
	XNext  bool         `json:"isXNext"`
	Winner engine.Mark  `json:"winner"`
}

// ErrorPayload reports a failed room lookup to the requester.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Stats summarises the coordinator's state for health checks.
type Stats struct {
	Rooms         int             `json:"rooms"`
	SeatedPlayers int             `json:"seated_players"`
	Preset        string          `json:"preset"`
	Field         minefield.Stats `json:"field"`
}

// joinRequest accepts the room code as a JSON string or a bare number.
type joinRequest struct {
	Code json.RawMessage `json:"code"`
}

// code returns the requested room code. ok is false when the field is
// missing or is neither a string nor a number.
func (r joinRequest) code() (string, bool) {
	var s string
	if err := json.Unmarshal(r.Code, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(r.Code, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

type moveRequest struct {
	Index *int `json:"index"`
}

type cellRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}
