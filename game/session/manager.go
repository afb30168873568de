package session

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/wricardo/partyhost/game/engine"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrNotSeated          = errors.New("connection is not seated in a room")
	ErrCodeSpaceExhausted = errors.New("no room codes left")
	ErrInvalidCodeDigits  = errors.New("invalid room code width")
)

// DefaultCodeDigits gives a 100000-code space, ample for a small deployment.
const DefaultCodeDigits = 5

// CodeGenerator returns a candidate code of the configured width. The manager
// retries until the candidate is not held by a live room.
type CodeGenerator func(digits int) string

// Manager is the room directory. It owns every live room and the connection
// index, and keeps the two in lockstep: a connection is indexed to a room iff
// it holds a seat there.
//
// Manager is not safe for concurrent use; callers serialize access.
type Manager struct {
	rooms    map[string]*Room
	registry *Registry
	digits   int
	generate CodeGenerator
	now      func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithCodeDigits sets the fixed width of room codes.
func WithCodeDigits(digits int) Option {
	return func(m *Manager) {
		m.digits = digits
	}
}

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(m *Manager) {
		m.generate = gen
	}
}

// NewManager creates an empty room directory.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		rooms:    make(map[string]*Room),
		registry: NewRegistry(),
		digits:   DefaultCodeDigits,
		generate: RandomCode,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.digits < 1 || m.digits > 9 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCodeDigits, m.digits)
	}
	return m, nil
}

// RandomCode draws a zero-padded decimal code uniformly from the whole space.
func RandomCode(digits int) string {
	space := codeSpace(digits)
	return fmt.Sprintf("%0*d", digits, rand.IntN(space))
}

func codeSpace(digits int) int {
	space := 1
	for i := 0; i < digits; i++ {
		space *= 10
	}
	return space
}

// Create opens a new room with connID seated as X.
func (m *Manager) Create(connID string) (Seating, *Departure, error) {
	if len(m.rooms) >= codeSpace(m.digits) {
		return Seating{}, nil, ErrCodeSpaceExhausted
	}

	code := m.generate(m.digits)
	for m.rooms[code] != nil {
		code = m.generate(m.digits)
	}

	departure := m.leaveCurrent(connID, code)

	room := &Room{
		Code:      code,
		Game:      engine.NewGame(),
		Seats:     map[string]engine.Mark{connID: engine.MarkX},
		CreatedAt: m.now(),
	}
	m.rooms[code] = room
	m.registry.Assign(connID, code)

	return room.seating(engine.MarkX), departure, nil
}

// Join seats connID in the room with the given code. A connection already
// seated there gets its existing mark back.
func (m *Manager) Join(connID, code string) (Seating, *Departure, error) {
	room, ok := m.rooms[code]
	if !ok {
		return Seating{}, nil, ErrRoomNotFound
	}

	if mark, seated := room.Seats[connID]; seated {
		return room.seating(mark), nil, nil
	}
	if len(room.Seats) >= MaxSeats {
		return Seating{}, nil, ErrRoomFull
	}

	departure := m.leaveCurrent(connID, code)

	mark := engine.MarkX
	for _, taken := range room.Seats {
		if taken == engine.MarkX {
			mark = engine.MarkO
		}
	}
	room.Seats[connID] = mark
	m.registry.Assign(connID, code)

	return room.seating(mark), departure, nil
}

// leaveCurrent releases connID from a room other than target, if it holds one.
func (m *Manager) leaveCurrent(connID, target string) *Departure {
	current, ok := m.registry.Lookup(connID)
	if !ok || current == target {
		return nil
	}
	d, _ := m.Release(connID)
	return &d
}

// Move plays connID's mark at index in its current room.
func (m *Manager) Move(connID string, index int) (Update, error) {
	room, mark, err := m.seatOf(connID)
	if err != nil {
		return Update{}, err
	}

	if err := room.Game.Play(mark, index); err != nil {
		return Update{}, err
	}
	return room.update(), nil
}

// Reset clears the board of connID's room, keeping the seats.
func (m *Manager) Reset(connID string) (Update, error) {
	room, _, err := m.seatOf(connID)
	if err != nil {
		return Update{}, err
	}

	room.Game.Reset()
	return room.update(), nil
}

// Release vacates connID's seat. The room is deleted when its last seat empties.
func (m *Manager) Release(connID string) (Departure, bool) {
	code, ok := m.registry.Lookup(connID)
	if !ok {
		return Departure{}, false
	}
	m.registry.Remove(connID)

	room, ok := m.rooms[code]
	if !ok {
		return Departure{Code: code, Closed: true}, true
	}

	delete(room.Seats, connID)
	if len(room.Seats) == 0 {
		delete(m.rooms, code)
		return Departure{Code: code, Closed: true}, true
	}
	return Departure{Code: code, Remaining: len(room.Seats)}, true
}

func (m *Manager) seatOf(connID string) (*Room, engine.Mark, error) {
	code, ok := m.registry.Lookup(connID)
	if !ok {
		return nil, engine.NoMark, ErrNotSeated
	}
	room, ok := m.rooms[code]
	if !ok {
		return nil, engine.NoMark, ErrNotSeated
	}
	mark, ok := room.Seats[connID]
	if !ok {
		return nil, engine.NoMark, ErrNotSeated
	}
	return room, mark, nil
}

// Get returns a snapshot of one room.
func (m *Manager) Get(code string) (RoomInfo, error) {
	room, ok := m.rooms[code]
	if !ok {
		return RoomInfo{}, ErrRoomNotFound
	}
	return room.info(), nil
}

// List returns snapshots of every live room, oldest first.
func (m *Manager) List() []RoomInfo {
	result := make([]RoomInfo, 0, len(m.rooms))
	for _, room := range m.rooms {
		result = append(result, room.info())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].Code < result[j].Code
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Count returns the number of live rooms.
func (m *Manager) Count() int {
	return len(m.rooms)
}

// Connections returns the number of seated connections.
func (m *Manager) Connections() int {
	return m.registry.Len()
}
