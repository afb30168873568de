package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/wricardo/partyhost/game/engine"
)

// sequentialCodes hands out the given codes in order, then numbered fallbacks.
func sequentialCodes(codes ...string) CodeGenerator {
	i := 0
	return func(digits int) string {
		if i < len(codes) {
			code := codes[i]
			i++
			return code
		}
		i++
		return fmt.Sprintf("%0*d", digits, i)
	}
}

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(opts...)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	return m
}

func TestNewManager(t *testing.T) {
	m := newTestManager(t)
	if m.Count() != 0 {
		t.Errorf("Expected no rooms, got %d", m.Count())
	}

	for _, digits := range []int{0, -1, 10} {
		if _, err := NewManager(WithCodeDigits(digits)); !errors.Is(err, ErrInvalidCodeDigits) {
			t.Errorf("digits=%d: expected ErrInvalidCodeDigits, got %v", digits, err)
		}
	}
}

func TestRandomCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := RandomCode(5)
		if len(code) != 5 {
			t.Fatalf("Expected 5-digit code, got %q", code)
		}
		for _, ch := range code {
			if ch < '0' || ch > '9' {
				t.Fatalf("Expected decimal code, got %q", code)
			}
		}
	}
}

func TestManager_Create(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("12345")))

	seat, departure, err := m.Create("alice")
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}
	if departure != nil {
		t.Errorf("Expected no departure, got %+v", departure)
	}

	if seat.Code != "12345" {
		t.Errorf("Expected code 12345, got %s", seat.Code)
	}
	if seat.Mark != engine.MarkX {
		t.Errorf("Expected mark X, got %q", seat.Mark)
	}
	if seat.Board != (engine.Board{}) || !seat.XNext {
		t.Errorf("Expected empty board with X to move, got %+v", seat)
	}
	if seat.Players != 1 {
		t.Errorf("Expected 1 player, got %d", seat.Players)
	}

	if code, ok := m.registry.Lookup("alice"); !ok || code != "12345" {
		t.Errorf("Expected alice indexed to 12345, got %q (%v)", code, ok)
	}
}

func TestManager_CreateUniqueCodes(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("00042", "00042", "00042", "00007")))

	first, _, err := m.Create("a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, _, err := m.Create("b")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if first.Code != "00042" {
		t.Errorf("Expected first code 00042, got %s", first.Code)
	}
	if second.Code != "00007" {
		t.Errorf("Expected colliding draws to be retried, got %s", second.Code)
	}
}

func TestManager_CreateManyRooms(t *testing.T) {
	m := newTestManager(t, WithCodeDigits(3))

	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		seat, _, err := m.Create(fmt.Sprintf("conn-%d", i))
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		if seen[seat.Code] {
			t.Fatalf("Duplicate code %s", seat.Code)
		}
		seen[seat.Code] = true
	}
	if m.Count() != 500 {
		t.Errorf("Expected 500 rooms, got %d", m.Count())
	}
}

func TestManager_CreateExhausted(t *testing.T) {
	m := newTestManager(t, WithCodeDigits(1))
	for i := 0; i < 10; i++ {
		if _, _, err := m.Create(fmt.Sprintf("c%d", i)); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}
	if _, _, err := m.Create("extra"); !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Errorf("Expected ErrCodeSpaceExhausted, got %v", err)
	}
}

func TestManager_Join(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("12345")))
	m.Create("alice")

	t.Run("second player gets O", func(t *testing.T) {
		seat, _, err := m.Join("bob", "12345")
		if err != nil {
			t.Fatalf("Join failed: %v", err)
		}
		if seat.Mark != engine.MarkO {
			t.Errorf("Expected O, got %q", seat.Mark)
		}
		if seat.Players != 2 {
			t.Errorf("Expected 2 players, got %d", seat.Players)
		}
	})

	t.Run("rejoin keeps mark", func(t *testing.T) {
		seat, _, err := m.Join("alice", "12345")
		if err != nil {
			t.Fatalf("Join failed: %v", err)
		}
		if seat.Mark != engine.MarkX {
			t.Errorf("Expected X on rejoin, got %q", seat.Mark)
		}
	})

	t.Run("third player rejected", func(t *testing.T) {
		before, _ := m.Get("12345")
		_, _, err := m.Join("carol", "12345")
		if !errors.Is(err, ErrRoomFull) {
			t.Fatalf("Expected ErrRoomFull, got %v", err)
		}
		after, _ := m.Get("12345")
		if before != after {
			t.Errorf("Full-room join mutated room: %+v -> %+v", before, after)
		}
		if _, ok := m.registry.Lookup("carol"); ok {
			t.Error("Rejected joiner should not be indexed")
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		if _, _, err := m.Join("dave", "99999"); !errors.Is(err, ErrRoomNotFound) {
			t.Errorf("Expected ErrRoomNotFound, got %v", err)
		}
	})
}

func TestManager_JoinTakesFreeMark(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("11111")))
	m.Create("alice")
	m.Join("bob", "11111")

	// X leaves; the next joiner takes the vacant X seat.
	m.Release("alice")
	seat, _, err := m.Join("carol", "11111")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if seat.Mark != engine.MarkX {
		t.Errorf("Expected vacant X seat, got %q", seat.Mark)
	}
}

func TestManager_FullRoomJoinKeepsGame(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("22222")))
	m.Create("alice")
	m.Join("bob", "22222")
	if _, err := m.Move("alice", 4); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	room := m.rooms["22222"]
	board, xNext := room.Game.Board, room.Game.XNext

	if _, _, err := m.Join("carol", "22222"); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("Expected ErrRoomFull, got %v", err)
	}

	if room.Game.Board != board || room.Game.XNext != xNext {
		t.Errorf("Rejected join changed game: board %v xNext %v -> board %v xNext %v",
			board, xNext, room.Game.Board, room.Game.XNext)
	}
	if room.Game.XNext {
		t.Error("Expected O to move after X played")
	}
	if len(room.Seats) != 2 {
		t.Errorf("Expected 2 seats, got %d", len(room.Seats))
	}
	if _, seated := room.Seats["carol"]; seated {
		t.Error("Rejected joiner should not hold a seat")
	}

	// The original occupants keep playing.
	if _, err := m.Move("bob", 0); err != nil {
		t.Errorf("Expected bob's move to be accepted, got %v", err)
	}
}

func TestManager_SwitchRooms(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("11111", "22222")))
	m.Create("alice")
	m.Join("bob", "11111")
	m.Create("carol")

	seat, departure, err := m.Join("bob", "22222")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if seat.Code != "22222" || seat.Mark != engine.MarkO {
		t.Errorf("Unexpected seating %+v", seat)
	}
	if departure == nil || departure.Code != "11111" || departure.Remaining != 1 || departure.Closed {
		t.Errorf("Expected departure from 11111 with 1 remaining, got %+v", departure)
	}

	room, _ := m.Get("11111")
	if room.Players != 1 {
		t.Errorf("Expected 1 player left in 11111, got %d", room.Players)
	}
	if m.Connections() != 3 {
		t.Errorf("Expected 3 indexed connections, got %d", m.Connections())
	}
}

func TestManager_CreateWhileSeatedClosesOldRoom(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("11111", "22222")))
	m.Create("alice")

	_, departure, err := m.Create("alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if departure == nil || !departure.Closed || departure.Code != "11111" {
		t.Errorf("Expected old room to close, got %+v", departure)
	}
	if _, err := m.Get("11111"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected old room deleted, got %v", err)
	}
}

func TestManager_Move(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("12345")))
	m.Create("alice")
	m.Join("bob", "12345")

	update, err := m.Move("alice", 4)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if update.Board[4] != engine.MarkX || update.XNext {
		t.Errorf("Unexpected update after X@4: %+v", update)
	}

	if _, err := m.Move("bob", 4); !errors.Is(err, engine.ErrCellOccupied) {
		t.Errorf("Expected ErrCellOccupied, got %v", err)
	}
	if _, err := m.Move("alice", 0); !errors.Is(err, engine.ErrOutOfTurn) {
		t.Errorf("Expected ErrOutOfTurn, got %v", err)
	}

	update, err = m.Move("bob", 0)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if update.Board[0] != engine.MarkO || !update.XNext {
		t.Errorf("Unexpected update after O@0: %+v", update)
	}

	if _, err := m.Move("stranger", 1); !errors.Is(err, ErrNotSeated) {
		t.Errorf("Expected ErrNotSeated, got %v", err)
	}
}

func TestManager_MoveWinner(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("12345")))
	m.Create("x")
	m.Join("o", "12345")

	for _, mv := range []struct {
		conn  string
		index int
	}{{"x", 0}, {"o", 3}, {"x", 1}, {"o", 4}} {
		if _, err := m.Move(mv.conn, mv.index); err != nil {
			t.Fatalf("Move %+v failed: %v", mv, err)
		}
	}

	update, err := m.Move("x", 2)
	if err != nil {
		t.Fatalf("Winning move failed: %v", err)
	}
	if update.Winner != engine.MarkX {
		t.Errorf("Expected X to win, got %q", update.Winner)
	}

	if _, err := m.Move("o", 5); !errors.Is(err, engine.ErrGameAlreadyWon) {
		t.Errorf("Expected ErrGameAlreadyWon, got %v", err)
	}

	info, _ := m.Get("12345")
	if info.Status != StatusWon {
		t.Errorf("Expected status %s, got %s", StatusWon, info.Status)
	}
}

func TestManager_Reset(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("12345")))
	m.Create("alice")
	m.Join("bob", "12345")
	m.Move("alice", 4)

	update, err := m.Reset("bob")
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if update.Board != (engine.Board{}) || !update.XNext || update.Winner != engine.NoMark {
		t.Errorf("Expected cleared board, got %+v", update)
	}

	info, _ := m.Get("12345")
	if info.Players != 2 {
		t.Errorf("Reset should keep seats, got %d players", info.Players)
	}

	if _, err := m.Reset("nobody"); !errors.Is(err, ErrNotSeated) {
		t.Errorf("Expected ErrNotSeated, got %v", err)
	}
}

func TestManager_Release(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("12345")))
	m.Create("alice")
	m.Join("bob", "12345")

	departure, ok := m.Release("alice")
	if !ok {
		t.Fatal("Expected alice to be released")
	}
	if departure.Code != "12345" || departure.Remaining != 1 || departure.Closed {
		t.Errorf("Unexpected departure %+v", departure)
	}

	departure, ok = m.Release("bob")
	if !ok || !departure.Closed {
		t.Errorf("Expected room to close, got %+v", departure)
	}
	if m.Count() != 0 {
		t.Errorf("Expected empty directory, got %d rooms", m.Count())
	}
	if m.Connections() != 0 {
		t.Errorf("Expected empty registry, got %d", m.Connections())
	}

	if _, ok := m.Release("bob"); ok {
		t.Error("Second release should be a no-op")
	}
}

func TestManager_List(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("22222", "11111")))
	m.Create("a")
	m.Create("b")
	m.Join("c", "22222")

	rooms := m.List()
	if len(rooms) != 2 {
		t.Fatalf("Expected 2 rooms, got %d", len(rooms))
	}

	byCode := map[string]RoomInfo{}
	for _, r := range rooms {
		byCode[r.Code] = r
	}
	if byCode["22222"].Status != StatusPlaying {
		t.Errorf("Expected 22222 playing, got %s", byCode["22222"].Status)
	}
	if byCode["11111"].Status != StatusWaiting {
		t.Errorf("Expected 11111 waiting, got %s", byCode["11111"].Status)
	}
}

// After n accepted moves the turn flag equals "n is even", whatever the
// rejected attempts in between.
func TestManager_TurnFlagParity(t *testing.T) {
	m := newTestManager(t, WithCodeGenerator(sequentialCodes("12345")))
	m.Create("x")
	m.Join("o", "12345")

	attempts := []struct {
		conn  string
		index int
	}{
		{"o", 0}, {"x", 0}, {"x", 1}, {"o", 0}, {"o", 1}, {"x", 9}, {"x", 8}, {"o", 4}, {"x", 4}, {"x", 2},
	}

	accepted := 0
	for _, a := range attempts {
		before, _ := m.Get("12345")
		update, err := m.Move(a.conn, a.index)
		after, _ := m.Get("12345")
		if err != nil {
			if before != after {
				t.Fatalf("Rejected move %+v mutated room", a)
			}
			continue
		}
		accepted++
		if update.XNext != (accepted%2 == 0) {
			t.Fatalf("After %d accepted moves expected XNext=%v", accepted, accepted%2 == 0)
		}
	}
	if accepted != 5 {
		t.Errorf("Expected 5 accepted moves, got %d", accepted)
	}
}
