// Package session provides the tic-tac-toe room directory.
//
// The session package implements:
//   - Collision-free fixed-width numeric room codes
//   - Seat assignment (X for the first seat, O for the second)
//   - Idempotent rejoin for a connection that already holds a seat
//   - Move and reset routing through the connection's current room
//   - Seat release on disconnect, deleting rooms that become empty
//
// Core Types:
//
// Manager owns every live Room and a Registry mapping connection ids to the
// room they occupy. The two are kept in lockstep: every registry entry has a
// matching seat and every seat has a registry entry. A connection that
// creates or joins a room while seated elsewhere is released from the old
// room first, and the resulting Departure is returned so the caller can
// notify the remaining occupant.
//
// Concurrency:
//
// Manager holds no locks. It is owned by the session coordinator, which is
// only ever driven from the transport's single event loop.
//
// Usage:
//
//	rooms, _ := session.NewManager()
//	seat, _, err := rooms.Create(connID)
//	seat, _, err = rooms.Join(otherID, seat.Code)
//	update, err := rooms.Move(connID, 4)
//	departure, ok := rooms.Release(otherID)
package session
