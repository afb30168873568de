// Package service wires transport events to the game engines.
//
// The Coordinator is the root of the session core. It owns the room
// directory and the shared minefield, decodes inbound events, applies them to
// the engines and emits the resulting events through a Transport. Engines never
// talk to the transport themselves.
//
// Audiences:
//   - Room replies (roomCreated, joined, error) go to the requester only
//   - Room updates and player counts go to the room
//   - Minefield updates go to every connection
//   - Stroke segments go to everyone but the sender; clear goes to everyone
//
// Rejections:
//
// Unknown rooms and full rooms are reported to the requester with an error
// event. Every other rejection (wrong turn, occupied cell, decided game, out of
// bounds, already revealed, malformed payload) is dropped silently: no state
// change and no broadcast.
//
// Concurrency:
//
// The Coordinator is not safe for concurrent use. The websocket hub drives it
// from a single event loop, so each event runs to completion before the next.
package service
